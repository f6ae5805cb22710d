package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/atlascrm/crm-system/internal/core/domain"
)

const collectionBindings = "supervisor_operators"

// BindingRepository persists supervisor→operator links.
type BindingRepository struct {
	col *mongo.Collection
}

func NewBindingRepository(db *mongo.Database) *BindingRepository {
	return &BindingRepository{col: db.Collection(collectionBindings)}
}

// Bind upserts the link so binding the same pair twice stays a single
// document.
func (r *BindingRepository) Bind(ctx context.Context, supervisorID, operatorID string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"supervisor_id": supervisorID, "operator_id": operatorID}
	update := bson.M{"$setOnInsert": domain.SupervisorOperatorBinding{
		SupervisorID: supervisorID,
		OperatorID:   operatorID,
		CreatedAt:    time.Now().UTC(),
	}}

	_, err := r.col.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

func (r *BindingRepository) CountOperators(ctx context.Context, supervisorID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	return r.col.CountDocuments(ctx, bson.M{"supervisor_id": supervisorID})
}

// EnsureIndexes creates the unique pair index.
func (r *BindingRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "supervisor_id", Value: 1}, {Key: "operator_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
