package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/atlascrm/crm-system/internal/core/domain"
	"github.com/atlascrm/crm-system/internal/core/ports"
)

const collectionClaims = "claims"

// ClaimRepository persists claims in MongoDB.
type ClaimRepository struct {
	col *mongo.Collection
}

func NewClaimRepository(db *mongo.Database) *ClaimRepository {
	return &ClaimRepository{col: db.Collection(collectionClaims)}
}

func (r *ClaimRepository) Create(ctx context.Context, claim *domain.Claim) (*domain.Claim, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if claim.ID == "" {
		claim.ID = primitive.NewObjectID().Hex()
	}
	if claim.Comments == nil {
		claim.Comments = []domain.Comment{}
	}
	if claim.Files == nil {
		claim.Files = []domain.FileRef{}
	}

	if _, err := r.col.InsertOne(ctx, claim); err != nil {
		return nil, err
	}
	return claim, nil
}

func (r *ClaimRepository) FindByID(ctx context.Context, id string) (*domain.Claim, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var cl domain.Claim
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&cl); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrClaimNotFound
		}
		return nil, err
	}
	return &cl, nil
}

func (r *ClaimRepository) List(ctx context.Context, filter ports.ListClaimsFilter) ([]*domain.Claim, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := bson.M{}
	if filter.ClientID != "" {
		query["client_id"] = filter.ClientID
	}
	if filter.OperatorID != "" {
		query["assigned_operator_id"] = filter.OperatorID
	}
	if filter.SupervisorID != "" {
		query["assigned_supervisor_id"] = filter.SupervisorID
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}

	total, err := r.col.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64((filter.Page - 1) * filter.Limit)).
		SetLimit(int64(filter.Limit))

	cur, err := r.col.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	var claims []*domain.Claim
	if err := cur.All(ctx, &claims); err != nil {
		return nil, 0, err
	}
	return claims, total, nil
}

// UpdateFields patches descriptive fields, returning the updated claim.
func (r *ClaimRepository) UpdateFields(ctx context.Context, id string, patch ports.ClaimFieldPatch) (*domain.Claim, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	set := bson.M{"updated_at": time.Now().UTC()}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}

	var cl domain.Claim
	err := r.col.FindOneAndUpdate(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&cl)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrClaimNotFound
		}
		return nil, err
	}
	return &cl, nil
}

// UpdateStatus performs a compare-and-set on the claim's status; see
// LeadRepository.UpdateStatus for the race semantics.
func (r *ClaimRepository) UpdateStatus(ctx context.Context, id string, from, to domain.ClaimStatus) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(
		ctx,
		bson.M{"_id": id, "status": from},
		bson.M{"$set": bson.M{"status": to, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		exists, err := r.col.CountDocuments(ctx, bson.M{"_id": id})
		if err != nil {
			return err
		}
		if exists == 0 {
			return domain.ErrClaimNotFound
		}
		return domain.ErrConcurrentUpdate
	}
	return nil
}

func (r *ClaimRepository) SetOperator(ctx context.Context, id, operatorID string) error {
	return r.setField(ctx, id, "assigned_operator_id", operatorID)
}

func (r *ClaimRepository) SetSupervisor(ctx context.Context, id, supervisorID string) error {
	return r.setField(ctx, id, "assigned_supervisor_id", supervisorID)
}

func (r *ClaimRepository) setField(ctx context.Context, id, field, value string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{field: value, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrClaimNotFound
	}
	return nil
}

func (r *ClaimRepository) AppendComment(ctx context.Context, id string, comment domain.Comment) error {
	return r.push(ctx, id, "comments", comment)
}

func (r *ClaimRepository) AppendFile(ctx context.Context, id string, file domain.FileRef) error {
	return r.push(ctx, id, "files", file)
}

func (r *ClaimRepository) push(ctx context.Context, id, field string, value any) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{
			"$push": bson.M{field: value},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrClaimNotFound
	}
	return nil
}

func (r *ClaimRepository) CountByStatus(ctx context.Context, status domain.ClaimStatus) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	return r.col.CountDocuments(ctx, bson.M{"status": status})
}

func (r *ClaimRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	return r.col.CountDocuments(ctx, bson.M{})
}

func (r *ClaimRepository) CountCreatedSince(ctx context.Context, since time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	return r.col.CountDocuments(ctx, bson.M{"created_at": bson.M{"$gte": since}})
}

func (r *ClaimRepository) CountForSupervisor(ctx context.Context, supervisorID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	return r.col.CountDocuments(ctx, bson.M{"assigned_supervisor_id": supervisorID})
}

func (r *ClaimRepository) CountResolvedForSupervisor(ctx context.Context, supervisorID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	return r.col.CountDocuments(ctx, bson.M{
		"assigned_supervisor_id": supervisorID,
		"status":                 domain.ClaimStatusResolved,
	})
}

// EnsureIndexes creates indexes for the scoped list filters and rollups.
func (r *ClaimRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "client_id", Value: 1}}},
		{Keys: bson.D{{Key: "assigned_operator_id", Value: 1}}},
		{Keys: bson.D{{Key: "assigned_supervisor_id", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
