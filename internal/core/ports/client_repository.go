package ports

import (
	"context"
	"time"

	"github.com/atlascrm/crm-system/internal/core/domain"
)

// ClientRepository defines persistence for the client registry. Clients are
// never deleted.
type ClientRepository interface {
	Create(ctx context.Context, client *domain.Client) (*domain.Client, error)
	FindByID(ctx context.Context, id string) (*domain.Client, error)
	// FindByUserID resolves the client profile linked to a user account.
	FindByUserID(ctx context.Context, userID string) (*domain.Client, error)
	List(ctx context.Context, page, limit int) ([]*domain.Client, int64, error)
	AppendBinding(ctx context.Context, id string, binding domain.ClientProductBinding) error
	AppendComment(ctx context.Context, id string, comment domain.Comment) error
	Count(ctx context.Context) (int64, error)
	CountCreatedSince(ctx context.Context, since time.Time) (int64, error)
	// ListAllBindings returns every product binding across all clients,
	// for revenue aggregation.
	ListAllBindings(ctx context.Context) ([]domain.ClientProductBinding, error)
}

// ProductRepository defines persistence for the product catalog.
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) (*domain.Product, error)
	FindByID(ctx context.Context, id string) (*domain.Product, error)
	List(ctx context.Context, page, limit int) ([]*domain.Product, int64, error)
	// ListAll returns the whole catalog, for revenue aggregation.
	ListAll(ctx context.Context) ([]*domain.Product, error)
	Update(ctx context.Context, product *domain.Product) (*domain.Product, error)
	Delete(ctx context.Context, id string) error
}
