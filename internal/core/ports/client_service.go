package ports

import (
	"context"

	"github.com/atlascrm/crm-system/internal/core/domain"
)

// CreateClientInput carries the fields for a directly-created client.
type CreateClientInput struct {
	FullName string
	Email    string
	Phone    string
	Address  string
	UserID   string
}

// ClientService defines registry operations for clients.
type ClientService interface {
	// CreateClient: admin only. Lead conversion creates clients through the
	// lead service, not here.
	CreateClient(ctx context.Context, actor domain.Actor, input CreateClientInput) (*domain.Client, error)
	GetClient(ctx context.Context, actor domain.Actor, id string) (*domain.Client, error)
	ListClients(ctx context.Context, actor domain.Actor, page, limit int) ([]*domain.Client, int64, error)
	// AssignProduct: admin, supervisor, or operator. Duplicate bindings of
	// the same product are permitted; revenue sums per binding.
	AssignProduct(ctx context.Context, actor domain.Actor, clientID, productID string) (*domain.ClientProductBinding, error)
	AddComment(ctx context.Context, actor domain.Actor, clientID, body string) (*domain.Comment, error)
}

// CreateProductInput carries the fields for a new catalog item.
type CreateProductInput struct {
	Name        string
	Type        string
	Description string
	Price       float64
}

// UpdateProductInput patches a product; nil fields are unchanged.
type UpdateProductInput struct {
	Name        *string
	Type        *string
	Description *string
	Price       *float64
}

// ProductService defines catalog operations. All mutations are admin-only.
type ProductService interface {
	CreateProduct(ctx context.Context, actor domain.Actor, input CreateProductInput) (*domain.Product, error)
	GetProduct(ctx context.Context, actor domain.Actor, id string) (*domain.Product, error)
	ListProducts(ctx context.Context, actor domain.Actor, page, limit int) ([]*domain.Product, int64, error)
	UpdateProduct(ctx context.Context, actor domain.Actor, id string, input UpdateProductInput) (*domain.Product, error)
	// DeleteProduct tolerates existing bindings; they dangle and analytics
	// degrades by excluding them.
	DeleteProduct(ctx context.Context, actor domain.Actor, id string) error
}
