package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/atlascrm/crm-system/internal/core/domain"
	"github.com/atlascrm/crm-system/internal/core/ports"
)

// ClientService implements the client registry and product bindings.
type ClientService struct {
	clients  ports.ClientRepository
	products ports.ProductRepository
	activity ports.ActivityRecorder
	logger   zerolog.Logger
}

func NewClientService(clients ports.ClientRepository, products ports.ProductRepository, activity ports.ActivityRecorder, logger zerolog.Logger) *ClientService {
	return &ClientService{clients: clients, products: products, activity: activity, logger: logger}
}

// CreateClient creates a client profile directly. Admin only; lead
// conversion is the other creation path.
func (s *ClientService) CreateClient(ctx context.Context, actor domain.Actor, input ports.CreateClientInput) (*domain.Client, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}

	client := &domain.Client{
		FullName:  input.FullName,
		Email:     input.Email,
		Phone:     input.Phone,
		Address:   input.Address,
		UserID:    input.UserID,
		Products:  []domain.ClientProductBinding{},
		Comments:  []domain.Comment{},
		CreatedAt: time.Now().UTC(),
	}

	created, err := s.clients.Create(ctx, client)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to create client")
		return nil, err
	}

	s.logger.Info().Str("client_id", created.ID).Msg("client created")
	return created, nil
}

func (s *ClientService) GetClient(ctx context.Context, actor domain.Actor, id string) (*domain.Client, error) {
	return s.clients.FindByID(ctx, id)
}

func (s *ClientService) ListClients(ctx context.Context, actor domain.Actor, page, limit int) ([]*domain.Client, int64, error) {
	page, limit = normalizePage(page, limit)
	return s.clients.List(ctx, page, limit)
}

// AssignProduct binds a product to a client. Admin, supervisor, or
// operator. Bindings are append-only and duplicates are permitted; revenue
// is summed per binding, not per distinct product.
func (s *ClientService) AssignProduct(ctx context.Context, actor domain.Actor, clientID, productID string) (*domain.ClientProductBinding, error) {
	if !actor.IsAdmin() && !actor.IsSupervisor() && !actor.IsOperator() {
		return nil, domain.ErrForbidden
	}

	if _, err := s.clients.FindByID(ctx, clientID); err != nil {
		return nil, err
	}
	if _, err := s.products.FindByID(ctx, productID); err != nil {
		return nil, err
	}

	binding := domain.ClientProductBinding{
		ID:         uuid.NewString(),
		ProductID:  productID,
		AssignedAt: time.Now().UTC(),
	}
	if err := s.clients.AppendBinding(ctx, clientID, binding); err != nil {
		return nil, err
	}

	if s.activity != nil {
		s.activity.Record(domain.ActivityEntry{
			ActorID:    actor.UserID,
			EntityType: "client",
			EntityID:   clientID,
			Action:     "product_assigned",
			Detail:     productID,
			OccurredAt: time.Now().UTC(),
		})
	}

	s.logger.Info().Str("client_id", clientID).Str("product_id", productID).Msg("product assigned")
	return &binding, nil
}

// AddComment appends a comment; any authenticated caller with client
// visibility may comment.
func (s *ClientService) AddComment(ctx context.Context, actor domain.Actor, clientID, body string) (*domain.Comment, error) {
	if _, err := s.clients.FindByID(ctx, clientID); err != nil {
		return nil, err
	}

	comment := domain.Comment{
		ID:        uuid.NewString(),
		AuthorID:  actor.UserID,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.clients.AppendComment(ctx, clientID, comment); err != nil {
		return nil, err
	}
	return &comment, nil
}
