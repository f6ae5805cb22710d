package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/atlascrm/crm-system/internal/core/domain"
	"github.com/atlascrm/crm-system/internal/core/ports"
)

// AnalyticsService computes read-only rollups over current state. Every
// method requires the admin role and mutates nothing.
type AnalyticsService struct {
	leads    ports.LeadRepository
	clients  ports.ClientRepository
	products ports.ProductRepository
	claims   ports.ClaimRepository
	users    ports.UserRepository
	bindings ports.BindingRepository
	logger   zerolog.Logger
}

func NewAnalyticsService(
	leads ports.LeadRepository,
	clients ports.ClientRepository,
	products ports.ProductRepository,
	claims ports.ClaimRepository,
	users ports.UserRepository,
	bindings ports.BindingRepository,
	logger zerolog.Logger,
) *AnalyticsService {
	return &AnalyticsService{
		leads:    leads,
		clients:  clients,
		products: products,
		claims:   claims,
		users:    users,
		bindings: bindings,
		logger:   logger,
	}
}

func (s *AnalyticsService) LeadsByStatus(ctx context.Context, actor domain.Actor) (*ports.LeadsAnalytics, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}

	total, err := s.leads.Count(ctx)
	if err != nil {
		return nil, err
	}

	byStatus := make(map[domain.LeadStatus]int64, len(domain.LeadStatuses()))
	for _, status := range domain.LeadStatuses() {
		n, err := s.leads.CountByStatus(ctx, status)
		if err != nil {
			return nil, err
		}
		byStatus[status] = n
	}

	return &ports.LeadsAnalytics{Total: total, ByStatus: byStatus}, nil
}

func (s *AnalyticsService) ClientsTotal(ctx context.Context, actor domain.Actor) (*ports.ClientsAnalytics, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}

	total, err := s.clients.Count(ctx)
	if err != nil {
		return nil, err
	}
	recent, err := s.clients.CountCreatedSince(ctx, time.Now().UTC().AddDate(0, 0, -30))
	if err != nil {
		return nil, err
	}

	return &ports.ClientsAnalytics{Total: total, Recent30d: recent}, nil
}

// Revenue sums product price over every client-product binding. A binding
// whose product has been deleted contributes nothing: it is excluded from
// both the per-product groups and the total.
func (s *AnalyticsService) Revenue(ctx context.Context, actor domain.Actor) (*ports.RevenueAnalytics, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}

	products, err := s.products.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	bindings, err := s.clients.ListAllBindings(ctx)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64)
	dangling := 0
	for _, b := range bindings {
		if _, ok := byID[b.ProductID]; !ok {
			dangling++
			continue
		}
		counts[b.ProductID]++
	}
	if dangling > 0 {
		s.logger.Warn().Int("bindings", dangling).Msg("bindings reference deleted products, excluded from revenue")
	}

	result := &ports.RevenueAnalytics{ByProduct: make(map[string]ports.ProductRevenue, len(products))}
	for _, p := range products {
		n := counts[p.ID]
		revenue := p.Price * float64(n)
		result.ByProduct[p.Name] = ports.ProductRevenue{
			ProductID:     p.ID,
			Type:          p.Type,
			Price:         p.Price,
			AssignedCount: n,
			Revenue:       revenue,
		}
		result.Total += revenue
	}

	return result, nil
}

func (s *AnalyticsService) ClaimsByStatus(ctx context.Context, actor domain.Actor) (*ports.ClaimsAnalytics, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}

	total, err := s.claims.Count(ctx)
	if err != nil {
		return nil, err
	}

	byStatus := make(map[domain.ClaimStatus]int64, len(domain.ClaimStatuses()))
	for _, status := range domain.ClaimStatuses() {
		n, err := s.claims.CountByStatus(ctx, status)
		if err != nil {
			return nil, err
		}
		byStatus[status] = n
	}

	recent, err := s.claims.CountCreatedSince(ctx, time.Now().UTC().AddDate(0, 0, -30))
	if err != nil {
		return nil, err
	}

	return &ports.ClaimsAnalytics{Total: total, ByStatus: byStatus, Recent30d: recent}, nil
}

// SupervisorPerformance reports, per supervisor: bound operators, claims
// assigned to them, and the resolved fraction.
func (s *AnalyticsService) SupervisorPerformance(ctx context.Context, actor domain.Actor) ([]ports.SupervisorStats, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}

	supervisors, err := s.users.ListByRole(ctx, domain.RoleSupervisor)
	if err != nil {
		return nil, err
	}

	stats := make([]ports.SupervisorStats, 0, len(supervisors))
	for _, sup := range supervisors {
		operators, err := s.bindings.CountOperators(ctx, sup.ID)
		if err != nil {
			return nil, err
		}
		total, err := s.claims.CountForSupervisor(ctx, sup.ID)
		if err != nil {
			return nil, err
		}
		resolved, err := s.claims.CountResolvedForSupervisor(ctx, sup.ID)
		if err != nil {
			return nil, err
		}

		rate := 0.0
		if total > 0 {
			rate = float64(resolved) / float64(total) * 100
		}

		stats = append(stats, ports.SupervisorStats{
			SupervisorID:   sup.ID,
			Username:       sup.Username,
			OperatorCount:  operators,
			TotalClaims:    total,
			ResolvedClaims: resolved,
			ResolutionRate: rate,
		})
	}

	return stats, nil
}
