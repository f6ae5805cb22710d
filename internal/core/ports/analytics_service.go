package ports

import (
	"context"

	"github.com/atlascrm/crm-system/internal/core/domain"
)

// LeadsAnalytics is the rollup of leads by status.
type LeadsAnalytics struct {
	Total    int64
	ByStatus map[domain.LeadStatus]int64
}

// ClientsAnalytics counts registered clients.
type ClientsAnalytics struct {
	Total     int64
	Recent30d int64
}

// ProductRevenue is the revenue contribution of one product.
type ProductRevenue struct {
	ProductID     string
	Type          string
	Price         float64
	AssignedCount int64
	Revenue       float64
}

// RevenueAnalytics sums revenue over every client-product binding. Bindings
// whose product no longer exists are excluded.
type RevenueAnalytics struct {
	Total     float64
	ByProduct map[string]ProductRevenue // keyed by product name
}

// ClaimsAnalytics is the rollup of claims by status.
type ClaimsAnalytics struct {
	Total     int64
	ByStatus  map[domain.ClaimStatus]int64
	Recent30d int64
}

// SupervisorStats captures one supervisor's workload and outcomes.
type SupervisorStats struct {
	SupervisorID   string
	Username       string
	OperatorCount  int64
	TotalClaims    int64
	ResolvedClaims int64
	ResolutionRate float64 // percentage, 0 when no claims
}

// AnalyticsService computes read-only rollups over current state. It never
// mutates anything; all operations require the admin role.
type AnalyticsService interface {
	LeadsByStatus(ctx context.Context, actor domain.Actor) (*LeadsAnalytics, error)
	ClientsTotal(ctx context.Context, actor domain.Actor) (*ClientsAnalytics, error)
	Revenue(ctx context.Context, actor domain.Actor) (*RevenueAnalytics, error)
	ClaimsByStatus(ctx context.Context, actor domain.Actor) (*ClaimsAnalytics, error)
	SupervisorPerformance(ctx context.Context, actor domain.Actor) ([]SupervisorStats, error)
}

// ActivityRecorder accepts audit entries for asynchronous persistence.
// Record never blocks the calling operation.
type ActivityRecorder interface {
	Record(entry domain.ActivityEntry)
}

// ActivityRepository persists audit entries.
type ActivityRepository interface {
	Insert(ctx context.Context, entry *domain.ActivityEntry) error
}
