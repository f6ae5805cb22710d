package service

import (
	"context"
	"errors"
	"testing"

	"github.com/atlascrm/crm-system/internal/core/domain"
)

func newAnalyticsService(leads *stubLeadRepo, clients *stubClientRepo, products *stubProductRepo, claims *stubClaimRepo, users *stubUserRepo, bindings *stubBindingRepo) *AnalyticsService {
	return NewAnalyticsService(leads, clients, products, claims, users, bindings, discardLogger)
}

func emptyAnalyticsService() *AnalyticsService {
	return newAnalyticsService(newStubLeadRepo(), newStubClientRepo(), newStubProductRepo(), newStubClaimRepo(), newStubUserRepo(), newStubBindingRepo())
}

func TestAnalyticsService_AdminOnlyEverywhere(t *testing.T) {
	svc := emptyAnalyticsService()
	actor := supervisorActor("sup_1")

	if _, err := svc.LeadsByStatus(context.Background(), actor); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("LeadsByStatus: expected ErrForbidden, got %v", err)
	}
	if _, err := svc.ClientsTotal(context.Background(), actor); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("ClientsTotal: expected ErrForbidden, got %v", err)
	}
	if _, err := svc.Revenue(context.Background(), actor); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("Revenue: expected ErrForbidden, got %v", err)
	}
	if _, err := svc.ClaimsByStatus(context.Background(), actor); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("ClaimsByStatus: expected ErrForbidden, got %v", err)
	}
	if _, err := svc.SupervisorPerformance(context.Background(), actor); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("SupervisorPerformance: expected ErrForbidden, got %v", err)
	}
}

func TestAnalyticsService_LeadsByStatus(t *testing.T) {
	leads := newStubLeadRepo()
	leads.seed("lead_a", domain.LeadStatusNew, "")
	leads.seed("lead_b", domain.LeadStatusNew, "")
	leads.seed("lead_c", domain.LeadStatusConverted, "")
	svc := newAnalyticsService(leads, newStubClientRepo(), newStubProductRepo(), newStubClaimRepo(), newStubUserRepo(), newStubBindingRepo())

	got, err := svc.LeadsByStatus(context.Background(), adminActor())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Total != 3 {
		t.Errorf("total: want 3, got %d", got.Total)
	}
	if got.ByStatus[domain.LeadStatusNew] != 2 || got.ByStatus[domain.LeadStatusConverted] != 1 {
		t.Errorf("by-status counts wrong: %v", got.ByStatus)
	}
	if got.ByStatus[domain.LeadStatusLost] != 0 {
		t.Errorf("empty statuses must still be reported as zero, got %v", got.ByStatus)
	}
}

func TestAnalyticsService_Revenue_SumsPerBinding(t *testing.T) {
	products := newStubProductRepo()
	products.seed("product_p", "Seguro Básico", "insurance", 100)
	products.seed("product_q", "Plan Dental", "insurance", 50)

	clients := newStubClientRepo()
	a := clients.seed("client_a", "")
	a.Products = []domain.ClientProductBinding{
		{ID: "b1", ProductID: "product_p"},
		{ID: "b2", ProductID: "product_p"}, // same product twice counts twice
	}
	b := clients.seed("client_b", "")
	b.Products = []domain.ClientProductBinding{{ID: "b3", ProductID: "product_q"}}

	svc := newAnalyticsService(newStubLeadRepo(), clients, products, newStubClaimRepo(), newStubUserRepo(), newStubBindingRepo())

	got, err := svc.Revenue(context.Background(), adminActor())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Total != 250 {
		t.Errorf("total revenue: want 250, got %v", got.Total)
	}
	p := got.ByProduct["Seguro Básico"]
	if p.AssignedCount != 2 || p.Revenue != 200 {
		t.Errorf("Seguro Básico: want count 2 revenue 200, got %+v", p)
	}
	q := got.ByProduct["Plan Dental"]
	if q.AssignedCount != 1 || q.Revenue != 50 {
		t.Errorf("Plan Dental: want count 1 revenue 50, got %+v", q)
	}
}

func TestAnalyticsService_Revenue_DanglingBindingExcluded(t *testing.T) {
	products := newStubProductRepo()
	products.seed("product_p", "Seguro Básico", "insurance", 100)

	clients := newStubClientRepo()
	a := clients.seed("client_a", "")
	a.Products = []domain.ClientProductBinding{
		{ID: "b1", ProductID: "product_p"},
		{ID: "b2", ProductID: "deleted_product"},
	}

	svc := newAnalyticsService(newStubLeadRepo(), clients, products, newStubClaimRepo(), newStubUserRepo(), newStubBindingRepo())

	got, err := svc.Revenue(context.Background(), adminActor())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Total != 100 {
		t.Errorf("dangling binding must contribute nothing, want 100, got %v", got.Total)
	}
}

func TestAnalyticsService_ClaimsByStatus(t *testing.T) {
	claims := newStubClaimRepo()
	claims.seed("claim_a", "client_a", domain.ClaimStatusSubmitted)
	claims.seed("claim_b", "client_a", domain.ClaimStatusResolved)
	svc := newAnalyticsService(newStubLeadRepo(), newStubClientRepo(), newStubProductRepo(), claims, newStubUserRepo(), newStubBindingRepo())

	got, err := svc.ClaimsByStatus(context.Background(), adminActor())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Total != 2 {
		t.Errorf("total: want 2, got %d", got.Total)
	}
	if got.ByStatus[domain.ClaimStatusSubmitted] != 1 || got.ByStatus[domain.ClaimStatusResolved] != 1 {
		t.Errorf("by-status counts wrong: %v", got.ByStatus)
	}
	// Seeds are freshly created, so both fall inside the 30-day window.
	if got.Recent30d != 2 {
		t.Errorf("recent: want 2, got %d", got.Recent30d)
	}
}

func TestAnalyticsService_SupervisorPerformance(t *testing.T) {
	users := newStubUserRepo()
	users.seed("sup_1", "sonia", true, domain.RoleSupervisor)
	users.seed("sup_2", "silvia", true, domain.RoleSupervisor)
	users.seed("op_1", "pedro", true, domain.RoleOperator)

	bindings := newStubBindingRepo()
	_ = bindings.Bind(context.Background(), "sup_1", "op_1")

	claims := newStubClaimRepo()
	c1 := claims.seed("claim_a", "client_a", domain.ClaimStatusResolved)
	c1.AssignedSupervisorID = "sup_1"
	c2 := claims.seed("claim_b", "client_a", domain.ClaimStatusInReview)
	c2.AssignedSupervisorID = "sup_1"

	svc := newAnalyticsService(newStubLeadRepo(), newStubClientRepo(), newStubProductRepo(), claims, users, bindings)

	stats, err := svc.SupervisorPerformance(context.Background(), adminActor())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("expected stats for 2 supervisors, got %d", len(stats))
	}

	byID := make(map[string]struct {
		operators, total, resolved int64
		rate                       float64
	}, len(stats))
	for _, st := range stats {
		byID[st.SupervisorID] = struct {
			operators, total, resolved int64
			rate                       float64
		}{st.OperatorCount, st.TotalClaims, st.ResolvedClaims, st.ResolutionRate}
	}

	s1 := byID["sup_1"]
	if s1.operators != 1 || s1.total != 2 || s1.resolved != 1 || s1.rate != 50 {
		t.Errorf("sup_1 stats wrong: %+v", s1)
	}
	s2 := byID["sup_2"]
	if s2.total != 0 || s2.rate != 0 {
		t.Errorf("supervisor with no claims must report rate 0, got %+v", s2)
	}
}
