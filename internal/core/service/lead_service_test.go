package service

import (
	"context"
	"errors"
	"testing"

	"github.com/atlascrm/crm-system/internal/core/domain"
	"github.com/atlascrm/crm-system/internal/core/ports"
)

func newLeadService(leads *stubLeadRepo, clients *stubClientRepo, users *stubUserRepo, locker *stubLocker) *LeadService {
	return NewLeadService(leads, clients, users, locker, &stubActivity{}, discardLogger)
}

// ---------------------------------------------------------------------------
// CreateLead
// ---------------------------------------------------------------------------

func TestLeadService_Create_ForcesStatusNew(t *testing.T) {
	leads := newStubLeadRepo()
	svc := newLeadService(leads, newStubClientRepo(), newStubUserRepo(), newStubLocker())

	lead, err := svc.CreateLead(context.Background(), operatorActor("op_1"), ports.CreateLeadInput{
		FirstName: "Ana",
		LastName:  "López",
		Email:     "ana@example.com",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lead.Status != domain.LeadStatusNew {
		t.Errorf("new leads must start in %q, got %q", domain.LeadStatusNew, lead.Status)
	}
}

func TestLeadService_Create_SupervisorAndClientForbidden(t *testing.T) {
	svc := newLeadService(newStubLeadRepo(), newStubClientRepo(), newStubUserRepo(), newStubLocker())

	for _, actor := range []domain.Actor{supervisorActor("sup_1"), clientActor("cli_1")} {
		_, err := svc.CreateLead(context.Background(), actor, ports.CreateLeadInput{FirstName: "Ana"})
		if !errors.Is(err, domain.ErrForbidden) {
			t.Errorf("actor %v: expected ErrForbidden, got %v", actor.Roles, err)
		}
	}
}

// ---------------------------------------------------------------------------
// Visibility and listing
// ---------------------------------------------------------------------------

func TestLeadService_Get_OperatorScopedToOwn(t *testing.T) {
	leads := newStubLeadRepo()
	leads.seed("lead_a", domain.LeadStatusNew, "op_1")
	svc := newLeadService(leads, newStubClientRepo(), newStubUserRepo(), newStubLocker())

	if _, err := svc.GetLead(context.Background(), operatorActor("op_1"), "lead_a"); err != nil {
		t.Errorf("assigned operator must see own lead, got %v", err)
	}
	if _, err := svc.GetLead(context.Background(), operatorActor("op_2"), "lead_a"); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("other operator: expected ErrForbidden, got %v", err)
	}
	if _, err := svc.GetLead(context.Background(), supervisorActor("sup_1"), "lead_a"); err != nil {
		t.Errorf("supervisor must see any lead, got %v", err)
	}
}

func TestLeadService_List_OperatorAlwaysSelfScoped(t *testing.T) {
	leads := newStubLeadRepo()
	leads.seed("lead_a", domain.LeadStatusNew, "op_1")
	leads.seed("lead_b", domain.LeadStatusNew, "op_2")
	svc := newLeadService(leads, newStubClientRepo(), newStubUserRepo(), newStubLocker())

	got, total, err := svc.ListLeads(context.Background(), operatorActor("op_1"), ports.ListLeadsInput{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 1 || got[0].AssignedOperatorID != "op_1" {
		t.Errorf("operator must only see own leads, got %d", total)
	}

	// Asking for someone else's slice is refused outright.
	_, _, err = svc.ListLeads(context.Background(), operatorActor("op_1"), ports.ListLeadsInput{OperatorID: "op_2"})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// UpdateLead: transitions and field access
// ---------------------------------------------------------------------------

func TestLeadService_Update_OperatorSkipsContactedStage(t *testing.T) {
	leads := newStubLeadRepo()
	leads.seed("lead_a", domain.LeadStatusNew, "op_1")
	svc := newLeadService(leads, newStubClientRepo(), newStubUserRepo(), newStubLocker())

	status := domain.LeadStatusQualified
	updated, err := svc.UpdateLead(context.Background(), operatorActor("op_1"), "lead_a", ports.UpdateLeadInput{Status: &status})
	if err != nil {
		t.Fatalf("new → qualified must be allowed: %v", err)
	}
	if updated.Status != domain.LeadStatusQualified {
		t.Errorf("expected qualified, got %q", updated.Status)
	}
}

func TestLeadService_Update_BackwardTransitionRejected(t *testing.T) {
	leads := newStubLeadRepo()
	leads.seed("lead_a", domain.LeadStatusQualified, "op_1")
	svc := newLeadService(leads, newStubClientRepo(), newStubUserRepo(), newStubLocker())

	status := domain.LeadStatusContacted
	_, err := svc.UpdateLead(context.Background(), operatorActor("op_1"), "lead_a", ports.UpdateLeadInput{Status: &status})
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("qualified → contacted: expected ErrInvalidTransition, got %v", err)
	}
}

func TestLeadService_Update_ConvertedStatusBlockedHere(t *testing.T) {
	leads := newStubLeadRepo()
	leads.seed("lead_a", domain.LeadStatusQualified, "op_1")
	svc := newLeadService(leads, newStubClientRepo(), newStubUserRepo(), newStubLocker())

	status := domain.LeadStatusConverted
	_, err := svc.UpdateLead(context.Background(), adminActor(), "lead_a", ports.UpdateLeadInput{Status: &status})
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("status update to converted must be refused, got %v", err)
	}
}

func TestLeadService_Update_OperatorCannotTouchContactFields(t *testing.T) {
	leads := newStubLeadRepo()
	leads.seed("lead_a", domain.LeadStatusNew, "op_1")
	svc := newLeadService(leads, newStubClientRepo(), newStubUserRepo(), newStubLocker())

	email := "changed@example.com"
	_, err := svc.UpdateLead(context.Background(), operatorActor("op_1"), "lead_a", ports.UpdateLeadInput{Email: &email})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("operator contact edit: expected ErrForbidden, got %v", err)
	}

	// Admin may patch the same field.
	updated, err := svc.UpdateLead(context.Background(), adminActor(), "lead_a", ports.UpdateLeadInput{Email: &email})
	if err != nil {
		t.Fatalf("admin patch failed: %v", err)
	}
	if updated.Email != email {
		t.Errorf("email not applied: %q", updated.Email)
	}
}

func TestLeadService_Update_StatusAndFieldsLandTogether(t *testing.T) {
	leads := newStubLeadRepo()
	leads.seed("lead_a", domain.LeadStatusNew, "op_1")
	svc := newLeadService(leads, newStubClientRepo(), newStubUserRepo(), newStubLocker())

	status := domain.LeadStatusContacted
	email := "changed@example.com"
	updated, err := svc.UpdateLead(context.Background(), adminActor(), "lead_a", ports.UpdateLeadInput{
		Status: &status,
		Email:  &email,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != domain.LeadStatusContacted || updated.Email != email {
		t.Errorf("status and fields must both apply: %+v", updated)
	}
	// One document write: a failure can never apply the transition and
	// drop the patch.
	if leads.writes != 1 {
		t.Errorf("expected a single repository write, got %d", leads.writes)
	}
}

func TestLeadService_Update_UnassignedOperatorForbidden(t *testing.T) {
	leads := newStubLeadRepo()
	leads.seed("lead_a", domain.LeadStatusNew, "op_1")
	svc := newLeadService(leads, newStubClientRepo(), newStubUserRepo(), newStubLocker())

	status := domain.LeadStatusContacted
	_, err := svc.UpdateLead(context.Background(), operatorActor("op_2"), "lead_a", ports.UpdateLeadInput{Status: &status})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// AssignOperator
// ---------------------------------------------------------------------------

func TestLeadService_AssignOperator_TargetMustBeOperator(t *testing.T) {
	leads := newStubLeadRepo()
	leads.seed("lead_a", domain.LeadStatusNew, "")
	users := newStubUserRepo()
	users.seed("op_1", "pedro", true, domain.RoleOperator)
	users.seed("cli_1", "carla", true, domain.RoleClient)
	svc := newLeadService(leads, newStubClientRepo(), users, newStubLocker())

	if _, err := svc.AssignOperator(context.Background(), supervisorActor("sup_1"), "lead_a", "cli_1"); !errors.Is(err, domain.ErrInvalidAssignee) {
		t.Errorf("client target: expected ErrInvalidAssignee, got %v", err)
	}

	updated, err := svc.AssignOperator(context.Background(), supervisorActor("sup_1"), "lead_a", "op_1")
	if err != nil {
		t.Fatalf("valid assignment failed: %v", err)
	}
	if updated.AssignedOperatorID != "op_1" {
		t.Errorf("expected op_1 assigned, got %q", updated.AssignedOperatorID)
	}
}

func TestLeadService_AssignOperator_OperatorForbidden(t *testing.T) {
	leads := newStubLeadRepo()
	leads.seed("lead_a", domain.LeadStatusNew, "")
	svc := newLeadService(leads, newStubClientRepo(), newStubUserRepo(), newStubLocker())

	_, err := svc.AssignOperator(context.Background(), operatorActor("op_1"), "lead_a", "op_1")
	if !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// ConvertToClient
// ---------------------------------------------------------------------------

func TestLeadService_Convert_CreatesClientFromContactFields(t *testing.T) {
	leads := newStubLeadRepo()
	lead := leads.seed("lead_a", domain.LeadStatusQualified, "op_1")
	clients := newStubClientRepo()
	locker := newStubLocker()
	svc := newLeadService(leads, clients, newStubUserRepo(), locker)

	result, err := svc.ConvertToClient(context.Background(), operatorActor("op_1"), "lead_a")
	if err != nil {
		t.Fatalf("conversion failed: %v", err)
	}

	stored := clients.clients[result.ClientID]
	if stored == nil {
		t.Fatal("client must exist after conversion")
	}
	if stored.FullName != "Ana López" {
		t.Errorf("full name: want %q, got %q", "Ana López", stored.FullName)
	}
	if stored.Email != lead.Email || stored.Phone != lead.Phone {
		t.Error("client must inherit the lead's contact fields")
	}
	if leads.leads["lead_a"].Status != domain.LeadStatusConverted {
		t.Errorf("lead must be converted, got %q", leads.leads["lead_a"].Status)
	}
	if locker.released != locker.acquired {
		t.Error("conversion lock must be released")
	}
}

func TestLeadService_Convert_ReplayFailsWithoutSecondClient(t *testing.T) {
	leads := newStubLeadRepo()
	leads.seed("lead_a", domain.LeadStatusQualified, "op_1")
	clients := newStubClientRepo()
	svc := newLeadService(leads, clients, newStubUserRepo(), newStubLocker())

	if _, err := svc.ConvertToClient(context.Background(), operatorActor("op_1"), "lead_a"); err != nil {
		t.Fatalf("first conversion failed: %v", err)
	}

	_, err := svc.ConvertToClient(context.Background(), operatorActor("op_1"), "lead_a")
	if !errors.Is(err, domain.ErrAlreadyConverted) {
		t.Errorf("replay: expected ErrAlreadyConverted, got %v", err)
	}
	if len(clients.clients) != 1 {
		t.Errorf("replay must not create a second client, got %d", len(clients.clients))
	}
}

func TestLeadService_Convert_LockContention(t *testing.T) {
	leads := newStubLeadRepo()
	leads.seed("lead_a", domain.LeadStatusQualified, "op_1")
	locker := newStubLocker()
	locker.denyAll = true
	svc := newLeadService(leads, newStubClientRepo(), newStubUserRepo(), locker)

	_, err := svc.ConvertToClient(context.Background(), operatorActor("op_1"), "lead_a")
	if !errors.Is(err, domain.ErrConcurrentUpdate) {
		t.Errorf("lock denied: expected ErrConcurrentUpdate, got %v", err)
	}
}

func TestLeadService_Convert_LostLeadRejected(t *testing.T) {
	leads := newStubLeadRepo()
	leads.seed("lead_a", domain.LeadStatusLost, "op_1")
	svc := newLeadService(leads, newStubClientRepo(), newStubUserRepo(), newStubLocker())

	_, err := svc.ConvertToClient(context.Background(), adminActor(), "lead_a")
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("lost lead: expected ErrInvalidTransition, got %v", err)
	}
}

func TestLeadService_Convert_UnassignedOperatorForbidden(t *testing.T) {
	leads := newStubLeadRepo()
	leads.seed("lead_a", domain.LeadStatusQualified, "op_1")
	svc := newLeadService(leads, newStubClientRepo(), newStubUserRepo(), newStubLocker())

	_, err := svc.ConvertToClient(context.Background(), operatorActor("op_2"), "lead_a")
	if !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// DeleteLead / AddComment
// ---------------------------------------------------------------------------

func TestLeadService_Delete_ConvertedLeadsAreHistory(t *testing.T) {
	leads := newStubLeadRepo()
	leads.seed("lead_a", domain.LeadStatusConverted, "op_1")
	svc := newLeadService(leads, newStubClientRepo(), newStubUserRepo(), newStubLocker())

	err := svc.DeleteLead(context.Background(), adminActor(), "lead_a")
	if !errors.Is(err, domain.ErrInvalidState) {
		t.Errorf("deleting converted lead: expected ErrInvalidState, got %v", err)
	}
}

func TestLeadService_Delete_AdminOnly(t *testing.T) {
	leads := newStubLeadRepo()
	leads.seed("lead_a", domain.LeadStatusNew, "op_1")
	svc := newLeadService(leads, newStubClientRepo(), newStubUserRepo(), newStubLocker())

	if err := svc.DeleteLead(context.Background(), operatorActor("op_1"), "lead_a"); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("operator delete: expected ErrForbidden, got %v", err)
	}
	if err := svc.DeleteLead(context.Background(), adminActor(), "lead_a"); err != nil {
		t.Fatalf("admin delete failed: %v", err)
	}
	if _, ok := leads.leads["lead_a"]; ok {
		t.Error("lead must be gone after delete")
	}
}

func TestLeadService_AddComment_AppendsForAssignedOperator(t *testing.T) {
	leads := newStubLeadRepo()
	leads.seed("lead_a", domain.LeadStatusNew, "op_1")
	svc := newLeadService(leads, newStubClientRepo(), newStubUserRepo(), newStubLocker())

	comment, err := svc.AddComment(context.Background(), operatorActor("op_1"), "lead_a", "called, no answer")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if comment.AuthorID != "op_1" || comment.ID == "" {
		t.Errorf("comment metadata wrong: %+v", comment)
	}
	if len(leads.leads["lead_a"].Comments) != 1 {
		t.Error("comment must be appended to the lead")
	}

	if _, err := svc.AddComment(context.Background(), operatorActor("op_2"), "lead_a", "x"); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("unassigned operator comment: expected ErrForbidden, got %v", err)
	}
}

func TestLeadService_RecordsActivity(t *testing.T) {
	leads := newStubLeadRepo()
	activity := &stubActivity{}
	svc := NewLeadService(leads, newStubClientRepo(), newStubUserRepo(), newStubLocker(), activity, discardLogger)

	_, err := svc.CreateLead(context.Background(), adminActor(), ports.CreateLeadInput{FirstName: "Ana"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(activity.entries) != 1 || activity.entries[0].Action != "created" {
		t.Errorf("expected one 'created' activity entry, got %+v", activity.entries)
	}
}
