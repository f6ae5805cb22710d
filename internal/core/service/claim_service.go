package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/atlascrm/crm-system/internal/api/metrics"
	"github.com/atlascrm/crm-system/internal/core/domain"
	"github.com/atlascrm/crm-system/internal/core/ports"
)

// ClaimService implements the claim lifecycle: submission, the
// submitted→in_review→resolved machine with the admin/supervisor reopen
// edge, dual assignment, file attachments, and comments.
type ClaimService struct {
	claims   ports.ClaimRepository
	clients  ports.ClientRepository
	users    ports.UserRepository
	files    ports.FileStore
	activity ports.ActivityRecorder
	logger   zerolog.Logger
}

func NewClaimService(
	claims ports.ClaimRepository,
	clients ports.ClientRepository,
	users ports.UserRepository,
	files ports.FileStore,
	activity ports.ActivityRecorder,
	logger zerolog.Logger,
) *ClaimService {
	return &ClaimService{
		claims:   claims,
		clients:  clients,
		users:    users,
		files:    files,
		activity: activity,
		logger:   logger,
	}
}

// CreateClaim creates a claim with status forced to "submitted". A client
// may only file against their own client profile; admins against any.
func (s *ClaimService) CreateClaim(ctx context.Context, actor domain.Actor, input ports.CreateClaimInput) (*domain.Claim, error) {
	if !actor.IsAdmin() {
		if !actor.IsClient() {
			return nil, domain.ErrForbidden
		}
		own, err := s.clients.FindByUserID(ctx, actor.UserID)
		if err != nil || own.ID != input.ClientID {
			return nil, fmt.Errorf("create claim: %w: not your client profile", domain.ErrForbidden)
		}
	} else {
		if _, err := s.clients.FindByID(ctx, input.ClientID); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	claim := &domain.Claim{
		ClientID:    input.ClientID,
		Description: input.Description,
		Status:      domain.ClaimStatusSubmitted,
		Files:       []domain.FileRef{},
		Comments:    []domain.Comment{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	created, err := s.claims.Create(ctx, claim)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to create claim")
		return nil, err
	}

	metrics.ClaimsCreatedTotal.Inc()
	s.record(actor, "claim", created.ID, "created", "")
	s.logger.Info().Str("claim_id", created.ID).Str("client_id", created.ClientID).Msg("claim created")
	return created, nil
}

func (s *ClaimService) GetClaim(ctx context.Context, actor domain.Actor, id string) (*domain.Claim, error) {
	claim, err := s.claims.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.canView(ctx, actor, claim) {
		return nil, domain.ErrForbidden
	}
	return claim, nil
}

// ListClaims scopes the query to the caller: operators see claims assigned
// to them, supervisors claims they supervise, clients their own, admins all.
func (s *ClaimService) ListClaims(ctx context.Context, actor domain.Actor, input ports.ListClaimsInput) ([]*domain.Claim, int64, error) {
	filter := ports.ListClaimsFilter{
		ClientID:     input.ClientID,
		OperatorID:   input.OperatorID,
		SupervisorID: input.SupervisorID,
		Status:       input.Status,
	}

	switch {
	case actor.IsAdmin():
		// no forced scoping
	case actor.IsSupervisor():
		filter.SupervisorID = actor.UserID
	case actor.IsOperator():
		filter.OperatorID = actor.UserID
	case actor.IsClient():
		own, err := s.clients.FindByUserID(ctx, actor.UserID)
		if err != nil {
			return nil, 0, err
		}
		filter.ClientID = own.ID
	default:
		return nil, 0, domain.ErrForbidden
	}

	filter.Page, filter.Limit = normalizePage(input.Page, input.Limit)
	return s.claims.List(ctx, filter)
}

// UpdateClaim patches descriptive fields. Admin and supervisor on any
// claim, an operator only on claims assigned to them; clients never edit a
// claim after filing it. Status and assignments have dedicated operations.
func (s *ClaimService) UpdateClaim(ctx context.Context, actor domain.Actor, claimID string, input ports.UpdateClaimInput) (*domain.Claim, error) {
	claim, err := s.claims.FindByID(ctx, claimID)
	if err != nil {
		return nil, err
	}

	switch {
	case actor.IsAdmin() || actor.IsSupervisor():
	case actor.IsOperator():
		if claim.AssignedOperatorID != actor.UserID {
			return nil, fmt.Errorf("update claim: %w: claim not assigned to you", domain.ErrForbidden)
		}
	default:
		return nil, domain.ErrForbidden
	}

	updated, err := s.claims.UpdateFields(ctx, claimID, ports.ClaimFieldPatch{
		Description: input.Description,
	})
	if err != nil {
		return nil, err
	}

	s.record(actor, "claim", claimID, "updated", "")
	return updated, nil
}

// UpdateStatus applies a status transition. Admin and supervisor may take
// any valid edge including the reopen; an operator only forward edges on a
// claim assigned to them; clients never change status.
func (s *ClaimService) UpdateStatus(ctx context.Context, actor domain.Actor, claimID string, next domain.ClaimStatus) (*domain.Claim, error) {
	claim, err := s.claims.FindByID(ctx, claimID)
	if err != nil {
		return nil, err
	}

	switch {
	case actor.IsAdmin() || actor.IsSupervisor():
		if !claim.Status.CanTransitionTo(next) && !claim.Status.CanReopenTo(next) {
			return nil, fmt.Errorf("update claim status: %w (from %s to %s)", domain.ErrInvalidTransition, claim.Status, next)
		}
	case actor.IsOperator():
		if claim.AssignedOperatorID != actor.UserID {
			return nil, fmt.Errorf("update claim status: %w: claim not assigned to you", domain.ErrForbidden)
		}
		if !claim.Status.CanTransitionTo(next) {
			return nil, fmt.Errorf("update claim status: %w (from %s to %s)", domain.ErrInvalidTransition, claim.Status, next)
		}
	default:
		return nil, domain.ErrForbidden
	}

	if err := s.claims.UpdateStatus(ctx, claimID, claim.Status, next); err != nil {
		return nil, err
	}

	metrics.ClaimStatusChangesTotal.WithLabelValues(string(next)).Inc()
	s.record(actor, "claim", claimID, "status_changed", string(next))
	s.logger.Info().Str("claim_id", claimID).Str("status", string(next)).Msg("claim status changed")

	return s.claims.FindByID(ctx, claimID)
}

// AssignOperator assigns the handling operator. Admin or supervisor; the
// target must hold the operator role. The supervisor/operator binding does
// not restrict this: it scopes analytics only.
func (s *ClaimService) AssignOperator(ctx context.Context, actor domain.Actor, claimID, operatorID string) (*domain.Claim, error) {
	if !actor.IsAdmin() && !actor.IsSupervisor() {
		return nil, domain.ErrForbidden
	}

	if _, err := s.claims.FindByID(ctx, claimID); err != nil {
		return nil, err
	}

	operator, err := s.users.FindByID(ctx, operatorID)
	if err != nil {
		return nil, err
	}
	if !operator.Roles.Has(domain.RoleOperator) {
		return nil, fmt.Errorf("assign operator: %w: user %s", domain.ErrInvalidAssignee, operatorID)
	}

	if err := s.claims.SetOperator(ctx, claimID, operatorID); err != nil {
		return nil, err
	}

	s.record(actor, "claim", claimID, "operator_assigned", operatorID)
	return s.claims.FindByID(ctx, claimID)
}

// AssignSupervisor assigns the supervising user. Admin only.
func (s *ClaimService) AssignSupervisor(ctx context.Context, actor domain.Actor, claimID, supervisorID string) (*domain.Claim, error) {
	if !actor.IsAdmin() {
		return nil, domain.ErrForbidden
	}

	if _, err := s.claims.FindByID(ctx, claimID); err != nil {
		return nil, err
	}

	supervisor, err := s.users.FindByID(ctx, supervisorID)
	if err != nil {
		return nil, err
	}
	if !supervisor.Roles.Has(domain.RoleSupervisor) {
		return nil, fmt.Errorf("assign supervisor: %w: user %s", domain.ErrInvalidAssignee, supervisorID)
	}

	if err := s.claims.SetSupervisor(ctx, claimID, supervisorID); err != nil {
		return nil, err
	}

	s.record(actor, "claim", claimID, "supervisor_assigned", supervisorID)
	return s.claims.FindByID(ctx, claimID)
}

// UploadFile stores the attachment in blob storage and appends its ref to
// the claim. Extension allow-listing happens at the transport boundary.
func (s *ClaimService) UploadFile(ctx context.Context, actor domain.Actor, input ports.UploadFileInput) (*domain.FileRef, error) {
	claim, err := s.claims.FindByID(ctx, input.ClaimID)
	if err != nil {
		return nil, err
	}
	if !s.canWrite(ctx, actor, claim) {
		return nil, domain.ErrForbidden
	}

	key := fmt.Sprintf("claims/%s/%s", input.ClaimID, uuid.NewString())
	if err := s.files.Put(ctx, key, input.Body, input.ContentType); err != nil {
		return nil, fmt.Errorf("upload file: %w", err)
	}

	ref := domain.FileRef{
		ID:         uuid.NewString(),
		FileName:   input.FileName,
		StorageKey: key,
		UploadedBy: actor.UserID,
		UploadedAt: time.Now().UTC(),
	}
	if err := s.claims.AppendFile(ctx, input.ClaimID, ref); err != nil {
		return nil, err
	}

	s.record(actor, "claim", input.ClaimID, "file_uploaded", ref.FileName)
	return &ref, nil
}

// DownloadFile streams a stored attachment back to any party with view
// access. The caller must close the returned body.
func (s *ClaimService) DownloadFile(ctx context.Context, actor domain.Actor, claimID, fileID string) (*ports.FileDownload, error) {
	claim, err := s.claims.FindByID(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if !s.canView(ctx, actor, claim) {
		return nil, domain.ErrForbidden
	}

	var ref *domain.FileRef
	for i := range claim.Files {
		if claim.Files[i].ID == fileID {
			ref = &claim.Files[i]
			break
		}
	}
	if ref == nil {
		return nil, fmt.Errorf("download file %s: %w", fileID, domain.ErrFileNotFound)
	}

	body, contentType, err := s.files.Get(ctx, ref.StorageKey)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	return &ports.FileDownload{Ref: *ref, ContentType: contentType, Body: body}, nil
}

// AddComment appends a comment; same access set as UploadFile.
func (s *ClaimService) AddComment(ctx context.Context, actor domain.Actor, claimID, body string) (*domain.Comment, error) {
	claim, err := s.claims.FindByID(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if !s.canWrite(ctx, actor, claim) {
		return nil, domain.ErrForbidden
	}

	comment := domain.Comment{
		ID:        uuid.NewString(),
		AuthorID:  actor.UserID,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.claims.AppendComment(ctx, claimID, comment); err != nil {
		return nil, err
	}
	return &comment, nil
}

// canWrite is the claim write-access set: admin, supervisor, the assigned
// operator, or the owning client.
func (s *ClaimService) canWrite(ctx context.Context, actor domain.Actor, claim *domain.Claim) bool {
	if actor.IsAdmin() || actor.IsSupervisor() {
		return true
	}
	if actor.IsOperator() && claim.AssignedOperatorID == actor.UserID {
		return true
	}
	if actor.IsClient() {
		own, err := s.clients.FindByUserID(ctx, actor.UserID)
		return err == nil && own.ID == claim.ClientID
	}
	return false
}

// canView matches canWrite today; kept separate so read access can widen
// without touching the mutation gate.
func (s *ClaimService) canView(ctx context.Context, actor domain.Actor, claim *domain.Claim) bool {
	return s.canWrite(ctx, actor, claim)
}

func (s *ClaimService) record(actor domain.Actor, entityType, entityID, action, detail string) {
	if s.activity == nil {
		return
	}
	s.activity.Record(domain.ActivityEntry{
		ActorID:    actor.UserID,
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		Detail:     detail,
		OccurredAt: time.Now().UTC(),
	})
}
