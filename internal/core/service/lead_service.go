package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/atlascrm/crm-system/internal/api/metrics"
	"github.com/atlascrm/crm-system/internal/core/domain"
	"github.com/atlascrm/crm-system/internal/core/ports"
)

// ConversionLocker abstracts the per-lead mutation lock (Redis) that
// serializes lead conversion.
type ConversionLocker interface {
	// Acquire returns false when another caller holds the lock.
	Acquire(ctx context.Context, leadID string) (bool, error)
	Release(ctx context.Context, leadID string) error
}

// LeadService implements the lead lifecycle: creation, transition
// enforcement, operator assignment, and the one-way conversion to a client.
type LeadService struct {
	leads    ports.LeadRepository
	clients  ports.ClientRepository
	users    ports.UserRepository
	locker   ConversionLocker
	activity ports.ActivityRecorder
	logger   zerolog.Logger
}

func NewLeadService(
	leads ports.LeadRepository,
	clients ports.ClientRepository,
	users ports.UserRepository,
	locker ConversionLocker,
	activity ports.ActivityRecorder,
	logger zerolog.Logger,
) *LeadService {
	return &LeadService{
		leads:    leads,
		clients:  clients,
		users:    users,
		locker:   locker,
		activity: activity,
		logger:   logger,
	}
}

// CreateLead creates a lead with status forced to "new" regardless of
// caller input. Admin or operator only.
func (s *LeadService) CreateLead(ctx context.Context, actor domain.Actor, input ports.CreateLeadInput) (*domain.Lead, error) {
	if !actor.IsAdmin() && !actor.IsOperator() {
		return nil, domain.ErrForbidden
	}

	now := time.Now().UTC()
	lead := &domain.Lead{
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Email:     input.Email,
		Phone:     input.Phone,
		Status:    domain.LeadStatusNew,
		Comments:  []domain.Comment{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	created, err := s.leads.Create(ctx, lead)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to create lead")
		return nil, err
	}

	metrics.LeadsCreatedTotal.Inc()
	s.record(actor, "lead", created.ID, "created", "")
	s.logger.Info().Str("lead_id", created.ID).Msg("lead created")
	return created, nil
}

// GetLead returns a lead. Admins and supervisors see any lead; an operator
// only leads assigned to them.
func (s *LeadService) GetLead(ctx context.Context, actor domain.Actor, id string) (*domain.Lead, error) {
	lead, err := s.leads.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.canView(actor, lead) {
		return nil, domain.ErrForbidden
	}
	return lead, nil
}

func (s *LeadService) ListLeads(ctx context.Context, actor domain.Actor, input ports.ListLeadsInput) ([]*domain.Lead, int64, error) {
	if !actor.IsAdmin() && !actor.IsSupervisor() && !actor.IsOperator() {
		return nil, 0, domain.ErrForbidden
	}

	operatorID := input.OperatorID
	// Operators are always scoped to their own leads.
	if !actor.IsAdmin() && !actor.IsSupervisor() {
		if operatorID != "" && operatorID != actor.UserID {
			return nil, 0, domain.ErrForbidden
		}
		operatorID = actor.UserID
	}

	page, limit := normalizePage(input.Page, input.Limit)
	return s.leads.List(ctx, ports.ListLeadsFilter{
		OperatorID: operatorID,
		Status:     input.Status,
		Page:       page,
		Limit:      limit,
	})
}

// UpdateLead patches a lead. Admins may change any field; an operator only
// the status of a lead assigned to them. Status changes are validated
// against the transition table for every caller; conversion has its own
// path and cannot be reached through this update.
func (s *LeadService) UpdateLead(ctx context.Context, actor domain.Actor, id string, input ports.UpdateLeadInput) (*domain.Lead, error) {
	lead, err := s.leads.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !actor.IsAdmin() {
		if !actor.IsOperator() || lead.AssignedOperatorID != actor.UserID {
			return nil, domain.ErrForbidden
		}
		if input.FirstName != nil || input.LastName != nil || input.Email != nil || input.Phone != nil {
			return nil, fmt.Errorf("update lead: %w: operators may only change status", domain.ErrForbidden)
		}
	}

	patch := ports.LeadFieldPatch{
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Email:     input.Email,
		Phone:     input.Phone,
	}

	if input.Status == nil {
		return s.leads.UpdateFields(ctx, id, patch)
	}

	next := *input.Status
	if next == domain.LeadStatusConverted {
		return nil, fmt.Errorf("update lead: %w: conversion requires the convert operation", domain.ErrInvalidTransition)
	}
	if !lead.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("update lead: %w (from %s to %s)", domain.ErrInvalidTransition, lead.Status, next)
	}

	// Status and fields land in one document write so a failure cannot
	// apply the transition and drop the patch.
	updated, err := s.leads.UpdateStatusAndFields(ctx, id, lead.Status, next, patch)
	if err != nil {
		return nil, err
	}
	metrics.LeadStatusChangesTotal.WithLabelValues(string(next)).Inc()
	s.record(actor, "lead", id, "status_changed", string(next))
	return updated, nil
}

// AssignOperator assigns a lead to an operator. Admin or supervisor only;
// the target must hold the operator role.
func (s *LeadService) AssignOperator(ctx context.Context, actor domain.Actor, leadID, operatorID string) (*domain.Lead, error) {
	if !actor.IsAdmin() && !actor.IsSupervisor() {
		return nil, domain.ErrForbidden
	}

	if _, err := s.leads.FindByID(ctx, leadID); err != nil {
		return nil, err
	}

	operator, err := s.users.FindByID(ctx, operatorID)
	if err != nil {
		return nil, err
	}
	if !operator.Roles.Has(domain.RoleOperator) {
		return nil, fmt.Errorf("assign operator: %w: user %s", domain.ErrInvalidAssignee, operatorID)
	}

	updated, err := s.leads.UpdateFields(ctx, leadID, ports.LeadFieldPatch{AssignedOperatorID: &operatorID})
	if err != nil {
		return nil, err
	}

	s.record(actor, "lead", leadID, "operator_assigned", operatorID)
	s.logger.Info().Str("lead_id", leadID).Str("operator_id", operatorID).Msg("lead assigned")
	return updated, nil
}

// ConvertToClient marks the lead converted and creates a Client from its
// contact fields. The per-lead lock plus the status compare-and-set
// guarantee at most one client is ever produced; a replay fails with
// ErrAlreadyConverted.
func (s *LeadService) ConvertToClient(ctx context.Context, actor domain.Actor, leadID string) (*ports.ConvertResult, error) {
	lead, err := s.leads.FindByID(ctx, leadID)
	if err != nil {
		return nil, err
	}

	if !actor.IsAdmin() && !(actor.IsOperator() && lead.AssignedOperatorID == actor.UserID) {
		return nil, domain.ErrForbidden
	}

	if lead.Status == domain.LeadStatusConverted {
		return nil, domain.ErrAlreadyConverted
	}
	if lead.Status == domain.LeadStatusLost {
		return nil, fmt.Errorf("convert lead: %w (lead is lost)", domain.ErrInvalidTransition)
	}

	ok, err := s.locker.Acquire(ctx, leadID)
	if err != nil {
		return nil, fmt.Errorf("convert lead: lock: %w", err)
	}
	if !ok {
		return nil, domain.ErrConcurrentUpdate
	}
	defer func() {
		if relErr := s.locker.Release(ctx, leadID); relErr != nil {
			s.logger.Warn().Err(relErr).Str("lead_id", leadID).Msg("failed to release conversion lock")
		}
	}()

	// Re-read under the lock: a racing convert may have won before we
	// acquired it.
	lead, err = s.leads.FindByID(ctx, leadID)
	if err != nil {
		return nil, err
	}
	if lead.Status == domain.LeadStatusConverted {
		return nil, domain.ErrAlreadyConverted
	}
	if lead.Status == domain.LeadStatusLost {
		return nil, fmt.Errorf("convert lead: %w (lead is lost)", domain.ErrInvalidTransition)
	}

	// The CAS fences against status writers that do not take the lock.
	if err := s.leads.UpdateStatus(ctx, leadID, lead.Status, domain.LeadStatusConverted); err != nil {
		if errors.Is(err, domain.ErrConcurrentUpdate) {
			return nil, domain.ErrAlreadyConverted
		}
		return nil, err
	}

	client := &domain.Client{
		FullName:  lead.FullName(),
		Email:     lead.Email,
		Phone:     lead.Phone,
		Products:  []domain.ClientProductBinding{},
		Comments:  []domain.Comment{},
		CreatedAt: time.Now().UTC(),
	}
	created, err := s.clients.Create(ctx, client)
	if err != nil {
		// The lead is already marked converted; surface loudly, this is a
		// defect condition, not a business outcome.
		s.logger.Error().Err(err).Str("lead_id", leadID).Msg("lead converted but client creation failed")
		return nil, err
	}

	metrics.LeadsConvertedTotal.Inc()
	s.record(actor, "lead", leadID, "converted", created.ID)
	s.logger.Info().Str("lead_id", leadID).Str("client_id", created.ID).Msg("lead converted to client")

	return &ports.ConvertResult{ClientID: created.ID, LeadID: leadID}, nil
}

// DeleteLead hard-deletes a lead. Admin only; converted leads are
// immutable history and cannot be deleted.
func (s *LeadService) DeleteLead(ctx context.Context, actor domain.Actor, id string) error {
	if !actor.IsAdmin() {
		return domain.ErrForbidden
	}

	lead, err := s.leads.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if lead.Status == domain.LeadStatusConverted {
		return fmt.Errorf("delete lead: %w", domain.ErrInvalidState)
	}

	if err := s.leads.Delete(ctx, id); err != nil {
		return err
	}
	s.record(actor, "lead", id, "deleted", "")
	return nil
}

// AddComment appends a comment. Admins, supervisors, and the assigned
// operator may comment.
func (s *LeadService) AddComment(ctx context.Context, actor domain.Actor, leadID, body string) (*domain.Comment, error) {
	lead, err := s.leads.FindByID(ctx, leadID)
	if err != nil {
		return nil, err
	}
	if !s.canView(actor, lead) {
		return nil, domain.ErrForbidden
	}

	comment := domain.Comment{
		ID:        uuid.NewString(),
		AuthorID:  actor.UserID,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.leads.AppendComment(ctx, leadID, comment); err != nil {
		return nil, err
	}
	return &comment, nil
}

func (s *LeadService) canView(actor domain.Actor, lead *domain.Lead) bool {
	if actor.IsAdmin() || actor.IsSupervisor() {
		return true
	}
	return actor.IsOperator() && lead.AssignedOperatorID == actor.UserID
}

func (s *LeadService) record(actor domain.Actor, entityType, entityID, action, detail string) {
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
