package domain

import "errors"

var (
	// ErrForbidden means the caller's roles or ownership do not permit the operation.
	ErrForbidden = errors.New("access forbidden")
	// ErrInvalidTransition means a status change violates the entity's state machine.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrInvalidAssignee means the assignment target lacks the required role.
	ErrInvalidAssignee = errors.New("assignee lacks required role")
	// ErrAlreadyConverted guards lead conversion idempotency.
	ErrAlreadyConverted = errors.New("lead already converted")
	// ErrInvalidState rejects an operation on an entity in a terminal state.
	ErrInvalidState = errors.New("operation not allowed in current state")

	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountInactive    = errors.New("account is inactive")

	ErrUserNotFound    = errors.New("user not found")
	ErrUserExists      = errors.New("user already exists")
	ErrLeadNotFound    = errors.New("lead not found")
	ErrClientNotFound  = errors.New("client not found")
	ErrProductNotFound = errors.New("product not found")
	ErrClaimNotFound   = errors.New("claim not found")
	ErrFileNotFound    = errors.New("file not found")

	// ErrConcurrentUpdate means a compare-and-set lost against a concurrent
	// writer. Callers may retry; the store never interleaves updates.
	ErrConcurrentUpdate = errors.New("entity modified concurrently")
)
