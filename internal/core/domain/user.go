package domain

import "time"

// Role is one of the four fixed roles in the system.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleSupervisor Role = "supervisor"
	RoleOperator   Role = "operator"
	RoleClient     Role = "client"
)

// ValidRole reports whether r is one of the four known roles.
func ValidRole(r Role) bool {
	switch r {
	case RoleAdmin, RoleSupervisor, RoleOperator, RoleClient:
		return true
	}
	return false
}

// RoleSet is the set of roles held by a user. Order is irrelevant,
// uniqueness is enforced on write.
type RoleSet []Role

// Has reports whether the set contains r.
func (rs RoleSet) Has(r Role) bool {
	for _, have := range rs {
		if have == r {
			return true
		}
	}
	return false
}

// Normalize deduplicates the set, preserving first occurrence.
func (rs RoleSet) Normalize() RoleSet {
	seen := make(map[Role]struct{}, len(rs))
	out := make(RoleSet, 0, len(rs))
	for _, r := range rs {
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}

// User models an account in the identity directory. Users are never hard
// deleted: deactivation (IsActive=false) is the terminal state.
type User struct {
	ID           string    `json:"id" bson:"_id,omitempty"`
	Username     string    `json:"username" bson:"username"`
	Email        string    `json:"email,omitempty" bson:"email,omitempty"`
	PasswordHash string    `json:"-" bson:"password_hash"`
	IsActive     bool      `json:"is_active" bson:"is_active"`
	Roles        RoleSet   `json:"roles" bson:"roles"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" bson:"updated_at"`
}

// SupervisorOperatorBinding links a supervisor to one of their operators.
// The relation scopes supervisor analytics and visibility; it does not by
// itself gate claim assignment.
type SupervisorOperatorBinding struct {
	SupervisorID string    `json:"supervisor_id" bson:"supervisor_id"`
	OperatorID   string    `json:"operator_id" bson:"operator_id"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
}

// Actor identifies the authenticated caller of an operation, as resolved
// from the session token. Capability checks in the service layer are
// expressed against it.
type Actor struct {
	UserID string
	Roles  RoleSet
}

func (a Actor) IsAdmin() bool      { return a.Roles.Has(RoleAdmin) }
func (a Actor) IsSupervisor() bool { return a.Roles.Has(RoleSupervisor) }
func (a Actor) IsOperator() bool   { return a.Roles.Has(RoleOperator) }
func (a Actor) IsClient() bool     { return a.Roles.Has(RoleClient) }
