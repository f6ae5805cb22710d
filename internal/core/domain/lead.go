package domain

import "time"

// LeadStatus represents the lifecycle state of a lead.
type LeadStatus string

const (
	LeadStatusNew       LeadStatus = "new"
	LeadStatusContacted LeadStatus = "contacted"
	LeadStatusQualified LeadStatus = "qualified"
	LeadStatusConverted LeadStatus = "converted"
	LeadStatusLost      LeadStatus = "lost"
)

// leadTransitions defines the allowed state machine transitions. Forward
// moves may skip a stage (an operator can qualify a lead without logging the
// contact step); backward moves are never valid. converted and lost are
// terminal.
var leadTransitions = map[LeadStatus][]LeadStatus{
	LeadStatusNew:       {LeadStatusContacted, LeadStatusQualified, LeadStatusLost},
	LeadStatusContacted: {LeadStatusQualified, LeadStatusLost},
	LeadStatusQualified: {LeadStatusConverted, LeadStatusLost},
}

// CanTransitionTo reports whether a transition from current status to next is valid.
func (s LeadStatus) CanTransitionTo(next LeadStatus) bool {
	for _, allowed := range leadTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether the status admits no further transitions.
func (s LeadStatus) Terminal() bool {
	return s == LeadStatusConverted || s == LeadStatusLost
}

// LeadStatuses lists every lead status, in lifecycle order.
func LeadStatuses() []LeadStatus {
	return []LeadStatus{LeadStatusNew, LeadStatusContacted, LeadStatusQualified, LeadStatusConverted, LeadStatusLost}
}

// Lead is a prospective client not yet onboarded. Conversion is a one-way
// transformation producing a Client record.
type Lead struct {
	ID                 string     `json:"id" bson:"_id,omitempty"`
	FirstName          string     `json:"first_name" bson:"first_name"`
	LastName           string     `json:"last_name" bson:"last_name"`
	Email              string     `json:"email" bson:"email"`
	Phone              string     `json:"phone" bson:"phone"`
	Status             LeadStatus `json:"status" bson:"status"`
	AssignedOperatorID string     `json:"assigned_operator_id,omitempty" bson:"assigned_operator_id,omitempty"`
	Comments           []Comment  `json:"comments" bson:"comments"`
	CreatedAt          time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at" bson:"updated_at"`
}

// FullName joins the lead's name parts for the client record it converts into.
func (l *Lead) FullName() string {
	if l.LastName == "" {
		return l.FirstName
	}
	return l.FirstName + " " + l.LastName
}
