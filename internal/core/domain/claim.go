package domain

import "time"

// ClaimStatus represents the lifecycle state of a claim.
type ClaimStatus string

const (
	ClaimStatusSubmitted ClaimStatus = "submitted"
	ClaimStatusInReview  ClaimStatus = "in_review"
	ClaimStatusResolved  ClaimStatus = "resolved"
)

// claimTransitions defines the forward state machine. Reopening
// (resolved → in_review) is a separate privilege, see CanReopenTo.
var claimTransitions = map[ClaimStatus][]ClaimStatus{
	ClaimStatusSubmitted: {ClaimStatusInReview},
	ClaimStatusInReview:  {ClaimStatusResolved},
}

// CanTransitionTo reports whether a forward transition from current status
// to next is valid.
func (s ClaimStatus) CanTransitionTo(next ClaimStatus) bool {
	for _, allowed := range claimTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// CanReopenTo reports whether moving from s to next is a reopen, the single
// backward edge reserved for admins and supervisors.
func (s ClaimStatus) CanReopenTo(next ClaimStatus) bool {
	return s == ClaimStatusResolved && next == ClaimStatusInReview
}

// ClaimStatuses lists every claim status, in lifecycle order.
func ClaimStatuses() []ClaimStatus {
	return []ClaimStatus{ClaimStatusSubmitted, ClaimStatusInReview, ClaimStatusResolved}
}

// FileRef points at an attachment persisted in blob storage.
type FileRef struct {
	ID         string    `json:"id" bson:"id"`
	FileName   string    `json:"file_name" bson:"file_name"`
	StorageKey string    `json:"storage_key" bson:"storage_key"`
	UploadedBy string    `json:"uploaded_by" bson:"uploaded_by"`
	UploadedAt time.Time `json:"uploaded_at" bson:"uploaded_at"`
}

// Claim is a client-filed case handled by an operator and supervised by a
// supervisor. Both assignments are optional until made.
type Claim struct {
	ID                   string      `json:"id" bson:"_id,omitempty"`
	ClientID             string      `json:"client_id" bson:"client_id"`
	Description          string      `json:"description" bson:"description"`
	Status               ClaimStatus `json:"status" bson:"status"`
	AssignedOperatorID   string      `json:"assigned_operator_id,omitempty" bson:"assigned_operator_id,omitempty"`
	AssignedSupervisorID string      `json:"assigned_supervisor_id,omitempty" bson:"assigned_supervisor_id,omitempty"`
	Files                []FileRef   `json:"files" bson:"files"`
	Comments             []Comment   `json:"comments" bson:"comments"`
	CreatedAt            time.Time   `json:"created_at" bson:"created_at"`
	UpdatedAt            time.Time   `json:"updated_at" bson:"updated_at"`
}
