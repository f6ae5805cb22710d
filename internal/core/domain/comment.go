package domain

import "time"

// Comment is an append-only note on a lead, client, or claim. Immutable
// once created; ordering is insertion order.
type Comment struct {
	ID        string    `json:"id" bson:"id"`
	AuthorID  string    `json:"author_id" bson:"author_id"`
	Body      string    `json:"body" bson:"body"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// ActivityEntry is an audit record of a mutation, written asynchronously.
type ActivityEntry struct {
	ActorID    string    `json:"actor_id" bson:"actor_id"`
	EntityType string    `json:"entity_type" bson:"entity_type"`
	EntityID   string    `json:"entity_id" bson:"entity_id"`
	Action     string    `json:"action" bson:"action"`
	Detail     string    `json:"detail,omitempty" bson:"detail,omitempty"`
	OccurredAt time.Time `json:"occurred_at" bson:"occurred_at"`
}
