package domain

import "time"

// ClientProductBinding records a product assigned to a client. Bindings are
// append-only; the same product may be bound to a client more than once and
// revenue is summed per binding.
type ClientProductBinding struct {
	ID         string    `json:"id" bson:"id"`
	ProductID  string    `json:"product_id" bson:"product_id"`
	AssignedAt time.Time `json:"assigned_at" bson:"assigned_at"`
}

// Client is an onboarded customer, created directly by an admin or produced
// by lead conversion. UserID, once set, is immutable; it may be empty for
// clients without a login.
type Client struct {
	ID        string                 `json:"id" bson:"_id,omitempty"`
	FullName  string                 `json:"full_name" bson:"full_name"`
	Email     string                 `json:"email" bson:"email"`
	Phone     string                 `json:"phone" bson:"phone"`
	Address   string                 `json:"address" bson:"address"`
	UserID    string                 `json:"user_id,omitempty" bson:"user_id,omitempty"`
	Products  []ClientProductBinding `json:"products" bson:"products"`
	Comments  []Comment              `json:"comments" bson:"comments"`
	CreatedAt time.Time              `json:"created_at" bson:"created_at"`
}
