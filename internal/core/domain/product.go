package domain

import "time"

// Product is a sellable item in the catalog. Admin-managed. Deleting a
// product that is still referenced by client bindings is tolerated; rollups
// degrade to excluding the dangling bindings.
type Product struct {
	ID          string    `json:"id" bson:"_id,omitempty"`
	Name        string    `json:"name" bson:"name"`
	Type        string    `json:"type" bson:"type"`
	Description string    `json:"description,omitempty" bson:"description,omitempty"`
	Price       float64   `json:"price" bson:"price"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
}
