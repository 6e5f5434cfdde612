package model

import "time"

// Customer is an entry in the customer catalog.  Cases reference customers
// by id; the catalog itself is ordinary CRUD maintained by sales.
type Customer struct {
	ID             uint64
	Name           string
	Representative string
	ContactInfo    string
	Address        string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
