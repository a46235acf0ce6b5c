package models

// Role of a chat participant. Every chat pairs exactly one customer with one admin.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// CurrentUser is the identity driving role-based behaviour, cached client-side.
type CurrentUser struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role Role   `json:"role"`
}

// NormalizeRole collapses any unknown role value to customer.
func NormalizeRole(raw string) Role {
	if raw == string(RoleAdmin) {
		return RoleAdmin
	}
	return RoleCustomer
}
