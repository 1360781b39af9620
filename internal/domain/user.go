package domain

import "time"

// Role is the role an account acts under.
type Role string

const (
	RoleRider  Role = "RIDER"
	RoleDriver Role = "DRIVER"
	RoleAdmin  Role = "ADMIN"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleRider || r == RoleDriver || r == RoleAdmin
}

// Account represents a registered user of the system.
type Account struct {
	ID        string
	Name      string
	Email     string
	Phone     string
	Role      Role
	CreatedAt time.Time
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	AccountID string
	Role      Role
}
