package model

// Role is the permission level of an authenticated caller.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID string
	Email  string
	Role   Role
}

// IsAdmin reports whether the caller has admin rights.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}
