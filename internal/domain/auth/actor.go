package auth

// RoleAdmin is the role name that grants administrative rights. Every other
// role is a KPI role created at runtime.
const RoleAdmin = "Admin"

// Actor is the authenticated user an operation runs on behalf of.
type Actor struct {
	UserID   string
	RoleID   string
	RoleName string
}

func (a Actor) IsAdmin() bool {
	return a.RoleName == RoleAdmin
}
