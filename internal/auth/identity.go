package auth

import "github.com/ejg/cestas/internal/datamodels/user"

// Identity is the caller of an operation, resolved once per request.
// A nil *Identity means the request is unauthenticated.
type Identity struct {
	UserID string
	Name   string
	Email  string
	Role   user.Role
}

// FromUser builds the identity of a stored user.
func FromUser(u *user.User) *Identity {
	return &Identity{UserID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

// IsAdmin reports whether id is an authenticated administrator.
func (id *Identity) IsAdmin() bool {
	return id != nil && id.Role == user.RoleAdmin
}
