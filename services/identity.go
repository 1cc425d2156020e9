package services

import "github.com/mobirepair/mobirepair-api/models"

// Identity is the authenticated caller of an operation. A nil *Identity means anonymous.
type Identity struct {
	UserID uint
	Role   string
}

// IsAdmin reports whether the caller holds the admin role
func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == models.RoleAdmin
}
