package Models

import (
	"gorm.io/gorm"
)

// Permission levels checked by middleware.Verify. Higher levels include
// everything below them.
const (
	PermissionAssistant = 1
	PermissionFrontDesk = 2
	PermissionAdmin     = 3
	PermissionOwner     = 4
)

type User struct {
	gorm.Model
	Name       string `json:"name"`
	Email      string `json:"email" gorm:"uniqueIndex"`
	Password   []byte `json:"-"`
	Permission int    `json:"permission" gorm:"default:1"`
	IsActive   bool   `json:"is_active" gorm:"default:true"`
}

// RoleName renders a permission level for display.
func RoleName(permission int) string {
	switch permission {
	case PermissionOwner:
		return "owner"
	case PermissionAdmin:
		return "admin"
	case PermissionFrontDesk:
		return "front-desk"
	case PermissionAssistant:
		return "assistant"
	}
	return "unknown"
}

// PermissionForRole is the inverse of RoleName, used when accepting
// invitations. Unknown roles get the lowest level.
func PermissionForRole(role string) int {
	switch role {
	case "owner":
		return PermissionOwner
	case "admin":
		return PermissionAdmin
	case "front-desk":
		return PermissionFrontDesk
	}
	return PermissionAssistant
}
