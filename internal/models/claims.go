package models

import "github.com/golang-jwt/jwt/v5"

// Application permissions
const (
	PermissionAttendanceRead  = "attendance:read"
	PermissionAttendanceWrite = "attendance:write"
	PermissionWalletRead      = "wallet:read"
	PermissionWalletWrite     = "wallet:write"
	PermissionFeeAssign       = "fee:assign"
	PermissionExpenseWrite    = "expense:write"
	PermissionReportRead      = "report:read"
)

// UserClaims are issued by the surrounding app's auth service; this
// backend only validates them.
type UserClaims struct {
	jwt.RegisteredClaims
	UserID      uint     `json:"user_id"`
	Role        string   `json:"role"`
	Branch      string   `json:"branch"`
	Permissions []string `json:"permissions"`
}

// HasPermission checks if the claims include a specific permission
func (c *UserClaims) HasPermission(permission string) bool {
	for _, p := range c.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// GetDefaultPermissions returns default permissions based on role
func GetDefaultPermissions(role string) []string {
	switch role {
	case "admin", "franchisee":
		return []string{
			PermissionAttendanceRead,
			PermissionAttendanceWrite,
			PermissionWalletRead,
			PermissionWalletWrite,
			PermissionFeeAssign,
			PermissionExpenseWrite,
			PermissionReportRead,
		}
	case "teacher":
		return []string{
			PermissionAttendanceRead,
			PermissionAttendanceWrite,
		}
	case "parent":
		return []string{
			PermissionAttendanceRead,
			PermissionWalletRead,
			PermissionWalletWrite,
		}
	default:
		return []string{}
	}
}
