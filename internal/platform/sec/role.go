// Copyright (c) 2026 AIHub. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

// # Operator Roles

// UserRole represents the authorization level granted to an operator token.
type UserRole string

const (
	// Unrestricted system access, including API key management
	RoleAdmin UserRole = "admin"

	// Can inspect the catalog and keys but not mutate them
	RoleViewer UserRole = "viewer"
)

// # Role Hierarchy

// AtLeast checks if the current role meets or exceeds the required target role.
func (r UserRole) AtLeast(target UserRole) bool {
	return r.level() >= target.level()
}

// level maps a role to a numeric hierarchy level for comparison logic.
func (r UserRole) level() int {
	switch r {
	case RoleAdmin:
		return 40
	case RoleViewer:
		return 10
	default:
		return 0
	}
}

// # API Key Identity

// KeyPrincipal identifies the API key that authenticated a gateway request.
type KeyPrincipal struct {
	KeyID int64
	Name  string
}
