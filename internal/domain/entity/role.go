// Package entity contains the core business objects of the marketplace.
package entity

import (
	"slices"
	"strings"
)

// Role grants access to a group of endpoints.
type Role string

const (
	RoleUser Role = "user"
	// RoleAdmin moderates uploads, appraises items and fulfils orders.
	RoleAdmin Role = "admin"
)

func (r Role) String() string {
	return string(r)
}

func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Roles is the set of roles held by one account, in grant order.
type Roles []Role

func (rs Roles) Contains(role Role) bool {
	return slices.Contains(rs, role)
}

// ToStrings is the form carried in access tokens.
func (rs Roles) ToStrings() []string {
	out := make([]string, 0, len(rs))
	for _, r := range rs {
		out = append(out, string(r))
	}

	return out
}

// RolesFromStrings keeps the known roles once each and drops anything else.
func RolesFromStrings(ss []string) Roles {
	out := make(Roles, 0, len(ss))
	for _, s := range ss {
		role := Role(strings.TrimSpace(s))
		if role.IsValid() && !out.Contains(role) {
			out = append(out, role)
		}
	}

	return out
}

// JoinRoles is the column encoding of Roles.
func JoinRoles(rs Roles) string {
	return strings.Join(rs.ToStrings(), ",")
}

// SplitRoles reverses JoinRoles.
func SplitRoles(s string) Roles {
	if s == "" {
		return Roles{}
	}

	return RolesFromStrings(strings.Split(s, ","))
}
