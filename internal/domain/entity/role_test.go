package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoles_RoundTripDropsUnknownAndDuplicates(t *testing.T) {
	roles := SplitRoles("user, admin,superuser,user")

	assert.Equal(t, Roles{RoleUser, RoleAdmin}, roles)
	assert.Equal(t, "user,admin", JoinRoles(roles))
	assert.Equal(t, []string{"user", "admin"}, roles.ToStrings())
	assert.Empty(t, SplitRoles(""))
}

func TestUser_IsAdmin(t *testing.T) {
	assert.True(t, (&User{Roles: Roles{RoleUser, RoleAdmin}}).IsAdmin())
	assert.False(t, (&User{Roles: Roles{RoleUser}}).IsAdmin())
}
