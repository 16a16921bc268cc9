package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoleName(t *testing.T) {
	require.Equal(t, "STUDENT", RoleName(RoleStudent))
	require.Equal(t, "TEACHER", RoleName(RoleTeacher))
	require.Equal(t, "IT", RoleName(RoleIT))
	require.Equal(t, "SENIOR", RoleName(RoleSenior))
	require.Equal(t, "UNKNOWN", RoleName(42))
}

func TestValidRole(t *testing.T) {
	for role := uint8(0); role <= RoleSenior; role++ {
		require.True(t, ValidRole(role))
	}
	require.False(t, ValidRole(RoleSenior+1))
	require.False(t, ValidRole(255))
}
