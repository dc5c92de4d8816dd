package session_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/coachkit/pkg/session"
)

func TestIdentity_HasRole(t *testing.T) {
	t.Parallel()

	tests := []struct {
		role     session.Role
		required session.Role
		want     bool
	}{
		{session.RoleMember, session.RoleMember, true},
		{session.RoleMember, session.RoleCoach, false},
		{session.RoleCoach, session.RoleCoach, true},
		{session.RoleCoach, session.RoleAdmin, false},
		{session.RoleAdmin, session.RoleAdmin, true},
		{session.RoleAdmin, session.RoleCoach, false},
		{session.RoleSuperadmin, session.RoleCoach, true},
		{session.RoleSuperadmin, session.RoleAdmin, true},
		{session.RoleSuperadmin, session.RoleSuperadmin, true},
		{session.RoleSuperadmin, session.RoleMember, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role)+"/"+string(tt.required), func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, session.Identity{Role: tt.role}.HasRole(tt.required))
		})
	}
}

func TestParseRefreshTransport(t *testing.T) {
	t.Parallel()

	got, err := session.ParseRefreshTransport("")
	require.NoError(t, err)
	assert.Equal(t, session.TransportCookie, got)

	got, err = session.ParseRefreshTransport(" Header ")
	require.NoError(t, err)
	assert.Equal(t, session.TransportHeader, got)

	_, err = session.ParseRefreshTransport("carrier-pigeon")
	assert.ErrorIs(t, err, session.ErrUnknownTransport)

	var tr session.RefreshTransport
	require.NoError(t, tr.UnmarshalText([]byte("cookie")))
	assert.Equal(t, "cookie", tr.String())
}
