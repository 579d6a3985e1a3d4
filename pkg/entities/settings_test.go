package entities

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMergeDefaults(t *testing.T) {
	tests := []struct {
		name string
		in   Settings
	}{
		{
			name: "Empty",
			in:   Settings{},
		},
		{
			name: "PartialRoles",
			in: Settings{
				Roles: map[string]string{RoleBelgian: "123"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.in.MergeDefaults()

			require.Len(t, tt.in.Roles, len(RoleKeys))
			for _, key := range RoleKeys {
				_, ok := tt.in.Roles[key]
				require.True(t, ok, "missing role key %s", key)
			}
			require.Equal(t, DefaultWelcomeMessage, tt.in.WelcomeMessage)
		})
	}
}

func TestMergeDefaultsKeepsValues(t *testing.T) {
	s := Settings{
		WelcomeMessage: "custom",
		Roles:          map[string]string{RoleBelgian: "123"},
		TicketCounter:  9,
	}
	s.MergeDefaults()

	require.Equal(t, "custom", s.WelcomeMessage)
	require.Equal(t, "123", s.Roles[RoleBelgian])
	require.Equal(t, 9, s.TicketCounter)
}

func TestModeratorRoleIDs(t *testing.T) {
	s := DefaultSettings()
	require.Empty(t, s.ModeratorRoleIDs())

	s.Roles[RoleBorderControl] = "100"
	s.Roles[RolePresident] = "200"

	// The belgian role never moderates, even when set.
	s.Roles[RoleBelgian] = "300"

	require.Equal(t, []string{"100", "200"}, s.ModeratorRoleIDs())
}
