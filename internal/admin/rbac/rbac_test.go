package rbac

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHasCapabilityMatrix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		roles      []string
		capability Capability
		want       bool
	}{
		{name: "admin can delete", roles: []string{"admin"}, capability: CapCatalogDelete, want: true},
		{name: "admin denied for undefined capability", roles: []string{"admin"}, capability: Capability("made.up"), want: false},
		{name: "editor can write", roles: []string{"editor"}, capability: CapCatalogWrite, want: true},
		{name: "editor cannot delete", roles: []string{"editor"}, capability: CapCatalogDelete, want: false},
		{name: "viewer can read", roles: []string{" Viewer "}, capability: CapCatalogRead, want: true},
		{name: "viewer cannot write", roles: []string{"viewer"}, capability: CapCatalogWrite, want: false},
		{name: "no roles", roles: nil, capability: CapCatalogRead, want: false},
		{name: "empty capability is unrestricted", roles: nil, capability: "", want: true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, HasCapability(tc.roles, tc.capability))
		})
	}
}

func TestNormaliseRoles(t *testing.T) {
	t.Parallel()

	require.Equal(t, Roles{RoleAdmin, RoleEditor}, NormaliseRoles([]string{"ADMIN", " editor", "admin", ""}))
	require.Nil(t, NormaliseRoles(nil))
}

func TestCapabilities(t *testing.T) {
	t.Parallel()

	require.Equal(t, []Capability{CapCatalogRead, CapCatalogWrite}, Capabilities([]string{"editor"}))
	require.Equal(t, []Capability{CapCatalogDelete, CapCatalogRead, CapCatalogWrite}, Capabilities([]string{"admin"}))
	require.Empty(t, Capabilities([]string{"guest"}))
}
