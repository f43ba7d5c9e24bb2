package navigation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildMenuJoinsBasePath(t *testing.T) {
	t.Parallel()

	menu := BuildMenu("/admin/")
	require.Len(t, menu, 1)
	require.Equal(t, "/admin/products", menu[0].Items[0].Href)
	require.Equal(t, "/admin/products/new", menu[0].Items[1].Href)

	root := BuildMenu("/")
	require.Equal(t, "/products", root[0].Items[0].Href)
}
