package navigation

import (
	"strings"

	"github.com/AquaViinaDev/front-admin/internal/admin/rbac"
)

// MenuItem is a sidebar link.
type MenuItem struct {
	Key         string
	Label       string
	Href        string
	Pattern     string
	MatchPrefix bool
	Capability  rbac.Capability
}

// MenuGroup is a titled block of sidebar links.
type MenuGroup struct {
	Key        string
	Label      string
	Capability rbac.Capability
	Items      []MenuItem
}

// BuildMenu returns the sidebar definition rooted at basePath.
func BuildMenu(basePath string) []MenuGroup {
	join := func(suffix string) string {
		base := strings.TrimRight(strings.TrimSpace(basePath), "/")
		return base + suffix
	}
	return []MenuGroup{
		{
			Key:        "catalog",
			Label:      "Каталог",
			Capability: rbac.CapCatalogRead,
			Items: []MenuItem{
				{
					Key:        "products",
					Label:      "Товары",
					Href:       join("/products"),
					Pattern:    join("/products"),
					Capability: rbac.CapCatalogRead,
				},
				{
					Key:        "product-new",
					Label:      "Добавить товар",
					Href:       join("/products/new"),
					Pattern:    join("/products/new"),
					Capability: rbac.CapCatalogWrite,
				},
			},
		},
	}
}
