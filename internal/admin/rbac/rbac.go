package rbac

import (
	"sort"
	"strings"
)

// Role represents a staff access tier.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
)

// Known reports whether the role is one of the catalog roles.
func (r Role) Known() bool {
	switch r {
	case RoleAdmin, RoleEditor, RoleViewer:
		return true
	}
	return false
}

// Capability names an action on the catalog that handlers and templates can check.
type Capability string

const (
	CapCatalogRead   Capability = "catalog.read"
	CapCatalogWrite  Capability = "catalog.write"
	CapCatalogDelete Capability = "catalog.delete"
)

var capabilityRoles = map[Capability]Roles{
	CapCatalogRead:   {RoleAdmin, RoleEditor, RoleViewer},
	CapCatalogWrite:  {RoleAdmin, RoleEditor},
	CapCatalogDelete: {RoleAdmin},
}

// Roles is a list of roles with intersection helpers.
type Roles []Role

// Has returns true if the role exists in the set.
func (rs Roles) Has(role Role) bool {
	for _, r := range rs {
		if r == role {
			return true
		}
	}
	return false
}

// Intersects returns true if any candidate role is present in the set.
func (rs Roles) Intersects(candidate Roles) bool {
	for _, role := range candidate {
		if rs.Has(role) {
			return true
		}
	}
	return false
}

// NormaliseRoles lower-cases, trims and de-duplicates raw role claims.
func NormaliseRoles(raw []string) Roles {
	if len(raw) == 0 {
		return nil
	}
	seen := make(map[Role]struct{}, len(raw))
	roles := make(Roles, 0, len(raw))
	for _, val := range raw {
		role := Role(strings.ToLower(strings.TrimSpace(val)))
		if role == "" {
			continue
		}
		if _, ok := seen[role]; ok {
			continue
		}
		seen[role] = struct{}{}
		roles = append(roles, role)
	}
	return roles
}

// HasCapability reports whether the roles grant the capability. Admins hold every
// known capability; unknown capabilities are denied to everyone.
func HasCapability(userRoles []string, capability Capability) bool {
	if capability == "" {
		return true
	}
	allowed, ok := capabilityRoles[capability]
	if !ok {
		return false
	}
	roles := NormaliseRoles(userRoles)
	if roles.Has(RoleAdmin) {
		return true
	}
	return allowed.Intersects(roles)
}

// Capabilities lists the capabilities granted to the roles in a stable order.
func Capabilities(userRoles []string) []Capability {
	var caps []Capability
	for capability := range capabilityRoles {
		if HasCapability(userRoles, capability) {
			caps = append(caps, capability)
		}
	}
	sort.Slice(caps, func(i, j int) bool { return caps[i] < caps[j] })
	return caps
}
