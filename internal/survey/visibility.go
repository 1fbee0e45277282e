package survey

import "fmt"

// Role is the caller's standing in the portal.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleMember  Role = "member"
	RoleViewer  Role = "viewer"
	RoleUnknown Role = ""
)

// ParseRole maps s to a known role. Anything unrecognised is RoleUnknown,
// which no visibility check ever passes.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleAdmin, RoleMember, RoleViewer:
		return Role(s)
	default:
		return RoleUnknown
	}
}

// FieldVisibility is one row of the visibility matrix.
type FieldVisibility struct {
	FieldName     string `json:"field_name"`
	SurveyYear    int    `json:"survey_year"`
	ViewerVisible bool   `json:"viewer_visible"`
	MemberVisible bool   `json:"member_visible"`
	AdminVisible  bool   `json:"admin_visible"`
}

// VisibilityChecker decides whether a field may be shown to a role.
type VisibilityChecker interface {
	IsVisible(field string, year int, role Role) bool
}

// Gate is a read-only lookup over the visibility matrix.
type Gate struct {
	entries map[string]FieldVisibility
}

// NewGate indexes entries by field and year. Later duplicates win.
func NewGate(entries []FieldVisibility) *Gate {
	g := &Gate{entries: make(map[string]FieldVisibility, len(entries))}
	for _, e := range entries {
		g.entries[visibilityKey(e.FieldName, e.SurveyYear)] = e
	}
	return g
}

// IsVisible reports whether field in year may be rendered for role.
// A missing entry or an unknown role is never visible.
func (g *Gate) IsVisible(field string, year int, role Role) bool {
	if g == nil {
		return false
	}
	e, ok := g.entries[visibilityKey(field, year)]
	if !ok {
		return false
	}
	switch role {
	case RoleAdmin:
		return e.AdminVisible
	case RoleMember:
		return e.MemberVisible
	case RoleViewer:
		return e.ViewerVisible
	default:
		return false
	}
}

// Len returns the number of indexed entries.
func (g *Gate) Len() int {
	if g == nil {
		return 0
	}
	return len(g.entries)
}

func visibilityKey(field string, year int) string {
	return fmt.Sprintf("%s_%d", field, year)
}
