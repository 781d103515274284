// AngelaMos | 2026
// navigation.go

// Package navigation decides which application destinations a role may
// see and how an incoming path resolves to a page.
package navigation

import (
	"slices"
	"strings"

	"github.com/marketflow/agency-api/internal/workflow"
)

type Key string

const (
	Dashboard    Key = "dashboard"
	Calendar     Key = "calendar"
	Briefs       Key = "briefs"
	Tasks        Key = "tasks"
	QCReview     Key = "qc_review"
	ClientReview Key = "client_review"
	AdsManager   Key = "ads"
	Campaigns    Key = "campaigns"
	Analytics    Key = "analytics"
	Performance  Key = "performance"
	Clients      Key = "clients"
	Team         Key = "team"
	Settings     Key = "settings"
)

type Destination struct {
	Key   Key             `json:"key"`
	Label string          `json:"label"`
	Path  string          `json:"path"`
	Roles []workflow.Role `json:"roles"`
}

var everyRole = workflow.Roles()

var destinations = []Destination{
	{Dashboard, "Dashboard", "/dashboard", everyRole},
	{Calendar, "Calendar", "/calendar", roles(
		workflow.RoleAdmin, workflow.RoleDMManager,
	)},
	{Briefs, "Briefs", "/briefs", roles(
		workflow.RoleAdmin, workflow.RoleDMManager,
		workflow.RoleCopywriter, workflow.RoleCopyQC,
		workflow.RoleDesigner, workflow.RoleDesignQC,
	)},
	{Tasks, "Tasks", "/tasks", roles(
		workflow.RoleAdmin, workflow.RoleDMManager,
		workflow.RoleCopywriter, workflow.RoleCopyQC,
		workflow.RoleDesigner, workflow.RoleDesignQC,
		workflow.RoleClientCoordinator,
	)},
	{QCReview, "QC Review", "/qc-review", roles(
		workflow.RoleAdmin, workflow.RoleCopyQC, workflow.RoleDesignQC,
	)},
	{ClientReview, "Client Review", "/client-review", roles(
		workflow.RoleAdmin, workflow.RoleClientCoordinator,
	)},
	{AdsManager, "Ads Manager", "/ads", roles(
		workflow.RoleAdmin, workflow.RoleDMTeamLead, workflow.RoleDMManager,
	)},
	{Campaigns, "Campaigns", "/campaigns", roles(
		workflow.RoleAdmin, workflow.RoleDMManager, workflow.RoleDMTeamLead,
	)},
	{Analytics, "Analytics", "/analytics", roles(
		workflow.RoleAdmin, workflow.RoleDMManager,
	)},
	{Performance, "Performance", "/performance", roles(workflow.RoleAdmin)},
	{Clients, "Clients", "/clients", roles(
		workflow.RoleAdmin, workflow.RoleDMManager,
		workflow.RoleClientCoordinator,
	)},
	{Team, "Team", "/team", roles(workflow.RoleAdmin)},
	{Settings, "Settings", "/settings", roles(
		workflow.RoleAdmin, workflow.RoleDMManager,
	)},
}

// Destinations returns the full table in display order.
func Destinations() []Destination {
	out := make([]Destination, len(destinations))
	copy(out, destinations)
	return out
}

func Lookup(key Key) (Destination, bool) {
	for _, d := range destinations {
		if d.Key == key {
			return d, true
		}
	}
	return Destination{}, false
}

// Policy filters destinations for a role.
type Policy struct {
	// AllowAllWithoutRole grants every destination to users that have not
	// been assigned a role. When false they see nothing.
	AllowAllWithoutRole bool
}

// Visible returns the destinations role may see, in table order.
func (p Policy) Visible(role workflow.Role) []Destination {
	out := make([]Destination, 0, len(destinations))
	for _, d := range destinations {
		if p.allows(role, d) {
			out = append(out, d)
		}
	}
	return out
}

// CanAccess reports whether role may open the destination named by key.
func (p Policy) CanAccess(role workflow.Role, key Key) bool {
	d, ok := Lookup(key)
	if !ok {
		return false
	}
	return p.allows(role, d)
}

func (p Policy) allows(role workflow.Role, d Destination) bool {
	if role == workflow.RoleNone {
		return p.AllowAllWithoutRole
	}
	return slices.Contains(d.Roles, role)
}

type Outcome string

const (
	OutcomePage     Outcome = "page"
	OutcomeRedirect Outcome = "redirect"
	OutcomeNotFound Outcome = "not_found"
)

// Resolution is where a path leads.
type Resolution struct {
	Outcome  Outcome `json:"outcome"`
	Page     string  `json:"page,omitempty"`
	Location string  `json:"location,omitempty"`
}

var publicPages = map[string]string{
	"/":     "index",
	"/auth": "auth",
}

// protectedPages maps each signed-in route to the page that renders it.
// Several routes share a page.
var protectedPages = map[string]string{
	"/dashboard":     "dashboard",
	"/calendar":      "calendar",
	"/tasks":         "tasks",
	"/briefs":        "tasks",
	"/qc-review":     "tasks",
	"/client-review": "tasks",
	"/ads":           "ads",
	"/campaigns":     "ads",
	"/analytics":     "analytics",
	"/performance":   "analytics",
	"/clients":       "clients",
	"/team":          "clients",
	"/settings":      "settings",
}

// Resolve maps a path to a page. Signed-out visitors are sent to the
// landing page for every protected route.
func Resolve(path string, authenticated bool) Resolution {
	path = normalize(path)

	if page, ok := publicPages[path]; ok {
		return Resolution{Outcome: OutcomePage, Page: page}
	}

	page, ok := protectedPages[path]
	if !ok {
		return Resolution{Outcome: OutcomeNotFound}
	}

	if !authenticated {
		return Resolution{Outcome: OutcomeRedirect, Location: "/"}
	}

	return Resolution{Outcome: OutcomePage, Page: page}
}

func normalize(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if path == "" {
		return "/"
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return path
}

func roles(rs ...workflow.Role) []workflow.Role {
	return rs
}
