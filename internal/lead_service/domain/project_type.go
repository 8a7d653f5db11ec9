package domain

import "strings"

// Project type codes, as stored in the project_type field.
const (
	ProjectTypeWebApp     = "web-app"
	ProjectTypeMobileApp  = "mobile-app"
	ProjectTypeECommerce  = "ecommerce"
	ProjectTypeAPI        = "api"
	ProjectTypeDesktopApp = "desktop-app"
	ProjectTypeWebsite    = "website"
)

type projectTypeRule struct {
	match  func(title string) bool
	result string
}

func containsAny(title string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(title, w) {
			return true
		}
	}
	return false
}

// Evaluated top to bottom; the first match wins.
var projectTypeRules = []projectTypeRule{
	{match: func(t string) bool { return containsAny(t, "mobile app") }, result: ProjectTypeMobileApp},
	{match: func(t string) bool { return containsAny(t, "e-commerce", "ecommerce") }, result: ProjectTypeECommerce},
	{match: func(t string) bool {
		return strings.Contains(t, "api development") && !strings.Contains(t, "integration")
	}, result: ProjectTypeAPI},
	{match: func(t string) bool { return containsAny(t, "desktop") }, result: ProjectTypeDesktopApp},
	{match: func(t string) bool { return containsAny(t, "responsive", "web design") }, result: ProjectTypeWebsite},
}

// DeriveProjectType maps a service title to the project type a quote form
// starts with. Unmatched titles fall back to web-app.
func DeriveProjectType(serviceTitle string) string {
	title := strings.ToLower(serviceTitle)
	for _, r := range projectTypeRules {
		if r.match(title) {
			return r.result
		}
	}
	return ProjectTypeWebApp
}

// ProjectTypeCodes lists every code DeriveProjectType can return.
func ProjectTypeCodes() []string {
	codes := make([]string, 0, len(projectTypeRules)+1)
	for _, r := range projectTypeRules {
		codes = append(codes, r.result)
	}
	return append(codes, ProjectTypeWebApp)
}
