// Package routepath stores canonical view paths for the terminal client.
package routepath

import (
	"net/url"
	"strings"
)

const (
	Organizations       = "/organizations"
	OrganizationsPrefix = "/organizations/"
	OrganizationsNew    = "/organizations/new"
)

// Kind identifies which view a path resolves to.
type Kind int

const (
	KindUnknown Kind = iota
	KindList
	KindNew
	KindDetail
)

func (k Kind) String() string {
	switch k {
	case KindList:
		return "list"
	case KindNew:
		return "new"
	case KindDetail:
		return "detail"
	default:
		return "unknown"
	}
}

// Route is a parsed view path.
type Route struct {
	Kind Kind
	ID   string
}

// Organization returns the organization detail route.
func Organization(organizationID string) string {
	return OrganizationsPrefix + escapeSegment(organizationID)
}

// Parse resolves a view path. Trailing slashes and query strings are ignored.
func Parse(path string) Route {
	path = strings.TrimSpace(path)
	if idx := strings.IndexAny(path, "?#"); idx >= 0 {
		path = path[:idx]
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	switch path {
	case Organizations, "/", "":
		return Route{Kind: KindList}
	case OrganizationsNew:
		return Route{Kind: KindNew}
	}
	rest, ok := strings.CutPrefix(path, OrganizationsPrefix)
	if !ok || rest == "" || strings.Contains(rest, "/") {
		return Route{Kind: KindUnknown}
	}
	id, err := url.PathUnescape(rest)
	if err != nil || strings.TrimSpace(id) == "" {
		return Route{Kind: KindUnknown}
	}
	return Route{Kind: KindDetail, ID: id}
}

func escapeSegment(raw string) string {
	return url.PathEscape(strings.TrimSpace(raw))
}
