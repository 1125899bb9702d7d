package routing

import (
	"fmt"
	"sort"
	"strings"
)

// Route binds a path pattern to a backend service.
type Route struct {
	// Pattern is the path pattern as declared in configuration.
	// A trailing "/**" makes it a prefix pattern; otherwise it matches
	// exactly one path.
	Pattern string

	// Service is the name of the backend service that handles matching
	// requests.
	Service string

	// RequiresAuth indicates whether requests matching this route must
	// present a valid bearer token before being forwarded.
	RequiresAuth bool
}

// compiledRoute is a route with its pattern broken into path segments for
// matching.
type compiledRoute struct {
	Route

	// segments are the non-empty path segments of the normalized pattern.
	// Empty for the root pattern "/".
	segments []string

	// prefix is true for "/**" patterns, which also match descendants.
	prefix bool
}

// Table is an immutable route table. All methods are safe for concurrent
// use; reload replaces the whole table rather than mutating it.
type Table struct {
	// routes ordered by segment count descending, so the first match is
	// the longest one.
	routes []compiledRoute
}

// NewTable compiles a route table from the given routes. It fails when any
// pattern is malformed, any route lacks a service, or two routes declare
// the same pattern. A duplicate is fatal rather than last-wins: silently
// shadowing a route hides a configuration mistake until traffic goes to
// the wrong backend.
func NewTable(routes []Route) (*Table, error) {
	if len(routes) == 0 {
		return nil, ErrEmptyTable
	}

	compiled := make([]compiledRoute, 0, len(routes))
	seen := make(map[string]string)

	for _, r := range routes {
		cr, err := compile(r)
		if err != nil {
			return nil, err
		}
		if r.Service == "" {
			return nil, fmt.Errorf("%w: pattern %q", ErrMissingService, r.Pattern)
		}

		key := "/" + strings.Join(cr.segments, "/")
		if first, dup := seen[key]; dup {
			return nil, &DuplicatePatternError{Pattern: r.Pattern, First: first}
		}
		seen[key] = r.Pattern

		compiled = append(compiled, cr)
	}

	// Longest pattern first. The sort is stable so declaration order
	// breaks ties between patterns of equal depth, though equal-depth
	// patterns never overlap after the duplicate check.
	sort.SliceStable(compiled, func(i, j int) bool {
		return len(compiled[i].segments) > len(compiled[j].segments)
	})

	return &Table{routes: compiled}, nil
}

// compile parses a route pattern into segments.
func compile(r Route) (compiledRoute, error) {
	p := r.Pattern
	if p == "" {
		return compiledRoute{}, &InvalidPatternError{Pattern: p, Reason: "pattern is empty"}
	}
	if !strings.HasPrefix(p, "/") {
		return compiledRoute{}, &InvalidPatternError{Pattern: p, Reason: "pattern must start with '/'"}
	}

	prefix := false
	if strings.HasSuffix(p, "/**") {
		prefix = true
		p = strings.TrimSuffix(p, "/**")
	}
	if strings.Contains(p, "*") {
		return compiledRoute{}, &InvalidPatternError{
			Pattern: r.Pattern,
			Reason:  "wildcards are only allowed as a trailing '/**'",
		}
	}

	return compiledRoute{
		Route:    r,
		segments: splitPath(p),
		prefix:   prefix,
	}, nil
}

// Match returns the route with the longest pattern covering the given
// request path, or ok=false when no route matches. Trailing slashes and
// repeated slashes in the path are ignored.
func (t *Table) Match(path string) (Route, bool) {
	segs := splitPath(path)

	for _, r := range t.routes {
		if r.matches(segs) {
			return r.Route, true
		}
	}
	return Route{}, false
}

// Len returns the number of routes in the table.
func (t *Table) Len() int {
	return len(t.routes)
}

// Routes returns a copy of the routes in match-precedence order.
func (t *Table) Routes() []Route {
	out := make([]Route, len(t.routes))
	for i, r := range t.routes {
		out[i] = r.Route
	}
	return out
}

// matches reports whether the path segments fall under this route.
func (r *compiledRoute) matches(segs []string) bool {
	if !r.prefix {
		if len(segs) != len(r.segments) {
			return false
		}
	} else if len(segs) < len(r.segments) {
		return false
	}

	for i, s := range r.segments {
		if segs[i] != s {
			return false
		}
	}
	return true
}

// splitPath breaks a path into its non-empty segments. "/tasks//42/"
// yields ["tasks" "42"].
func splitPath(path string) []string {
	var segs []string
	for _, s := range strings.Split(path, "/") {
		if s != "" {
			segs = append(segs, s)
		}
	}
	return segs
}
