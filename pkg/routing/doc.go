// Package routing implements the gateway route table.
//
// A route binds a path pattern to a backend service name and records
// whether requests matching it must carry a valid bearer token. Patterns
// come in two forms:
//
//   - Exact: "/status" matches only the path "/status".
//   - Prefix: "/tasks/**" matches "/tasks", "/tasks/", and every path
//     below "/tasks/".
//
// Matching is segment aligned. The pattern "/tasks/**" does not match
// "/tasks-archive/1" even though "/tasks" is a string prefix of it.
// When several prefix patterns cover the same path, the one with the
// most segments wins, so "/tasks/archive/**" beats "/tasks/**" for
// "/tasks/archive/2024".
//
// Tables are immutable after construction. Configuration reload builds
// a fresh table and swaps it in atomically; in-flight requests keep the
// table they matched against.
//
// Example usage:
//
//	table, err := routing.NewTable([]routing.Route{
//	    {Pattern: "/auth/**", Service: "auth-service"},
//	    {Pattern: "/tasks/**", Service: "task-service", RequiresAuth: true},
//	})
//	if err != nil {
//	    return err
//	}
//
//	route, ok := table.Match("/tasks/42/comments")
//	if !ok {
//	    // no route covers this path
//	}
package routing
