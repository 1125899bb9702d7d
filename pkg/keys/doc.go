// Package keys provides the signing-key material used to verify bearer
// tokens.
//
// A Source hands out the current key. StaticSource wraps a key fixed at
// startup (from configuration or environment). FileSource reads the key
// from a file and watches it with fsnotify, swapping the key atomically
// when the file changes, which supports Kubernetes-style secret mounts
// where rotation rewrites the mounted file.
//
// Token validation reads the key through a Source on every request, so a
// rotation takes effect for the next request without restarting the
// gateway and without invalidating requests already in flight.
package keys
