// Package limits provides per-service admission control.
//
// Each backend service gets a concurrency limiter capping the number of
// requests the gateway will hold in flight against it at once. A request
// that cannot acquire a slot is rejected with 503 rather than queued, so
// a slow backend sheds load instead of accumulating it at the gateway.
//
// Limiters are lock-free counting semaphores; acquisition costs one
// atomic add on the hot path.
package limits
