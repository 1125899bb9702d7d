// Package audit records one entry per dispatched request.
//
// The gateway is the single place every request crosses, which makes it
// the natural point to keep an operational trail: what was asked for,
// who asked, where it went, and how it ended. Records are written
// asynchronously through a buffered channel so a slow disk never adds
// latency to the request path; under sustained overload records are
// dropped and counted rather than queued without bound.
//
// Two storage backends are provided: SQLite for durable single-node
// deployments and an in-memory ring for tests and ephemeral setups.
// A cron-scheduled Pruner enforces retention by age and record count.
package audit
