// Package session persists conversations across agent invocations. A Store
// keeps Session snapshots (transcript plus agent state) keyed by id; the
// Recorder hook provider mirrors a live agent's history into a Store as it
// grows, so a later agent can be seeded from where the last one stopped.
//
// Additional backends (Redis, Postgres, ...) can implement Store in
// sub-packages without changing any calling code.
package session
