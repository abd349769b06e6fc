// Package pollengine implements the timed multi-option voting engine inside
// the game context.
//
// The module owns poll lifecycle (create, vote toggling with per-user
// limits, finalize-exactly-once with all-ties-declared-winners tallying) and
// keeps rendering, persistence, and event production behind ports. Votes on
// the same poll are serialized; polls are otherwise fully independent.
package pollengine
