// Package sessionservice provisions and tears down temporary game servers
// inside the game context.
//
// The module owns the server lifecycle (guild creation with the full role
// and channel layout, random seat assignment, room distribution, death
// bookkeeping, judge promotion, teardown with replay archiving) and keeps
// Discord access, persistence, and event production behind ports.
package sessionservice
