// Package contextstore implements the shared session context: a versioned,
// quota-limited key/value store that agents use to exchange distilled
// findings instead of inflating their response payloads.
//
// A Store holds the entries of one session and optionally persists them to a
// JSON file after every mutation, so sessions survive process restarts. A
// SessionManager maintains many stores under a single root directory, one
// subdirectory per session, and supports archiving (read-only) and deletion.
//
// Every write is attributed to a caller identity and bumps the entry's
// version, which lets agents detect concurrent updates to the keys they
// care about. Agents reach the store through the "shared_context" tool in
// the tool package.
package contextstore
