// Package task models delegated work items and the manager that tracks
// them. A Task is created in the running state when spawned, transitions to
// completed or failed exactly once, and leaves tracking when collected.
// The Manager enforces the concurrency ceiling at admission time and hands
// out value snapshots so callers never race the execution backend.
package task
