// Package jobs tracks podcast generation jobs through their lifecycle.
//
// The store is backed by an in-memory SQLite database: job state is
// intentionally process-local and forgotten on restart, while a single
// connection serializes every concurrent read-modify-write from the HTTP
// handlers and pipeline workers. Terminal jobs are frozen and progress is
// monotone, so pollers never observe a job moving backwards.
package jobs
