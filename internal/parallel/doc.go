// Package parallel runs independent jobs with bounded concurrency.
//
// The scanner uses it to read source files concurrently. Results come back
// in submission order so callers stay deterministic regardless of which
// worker finished first.
package parallel
