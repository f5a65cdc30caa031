// Package workflow runs named, ordered automation steps.
//
// A Definition is an immutable list of Steps plus an optional verification
// read. The Executor runs one Definition to a Report; it never re-runs a
// failed step unless the step's policy says so, and it never reports success
// without the verification read passing. The Controller wraps an Executor
// with a guard, a busy indicator and user-visible notices, and is the
// boundary past which no failure escapes.
package workflow
