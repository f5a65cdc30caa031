// Package notify presents workflow outcomes to the user.
//
// The orchestrators only speak to a Notifier: transient notices (success,
// error, info, warning) and a single busy indicator shown while a workflow
// runs. Implementations render to a terminal, to the log, into the page, or
// into memory for tests. FlagStore backs the one-time "extension active"
// notices.
package notify
