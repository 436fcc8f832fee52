// Package history journals finished conversions in a SQLite database.
//
// The store uses modernc.org/sqlite (pure Go) with WAL journaling and an
// embedded schema versioned through PRAGMA user_version. Each convert run appends
// one row whether it succeeded or failed; "hlspack history" lists them.
// Recording is best effort: callers log write failures and carry on.
package history
