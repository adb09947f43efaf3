// Package eventstore persists build history as an append-only event log in SQLite
// and projects it into per-build summaries for the history command.
package eventstore
