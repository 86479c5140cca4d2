// Package ledger keeps a SQLite history of play sessions: when each visitor
// started and finished, the language they chose, how far the story got, and
// which videos were recorded.
package ledger
