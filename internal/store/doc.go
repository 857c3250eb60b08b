// Package store defines the persistence interfaces for decks, cards,
// per-user review progress, session summaries, and aggregate stats, plus
// the shared transaction plumbing and error taxonomy their implementations
// use. The scheduling and session logic depends only on these interfaces,
// never on a specific database.
package store
