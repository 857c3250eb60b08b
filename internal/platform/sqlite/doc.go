// Package sqlite provides SQLite implementations of the store interfaces
// using an embedded, pure-Go driver. It is the zero-infrastructure backend:
// a single database file, suitable for bots and CLI front ends that embed
// the engine in-process.
//
// Timestamps are stored as Unix seconds and UUIDs as their canonical text
// form. The connection pool is capped at one connection because SQLite
// allows only one writer; WAL mode plus a busy timeout keep concurrent
// callers serialized instead of failing.
package sqlite
