// Package sqlitestore is a kv.Store backed by a single SQLite file.
//
// The database is configured with WAL journaling, NORMAL synchronous mode, a
// 5-second busy timeout and one connection, so writes are serialized.
package sqlitestore
