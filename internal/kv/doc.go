// Package kv defines the string key-value contract the durable queue is built
// on, plus an explicit in-memory implementation.
//
// Each Store call is independently atomic; there are no multi-key
// transactions. Calls may block on I/O and are safe for concurrent use, so
// callers issue them from whichever goroutine needs the result.
//
// Backends:
//
//	kv.NewMemory()                       // non-durable, tests and dry runs
//	pebblestore.NewKV(db, "logship/")    // internal/storage/pebble
//	redisstore.New(client, "logship:")   // internal/storage/redis
//	sqlitestore.Open(path)               // internal/storage/sqlite
package kv
