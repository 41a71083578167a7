// Package pebblestore is the durable storage backend: a thin wrapper around
// Pebble with an fsync policy and metrics hooks, plus a kv.Store adapter.
//
// Usage:
//
//	db, err := pebblestore.Open(pebblestore.Options{
//	    DataDir: "./data",
//	    Fsync:   pebblestore.FsyncModeInterval,
//	})
//	if err != nil { /* handle */ }
//	defer db.Close()
//
//	store := pebblestore.NewKV(db, "logship/")
//	q, err := queue.New[capture.Event]("events", store, queue.Options{})
package pebblestore
