// Package runtime opens the configured storage backend and hands out queues
// that share it.
//
// Example:
//
//	rt, err := runtime.Open(ctx, runtime.Options{Config: cfg, Logger: logger})
//	if err != nil { /* handle */ }
//	defer rt.Close()
//	q, err := rt.OpenQueue()
package runtime
