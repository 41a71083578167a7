// Package queue implements a durable FIFO queue on top of a kv.Store.
//
// # Keyspace
//
// For a queue named {name}:
//
//	{name}--queue   - tracking list: item ids joined by the delimiter ('|')
//	{id}            - JSON payload of one queued item
//
// The tracking list is the authoritative order. An id is present in the list
// exactly while its payload entry exists, except across a crash between the
// two writes of a push or pop:
//
//   - Push writes the payload, then appends the id. A crash in between leaves
//     an unreferenced payload and the item is lost.
//   - Pop rewrites the list, then removes the payload. A crash in between
//     leaves an unreferenced payload behind.
//
// # Concurrency
//
// Push, PushAll and Pop hold a per-queue semaphore (max 1) for their whole
// read-modify-write, so they never interleave within one process. Acquisition
// is bounded (Options.LockWait); on timeout Push drops the item and Pop
// reports empty. Both log a warning and notify the MetricsHook instead of
// failing. Peek and Len read without the lock and may observe a mutation in
// flight. Nothing coordinates across processes sharing one store.
//
// Clear is intentionally unsupported.
package queue
