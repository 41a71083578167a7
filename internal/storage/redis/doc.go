// Package redisstore is a kv.Store backed by Redis. Several processes may
// point at the same Redis, but the queue lock is per process: two processes
// draining one queue can interleave tracking-list rewrites.
package redisstore
