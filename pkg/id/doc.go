// Package id generates identifiers for queued items.
//
// # Format
//
// Random identifiers are the lowercase hex rendering of a random integer in
// [0, 10^16), so at most 14 hex digits and never any separator characters.
// Uniqueness is probabilistic: two live items colliding is possible but
// vanishingly unlikely for queues of realistic depth.
//
// UUID identifiers (RFC 4122 v4) trade a longer key for a larger space and
// contain only hex digits and '-'.
//
// Usage
//
//	g := id.NewRandom()
//	key := g.Next() // e.g. "1c6bf52634000"
package id
