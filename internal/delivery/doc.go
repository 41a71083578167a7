// Package delivery sends queued items to a remote endpoint.
//
// HTTP posts each item as JSON and treats any 2xx response as accepted.
// Breaker wraps any deliverer with a circuit breaker so a failing endpoint
// is not hammered while it is down.
package delivery
