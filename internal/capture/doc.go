// Package capture turns host actions into events worth shipping.
//
// A Pipeline runs an ordered chain of handlers; the first handler that
// returns an event wins. Injected parameters are then merged over the event,
// the validator (a Go func or a CEL expression) may reject it, and the
// transform reshapes it. Events that end up empty are dropped.
package capture
