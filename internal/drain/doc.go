// Package drain moves items from a queue to a deliverer.
//
// A drain pops the head item, hands it to the deliverer and keeps going until
// the queue is empty or a delivery fails. A failed item is pushed back to the
// tail and the drain stops; the next trigger or sweep retries it. Retried
// items may therefore be delivered after items enqueued behind them.
package drain
