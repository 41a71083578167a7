package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	Namespace = "logship"

	Queue    = "queue"
	Delivery = "delivery"
	Storage  = "storage"
)

var storageBuckets = []float64{.0001, .0005, .001, .005, .01, .025, .05, .1, .25, .5, 1}

type Metrics struct {
	// Queue
	pushed       *prometheus.CounterVec
	popped       *prometheus.CounterVec
	lockTimeouts *prometheus.CounterVec
	depth        *prometheus.GaugeVec

	// Delivery
	delivered prometheus.Counter
	failed    prometheus.Counter
	requeued  prometheus.Counter

	// Storage
	writeDuration  prometheus.Histogram
	readDuration   prometheus.Histogram
	commitDuration prometheus.Histogram
	bytesWritten   prometheus.Counter
	bytesRead      prometheus.Counter
}

// New creates a Metrics instance and registers every collector with reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		pushed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: Queue,
			Name:      "pushed_total",
			Help:      "Items appended to the queue",
		}, []string{"queue"}),
		popped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: Queue,
			Name:      "popped_total",
			Help:      "Items removed from the head of the queue",
		}, []string{"queue"}),
		lockTimeouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: Queue,
			Name:      "lock_timeouts_total",
			Help:      "Queue operations abandoned because the lock wait expired",
		}, []string{"queue", "op"}),
		depth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: Queue,
			Name:      "depth",
			Help:      "Items waiting in the queue at last observation",
		}, []string{"queue"}),
		delivered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: Delivery,
			Name:      "delivered_total",
			Help:      "Items accepted by the endpoint",
		}),
		failed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: Delivery,
			Name:      "failed_total",
			Help:      "Delivery attempts that were rejected or errored",
		}),
		requeued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: Delivery,
			Name:      "requeued_total",
			Help:      "Failed items pushed back to the queue tail",
		}),
		writeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: Storage,
			Name:      "write_duration_seconds",
			Help:      "Single-key write latency",
			Buckets:   storageBuckets,
		}),
		readDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: Storage,
			Name:      "read_duration_seconds",
			Help:      "Single-key read latency",
			Buckets:   storageBuckets,
		}),
		commitDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: Storage,
			Name:      "commit_duration_seconds",
			Help:      "Batch commit latency",
			Buckets:   storageBuckets,
		}),
		bytesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: Storage,
			Name:      "written_bytes_total",
			Help:      "Bytes written by single-key writes",
		}),
		bytesRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: Storage,
			Name:      "read_bytes_total",
			Help:      "Bytes returned by single-key reads",
		}),
	}

	err := errors.Join(
		reg.Register(m.pushed),
		reg.Register(m.popped),
		reg.Register(m.lockTimeouts),
		reg.Register(m.depth),
		reg.Register(m.delivered),
		reg.Register(m.failed),
		reg.Register(m.requeued),
		reg.Register(m.writeDuration),
		reg.Register(m.readDuration),
		reg.Register(m.commitDuration),
		reg.Register(m.bytesWritten),
		reg.Register(m.bytesRead),
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// ObservePush records n items appended to queue.
func (m *Metrics) ObservePush(queue string, n int) {
	if m == nil {
		return
	}
	m.pushed.WithLabelValues(queue).Add(float64(n))
}

// ObservePop records one item removed from queue.
func (m *Metrics) ObservePop(queue string) {
	if m == nil {
		return
	}
	m.popped.WithLabelValues(queue).Inc()
}

// ObserveLockTimeout records an operation that gave up on the queue lock.
func (m *Metrics) ObserveLockTimeout(queue, op string) {
	if m == nil {
		return
	}
	m.lockTimeouts.WithLabelValues(queue, op).Inc()
}

// SetDepth records the current queue length.
func (m *Metrics) SetDepth(queue string, n int) {
	if m == nil {
		return
	}
	m.depth.WithLabelValues(queue).Set(float64(n))
}

// ObserveDelivered records an accepted delivery.
func (m *Metrics) ObserveDelivered() {
	if m == nil {
		return
	}
	m.delivered.Inc()
}

// ObserveFailed records a failed delivery.
func (m *Metrics) ObserveFailed() {
	if m == nil {
		return
	}
	m.failed.Inc()
}

// ObserveRequeued records a failed item pushed back to the queue.
func (m *Metrics) ObserveRequeued() {
	if m == nil {
		return
	}
	m.requeued.Inc()
}

// ObserveWrite records a storage write.
func (m *Metrics) ObserveWrite(elapsed time.Duration, bytes int) {
	if m == nil {
		return
	}
	m.writeDuration.Observe(elapsed.Seconds())
	m.bytesWritten.Add(float64(bytes))
}

// ObserveRead records a storage read.
func (m *Metrics) ObserveRead(elapsed time.Duration, bytes int) {
	if m == nil {
		return
	}
	m.readDuration.Observe(elapsed.Seconds())
	m.bytesRead.Add(float64(bytes))
}

// ObserveBatchCommit records a storage batch commit.
func (m *Metrics) ObserveBatchCommit(elapsed time.Duration, _ int, _ int) {
	if m == nil {
		return
	}
	m.commitDuration.Observe(elapsed.Seconds())
}
