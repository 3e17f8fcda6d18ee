package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "bus_inventory"

// Metrics is safe to use through a nil pointer, which records nothing.
type Metrics struct {
	operations *prometheus.CounterVec
	lockWait   *prometheus.HistogramVec
	available  *prometheus.GaugeVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Inventory operations by name and outcome (ok or error kind).",
		}, []string{"op", "outcome"}),
		lockWait: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "lock_wait_seconds",
			Help:      "Time spent waiting for a vehicle lock.",
			Buckets:   []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2, 5},
		}, []string{"op"}),
		available: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "available_seats",
			Help:      "Available seats per vehicle after the last committed change.",
		}, []string{"vehicle_id"}),
	}
	if reg != nil {
		reg.MustRegister(m.operations, m.lockWait, m.available)
	}
	return m
}

func (m *Metrics) ObserveOperation(op, outcome string) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(op, outcome).Inc()
}

func (m *Metrics) ObserveLockWait(op string, d time.Duration) {
	if m == nil {
		return
	}
	m.lockWait.WithLabelValues(op).Observe(d.Seconds())
}

func (m *Metrics) SetAvailable(vehicleID int64, seats int) {
	if m == nil {
		return
	}
	m.available.WithLabelValues(strconv.FormatInt(vehicleID, 10)).Set(float64(seats))
}
