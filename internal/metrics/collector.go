package echometrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// -------------------------------------------------------------------------
// Prometheus Metric Constants
// -------------------------------------------------------------------------

const (
	namespace = "udplite"
	subsystem = "echo"
)

// Label names for echo metrics.
const (
	labelListenAddr = "listen_addr"
)

// -------------------------------------------------------------------------
// Collector — Prometheus Echo Metrics
// -------------------------------------------------------------------------

// Collector holds all echo server Prometheus metrics.
//
// Counters are labeled by listen address so several echo sockets can share
// one registry:
//   - Datagram and byte counters track traffic volume in both directions.
//   - Error counters flag receive failures for alerting.
type Collector struct {
	// DatagramsReceived counts the datagrams accepted by the receive filter.
	DatagramsReceived *prometheus.CounterVec

	// DatagramsEchoed counts the datagrams sent back to their source.
	DatagramsEchoed *prometheus.CounterVec

	// BytesReceived counts payload bytes accepted by the receive filter.
	BytesReceived *prometheus.CounterVec

	// BytesEchoed counts payload bytes sent back to their source.
	BytesEchoed *prometheus.CounterVec

	// ReceiveErrors counts failed receive attempts. Checksum failures do not
	// appear here; the kernel drops those before they reach the socket.
	ReceiveErrors *prometheus.CounterVec
}

// NewCollector creates a Collector with all echo metrics registered against
// the provided prometheus.Registerer. If reg is nil, prometheus.DefaultRegisterer
// is used.
//
// All metrics are created with the "udplite_echo_" prefix (namespace_subsystem)
// to avoid collisions with other exporters.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := newMetrics()

	reg.MustRegister(
		c.DatagramsReceived,
		c.DatagramsEchoed,
		c.BytesReceived,
		c.BytesEchoed,
		c.ReceiveErrors,
	)

	return c
}

// newMetrics creates all Prometheus metric vectors without registering them.
func newMetrics() *Collector {
	listenLabels := []string{labelListenAddr}

	return &Collector{
		DatagramsReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "datagrams_received_total",
			Help:      "Total datagrams received on the echo socket.",
		}, listenLabels),

		DatagramsEchoed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "datagrams_echoed_total",
			Help:      "Total datagrams echoed back to their source.",
		}, listenLabels),

		BytesReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "bytes_received_total",
			Help:      "Total payload bytes received on the echo socket.",
		}, listenLabels),

		BytesEchoed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "bytes_echoed_total",
			Help:      "Total payload bytes echoed back to their source.",
		}, listenLabels),

		ReceiveErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "receive_errors_total",
			Help:      "Total failed receive attempts on the echo socket.",
		}, listenLabels),
	}
}

// -------------------------------------------------------------------------
// Traffic Counters
// -------------------------------------------------------------------------

// RecordReceived accounts one accepted datagram of the given payload size.
// Called for each datagram the kernel delivered through the receive filter.
func (c *Collector) RecordReceived(listenAddr string, payloadBytes int) {
	c.DatagramsReceived.WithLabelValues(listenAddr).Inc()
	c.BytesReceived.WithLabelValues(listenAddr).Add(float64(payloadBytes))
}

// RecordEchoed accounts one echoed datagram of the given payload size.
// Called after the reply send succeeded.
func (c *Collector) RecordEchoed(listenAddr string, payloadBytes int) {
	c.DatagramsEchoed.WithLabelValues(listenAddr).Inc()
	c.BytesEchoed.WithLabelValues(listenAddr).Add(float64(payloadBytes))
}

// IncReceiveErrors increments the receive error counter.
// Called when a receive attempt fails with anything but a deadline.
func (c *Collector) IncReceiveErrors(listenAddr string) {
	c.ReceiveErrors.WithLabelValues(listenAddr).Inc()
}
