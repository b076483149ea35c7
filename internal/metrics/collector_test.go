package echometrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	echometrics "github.com/tormol/udplite/internal/metrics"
)

// testListenAddr is the label value used throughout these tests.
const testListenAddr = "127.0.0.1:5060"

func TestNewCollector(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c := echometrics.NewCollector(reg)

	if c.DatagramsReceived == nil {
		t.Error("DatagramsReceived is nil")
	}
	if c.DatagramsEchoed == nil {
		t.Error("DatagramsEchoed is nil")
	}
	if c.BytesReceived == nil {
		t.Error("BytesReceived is nil")
	}
	if c.BytesEchoed == nil {
		t.Error("BytesEchoed is nil")
	}
	if c.ReceiveErrors == nil {
		t.Error("ReceiveErrors is nil")
	}

	// Verify all metrics are registered by gathering them.
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error: %v", err)
	}

	// No data yet, so families may be empty -- but registration must not panic.
	_ = families
}

func TestRecordReceived(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c := echometrics.NewCollector(reg)

	c.RecordReceived(testListenAddr, 5)
	c.RecordReceived(testListenAddr, 11)

	val := counterValue(t, c.DatagramsReceived, testListenAddr)
	if val != 2 {
		t.Errorf("DatagramsReceived = %v, want 2", val)
	}

	val = counterValue(t, c.BytesReceived, testListenAddr)
	if val != 16 {
		t.Errorf("BytesReceived = %v, want 16", val)
	}
}

func TestRecordEchoed(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c := echometrics.NewCollector(reg)

	c.RecordEchoed(testListenAddr, 5)

	val := counterValue(t, c.DatagramsEchoed, testListenAddr)
	if val != 1 {
		t.Errorf("DatagramsEchoed = %v, want 1", val)
	}

	val = counterValue(t, c.BytesEchoed, testListenAddr)
	if val != 5 {
		t.Errorf("BytesEchoed = %v, want 5", val)
	}

	// A different listen address keeps its own series.
	val = counterValue(t, c.DatagramsEchoed, "[::1]:5060")
	if val != 0 {
		t.Errorf("DatagramsEchoed for other addr = %v, want 0", val)
	}
}

func TestReceiveErrors(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c := echometrics.NewCollector(reg)

	c.IncReceiveErrors(testListenAddr)
	c.IncReceiveErrors(testListenAddr)

	val := counterValue(t, c.ReceiveErrors, testListenAddr)
	if val != 2 {
		t.Errorf("ReceiveErrors = %v, want 2", val)
	}
}

// -------------------------------------------------------------------------
// Helpers
// -------------------------------------------------------------------------

// counterValue reads the current value of a CounterVec with the given labels.
func counterValue(t *testing.T, vec *prometheus.CounterVec, labels ...string) float64 {
	t.Helper()

	counter, err := vec.GetMetricWithLabelValues(labels...)
	if err != nil {
		t.Fatalf("GetMetricWithLabelValues(%v): %v", labels, err)
	}

	m := &dto.Metric{}
	if err := counter.Write(m); err != nil {
		t.Fatalf("Write metric: %v", err)
	}

	return m.GetCounter().GetValue()
}
