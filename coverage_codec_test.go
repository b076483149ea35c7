//go:build linux || freebsd

package udplite

import (
	"errors"
	"testing"
)

// TestCoverageWireValue verifies the encode side of the coverage codec:
// full coverage encodes to 0 and partial coverage carries the +8 header
// bias (RFC 3828 Section 3.1 counts header plus payload).
func TestCoverageWireValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cov  Coverage
		want int
	}{
		{"full", FullCoverage(), 0},
		{"zero payload", PayloadCoverage(0), 8},
		{"five bytes", PayloadCoverage(5), 13},
		{"max representable", PayloadCoverage(MaxPayloadCoverage), 0xFFFF},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.cov.wireValue(); got != tt.want {
				t.Errorf("wireValue(%s) = %d, want %d", tt.cov, got, tt.want)
			}
		})
	}
}

// TestCoverageFromWire verifies the decode side: 0 means full, values in
// [8, 0xFFFF] decode with the bias removed, and everything else is a
// consistency failure distinct from an OS error.
func TestCoverageFromWire(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		value   int
		want    Coverage
		wantErr error
	}{
		{"full", 0, FullCoverage(), nil},
		{"header only", 8, PayloadCoverage(0), nil},
		{"hundred", 108, PayloadCoverage(100), nil},
		{"wire max", 0xFFFF, PayloadCoverage(MaxPayloadCoverage), nil},
		{"partial header low", 1, Coverage{}, ErrCoveragePartialHeader},
		{"partial header high", 7, Coverage{}, ErrCoveragePartialHeader},
		{"negative", -1, Coverage{}, ErrCoverageOutOfRange},
		{"above 16 bits", 0x10000, Coverage{}, ErrCoverageOutOfRange},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := coverageFromWire(tt.value)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("coverageFromWire(%d) error = %v, want %v", tt.value, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("coverageFromWire(%d): unexpected error: %v", tt.value, err)
			}
			if got != tt.want {
				t.Errorf("coverageFromWire(%d) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

// TestCoverageRoundTripCodec verifies that encode followed by decode is the
// identity for every representable coverage, including both boundaries.
func TestCoverageRoundTripCodec(t *testing.T) {
	t.Parallel()

	cases := []Coverage{
		FullCoverage(),
		PayloadCoverage(0),
		PayloadCoverage(1),
		PayloadCoverage(100),
		PayloadCoverage(MaxPayloadCoverage),
	}

	for _, cov := range cases {
		got, err := coverageFromWire(cov.wireValue())
		if err != nil {
			t.Fatalf("round trip %s: %v", cov, err)
		}
		if got != cov {
			t.Errorf("round trip %s: got %s", cov, got)
		}
	}
}

// TestCoverageAccessors verifies IsFull, PayloadBytes and String on both
// variants of the value.
func TestCoverageAccessors(t *testing.T) {
	t.Parallel()

	full := FullCoverage()
	if !full.IsFull() {
		t.Error("FullCoverage().IsFull() = false")
	}
	if _, partial := full.PayloadBytes(); partial {
		t.Error("FullCoverage().PayloadBytes() reports partial")
	}
	if full.String() != "full" {
		t.Errorf("FullCoverage().String() = %q", full.String())
	}

	part := PayloadCoverage(20)
	if part.IsFull() {
		t.Error("PayloadCoverage(20).IsFull() = true")
	}
	n, partial := part.PayloadBytes()
	if !partial || n != 20 {
		t.Errorf("PayloadCoverage(20).PayloadBytes() = (%d, %t)", n, partial)
	}
	if part.String() != "20 payload bytes" {
		t.Errorf("PayloadCoverage(20).String() = %q", part.String())
	}
}
