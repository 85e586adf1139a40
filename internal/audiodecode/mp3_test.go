package audiodecode

import (
	"math"
	"testing"
)

func TestResampleLinearSameRateIsNoOp(t *testing.T) {
	in := []float32{0.1, 0.2, 0.3}
	out := resampleLinear(in, 16000, 16000)
	if len(out) != len(in) {
		t.Fatalf("len(out) = %d, want %d", len(out), len(in))
	}
}

func TestResampleLinearDownsamplesLength(t *testing.T) {
	in := make([]float32, 32000) // 2s at 16kHz
	out := resampleLinear(in, 32000, 16000)
	want := 16000
	if diff := out; len(diff) < want-2 || len(diff) > want+2 {
		t.Fatalf("len(out) = %d, want approximately %d", len(out), want)
	}
}

func TestResampleLinearInterpolatesBetweenSamples(t *testing.T) {
	in := []float32{0, 10}
	out := resampleLinear(in, 2, 1)
	if len(out) != 1 {
		t.Fatalf("len(out) = %d, want 1", len(out))
	}
	if math.Abs(float64(out[0])) > 10 {
		t.Fatalf("interpolated value out of expected range: %v", out[0])
	}
}

func TestResampleLinearEmptyInput(t *testing.T) {
	out := resampleLinear(nil, 32000, 16000)
	if out != nil {
		t.Fatalf("expected nil output for empty input, got %v", out)
	}
}
