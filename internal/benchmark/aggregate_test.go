package benchmark

import (
	"testing"

	"github.com/valfrom/diarize-bench/internal/resultstore"
)

func TestAggregateComputesMeanAndPasses(t *testing.T) {
	results := []resultstore.RecordingResult{
		{RecordingID: "a", DER: 10, JER: 20, RTFx: 2.0},
		{RecordingID: "b", DER: 20, JER: 30, RTFx: 4.0},
	}
	agg := Aggregate(results, Thresholds{DERMax: 50, JERMax: 50, RTFMax: 1})

	if agg.MeanDER != 15 {
		t.Fatalf("MeanDER = %v, want 15", agg.MeanDER)
	}
	if agg.MeanJER != 25 {
		t.Fatalf("MeanJER = %v, want 25", agg.MeanJER)
	}
	if agg.MeanRTFx != 3.0 {
		t.Fatalf("MeanRTFx = %v, want 3.0", agg.MeanRTFx)
	}
	if !agg.Passed {
		t.Fatalf("expected Passed, failures: %v", agg.Failures)
	}
}

func TestAggregateFailsWhenDERThresholdExceeded(t *testing.T) {
	results := []resultstore.RecordingResult{
		{RecordingID: "a", DER: 80, JER: 10, RTFx: 2.0},
	}
	agg := Aggregate(results, Thresholds{DERMax: 50, JERMax: 50, RTFMax: 1})

	if agg.Passed {
		t.Fatalf("expected Passed=false when DER exceeds threshold")
	}
	if len(agg.Failures) != 1 {
		t.Fatalf("expected exactly 1 failure, got %v", agg.Failures)
	}
}

func TestAggregateFailsWhenRTFxBelowFloor(t *testing.T) {
	results := []resultstore.RecordingResult{
		{RecordingID: "a", DER: 10, JER: 10, RTFx: 0.2},
	}
	agg := Aggregate(results, Thresholds{DERMax: 50, JERMax: 50, RTFMax: 1})

	if agg.Passed {
		t.Fatalf("expected Passed=false when mean RTFx is below the required floor")
	}
}

func TestAggregateEmptyResultsPasses(t *testing.T) {
	agg := Aggregate(nil, Thresholds{DERMax: 10, JERMax: 10, RTFMax: 1})
	if !agg.Passed {
		t.Fatalf("expected an empty run to pass trivially")
	}
}

func TestPercentileMatchesKnownValues(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5}
	if got := percentile(values, 0); got != 1 {
		t.Fatalf("p0 = %v, want 1", got)
	}
	if got := percentile(values, 1); got != 5 {
		t.Fatalf("p100 = %v, want 5", got)
	}
}
