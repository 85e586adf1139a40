package benchmark

import (
	"fmt"
	"math"
	"sort"

	"github.com/valfrom/diarize-bench/internal/resultstore"
)

// Thresholds are the pass/fail bounds a benchmark run is judged against.
// RTFMax names spec.md's configuration surface ("derThreshold/jerThreshold/
// rtfThreshold") but, since RTFx is higher-is-better (audio duration /
// processing time), it is applied as a floor: a run fails if mean RTFx
// drops below it, not above.
type Thresholds struct {
	DERMax float64
	JERMax float64
	RTFMax float64
}

// Aggregate folds per-recording results into an AggregateResult: mean and
// population standard deviation of DER/JER across recordings, mean/p90/p99
// of per-recording real-time factor, and a pass/fail verdict against
// thresholds.
func Aggregate(results []resultstore.RecordingResult, thresholds Thresholds) resultstore.AggregateResult {
	agg := resultstore.AggregateResult{Recordings: results}
	if len(results) == 0 {
		agg.Passed = true
		return agg
	}

	ders := make([]float64, len(results))
	jers := make([]float64, len(results))
	rtfxs := make([]float64, len(results))
	for i, r := range results {
		ders[i] = r.DER
		jers[i] = r.JER
		rtfxs[i] = r.RTFx
	}

	agg.MeanDER, agg.StdDevDER = meanStdDev(ders)
	agg.MeanJER, agg.StdDevJER = meanStdDev(jers)
	agg.MeanRTFx, _ = meanStdDev(rtfxs)
	agg.P90RTFx = percentile(rtfxs, 0.90)
	agg.P99RTFx = percentile(rtfxs, 0.99)

	var failures []string
	if agg.MeanDER > thresholds.DERMax {
		failures = append(failures, fmt.Sprintf("mean DER %.2f exceeds threshold %.2f", agg.MeanDER, thresholds.DERMax))
	}
	if agg.MeanJER > thresholds.JERMax {
		failures = append(failures, fmt.Sprintf("mean JER %.2f exceeds threshold %.2f", agg.MeanJER, thresholds.JERMax))
	}
	if agg.MeanRTFx < thresholds.RTFMax {
		failures = append(failures, fmt.Sprintf("mean RTFx %.2f is below required %.2f", agg.MeanRTFx, thresholds.RTFMax))
	}

	agg.Failures = failures
	agg.Passed = len(failures) == 0
	return agg
}

func meanStdDev(values []float64) (mean, stddev float64) {
	n := float64(len(values))
	for _, v := range values {
		mean += v
	}
	mean /= n

	var sumSq float64
	for _, v := range values {
		d := v - mean
		sumSq += d * d
	}
	stddev = math.Sqrt(sumSq / n)
	return mean, stddev
}

// percentile returns the p-th percentile (0..1) of values using linear
// interpolation between the two closest ranks of a sorted copy.
func percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	if len(sorted) == 1 {
		return sorted[0]
	}

	rank := p * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
