package eval

import (
	"math"
	"sort"

	"github.com/valfrom/diarize-bench/diarization"
	"gonum.org/v1/gonum/mat"
)

// HungarianMapping computes the 1-to-1 predicted->reference speaker mapping
// that maximizes total frame overlap, for offline/batch evaluation. Both
// tracks are rasterized at 100Hz; the overlap matrix is padded to square
// with zero rows/columns so the solver always has a full assignment to
// work with, and padding entries are dropped from the returned mapping.
func HungarianMapping(predicted, reference []diarization.TimedSpeakerSegment, totalDuration float64) Mapping {
	predIDs := uniqueSortedIDs(predicted)
	refIDs := uniqueSortedIDs(reference)
	if len(predIDs) == 0 || len(refIDs) == 0 {
		return Mapping{}
	}

	predTrack := RasterizeSingleLabel(predicted, totalDuration)
	refTrack := RasterizeSingleLabel(reference, totalDuration)

	predIndex := indexOf(predIDs)
	refIndex := indexOf(refIDs)

	overlap := mat.NewDense(len(predIDs), len(refIDs), nil)
	for f := range predTrack {
		p := predTrack[f]
		r := refTrack[f]
		if p == "" || r == "" {
			continue
		}
		pi, rj := predIndex[p], refIndex[r]
		overlap.Set(pi, rj, overlap.At(pi, rj)+1)
	}

	n := len(predIDs)
	if len(refIDs) > n {
		n = len(refIDs)
	}

	cMax := mat.Max(overlap)
	cost := make([][]float64, n)
	for i := 0; i < n; i++ {
		cost[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			if i < len(predIDs) && j < len(refIDs) {
				cost[i][j] = cMax - overlap.At(i, j)
			} else {
				cost[i][j] = cMax
			}
		}
	}

	assignment := solveHungarian(cost)

	mapping := make(Mapping)
	for i, j := range assignment {
		if i >= len(predIDs) || j >= len(refIDs) {
			continue
		}
		if overlap.At(i, j) <= 0 {
			continue
		}
		mapping[predIDs[i]] = refIDs[j]
	}
	return mapping
}

func indexOf(ids []string) map[string]int {
	m := make(map[string]int, len(ids))
	for i, id := range ids {
		m[id] = i
	}
	return m
}

// solveHungarian returns, for each row i, the column it is assigned to,
// minimizing total cost over a square cost matrix. This is the classic
// O(n^3) Kuhn-Munkres algorithm with row/column potentials.
func solveHungarian(cost [][]float64) []int {
	n := len(cost)
	if n == 0 {
		return nil
	}
	const inf = math.MaxFloat64 / 4

	u := make([]float64, n+1)
	v := make([]float64, n+1)
	p := make([]int, n+1) // p[j] = row currently assigned to column j (1-indexed), 0 = unassigned
	way := make([]int, n+1)

	for i := 1; i <= n; i++ {
		p[0] = i
		j0 := 0
		minv := make([]float64, n+1)
		used := make([]bool, n+1)
		for j := range minv {
			minv[j] = inf
		}

		for {
			used[j0] = true
			i0 := p[j0]
			delta := inf
			j1 := -1
			for j := 1; j <= n; j++ {
				if used[j] {
					continue
				}
				cur := cost[i0-1][j-1] - u[i0] - v[j]
				if cur < minv[j] {
					minv[j] = cur
					way[j] = j0
				}
				if minv[j] < delta {
					delta = minv[j]
					j1 = j
				}
			}
			for j := 0; j <= n; j++ {
				if used[j] {
					u[p[j]] += delta
					v[j] -= delta
				} else {
					minv[j] -= delta
				}
			}
			j0 = j1
			if p[j0] == 0 {
				break
			}
		}

		for j0 != 0 {
			j1 := way[j0]
			p[j0] = p[j1]
			j0 = j1
		}
	}

	result := make([]int, n)
	for j := 1; j <= n; j++ {
		if p[j] > 0 {
			result[p[j]-1] = j - 1
		}
	}
	return result
}

// FirstOccurrenceMapping computes a streaming-friendly predicted->reference
// mapping: predicted speakers are visited in the order their id is first
// observed, each claiming the unclaimed reference id with the greatest
// total overlap (summed across every segment emitted for that predicted
// speaker so far), provided that overlap reaches at least half a second.
// Ties break on the lexicographically smaller reference id.
func FirstOccurrenceMapping(predicted, reference []diarization.TimedSpeakerSegment) Mapping {
	const minClaimOverlap = 0.5

	sorted := append([]diarization.TimedSpeakerSegment(nil), predicted...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].StartSeconds < sorted[j].StartSeconds })

	order := make([]string, 0)
	seen := make(map[string]bool)
	groups := make(map[string][]diarization.TimedSpeakerSegment)
	for _, seg := range sorted {
		if !seen[seg.SpeakerID] {
			seen[seg.SpeakerID] = true
			order = append(order, seg.SpeakerID)
		}
		groups[seg.SpeakerID] = append(groups[seg.SpeakerID], seg)
	}

	refIDs := uniqueSortedIDs(reference)
	claimed := make(map[string]bool)
	mapping := make(Mapping)

	for _, predID := range order {
		predSegs := groups[predID]
		bestID := ""
		bestOverlap := 0.0
		for _, refID := range refIDs {
			if claimed[refID] {
				continue
			}
			var total float64
			for _, ps := range predSegs {
				for _, rs := range reference {
					if rs.SpeakerID != refID {
						continue
					}
					total += intervalOverlap(ps.StartSeconds, ps.EndSeconds, rs.StartSeconds, rs.EndSeconds)
				}
			}
			if total > bestOverlap {
				bestOverlap = total
				bestID = refID
			}
		}
		if bestID != "" && bestOverlap >= minClaimOverlap {
			mapping[predID] = bestID
			claimed[bestID] = true
		}
	}
	return mapping
}
