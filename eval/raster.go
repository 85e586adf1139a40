// Package eval computes reference-free speaker-mapping and DER/JER metrics
// from a predicted and a reference speaker-segment track.
package eval

import (
	"math"
	"sort"

	"github.com/valfrom/diarize-bench/diarization"
)

// FrameSize is the fixed 10ms (100Hz) rasterization grain spec.md requires
// for both assignment and metric computation.
const FrameSize = 0.01

// Mapping is a predicted-speaker-id -> reference-speaker-id assignment.
type Mapping map[string]string

// Apply returns the reference id predictedID maps to, or predictedID itself
// if unmapped.
func (m Mapping) Apply(predictedID string) string {
	if m == nil {
		return predictedID
	}
	if mapped, ok := m[predictedID]; ok {
		return mapped
	}
	return predictedID
}

func numFrames(totalDuration float64) int {
	n := int(math.Floor(totalDuration / FrameSize))
	if n < 0 {
		return 0
	}
	return n
}

// RasterizeSingleLabel rasterizes segs into a 100Hz track where each frame
// holds at most one speaker id (or "" for silence). When multiple segments
// overlap a frame, the lexicographically smallest speaker id wins, giving a
// deterministic tie-break independent of segment iteration order.
func RasterizeSingleLabel(segs []diarization.TimedSpeakerSegment, totalDuration float64) []string {
	track := make([]string, numFrames(totalDuration))
	for _, seg := range segs {
		startFrame := int(seg.StartSeconds / FrameSize)
		endFrame := int(math.Ceil(seg.EndSeconds / FrameSize))
		if startFrame < 0 {
			startFrame = 0
		}
		if endFrame > len(track) {
			endFrame = len(track)
		}
		for f := startFrame; f < endFrame; f++ {
			if track[f] == "" || seg.SpeakerID < track[f] {
				track[f] = seg.SpeakerID
			}
		}
	}
	return track
}

// uniqueSortedIDs returns the distinct speaker ids present in segs, sorted
// lexicographically for deterministic indexing.
func uniqueSortedIDs(segs []diarization.TimedSpeakerSegment) []string {
	seen := make(map[string]bool)
	for _, s := range segs {
		seen[s.SpeakerID] = true
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func intervalOverlap(aStart, aEnd, bStart, bEnd float64) float64 {
	lo := math.Max(aStart, bStart)
	hi := math.Min(aEnd, bEnd)
	if hi <= lo {
		return 0
	}
	return hi - lo
}
