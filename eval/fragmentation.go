package eval

import "github.com/valfrom/diarize-bench/diarization"

// Fragmentation computes speakerFragmentation: the count of disjoint
// segments attributed to each predicted speaker, summed across speakers,
// divided by the number of distinct predicted speakers. A perfectly
// un-fragmented recording (each speaker appears as one contiguous segment
// after coalescing) scores exactly 1.0.
func Fragmentation(segments []diarization.TimedSpeakerSegment) float64 {
	bySpeaker := make(map[string]int)
	for _, s := range segments {
		bySpeaker[s.SpeakerID]++
	}
	if len(bySpeaker) == 0 {
		return 0
	}
	total := 0
	for _, count := range bySpeaker {
		total += count
	}
	return float64(total) / float64(len(bySpeaker))
}
