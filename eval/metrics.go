package eval

import (
	"math"
	"math/bits"

	"github.com/valfrom/diarize-bench/diarization"
)

// FrameTally is the raw per-frame classification counts behind DER.
type FrameTally struct {
	Miss           int
	FalseAlarm     int
	Confusion      int
	CorrectSpeaker int
	CorrectSilence int
	TotalFrames    int
}

// Metrics is the full result of comparing a predicted track against a
// reference track under a given mapping.
type Metrics struct {
	DER             float64
	JER             float64
	MissRate        float64
	FalseAlarmRate  float64
	ConfusionRate   float64
	Tally           FrameTally
}

// Evaluate rasterizes predicted and reference at 100Hz, maps predicted
// speaker ids through mapping, and computes DER (miss+falseAlarm+confusion
// over total frames, as a percentage) and JER (1 - mean per-frame Jaccard
// similarity of the active-speaker sets, as a percentage).
func Evaluate(predicted, reference []diarization.TimedSpeakerSegment, totalDuration float64, mapping Mapping) Metrics {
	predTrack := RasterizeSingleLabel(mapSpeakerIDs(predicted, mapping), totalDuration)
	refTrack := RasterizeSingleLabel(reference, totalDuration)

	var tally FrameTally
	tally.TotalFrames = len(refTrack)
	for i := range refTrack {
		g := refTrack[i]
		p := predTrack[i]
		switch {
		case g == "" && p == "":
			tally.CorrectSilence++
		case g == "" && p != "":
			tally.FalseAlarm++
		case g != "" && p == "":
			tally.Miss++
		case g == p:
			tally.CorrectSpeaker++
		default:
			tally.Confusion++
		}
	}

	metrics := Metrics{Tally: tally}
	if tally.TotalFrames > 0 {
		total := float64(tally.TotalFrames)
		metrics.DER = float64(tally.Miss+tally.FalseAlarm+tally.Confusion) / total * 100
		metrics.MissRate = float64(tally.Miss) / total * 100
		metrics.FalseAlarmRate = float64(tally.FalseAlarm) / total * 100
		metrics.ConfusionRate = float64(tally.Confusion) / total * 100
	}

	metrics.JER = computeJER(mapSpeakerIDs(predicted, mapping), reference, totalDuration)
	return metrics
}

func mapSpeakerIDs(segs []diarization.TimedSpeakerSegment, mapping Mapping) []diarization.TimedSpeakerSegment {
	if mapping == nil {
		return segs
	}
	out := make([]diarization.TimedSpeakerSegment, len(segs))
	for i, s := range segs {
		out[i] = s
		out[i].SpeakerID = mapping.Apply(s.SpeakerID)
	}
	return out
}

// bitsetIndex assigns each distinct speaker id a stable bit position so
// frame-level set membership can be tracked with bitwise operations.
type bitsetIndex struct {
	index map[string]int
}

func newBitsetIndex(segLists ...[]diarization.TimedSpeakerSegment) bitsetIndex {
	idx := bitsetIndex{index: make(map[string]int)}
	for _, segs := range segLists {
		for _, s := range segs {
			if _, ok := idx.index[s.SpeakerID]; !ok {
				idx.index[s.SpeakerID] = len(idx.index)
			}
		}
	}
	return idx
}

func (b bitsetIndex) words() int { return (len(b.index) + 63) / 64 }

func rasterizeSets(segs []diarization.TimedSpeakerSegment, totalDuration float64, idx bitsetIndex) [][]uint64 {
	n := numFrames(totalDuration)
	words := idx.words()
	frames := make([][]uint64, n)
	for i := range frames {
		frames[i] = make([]uint64, words)
	}
	for _, seg := range segs {
		bit, ok := idx.index[seg.SpeakerID]
		if !ok {
			continue
		}
		w, b := bit/64, uint(bit%64)
		startFrame := int(seg.StartSeconds / FrameSize)
		endFrame := int(math.Ceil(seg.EndSeconds / FrameSize))
		if startFrame < 0 {
			startFrame = 0
		}
		if endFrame > n {
			endFrame = n
		}
		for f := startFrame; f < endFrame; f++ {
			frames[f][w] |= 1 << b
		}
	}
	return frames
}

func popcountAnd(a, b []uint64) int {
	c := 0
	for i := range a {
		c += bits.OnesCount64(a[i] & b[i])
	}
	return c
}

func popcountOr(a, b []uint64) int {
	c := 0
	for i := range a {
		c += bits.OnesCount64(a[i] | b[i])
	}
	return c
}

// computeJER returns 100 * (1 - mean per-frame Jaccard similarity of the
// active-speaker sets), skipping frames where both sets are empty.
func computeJER(predicted, reference []diarization.TimedSpeakerSegment, totalDuration float64) float64 {
	idx := newBitsetIndex(predicted, reference)
	if len(idx.index) == 0 {
		return 0
	}
	predFrames := rasterizeSets(predicted, totalDuration, idx)
	refFrames := rasterizeSets(reference, totalDuration, idx)

	var sumJaccard float64
	var activeFrames int
	for i := range predFrames {
		union := popcountOr(predFrames[i], refFrames[i])
		if union == 0 {
			continue
		}
		inter := popcountAnd(predFrames[i], refFrames[i])
		sumJaccard += float64(inter) / float64(union)
		activeFrames++
	}
	if activeFrames == 0 {
		return 100
	}
	return (1 - sumJaccard/float64(activeFrames)) * 100
}
