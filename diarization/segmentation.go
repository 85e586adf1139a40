package diarization

import (
	"math"
	"sort"
)

// SegmentationConfig controls how a raw segmentation activity tensor is
// smoothed and thresholded down to local regions.
type SegmentationConfig struct {
	ActivityThreshold float64 // tau: minimum (optionally transformed) activation to count as "on"
	MinDurationOn     float64 // seconds; on-runs shorter than this are dropped
	MinDurationOff    float64 // seconds; off-runs shorter than this are bridged

	// LogisticAdapter, when non-nil, maps a raw activation cell to the scale
	// ActivityThreshold is expressed in before comparison. Segmentation
	// models differ in whether they emit logits or probabilities; leaving
	// this nil compares the raw cell directly.
	LogisticAdapter func(raw float64) float64

	SampleRate int // samples/second of the chunk the frame was decoded from
}

// DefaultSegmentationConfig returns spec.md's fixed defaults.
func DefaultSegmentationConfig() SegmentationConfig {
	return SegmentationConfig{
		ActivityThreshold: 10.0,
		MinDurationOn:     1.0,
		MinDurationOff:    0.5,
		SampleRate:        16000,
	}
}

// SegmentationDecoder turns a SegmentationFrame into LocalRegions.
type SegmentationDecoder struct {
	config SegmentationConfig
}

// NewSegmentationDecoder constructs a decoder with the given config.
func NewSegmentationDecoder(config SegmentationConfig) *SegmentationDecoder {
	return &SegmentationDecoder{config: config}
}

// Decode extracts, per local slot, the on-runs that survive gap-closing and
// short-run pruning, as LocalRegions sorted by start sample.
func (d *SegmentationDecoder) Decode(frame SegmentationFrame) []LocalRegion {
	t := len(frame.Activity)
	if t == 0 || frame.FrameStride <= 0 {
		return nil
	}
	k := len(frame.Activity[0])
	minOnFrames := int(math.Round(d.config.MinDurationOn / frame.FrameStride))
	minOffFrames := int(math.Round(d.config.MinDurationOff / frame.FrameStride))

	var regions []LocalRegion
	for slot := 0; slot < k; slot++ {
		on := make([]bool, t)
		for frameIdx := 0; frameIdx < t; frameIdx++ {
			v := frame.Activity[frameIdx][slot]
			if d.config.LogisticAdapter != nil {
				v = d.config.LogisticAdapter(v)
			}
			on[frameIdx] = v >= d.config.ActivityThreshold
		}
		closeGaps(on, minOffFrames)
		pruneShortRuns(on, minOnFrames)
		regions = append(regions, extractRuns(on, slot, frame, d.sampleRate())...)
	}

	sort.Slice(regions, func(i, j int) bool { return regions[i].StartSample < regions[j].StartSample })
	return regions
}

// closeGaps fills any off-run shorter than minOffFrames with "on", bridging
// brief dropouts in an otherwise continuous speaker turn.
func closeGaps(on []bool, minOffFrames int) {
	if minOffFrames <= 0 {
		return
	}
	n := len(on)
	i := 0
	for i < n {
		if on[i] {
			i++
			continue
		}
		j := i
		for j < n && !on[j] {
			j++
		}
		runLen := j - i
		// only bridge interior gaps: the run must have "on" on both sides
		if runLen < minOffFrames && i > 0 && j < n {
			for x := i; x < j; x++ {
				on[x] = true
			}
		}
		i = j
	}
}

// pruneShortRuns clears any on-run shorter than minOnFrames.
func pruneShortRuns(on []bool, minOnFrames int) {
	if minOnFrames <= 0 {
		return
	}
	n := len(on)
	i := 0
	for i < n {
		if !on[i] {
			i++
			continue
		}
		j := i
		for j < n && on[j] {
			j++
		}
		if j-i < minOnFrames {
			for x := i; x < j; x++ {
				on[x] = false
			}
		}
		i = j
	}
}

func extractRuns(on []bool, slot int, frame SegmentationFrame, sampleRate int) []LocalRegion {
	var regions []LocalRegion
	n := len(on)
	i := 0
	for i < n {
		if !on[i] {
			i++
			continue
		}
		j := i
		var activitySum float64
		for j < n && on[j] {
			activitySum += frame.Activity[j][slot]
			j++
		}
		startSample := int(math.Round(float64(i) * frame.FrameStride * float64(sampleRate)))
		endSample := int(math.Round(float64(j) * frame.FrameStride * float64(sampleRate)))
		regions = append(regions, LocalRegion{
			Slot:          slot,
			StartSample:   startSample,
			EndSample:     endSample,
			ActivityScore: activitySum / float64(j-i),
		})
		i = j
	}
	return regions
}

func (d *SegmentationDecoder) sampleRate() int {
	if d.config.SampleRate > 0 {
		return d.config.SampleRate
	}
	return 16000
}
