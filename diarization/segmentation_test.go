package diarization

import (
	"math"
	"testing"
)

func frameOfOnes(onFrames []int, total, slots int, stride float64) SegmentationFrame {
	activity := make([][]float64, total)
	for t := 0; t < total; t++ {
		activity[t] = make([]float64, slots)
	}
	for _, t := range onFrames {
		for k := 0; k < slots; k++ {
			activity[t][k] = 20.0
		}
	}
	return SegmentationFrame{Activity: activity, FrameStride: stride}
}

func TestDecodeExtractsSingleRun(t *testing.T) {
	cfg := DefaultSegmentationConfig()
	cfg.MinDurationOn = 0.1
	cfg.MinDurationOff = 0.1
	d := NewSegmentationDecoder(cfg)

	on := make([]int, 0)
	for i := 10; i < 50; i++ {
		on = append(on, i)
	}
	frame := frameOfOnes(on, 100, 1, 0.02) // 20ms stride -> 40 frames = 0.8s run

	regions := d.Decode(frame)
	if len(regions) != 1 {
		t.Fatalf("len(regions) = %d, want 1", len(regions))
	}
	if regions[0].StartSample >= regions[0].EndSample {
		t.Fatalf("region has non-positive duration: %+v", regions[0])
	}
}

func TestDecodeDropsShortRun(t *testing.T) {
	cfg := DefaultSegmentationConfig()
	cfg.MinDurationOn = 1.0
	cfg.MinDurationOff = 0.1
	d := NewSegmentationDecoder(cfg)

	// a run of only 5 frames at 20ms stride = 0.1s, well under MinDurationOn
	frame := frameOfOnes([]int{10, 11, 12, 13, 14}, 100, 1, 0.02)

	regions := d.Decode(frame)
	if len(regions) != 0 {
		t.Fatalf("expected short run to be pruned, got %d regions", len(regions))
	}
}

func TestDecodeBridgesShortGap(t *testing.T) {
	cfg := DefaultSegmentationConfig()
	cfg.MinDurationOn = 0.1
	cfg.MinDurationOff = 0.5 // bridge gaps under 25 frames at 20ms stride

	d := NewSegmentationDecoder(cfg)

	var on []int
	for i := 10; i < 30; i++ {
		on = append(on, i)
	}
	// short 2-frame gap (40ms), then another run
	for i := 32; i < 52; i++ {
		on = append(on, i)
	}
	frame := frameOfOnes(on, 100, 1, 0.02)

	regions := d.Decode(frame)
	if len(regions) != 1 {
		t.Fatalf("expected bridged gap to yield a single region, got %d", len(regions))
	}
}

func TestDecodeEmptyFrameReturnsNoRegions(t *testing.T) {
	d := NewSegmentationDecoder(DefaultSegmentationConfig())
	regions := d.Decode(SegmentationFrame{})
	if regions != nil {
		t.Fatalf("expected nil regions for empty frame, got %v", regions)
	}
}

func TestDecodeAppliesLogisticAdapter(t *testing.T) {
	cfg := DefaultSegmentationConfig()
	cfg.ActivityThreshold = 0.5
	cfg.MinDurationOn = 0.1
	cfg.MinDurationOff = 0.1
	cfg.LogisticAdapter = func(raw float64) float64 { return 1.0 / (1.0 + math.Exp(-raw)) }
	d := NewSegmentationDecoder(cfg)

	activity := make([][]float64, 60)
	for t := range activity {
		activity[t] = []float64{-5}
	}
	for t := 10; t < 40; t++ {
		activity[t] = []float64{5}
	}
	frame := SegmentationFrame{Activity: activity, FrameStride: 0.02}

	regions := d.Decode(frame)
	if len(regions) != 1 {
		t.Fatalf("expected logistic-adapted run to be detected, got %d regions", len(regions))
	}
}
