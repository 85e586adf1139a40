package eval

import (
	"testing"

	"github.com/valfrom/diarize-bench/diarization"
)

func seg(id string, start, end float64) diarization.TimedSpeakerSegment {
	return diarization.TimedSpeakerSegment{SpeakerID: id, StartSeconds: start, EndSeconds: end}
}

func TestHungarianMappingPerfectOverlap(t *testing.T) {
	predicted := []diarization.TimedSpeakerSegment{
		seg("p1", 0, 5),
		seg("p2", 5, 10),
	}
	reference := []diarization.TimedSpeakerSegment{
		seg("r1", 0, 5),
		seg("r2", 5, 10),
	}
	mapping := HungarianMapping(predicted, reference, 10)
	if mapping["p1"] != "r1" || mapping["p2"] != "r2" {
		t.Fatalf("mapping = %+v, want p1->r1, p2->r2", mapping)
	}
}

func TestHungarianMappingSwappedLabels(t *testing.T) {
	predicted := []diarization.TimedSpeakerSegment{
		seg("p1", 5, 10),
		seg("p2", 0, 5),
	}
	reference := []diarization.TimedSpeakerSegment{
		seg("r1", 0, 5),
		seg("r2", 5, 10),
	}
	mapping := HungarianMapping(predicted, reference, 10)
	if mapping["p1"] != "r2" || mapping["p2"] != "r1" {
		t.Fatalf("mapping = %+v, want p1->r2, p2->r1", mapping)
	}
}

func TestHungarianMappingUnequalSpeakerCounts(t *testing.T) {
	predicted := []diarization.TimedSpeakerSegment{
		seg("p1", 0, 5),
		seg("p2", 5, 10),
		seg("p3", 10, 12),
	}
	reference := []diarization.TimedSpeakerSegment{
		seg("r1", 0, 5),
		seg("r2", 5, 12),
	}
	mapping := HungarianMapping(predicted, reference, 12)
	if mapping["p1"] != "r1" {
		t.Fatalf("mapping[p1] = %q, want r1", mapping["p1"])
	}
	if _, ok := mapping["p3"]; ok && mapping["p2"] == mapping["p3"] {
		t.Fatalf("p2 and p3 both mapped to %q, expected a 1-to-1 mapping", mapping["p2"])
	}
}

func TestFirstOccurrenceMappingOnlineOrder(t *testing.T) {
	predicted := []diarization.TimedSpeakerSegment{
		seg("p1", 0, 3),
		seg("p2", 3, 6),
		seg("p1", 6, 9),
	}
	reference := []diarization.TimedSpeakerSegment{
		seg("rA", 0, 3),
		seg("rB", 3, 6),
		seg("rA", 6, 9),
	}
	mapping := FirstOccurrenceMapping(predicted, reference)
	if mapping["p1"] != "rA" {
		t.Fatalf("mapping[p1] = %q, want rA", mapping["p1"])
	}
	if mapping["p2"] != "rB" {
		t.Fatalf("mapping[p2] = %q, want rB", mapping["p2"])
	}
}

func TestFirstOccurrenceMappingBelowMinOverlapUnmapped(t *testing.T) {
	predicted := []diarization.TimedSpeakerSegment{
		seg("p1", 0, 0.2), // only 200ms overlap, below the 0.5s claim threshold
	}
	reference := []diarization.TimedSpeakerSegment{
		seg("rA", 0, 0.2),
	}
	mapping := FirstOccurrenceMapping(predicted, reference)
	if _, ok := mapping["p1"]; ok {
		t.Fatalf("expected p1 to remain unmapped below claim threshold, got %+v", mapping)
	}
}
