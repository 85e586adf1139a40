package eval

import (
	"math"
	"testing"

	"github.com/valfrom/diarize-bench/diarization"
)

func TestEvaluatePerfectMatchHasZeroDER(t *testing.T) {
	segs := []diarization.TimedSpeakerSegment{seg("A", 0, 5), seg("B", 5, 10)}
	m := Evaluate(segs, segs, 10, nil)
	if math.Abs(m.DER) > 1e-9 {
		t.Fatalf("DER = %v, want 0", m.DER)
	}
	if math.Abs(m.JER) > 1e-9 {
		t.Fatalf("JER = %v, want 0", m.JER)
	}
}

func TestEvaluateTotalMissWhenNothingPredicted(t *testing.T) {
	reference := []diarization.TimedSpeakerSegment{seg("A", 0, 10)}
	m := Evaluate(nil, reference, 10, nil)
	if math.Abs(m.DER-100) > 1e-6 {
		t.Fatalf("DER = %v, want 100 when nothing is predicted", m.DER)
	}
	if m.Tally.Miss != m.Tally.TotalFrames {
		t.Fatalf("expected every frame to be a miss, got %+v", m.Tally)
	}
}

func TestEvaluateFalseAlarmWhenNothingReferenced(t *testing.T) {
	predicted := []diarization.TimedSpeakerSegment{seg("A", 0, 10)}
	m := Evaluate(predicted, nil, 10, nil)
	if m.Tally.FalseAlarm != m.Tally.TotalFrames {
		t.Fatalf("expected every frame to be a false alarm, got %+v", m.Tally)
	}
}

func TestEvaluateConfusionOnWrongLabel(t *testing.T) {
	predicted := []diarization.TimedSpeakerSegment{seg("A", 0, 10)}
	reference := []diarization.TimedSpeakerSegment{seg("B", 0, 10)}
	m := Evaluate(predicted, reference, 10, nil)
	if m.Tally.Confusion != m.Tally.TotalFrames {
		t.Fatalf("expected every frame to be confusion, got %+v", m.Tally)
	}
}

func TestEvaluateAppliesMapping(t *testing.T) {
	predicted := []diarization.TimedSpeakerSegment{seg("p1", 0, 10)}
	reference := []diarization.TimedSpeakerSegment{seg("rA", 0, 10)}
	mapping := Mapping{"p1": "rA"}
	m := Evaluate(predicted, reference, 10, mapping)
	if math.Abs(m.DER) > 1e-9 {
		t.Fatalf("DER = %v, want 0 once p1 is mapped to rA", m.DER)
	}
}

func TestEvaluateJEROverlappingSpeakers(t *testing.T) {
	predicted := []diarization.TimedSpeakerSegment{seg("A", 0, 5), seg("B", 0, 5)}
	reference := []diarization.TimedSpeakerSegment{seg("A", 0, 5)}
	m := Evaluate(predicted, reference, 5, nil)
	if m.JER <= 0 {
		t.Fatalf("expected nonzero JER for overlapping extra predicted speaker, got %v", m.JER)
	}
}
