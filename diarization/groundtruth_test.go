package diarization

import (
	"strings"
	"testing"
)

const sampleAnnotation = `<?xml version="1.0"?>
<recording id="ES2002a">
  <speakers>
    <speaker code="A" participant="MEO069"/>
    <speaker code="B" participant="MEE070"/>
  </speakers>
  <turns>
    <turn speaker="A" start="0.42" end="3.15"/>
    <turn speaker="B" start="3.20" end="5.00"/>
    <turn speaker="A" start="5.10" end="5.30"/>
  </turns>
</recording>`

func TestLoadGroundTruthResolvesParticipantIDs(t *testing.T) {
	ann, err := LoadGroundTruth(strings.NewReader(sampleAnnotation))
	if err != nil {
		t.Fatalf("LoadGroundTruth returned error: %v", err)
	}
	if ann.RecordingID != "ES2002a" {
		t.Fatalf("RecordingID = %q, want ES2002a", ann.RecordingID)
	}
	if len(ann.Turns) != 2 {
		t.Fatalf("len(Turns) = %d, want 2 (short turn should be dropped)", len(ann.Turns))
	}
	if ann.Turns[0].SpeakerID != "MEO069" {
		t.Fatalf("first turn speaker = %q, want MEO069", ann.Turns[0].SpeakerID)
	}
	if ann.Turns[1].SpeakerID != "MEE070" {
		t.Fatalf("second turn speaker = %q, want MEE070", ann.Turns[1].SpeakerID)
	}
}

func TestLoadGroundTruthFallsBackToCodeWhenUnmapped(t *testing.T) {
	doc := `<recording id="r1"><turns><turn speaker="C" start="0" end="2"/></turns></recording>`
	ann, err := LoadGroundTruth(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("LoadGroundTruth returned error: %v", err)
	}
	if len(ann.Turns) != 1 || ann.Turns[0].SpeakerID != "C" {
		t.Fatalf("expected fallback to raw code 'C', got %+v", ann.Turns)
	}
}

func TestLoadGroundTruthMalformedXML(t *testing.T) {
	_, err := LoadGroundTruth(strings.NewReader("<recording><turns>"))
	if err == nil {
		t.Fatalf("expected error for malformed XML")
	}
	if KindOf(err) != KindAnnotationMissing {
		t.Fatalf("error kind = %v, want KindAnnotationMissing", KindOf(err))
	}
}

func TestLoadGroundTruthEmptyDocument(t *testing.T) {
	_, err := LoadGroundTruth(strings.NewReader(""))
	if err == nil {
		t.Fatalf("expected error for empty document")
	}
}
