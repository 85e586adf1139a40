package resultstore

import (
	"math"
	"path/filepath"
	"testing"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "results.json")

	agg := AggregateResult{
		Recordings: []RecordingResult{
			{RecordingID: "rec-1", DurationSec: 30, DER: 12.5, JER: 20, RTFx: 2.5},
		},
		MeanDER: 12.5,
		MeanJER: 20,
		Passed:  true,
	}

	if err := Save(path, agg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got.Recordings) != 1 || got.Recordings[0].RecordingID != "rec-1" {
		t.Fatalf("unexpected recordings: %+v", got.Recordings)
	}
	if got.MeanDER != 12.5 {
		t.Fatalf("MeanDER = %v, want 12.5", got.MeanDER)
	}
}

func TestSaveSanitizesNonFiniteValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "results.json")

	agg := AggregateResult{
		Recordings: []RecordingResult{
			{RecordingID: "rec-1", DER: math.NaN(), RTFx: math.Inf(1)},
		},
		MeanDER: math.Inf(-1),
	}

	if err := Save(path, agg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Recordings[0].DER != 0 || got.Recordings[0].RTFx != 0 {
		t.Fatalf("expected non-finite fields sanitized to 0, got %+v", got.Recordings[0])
	}
	if got.MeanDER != 0 {
		t.Fatalf("MeanDER = %v, want 0", got.MeanDER)
	}
}

func TestSaveOverwritesExistingFileAtomically(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "results.json")

	if err := Save(path, AggregateResult{MeanDER: 1}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := Save(path, AggregateResult{MeanDER: 2}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.MeanDER != 2 {
		t.Fatalf("MeanDER = %v, want 2", got.MeanDER)
	}
}
