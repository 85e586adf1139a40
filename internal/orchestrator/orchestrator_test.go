package orchestrator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/valfrom/diarize-bench/diarization"
	"github.com/valfrom/diarize-bench/internal/benchmark"
)

type stubDecoder struct{ samples []float32 }

func (s *stubDecoder) Decode(path string) ([]float32, error) { return s.samples, nil }

type stubSegModel struct {
	frames int
	stride float64
}

func (s *stubSegModel) Segment(chunk []float32) (diarization.SegmentationFrame, error) {
	activity := make([][]float64, s.frames)
	for i := range activity {
		activity[i] = []float64{20.0}
	}
	return diarization.SegmentationFrame{Activity: activity, FrameStride: s.stride}, nil
}

type stubEmbModel struct{ vector []float32 }

func (s *stubEmbModel) Embed(region []float32) ([]float32, error) { return s.vector, nil }

const fixtureAnnotation = `<recording id="rec">
  <speakers><speaker code="A" participant="spk-1"/></speakers>
  <turns><turn speaker="A" start="0.0" end="2.0"/></turns>
</recording>`

func writeFixtureAnnotations(t *testing.T, n int) []benchmark.Recording {
	t.Helper()
	dir := t.TempDir()
	recordings := make([]benchmark.Recording, n)
	for i := 0; i < n; i++ {
		path := filepath.Join(dir, fmt.Sprintf("annotation-%d.xml", i))
		if err := os.WriteFile(path, []byte(fixtureAnnotation), 0644); err != nil {
			t.Fatalf("failed to write fixture: %v", err)
		}
		recordings[i] = benchmark.Recording{ID: fmt.Sprintf("rec-%d", i), AudioPath: "unused.mp3", AnnotationPath: path}
	}
	return recordings
}

func testDriver() *benchmark.Driver {
	cfg := diarization.DefaultPipelineConfig()
	cfg.ChunkDurationSeconds = 1.0
	cfg.Segmentation.MinDurationOn = 0.1
	cfg.Segmentation.MinDurationOff = 0.1
	cfg.InferenceTimeout = 0

	return &benchmark.Driver{
		AudioDecoder:   &stubDecoder{samples: make([]float32, 16000)},
		SegModel:       &stubSegModel{frames: 100, stride: 0.01},
		EmbModel:       &stubEmbModel{vector: []float32{1, 0, 0, 0}},
		PipelineConfig: cfg,
		Streaming:      true,
	}
}

func TestOrchestratorRunsAllRecordingsConcurrently(t *testing.T) {
	recordings := writeFixtureAnnotations(t, 5)
	o := New(testDriver(), 2)

	results := o.Run(context.Background(), recordings)
	if len(results) != len(recordings) {
		t.Fatalf("got %d results, want %d", len(results), len(recordings))
	}
}

func TestOrchestratorDefaultsConcurrencyToOne(t *testing.T) {
	o := New(testDriver(), 0)
	if o.Concurrency != 1 {
		t.Fatalf("Concurrency = %d, want 1", o.Concurrency)
	}
}

func TestOrchestratorSkipsRecordingOnDriverError(t *testing.T) {
	recordings := []benchmark.Recording{
		{ID: "missing", AudioPath: "unused.mp3", AnnotationPath: filepath.Join(t.TempDir(), "missing.xml")},
	}
	o := New(testDriver(), 1)

	results := o.Run(context.Background(), recordings)
	if len(results) != 0 {
		t.Fatalf("expected failed recording to be omitted, got %d results", len(results))
	}
}
