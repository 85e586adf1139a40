// Package benchmark drives one recording through decode, diarization, and
// evaluation against a reference annotation, producing a scored result.
package benchmark

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/valfrom/diarize-bench/diarization"
	"github.com/valfrom/diarize-bench/eval"
	"github.com/valfrom/diarize-bench/internal/resultstore"
)

// segmentPublisher is satisfied by *livestream.Hub; kept as a narrow
// interface here so benchmark doesn't need to import the transport package.
type segmentPublisher interface {
	PublishSegment(diarization.TimedSpeakerSegment)
}

// Recording names one corpus entry: the audio file to decode and the
// reference annotation to score against.
type Recording struct {
	ID             string
	AudioPath      string
	AnnotationPath string
}

// Driver composes the model adapters and evaluation mode shared across a
// benchmark run. Model adapters are read-only and safe to share across
// concurrently-driven recordings; each Run call builds its own pipeline and
// speaker registry.
type Driver struct {
	AudioDecoder   diarization.AudioDecoder
	SegModel       diarization.SegmentationModel
	EmbModel       diarization.EmbeddingModel
	PipelineConfig diarization.PipelineConfig
	Streaming      bool // true: FirstOccurrenceMapping, false: HungarianMapping
	Live           segmentPublisher // optional: receives segments as the pipeline commits them

	// ModelLoadSeconds is the one-time cost of loading SegModel/EmbModel,
	// measured once by the caller before the first Run and copied into every
	// recording's result since model handles are shared across recordings.
	ModelLoadSeconds float64
}

// Run decodes rec's audio, runs the streaming pipeline, loads the reference
// annotation, and scores the result.
func (d *Driver) Run(ctx context.Context, rec Recording) (resultstore.RecordingResult, error) {
	start := time.Now()

	audioLoadStart := time.Now()
	samples, err := d.AudioDecoder.Decode(rec.AudioPath)
	if err != nil {
		return resultstore.RecordingResult{}, fmt.Errorf("failed to decode %s: %w", rec.AudioPath, err)
	}
	audioLoadElapsed := time.Since(audioLoadStart).Seconds()

	sampleRate := d.PipelineConfig.SampleRate
	if sampleRate == 0 {
		sampleRate = 16000
	}
	durationSec := float64(len(samples)) / float64(sampleRate)

	pipeline := diarization.NewChunkedStreamingPipeline(d.SegModel, d.EmbModel, d.PipelineConfig)
	if d.Live != nil {
		pipeline.OnSegmentCommitted(d.Live.PublishSegment)
	}

	var chunkLatenciesMs []float64
	pipeline.OnChunkProcessed(func(elapsed time.Duration) {
		chunkLatenciesMs = append(chunkLatenciesMs, elapsed.Seconds()*1000)
	})

	pipelineStart := time.Now()
	predicted, err := pipeline.Run(ctx, samples)
	if err != nil {
		return resultstore.RecordingResult{}, fmt.Errorf("pipeline failed for %s: %w", rec.ID, err)
	}
	pipelineElapsed := time.Since(pipelineStart).Seconds()

	annotationFile, err := os.Open(rec.AnnotationPath)
	if err != nil {
		return resultstore.RecordingResult{}, fmt.Errorf("failed to open annotation %s: %w", rec.AnnotationPath, err)
	}
	defer annotationFile.Close()

	reference, err := diarization.LoadGroundTruth(annotationFile)
	if err != nil {
		return resultstore.RecordingResult{}, fmt.Errorf("failed to load annotation for %s: %w", rec.ID, err)
	}

	var mapping eval.Mapping
	if d.Streaming {
		mapping = eval.FirstOccurrenceMapping(predicted, reference.Turns)
	} else {
		mapping = eval.HungarianMapping(predicted, reference.Turns, durationSec)
	}

	metrics := eval.Evaluate(predicted, reference.Turns, durationSec, mapping)
	fragmentation := eval.Fragmentation(predicted)

	totalElapsed := time.Since(start).Seconds()
	rtfx := 0.0
	if totalElapsed > 0 {
		rtfx = durationSec / totalElapsed
	}

	speakerCount := pipeline.Registry().Count()

	return resultstore.RecordingResult{
		RecordingID:       rec.ID,
		DurationSec:       durationSec,
		DER:               metrics.DER,
		JER:               metrics.JER,
		MissRate:          metrics.MissRate,
		FalseAlarmRate:    metrics.FalseAlarmRate,
		SpeakerErrorRate:  metrics.ConfusionRate,
		Fragmentation:     fragmentation,
		RTFx:              rtfx,
		ChunksProcessed:   len(chunkLatenciesMs),
		SpeakerCount:      speakerCount,
		ReferenceSpeakers: countDistinctSpeakers(reference.Turns),
		Latency90:         percentile(chunkLatenciesMs, 0.90),
		Latency99:         percentile(chunkLatenciesMs, 0.99),
		Stages: resultstore.StageLatencies{
			ModelLoad:    d.ModelLoadSeconds,
			AudioLoad:    audioLoadElapsed,
			Segmentation: pipelineElapsed,
			Embedding:    0, // embedding time is folded into the pipeline stage above
			Clustering:   0,
			Total:        totalElapsed,
		},
		Warnings: warningsSlice(pipeline.Warnings()),
	}, nil
}

func countDistinctSpeakers(turns []diarization.TimedSpeakerSegment) int {
	seen := make(map[string]struct{})
	for _, t := range turns {
		seen[t.SpeakerID] = struct{}{}
	}
	return len(seen)
}

func warningsSlice(n int) []string {
	if n == 0 {
		return nil
	}
	return []string{fmt.Sprintf("%d chunk(s) or region(s) skipped due to model failures", n)}
}
