package diarization

import (
	"context"
	"log"
	"sort"
	"time"
)

// PipelineConfig bundles all the tunables a ChunkedStreamingPipeline needs.
type PipelineConfig struct {
	ChunkDurationSeconds float64
	OverlapSeconds       float64
	SampleRate           int

	Segmentation SegmentationConfig
	Registry     RegistryConfig
	Embedder     EmbedderConfig

	// InferenceTimeout bounds a single chunk's segmentation call. A
	// timed-out chunk is skipped with a warning rather than stalling the
	// recording; the in-flight call is allowed to finish in the background.
	// Embedding calls are not bounded by it.
	InferenceTimeout time.Duration
}

// DefaultPipelineConfig returns spec.md's fixed defaults: 10s chunks, no
// overlap, 16kHz sample rate.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		ChunkDurationSeconds: 10.0,
		OverlapSeconds:       0,
		SampleRate:           16000,
		Segmentation:         DefaultSegmentationConfig(),
		Registry:             DefaultRegistryConfig(),
		Embedder:             DefaultEmbedderConfig(),
		InferenceTimeout:     5 * time.Second,
	}
}

// ChunkedStreamingPipeline drives a recording through
// Idle -> Segmenting -> Embedding -> Registering -> Emitting -> Idle per
// chunk, coalescing same-speaker segments across chunk boundaries as it
// goes. A pipeline instance owns one recording's registry and segment
// list; it is not safe to share across recordings, but the SegmentationModel
// and EmbeddingModel it wraps may be shared read-only.
type ChunkedStreamingPipeline struct {
	config    PipelineConfig
	segModel  SegmentationModel
	embModel  EmbeddingModel
	registry  *SpeakerRegistry
	decoder   *SegmentationDecoder
	extractor *EmbeddingExtractor

	segments        []TimedSpeakerSegment
	lastIndexBySpkr map[string]int
	warnings        int

	onCommit     func(TimedSpeakerSegment)
	onChunkTimed func(time.Duration)
}

// OnSegmentCommitted registers fn to be called with a copy of each segment
// as it is created or extended during the Emitting state, in commit order.
// Intended for wiring a live subscriber feed (e.g. internal/livestream)
// without the pipeline needing to know about transport concerns.
func (p *ChunkedStreamingPipeline) OnSegmentCommitted(fn func(TimedSpeakerSegment)) {
	p.onCommit = fn
}

// OnChunkProcessed registers fn to be called with the wall-clock time spent
// in processChunk once per chunk, in processing order. Intended for driving
// a caller's p90/p99 per-chunk latency accounting.
func (p *ChunkedStreamingPipeline) OnChunkProcessed(fn func(time.Duration)) {
	p.onChunkTimed = fn
}

// NewChunkedStreamingPipeline constructs a pipeline around the given model
// adapters and configuration.
func NewChunkedStreamingPipeline(segModel SegmentationModel, embModel EmbeddingModel, config PipelineConfig) *ChunkedStreamingPipeline {
	if config.SampleRate == 0 {
		config.SampleRate = 16000
	}
	config.Segmentation.SampleRate = config.SampleRate
	config.Embedder.SampleRate = config.SampleRate
	return &ChunkedStreamingPipeline{
		config:          config,
		segModel:        segModel,
		embModel:        embModel,
		registry:        NewSpeakerRegistry(config.Registry),
		decoder:         NewSegmentationDecoder(config.Segmentation),
		extractor:       NewEmbeddingExtractor(embModel, config.Embedder),
		lastIndexBySpkr: make(map[string]int),
	}
}

func (p *ChunkedStreamingPipeline) hopSeconds() float64 {
	hop := p.config.ChunkDurationSeconds - p.config.OverlapSeconds
	if hop <= 0 {
		return p.config.ChunkDurationSeconds
	}
	return hop
}

func (p *ChunkedStreamingPipeline) chunkSamples() int {
	return int(p.config.ChunkDurationSeconds * float64(p.config.SampleRate))
}

// Run feeds the entire sample buffer through the pipeline chunk by chunk,
// returning the coalesced, speaker-labelled segments committed so far.
// ctx cancellation is honored between chunks; a chunk already in flight is
// allowed to complete.
func (p *ChunkedStreamingPipeline) Run(ctx context.Context, samples []float32) ([]TimedSpeakerSegment, error) {
	hopSamples := int(p.hopSeconds() * float64(p.config.SampleRate))
	chunkLen := p.chunkSamples()
	if hopSamples <= 0 || chunkLen <= 0 {
		return nil, newError(KindInvalidInput, "chunk duration and hop must be positive", nil)
	}

	index := 0
	for offset := 0; offset < len(samples); offset += hopSamples {
		select {
		case <-ctx.Done():
			return p.segments, ctx.Err()
		default:
		}

		end := offset + chunkLen
		var chunk []float32
		if end <= len(samples) {
			chunk = samples[offset:end]
		} else {
			chunk = make([]float32, chunkLen)
			copy(chunk, samples[offset:])
		}

		p.processChunk(chunk, index)
		index++

		if offset+chunkLen >= len(samples) {
			break
		}
	}
	return p.segments, nil
}

// processChunk runs one chunk through Segmenting -> Embedding ->
// Registering -> Emitting. A failed segmentation skips the whole chunk and a
// failed embedding skips only the offending region; neither aborts the
// recording.
func (p *ChunkedStreamingPipeline) processChunk(chunk []float32, index int) {
	start := time.Now()
	defer func() {
		if p.onChunkTimed != nil {
			p.onChunkTimed(time.Since(start))
		}
	}()

	chunkStart := float64(index) * p.hopSeconds()

	frame, err := p.segmentWithTimeout(chunk)
	if err != nil {
		p.warnings++
		log.Printf("diarization: segmentation failed for chunk %d: %v", index, err)
		return
	}

	regions := p.decoder.Decode(frame)
	var newSegments []TimedSpeakerSegment
	for _, region := range regions {
		emb, err := p.extractor.Extract(chunk, region)
		if err != nil {
			if KindOf(err) != KindEmptyRegion {
				p.warnings++
				log.Printf("diarization: embedding failed for chunk %d region %+v: %v", index, region, err)
			}
			continue
		}

		speakerID := p.registry.AssignOrCreate(emb, chunkStart)
		if speakerID == UnvoicedSpeakerID {
			continue
		}

		newSegments = append(newSegments, TimedSpeakerSegment{
			SpeakerID:    speakerID,
			StartSeconds: chunkStart + float64(region.StartSample)/float64(p.config.SampleRate),
			EndSeconds:   chunkStart + float64(region.EndSample)/float64(p.config.SampleRate),
			Embedding:    emb,
			QualityScore: emb.Quality,
		})
	}

	sort.Slice(newSegments, func(i, j int) bool { return newSegments[i].StartSeconds < newSegments[j].StartSeconds })
	p.coalesce(newSegments)
}

// coalesce merges each new segment into the most recent prior segment with
// the same speaker id if they touch or overlap, else appends it. This is
// what lets the same speaker turn survive being split across a chunk
// boundary by the sliding window.
func (p *ChunkedStreamingPipeline) coalesce(newSegments []TimedSpeakerSegment) {
	for _, seg := range newSegments {
		if idx, ok := p.lastIndexBySpkr[seg.SpeakerID]; ok {
			existing := &p.segments[idx]
			if seg.StartSeconds <= existing.EndSeconds {
				if seg.StartSeconds < existing.StartSeconds {
					existing.StartSeconds = seg.StartSeconds
				}
				if seg.EndSeconds > existing.EndSeconds {
					existing.EndSeconds = seg.EndSeconds
				}
				if seg.QualityScore > existing.QualityScore {
					existing.Embedding = seg.Embedding
					existing.QualityScore = seg.QualityScore
				}
				p.notifyCommit(*existing)
				continue
			}
		}
		p.segments = append(p.segments, seg)
		p.lastIndexBySpkr[seg.SpeakerID] = len(p.segments) - 1
		p.notifyCommit(seg)
	}
}

func (p *ChunkedStreamingPipeline) notifyCommit(seg TimedSpeakerSegment) {
	if p.onCommit != nil {
		p.onCommit(seg)
	}
}

type segmentResult struct {
	frame SegmentationFrame
	err   error
}

// segmentWithTimeout bounds the segmentation call at InferenceTimeout,
// mirroring the goroutine+select timeout idiom the teacher uses around its
// own inference calls. The goroutine is allowed to finish even after the
// timeout fires; its result is simply discarded.
func (p *ChunkedStreamingPipeline) segmentWithTimeout(chunk []float32) (SegmentationFrame, error) {
	if p.config.InferenceTimeout <= 0 {
		return p.segModel.Segment(chunk)
	}

	resultCh := make(chan segmentResult, 1)
	go func() {
		frame, err := p.segModel.Segment(chunk)
		resultCh <- segmentResult{frame: frame, err: err}
	}()

	select {
	case r := <-resultCh:
		return r.frame, r.err
	case <-time.After(p.config.InferenceTimeout):
		return SegmentationFrame{}, newError(KindInferenceFailure, "segmentation model exceeded inference timeout", nil)
	}
}

// Segments returns the recording-level committed segments so far.
func (p *ChunkedStreamingPipeline) Segments() []TimedSpeakerSegment {
	out := make([]TimedSpeakerSegment, len(p.segments))
	copy(out, p.segments)
	return out
}

// Warnings returns the count of chunks skipped because segmentation failed
// plus regions skipped because embedding failed.
func (p *ChunkedStreamingPipeline) Warnings() int { return p.warnings }

// Registry exposes the pipeline's speaker registry for inspection.
func (p *ChunkedStreamingPipeline) Registry() *SpeakerRegistry { return p.registry }
