// Package config parses process configuration for the diarization pipeline
// and the benchmark driver from flags.
package config

import "flag"

// DiarizationConfig controls one pipeline run: chunking, the online speaker
// registry's thresholds, and the model files backing segmentation and
// embedding.
type DiarizationConfig struct {
	SegmentationModelPath string
	EmbeddingModelPath    string
	VADModelPath          string

	ChunkDurationSeconds float64
	OverlapSeconds       float64
	SampleRate           int

	ActivityThreshold float64
	MinDurationOn     float64
	MinDurationOff    float64

	AssignmentThreshold float64
	UpdateThreshold     float64
	UpdateWeight        float64
	MaxSpeakers         int

	MinRegionDuration float64
	InferenceTimeoutMs int
}

// DefaultDiarizationConfig returns spec.md's fixed defaults with empty model
// paths the caller must fill in.
func DefaultDiarizationConfig() DiarizationConfig {
	return DiarizationConfig{
		ChunkDurationSeconds: 10.0,
		OverlapSeconds:       0,
		SampleRate:           16000,
		ActivityThreshold:    10.0,
		MinDurationOn:        1.0,
		MinDurationOff:       0.5,
		AssignmentThreshold:  0.84,
		UpdateThreshold:      0.56,
		UpdateWeight:         0.1,
		MaxSpeakers:          0,
		MinRegionDuration:    0.5,
		InferenceTimeoutMs:   5000,
	}
}

// BenchmarkConfig controls a benchmark run across a corpus of recordings:
// where to find them, where to write results, and the pass/fail thresholds.
type BenchmarkConfig struct {
	RecordingsDir           string
	ResultsPath             string
	Streaming               bool   // true: online first-occurrence mapping; false: Hungarian
	LiveAddr                string // non-empty: serve live segment websocket on this address
	ReferenceTranscriptPath string // non-empty: score the live ASR adjunct's updates against this transcript (requires LiveAddr)

	DERMax float64
	JERMax float64
	// RTFMax is a floor, not a ceiling: RTFx is audio duration / processing
	// time (higher is better), so a run fails when mean RTFx drops below
	// this value.
	RTFMax float64
}

// DefaultBenchmarkConfig returns permissive thresholds suitable for a first
// run with no prior baseline.
func DefaultBenchmarkConfig() BenchmarkConfig {
	return BenchmarkConfig{
		ResultsPath: "benchmark_results.json",
		Streaming:   true,
		DERMax:      100,
		JERMax:      100,
		RTFMax:      0.1,
	}
}

// Load parses DiarizationConfig and BenchmarkConfig from the process's
// command-line flags.
func Load() (DiarizationConfig, BenchmarkConfig) {
	d := DefaultDiarizationConfig()
	b := DefaultBenchmarkConfig()

	segModel := flag.String("segmentation-model", "", "Path to the ONNX segmentation model")
	embModel := flag.String("embedding-model", "", "Path to the ONNX speaker-embedding model")
	vadModel := flag.String("vad-model", "", "Path to the ONNX VAD model (ASR adjunct only)")
	chunkSeconds := flag.Float64("chunk-seconds", d.ChunkDurationSeconds, "Chunk duration in seconds")
	overlapSeconds := flag.Float64("overlap-seconds", d.OverlapSeconds, "Chunk overlap in seconds")
	assignmentThreshold := flag.Float64("assignment-threshold", d.AssignmentThreshold, "Max cosine distance to assign an existing speaker")
	updateThreshold := flag.Float64("update-threshold", d.UpdateThreshold, "Max cosine distance to blend into a speaker prototype")
	updateWeight := flag.Float64("update-weight", d.UpdateWeight, "Blend weight given to new embeddings")
	maxSpeakers := flag.Int("max-speakers", d.MaxSpeakers, "Cap on distinct speakers per recording (0 = unbounded)")

	liveAddr := flag.String("live-addr", "", "If set, serve a live segment websocket feed on this address (e.g. :8090)")
	referenceTranscript := flag.String("reference-transcript", "", "If set alongside -live-addr, score confirmed ASR updates against this reference transcript file as live WER")
	recordingsDir := flag.String("recordings-dir", "", "Directory of recordings to benchmark")
	resultsPath := flag.String("results", b.ResultsPath, "Path to write benchmark results JSON")
	streaming := flag.Bool("streaming", b.Streaming, "Use streaming first-occurrence speaker mapping instead of Hungarian")
	derMax := flag.Float64("der-max", b.DERMax, "Maximum acceptable aggregate DER before failing the run")
	jerMax := flag.Float64("jer-max", b.JERMax, "Maximum acceptable aggregate JER before failing the run")
	rtfMax := flag.Float64("rtf-min", b.RTFMax, "Minimum acceptable mean RTFx (audio duration / processing time) before failing the run")

	flag.Parse()

	d.SegmentationModelPath = *segModel
	d.EmbeddingModelPath = *embModel
	d.VADModelPath = *vadModel
	d.ChunkDurationSeconds = *chunkSeconds
	d.OverlapSeconds = *overlapSeconds
	d.AssignmentThreshold = *assignmentThreshold
	d.UpdateThreshold = *updateThreshold
	d.UpdateWeight = *updateWeight
	d.MaxSpeakers = *maxSpeakers

	b.RecordingsDir = *recordingsDir
	b.LiveAddr = *liveAddr
	b.ReferenceTranscriptPath = *referenceTranscript
	b.ResultsPath = *resultsPath
	b.Streaming = *streaming
	b.DERMax = *derMax
	b.JERMax = *jerMax
	b.RTFMax = *rtfMax

	return d, b
}
