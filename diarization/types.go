// Package diarization implements streaming chunked speaker diarization:
// turning a raw audio stream into time-stamped, speaker-labelled segments
// without ever re-visiting audio already committed to output.
package diarization

// Embedding is a single speaker-embedding vector plus the bookkeeping the
// rest of the pipeline needs to decide whether to trust it.
type Embedding struct {
	Vector   []float32 // L2-normalized once Valid is true
	Quality  float64   // monotonic in the pre-normalization magnitude, clipped to [0,1]
	Duration float64   // seconds of audio the embedding was computed from
	Valid    bool       // false for embeddings too degenerate to cluster on
}

// LocalRegion is a within-chunk span attributed to one local segmentation
// slot, before any speaker identity has been assigned.
type LocalRegion struct {
	Slot          int // local segmentation-model slot index (0..K-1)
	StartSample   int // offset within the chunk, inclusive
	EndSample     int // offset within the chunk, exclusive
	ActivityScore float64
}

// SegmentationFrame is the decoded activity tensor for one chunk:
// Activity[t][k] is the (optionally pre-transformed) activation of local
// slot k at frame t. FrameStride is the frame hop in seconds.
type SegmentationFrame struct {
	Activity    [][]float64
	FrameStride float64
}

// SpeakerPrototype is the registry's running identity for one speaker: a
// running centroid embedding plus the bookkeeping used to decide future
// assignments.
type SpeakerPrototype struct {
	ID               string
	Prototype        []float32 // L2-normalized centroid
	CreationTime     float64   // seconds since recording start
	ObservationCount int
}

// TimedSpeakerSegment is a committed, speaker-labelled span of audio on the
// recording-global timeline.
type TimedSpeakerSegment struct {
	SpeakerID    string
	StartSeconds float64
	EndSeconds   float64
	Embedding    Embedding
	QualityScore float64
}

// SpeechRegion is a voice-activity span reported by a VoiceActivityDetector,
// used only by the ASR adjunct's chunker.
type SpeechRegion struct {
	StartMs  int64
	EndMs    int64
	AvgProb  float32
}
