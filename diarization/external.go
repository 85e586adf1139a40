package diarization

// SegmentationModel turns one chunk of 16kHz mono float32 samples into a
// local-speaker activity tensor. Implementations must be safe for
// concurrent use by independent recording goroutines.
type SegmentationModel interface {
	Segment(chunk []float32) (SegmentationFrame, error)
}

// EmbeddingModel turns one audio span into a raw (pre-normalization)
// speaker-embedding vector. Implementations must be safe for concurrent
// use by independent recording goroutines.
type EmbeddingModel interface {
	Embed(region []float32) ([]float32, error)
}

// AudioDecoder decodes an audio file into 16kHz mono float32 samples in
// [-1, 1].
type AudioDecoder interface {
	Decode(path string) ([]float32, error)
}

// VoiceActivityDetector finds coarse speech regions in a sample buffer. It
// is used only by the ASR text adjunct's chunker, never by the core
// diarization segmentation decoder.
type VoiceActivityDetector interface {
	DetectSpeechRegions(samples []float32) ([]SpeechRegion, error)
}
