package diarization

// EmbedderConfig controls how local regions are expanded into embedding
// model input spans.
type EmbedderConfig struct {
	MinRegionDuration float64 // seconds; shorter regions are skipped entirely
	LeftContextMargin float64 // seconds of extra left context fed to the model
	SampleRate        int
}

// DefaultEmbedderConfig returns spec.md's fixed default of skipping regions
// under half a second.
func DefaultEmbedderConfig() EmbedderConfig {
	return EmbedderConfig{MinRegionDuration: 0.5, SampleRate: 16000}
}

// EmbeddingExtractor wraps an EmbeddingModel, turning a LocalRegion of a
// chunk into a quality-scored Embedding.
type EmbeddingExtractor struct {
	model  EmbeddingModel
	config EmbedderConfig
}

// NewEmbeddingExtractor constructs an extractor backed by model.
func NewEmbeddingExtractor(model EmbeddingModel, config EmbedderConfig) *EmbeddingExtractor {
	if config.SampleRate == 0 {
		config.SampleRate = 16000
	}
	return &EmbeddingExtractor{model: model, config: config}
}

// Extract computes an Embedding for region within chunk. Regions shorter
// than MinRegionDuration are rejected with a KindEmptyRegion error rather
// than spending an inference call on them.
func (ex *EmbeddingExtractor) Extract(chunk []float32, region LocalRegion) (Embedding, error) {
	duration := float64(region.EndSample-region.StartSample) / float64(ex.config.SampleRate)
	if duration < ex.config.MinRegionDuration {
		return Embedding{}, newError(KindEmptyRegion, "region shorter than minimum embeddable duration", nil)
	}

	start := region.StartSample - int(ex.config.LeftContextMargin*float64(ex.config.SampleRate))
	if start < 0 {
		start = 0
	}
	end := region.EndSample
	if end > len(chunk) {
		end = len(chunk)
	}
	if start >= end {
		return Embedding{}, newError(KindEmptyRegion, "region resolved to an empty span", nil)
	}

	raw, err := ex.model.Embed(chunk[start:end])
	if err != nil {
		return Embedding{}, newError(KindInferenceFailure, "embedding model failed", err)
	}

	quality := Quality(raw)
	normed, ok := Normalize(raw)
	valid := ok && ValidateEmbedding(normed)
	return Embedding{Vector: normed, Quality: quality, Duration: duration, Valid: valid}, nil
}
