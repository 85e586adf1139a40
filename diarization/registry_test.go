package diarization

import "testing"

func unitEmbedding(v []float32) Embedding {
	n, _ := Normalize(v)
	return Embedding{Vector: n, Valid: true, Quality: 1}
}

func TestAssignOrCreateFirstObservationCreatesSpeaker(t *testing.T) {
	r := NewSpeakerRegistry(DefaultRegistryConfig())
	id := r.AssignOrCreate(unitEmbedding([]float32{1, 0, 0}), 0)
	if id == UnvoicedSpeakerID {
		t.Fatalf("expected a new speaker id")
	}
	if r.Count() != 1 {
		t.Fatalf("count = %d, want 1", r.Count())
	}
}

func TestAssignOrCreateCloseMatchReusesSpeaker(t *testing.T) {
	r := NewSpeakerRegistry(DefaultRegistryConfig())
	id1 := r.AssignOrCreate(unitEmbedding([]float32{1, 0, 0}), 0)
	id2 := r.AssignOrCreate(unitEmbedding([]float32{0.99, 0.01, 0}), 1)
	if id1 != id2 {
		t.Fatalf("expected close embedding to reuse speaker %q, got %q", id1, id2)
	}
	if r.Count() != 1 {
		t.Fatalf("count = %d, want 1", r.Count())
	}
}

func TestAssignOrCreateFarMatchCreatesNewSpeaker(t *testing.T) {
	r := NewSpeakerRegistry(DefaultRegistryConfig())
	id1 := r.AssignOrCreate(unitEmbedding([]float32{1, 0, 0}), 0)
	id2 := r.AssignOrCreate(unitEmbedding([]float32{0, 1, 0}), 1)
	if id1 == id2 {
		t.Fatalf("expected orthogonal embedding to create a distinct speaker")
	}
	if r.Count() != 2 {
		t.Fatalf("count = %d, want 2", r.Count())
	}
}

func TestAssignOrCreateInvalidEmbeddingReturnsUnvoiced(t *testing.T) {
	r := NewSpeakerRegistry(DefaultRegistryConfig())
	id := r.AssignOrCreate(Embedding{Valid: false}, 0)
	if id != UnvoicedSpeakerID {
		t.Fatalf("expected unvoiced sentinel, got %q", id)
	}
	if r.Count() != 0 {
		t.Fatalf("invalid embedding should not create a speaker")
	}
}

func TestAssignOrCreateRespectsMaxSpeakersCap(t *testing.T) {
	cfg := DefaultRegistryConfig()
	cfg.MaxSpeakers = 1
	r := NewSpeakerRegistry(cfg)
	id1 := r.AssignOrCreate(unitEmbedding([]float32{1, 0, 0}), 0)
	id2 := r.AssignOrCreate(unitEmbedding([]float32{0, 1, 0}), 1)
	if id1 != id2 {
		t.Fatalf("expected capped registry to force-assign to existing speaker")
	}
	if r.Count() != 1 {
		t.Fatalf("count = %d, want 1", r.Count())
	}
}

func TestAssignOrCreateUpdateThresholdBlendsPrototype(t *testing.T) {
	cfg := DefaultRegistryConfig()
	r := NewSpeakerRegistry(cfg)
	id := r.AssignOrCreate(unitEmbedding([]float32{1, 0, 0}), 0)
	r.AssignOrCreate(unitEmbedding([]float32{0.999, 0.001, 0}), 1)
	protos := r.Prototypes()
	var found *SpeakerPrototype
	for i := range protos {
		if protos[i].ID == id {
			found = &protos[i]
		}
	}
	if found == nil {
		t.Fatalf("speaker %q not found", id)
	}
	if found.ObservationCount != 2 {
		t.Fatalf("observation count = %d, want 2", found.ObservationCount)
	}
	if found.Prototype[1] <= 0 {
		t.Fatalf("prototype = %v, want it blended toward the new embedding", found.Prototype)
	}
}
