package diarization

import (
	"sync"

	"github.com/google/uuid"
)

// UnvoicedSpeakerID is returned by AssignOrCreate for embeddings not sound
// enough to cluster on; callers should drop the corresponding region rather
// than emit a segment under this id.
const UnvoicedSpeakerID = ""

// RegistryConfig holds the thresholds the online clustering decision uses.
// AssignmentThreshold must be >= UpdateThreshold: a prototype is only
// blended when the match is close enough to trust it, but a looser match
// still claims the observation before falling back to a new speaker.
type RegistryConfig struct {
	AssignmentThreshold float64 // theta_a: max distance to assign to an existing speaker
	UpdateThreshold     float64 // theta_u: max distance to also blend into the prototype
	UpdateWeight        float64 // alpha: blend weight given to the new embedding
	MaxSpeakers         int     // 0 means unbounded

	// ClusteringThreshold is a legacy alias for AssignmentThreshold kept for
	// configuration compatibility; if set and AssignmentThreshold is zero,
	// it is adopted in place of AssignmentThreshold.
	ClusteringThreshold float64
}

// DefaultRegistryConfig returns the thresholds spec.md fixes as defaults.
func DefaultRegistryConfig() RegistryConfig {
	return RegistryConfig{
		AssignmentThreshold: 0.84,
		UpdateThreshold:     0.56,
		UpdateWeight:        0.1,
		MaxSpeakers:         0,
	}
}

func (c RegistryConfig) normalized() RegistryConfig {
	if c.AssignmentThreshold == 0 && c.ClusteringThreshold != 0 {
		c.AssignmentThreshold = c.ClusteringThreshold
	}
	return c
}

// SpeakerRegistry is the online speaker-identity manager: given a new
// embedding, it decides whether to assign it to an existing speaker, blend
// it into that speaker's prototype, or mint a new speaker id. It never
// revisits a decision once made.
type SpeakerRegistry struct {
	config     RegistryConfig
	mu         sync.Mutex
	prototypes []*SpeakerPrototype
	newID      func() string
}

// NewSpeakerRegistry constructs a registry with the given thresholds.
func NewSpeakerRegistry(config RegistryConfig) *SpeakerRegistry {
	return &SpeakerRegistry{
		config: config.normalized(),
		newID:  func() string { return uuid.New().String() },
	}
}

// AssignOrCreate assigns e to a speaker identity, creating a new one if
// needed, and returns that speaker's id. t is the embedding's observation
// time in seconds since recording start, recorded only on first creation.
// Invalid embeddings are never assigned or used to update a prototype.
func (r *SpeakerRegistry) AssignOrCreate(e Embedding, t float64) string {
	if !e.Valid || len(e.Vector) == 0 {
		return UnvoicedSpeakerID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.prototypes) == 0 {
		return r.create(e, t)
	}

	bestIdx := -1
	bestDist := 2.0 // cosine distance is bounded in [0,2]
	for i, p := range r.prototypes {
		d := CosineDistance(e.Vector, p.Prototype)
		if bestIdx < 0 || d < bestDist {
			bestDist = d
			bestIdx = i
		}
	}

	switch {
	case bestIdx >= 0 && bestDist <= r.config.UpdateThreshold:
		p := r.prototypes[bestIdx]
		p.Prototype = WeightedBlend(p.Prototype, e.Vector, r.config.UpdateWeight)
		p.ObservationCount++
		return p.ID
	case bestIdx >= 0 && bestDist <= r.config.AssignmentThreshold:
		p := r.prototypes[bestIdx]
		p.ObservationCount++
		return p.ID
	default:
		if r.config.MaxSpeakers > 0 && len(r.prototypes) >= r.config.MaxSpeakers {
			// at capacity: force-assign to the closest prototype rather than
			// silently dropping the observation.
			p := r.prototypes[bestIdx]
			p.ObservationCount++
			return p.ID
		}
		return r.create(e, t)
	}
}

func (r *SpeakerRegistry) create(e Embedding, t float64) string {
	proto := append([]float32(nil), e.Vector...)
	p := &SpeakerPrototype{
		ID:               r.newID(),
		Prototype:        proto,
		CreationTime:     t,
		ObservationCount: 1,
	}
	r.prototypes = append(r.prototypes, p)
	return p.ID
}

// Prototypes returns a snapshot copy of the registry's current speakers.
func (r *SpeakerRegistry) Prototypes() []SpeakerPrototype {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]SpeakerPrototype, len(r.prototypes))
	for i, p := range r.prototypes {
		out[i] = *p
	}
	return out
}

// Count returns the number of distinct speakers registered so far.
func (r *SpeakerRegistry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.prototypes)
}
