package asrtext

// UpdateEvent is one incremental ASR hypothesis update: either a tentative
// partial result or a confirmed final transcript for a span.
type UpdateEvent struct {
	IsConfirmed bool
	Text        string
	Confidence  float64
}

// UpdateStream is an ordered, bounded channel of UpdateEvents. A slow
// consumer causes new events to be dropped rather than blocking the
// producer, mirroring the teacher's select-with-default channel send.
type UpdateStream struct {
	events chan UpdateEvent
}

// NewUpdateStream constructs a stream with the given buffer capacity.
func NewUpdateStream(buffer int) *UpdateStream {
	return &UpdateStream{events: make(chan UpdateEvent, buffer)}
}

// Publish attempts to enqueue ev, returning false if the buffer is full.
func (s *UpdateStream) Publish(ev UpdateEvent) bool {
	select {
	case s.events <- ev:
		return true
	default:
		return false
	}
}

// Events exposes the read side of the stream.
func (s *UpdateStream) Events() <-chan UpdateEvent { return s.events }

// Close shuts down the stream. Callers must stop publishing before closing.
func (s *UpdateStream) Close() { close(s.events) }
