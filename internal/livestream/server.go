// Package livestream fans out committed diarization segments and ASR
// update events to websocket subscribers as a recording's pipeline commits
// them.
package livestream

import (
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/valfrom/diarize-bench/asrtext"
	"github.com/valfrom/diarize-bench/diarization"
)

// Event is the envelope published to every subscriber, tagged by Kind so
// clients can dispatch without needing two socket types. WER is populated
// only on "update" events once a reference transcript has been set, scoring
// the confirmed transcript accumulated so far.
type Event struct {
	Kind    string                          `json:"kind"` // "segment" or "update"
	Segment *diarization.TimedSpeakerSegment `json:"segment,omitempty"`
	Update  *asrtext.UpdateEvent            `json:"update,omitempty"`
	WER     *float64                        `json:"wer,omitempty"`
}

// clientBufferSize is the per-client bounded queue depth; a subscriber that
// falls behind is dropped rather than allowed to stall the pipeline.
const clientBufferSize = 64

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type client struct {
	conn *websocket.Conn
	send chan Event
}

// Hub owns the set of connected subscribers for one recording's stream. It
// also optionally scores incoming ASR updates against a reference
// transcript, running word error rate as confirmed text accumulates.
type Hub struct {
	mu      sync.Mutex
	clients map[*client]struct{}

	referenceWords []string
	hypWords       []string
}

// NewHub constructs an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[*client]struct{})}
}

// SetReferenceTranscript tokenizes text and sets it as the reference
// transcript PublishUpdate scores confirmed ASR output against. Calling it
// again resets the accumulated hypothesis.
func (h *Hub) SetReferenceTranscript(text string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.referenceWords = asrtext.Tokenize(text)
	h.hypWords = nil
}

// ServeHTTP upgrades the request to a websocket and registers the
// connection as a subscriber until it disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("livestream: upgrade failed: %v", err)
		return
	}

	c := &client{conn: conn, send: make(chan Event, clientBufferSize)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	go h.writePump(c)
	go h.readPump(c)
}

func (h *Hub) readPump(c *client) {
	defer h.remove(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	defer c.conn.Close()
	for ev := range c.send {
		if err := c.conn.WriteJSON(ev); err != nil {
			return
		}
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// broadcast fans ev out to every subscriber. A subscriber whose buffer is
// full is dropped rather than allowed to block the caller.
func (h *Hub) broadcast(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- ev:
		default:
			delete(h.clients, c)
			close(c.send)
		}
	}
}

// PublishSegment broadcasts a newly committed segment to all subscribers.
func (h *Hub) PublishSegment(seg diarization.TimedSpeakerSegment) {
	h.broadcast(Event{Kind: "segment", Segment: &seg})
}

// PublishUpdate broadcasts an ASR update event to all subscribers. If a
// reference transcript has been set via SetReferenceTranscript, a confirmed
// update's text is folded into the running hypothesis and the event carries
// the resulting word error rate scored against the reference.
func (h *Hub) PublishUpdate(ev asrtext.UpdateEvent) {
	h.broadcast(Event{Kind: "update", Update: &ev, WER: h.scoreConfirmedUpdate(ev)})
}

// scoreConfirmedUpdate folds ev into the hub's accumulated hypothesis, if
// confirmed, and returns the updated WER against the reference transcript.
// Returns nil when no reference transcript has been set.
func (h *Hub) scoreConfirmedUpdate(ev asrtext.UpdateEvent) *float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.referenceWords == nil {
		return nil
	}
	if ev.IsConfirmed {
		h.hypWords = append(h.hypWords, asrtext.Tokenize(ev.Text)...)
	}
	wer := asrtext.LevenshteinWords(h.hypWords, h.referenceWords).WER()
	return &wer
}
