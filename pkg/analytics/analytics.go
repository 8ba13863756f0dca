// Package analytics records per-turn memory usage for a session and
// summarizes it for the analytics surface.
package analytics

import (
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

// Event is one completed (or attempted) turn.
type Event struct {
	Timestamp          time.Time `json:"ts"`
	SessionID          string    `json:"session_id"`
	MemoryUsed         bool      `json:"memory_used"`
	MemoryContextChars int       `json:"memory_chars"`
	UserChars          int       `json:"user_chars"`
	AssistantChars     int       `json:"assistant_chars"`
}

// NewEvent derives an event from the turn's texts. Memory counts as used
// when the context is non-blank.
func NewEvent(ts time.Time, sessionID, memoryContext, userText, assistantText string) Event {
	return Event{
		Timestamp:          ts.UTC(),
		SessionID:          sessionID,
		MemoryUsed:         strings.TrimSpace(memoryContext) != "",
		MemoryContextChars: utf8.RuneCountInString(memoryContext),
		UserChars:          utf8.RuneCountInString(userText),
		AssistantChars:     utf8.RuneCountInString(assistantText),
	}
}

// Summary aggregates recorded events. Series are in record order.
type Summary struct {
	Turns          int     `json:"turns"`
	HitRate        float64 `json:"hit_rate"`
	MemoryUsed     int     `json:"memory_used"`
	MemoryNotUsed  int     `json:"memory_not_used"`
	MemoryChars    []int   `json:"memory_chars"`
	UserChars      []int   `json:"user_chars"`
	AssistantChars []int   `json:"assistant_chars"`
}

// Recorder is an append-only, process-lifetime event log.
type Recorder struct {
	mu     sync.RWMutex
	events []Event
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Record appends e.
func (r *Recorder) Record(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of all recorded events.
func (r *Recorder) Events() []Event {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Summary computes the aggregate view. An empty recorder yields a zero
// hit rate and empty series.
func (r *Recorder) Summary() Summary {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s := Summary{
		Turns:          len(r.events),
		MemoryChars:    make([]int, 0, len(r.events)),
		UserChars:      make([]int, 0, len(r.events)),
		AssistantChars: make([]int, 0, len(r.events)),
	}

	for _, e := range r.events {
		if e.MemoryUsed {
			s.MemoryUsed++
		} else {
			s.MemoryNotUsed++
		}
		s.MemoryChars = append(s.MemoryChars, e.MemoryContextChars)
		s.UserChars = append(s.UserChars, e.UserChars)
		s.AssistantChars = append(s.AssistantChars, e.AssistantChars)
	}

	if s.Turns > 0 {
		s.HitRate = float64(s.MemoryUsed) / float64(s.Turns)
	}
	return s
}
