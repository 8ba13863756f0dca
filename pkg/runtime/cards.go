package runtime

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/papercomputeco/tracememory/pkg/memory"
	"github.com/papercomputeco/tracememory/pkg/sessiondiff"
	"github.com/papercomputeco/tracememory/pkg/store"
)

var (
	// ErrEmptyFact is returned when a pin has no text.
	ErrEmptyFact = errors.New("fact text must not be empty")

	// ErrPinNotFound is returned when editing a fact that is not pinned.
	ErrPinNotFound = errors.New("fact is not pinned")
)

// Context reads the active session's context from the backend at minRating,
// bypassing the cache. A negative minRating uses the session threshold.
func (s *Session) Context(ctx context.Context, minRating float64) (*memory.Context, error) {
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	if minRating < 0 {
		minRating = snap.minRating
	}
	if minRating > 1 {
		return nil, ErrInvalidRating
	}

	mc, err := s.backend.GetMemoryContext(ctx, snap.sessionID, minRating)
	if err != nil {
		return nil, fmt.Errorf("could not fetch memory: %w", err)
	}
	if mc == nil {
		mc = &memory.Context{}
	}
	return mc, nil
}

// Facts extracts fact candidates from the active session's context at the
// current threshold.
func (s *Session) Facts(ctx context.Context) ([]memory.FactItem, error) {
	mc, err := s.Context(ctx, -1)
	if err != nil {
		return nil, err
	}
	return memory.ExtractFacts(mc), nil
}

// Pinned returns the user's pinned facts.
func (s *Session) Pinned() ([]store.PinnedFact, error) {
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	return s.store.GetPinnedFacts(snap.userID)
}

func (s *Session) pinnedTexts(userID string) ([]string, error) {
	facts, err := s.store.GetPinnedFacts(userID)
	if err != nil {
		return nil, err
	}
	texts := make([]string, 0, len(facts))
	for _, f := range facts {
		texts = append(texts, f.Text)
	}
	return texts, nil
}

// Pin adds a fact to the pinned set. Pinning a text twice keeps the first.
func (s *Session) Pin(item memory.FactItem) ([]store.PinnedFact, error) {
	text := strings.TrimSpace(item.Text)
	if text == "" {
		return nil, ErrEmptyFact
	}

	return s.updatePins(func(pins []store.PinnedFact) ([]store.PinnedFact, error) {
		for _, p := range pins {
			if p.Text == text {
				return pins, nil
			}
		}
		return append(pins, store.PinnedFact{Text: text, Rating: item.Rating, Source: item.Source}), nil
	})
}

// Unpin removes the pinned fact with the given text. Unknown texts are a no-op.
func (s *Session) Unpin(text string) ([]store.PinnedFact, error) {
	return s.updatePins(func(pins []store.PinnedFact) ([]store.PinnedFact, error) {
		kept := pins[:0]
		for _, p := range pins {
			if p.Text != text {
				kept = append(kept, p)
			}
		}
		return kept, nil
	})
}

// EditPinned rewrites a pinned fact. A blank newText keeps the current text;
// a nil source keeps the current source and a blank one clears it.
func (s *Session) EditPinned(oldText, newText string, source *string) ([]store.PinnedFact, error) {
	return s.updatePins(func(pins []store.PinnedFact) ([]store.PinnedFact, error) {
		for i, p := range pins {
			if p.Text != oldText {
				continue
			}
			if t := strings.TrimSpace(newText); t != "" {
				pins[i].Text = t
			}
			if source != nil {
				if src := strings.TrimSpace(*source); src != "" {
					pins[i].Source = &src
				} else {
					pins[i].Source = nil
				}
			}
			return pins, nil
		}
		return nil, ErrPinNotFound
	})
}

func (s *Session) updatePins(fn func([]store.PinnedFact) ([]store.PinnedFact, error)) ([]store.PinnedFact, error) {
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}

	s.pinMu.Lock()
	defer s.pinMu.Unlock()

	pins, err := s.store.GetPinnedFacts(snap.userID)
	if err != nil {
		return nil, err
	}
	pins, err = fn(pins)
	if err != nil {
		return nil, err
	}
	if err := s.store.SetPinnedFacts(snap.userID, pins); err != nil {
		return nil, err
	}
	return pins, nil
}

// Diff compares two recorded sessions. Empty ids pick the two most recent.
func (s *Session) Diff(ctx context.Context, a, b string) (*sessiondiff.Result, error) {
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}

	sessions, err := s.store.ListSessions(snap.userID)
	if err != nil {
		return nil, err
	}
	if len(sessions) < 2 {
		return nil, sessiondiff.ErrNotEnoughSessions
	}

	if a == "" && b == "" {
		a, b, err = sessiondiff.DefaultPair(sessions)
		if err != nil {
			return nil, err
		}
	}

	return sessiondiff.Compare(ctx, s.backend, a, b, snap.minRating)
}
