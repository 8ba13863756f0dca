// Package sessiondiff compares the memory context of two sessions as a
// unified diff.
package sessiondiff

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hexops/gotextdiff"
	"github.com/hexops/gotextdiff/myers"
	"github.com/hexops/gotextdiff/span"

	"github.com/papercomputeco/tracememory/pkg/memory"
)

// NoDiff is rendered when both contexts are identical.
const NoDiff = "(no textual diff)"

var (
	// ErrNotEnoughSessions is returned when fewer than two sessions exist.
	ErrNotEnoughSessions = errors.New("create at least two sessions to compare")

	// ErrSameSession is returned when both sides name the same session.
	ErrSameSession = errors.New("select two different sessions")

	// ErrNoContext is returned when neither session has memory context at
	// the requested rating.
	ErrNoContext = errors.New("no memory context available for either session at this rating threshold")
)

// ContextSource fetches a session's memory context.
type ContextSource interface {
	GetMemoryContext(ctx context.Context, sessionID string, minRating float64) (*memory.Context, error)
}

// Result is the comparison of session A against session B.
type Result struct {
	A        string `json:"a"`
	B        string `json:"b"`
	ContextA string `json:"context_a"`
	ContextB string `json:"context_b"`
	Diff     string `json:"diff"`
}

// DefaultPair picks the two most recent sessions, oldest first.
func DefaultPair(sessions []string) (string, string, error) {
	if len(sessions) < 2 {
		return "", "", ErrNotEnoughSessions
	}
	return sessions[len(sessions)-2], sessions[len(sessions)-1], nil
}

// Compare fetches both contexts and diffs them.
func Compare(ctx context.Context, src ContextSource, a, b string, minRating float64) (*Result, error) {
	if a == b {
		return nil, ErrSameSession
	}

	ctxA, err := fetch(ctx, src, a, minRating)
	if err != nil {
		return nil, err
	}
	ctxB, err := fetch(ctx, src, b, minRating)
	if err != nil {
		return nil, err
	}

	if ctxA == "" && ctxB == "" {
		return nil, ErrNoContext
	}

	return &Result{
		A:        a,
		B:        b,
		ContextA: ctxA,
		ContextB: ctxB,
		Diff:     Unified(a, b, ctxA, ctxB),
	}, nil
}

func fetch(ctx context.Context, src ContextSource, sessionID string, minRating float64) (string, error) {
	mc, err := src.GetMemoryContext(ctx, sessionID, minRating)
	if err != nil {
		return "", fmt.Errorf("could not fetch session %s: %w", sessionID, err)
	}
	if mc == nil {
		return "", nil
	}
	return strings.TrimSpace(mc.Text), nil
}

// Unified renders the line diff of two contexts labelled by session.
func Unified(a, b, ctxA, ctxB string) string {
	before := withNewline(ctxA)
	after := withNewline(ctxB)

	edits := myers.ComputeEdits(span.URIFromPath("a"), before, after)
	diff := fmt.Sprint(gotextdiff.ToUnified("Session A: "+a, "Session B: "+b, before, edits))
	diff = strings.TrimRight(diff, "\n")
	if diff == "" {
		return NoDiff
	}
	return diff
}

func withNewline(s string) string {
	if s == "" || strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}
