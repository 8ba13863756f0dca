package zep

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"

	"github.com/papercomputeco/tracememory/pkg/memory"
)

type threadRequest struct {
	ThreadID string `json:"thread_id"`
	UserID   string `json:"user_id"`
}

type message struct {
	Role    string `json:"role"`
	Name    string `json:"name,omitempty"`
	Content string `json:"content"`
}

type addMessagesRequest struct {
	Messages []message `json:"messages"`
}

// contextResponse is the wire shape of a thread context lookup. Facts come
// back under "facts" or "relevant_facts" depending on deployment mode.
type contextResponse struct {
	Context       string           `json:"context"`
	Facts         []memory.RawFact `json:"facts"`
	RelevantFacts []memory.RawFact `json:"relevant_facts"`
}

func (r *contextResponse) normalize() *memory.Context {
	facts := r.Facts
	if len(facts) == 0 {
		facts = r.RelevantFacts
	}
	return &memory.Context{
		Text:  r.Context,
		Facts: facts,
	}
}

// CreateSession creates a thread for the user. A thread that already exists
// counts as success.
func (c *Client) CreateSession(ctx context.Context, userID, sessionID string) (string, error) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	err := c.do(ctx, http.MethodPost, "/threads", nil, threadRequest{
		ThreadID: sessionID,
		UserID:   userID,
	}, nil)

	switch {
	case err == nil:
		c.logger.Debug("created thread", "session_id", sessionID, "user_id", userID)
	case isAuthFailure(err):
		return "", classify("create session", err)
	case isStatus(err, http.StatusConflict, http.StatusBadRequest):
		c.logger.Debug("thread already exists", "session_id", sessionID)
	default:
		return "", classify("create session", err)
	}

	return sessionID, nil
}

// GetMemoryContext fetches the thread context filtered by minRating.
func (c *Client) GetMemoryContext(ctx context.Context, sessionID string, minRating float64) (*memory.Context, error) {
	q := url.Values{}
	q.Set("minRating", strconv.FormatFloat(minRating, 'f', -1, 64))

	var out contextResponse
	if err := c.do(ctx, http.MethodGet, "/threads/"+url.PathEscape(sessionID)+"/context", q, nil, &out); err != nil {
		return nil, classify("get memory context", err)
	}
	return out.normalize(), nil
}

// AppendMessage appends a single message to the thread.
func (c *Client) AppendMessage(ctx context.Context, sessionID, role, displayName, content string) error {
	req := addMessagesRequest{Messages: []message{{
		Role:    role,
		Name:    displayName,
		Content: content,
	}}}

	if err := c.do(ctx, http.MethodPost, "/threads/"+url.PathEscape(sessionID)+"/messages", nil, req, nil); err != nil {
		return classify("append message", err)
	}
	return nil
}

// DeleteSession deletes the thread and reports false on any failure.
func (c *Client) DeleteSession(ctx context.Context, sessionID string) bool {
	if err := c.do(ctx, http.MethodDelete, "/threads/"+url.PathEscape(sessionID), nil, nil, nil); err != nil {
		c.logger.Warn("delete session failed", "session_id", sessionID, "error", err)
		return false
	}
	return true
}
