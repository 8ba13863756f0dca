package api

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/tracememory/pkg/analytics"
	"github.com/papercomputeco/tracememory/pkg/llm"
	"github.com/papercomputeco/tracememory/pkg/memory"
	"github.com/papercomputeco/tracememory/pkg/store"
)

// InitRequest starts or resumes a session for a user.
type InitRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	// SessionID resumes an existing session when set.
	SessionID string `json:"session_id,omitempty"`
}

// RatingRequest changes the session fact rating threshold.
type RatingRequest struct {
	MinRating *float64 `json:"min_rating"`
}

// ChatRequest is a single user turn.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse is the assistant reply and the memory context it was given.
type ChatResponse struct {
	Reply         string          `json:"reply"`
	MemoryContext string          `json:"memory_context"`
	Event         analytics.Event `json:"event"`
}

// MessagesResponse is the active session transcript.
type MessagesResponse struct {
	Messages []llm.Message `json:"messages"`
}

// SessionsResponse lists the sessions recorded for the active user.
type SessionsResponse struct {
	Sessions []store.SessionRecord `json:"sessions"`
}

// FactsResponse lists fact candidates extracted from memory.
type FactsResponse struct {
	Facts []memory.FactItem `json:"facts"`
}

// PinsResponse lists pinned facts.
type PinsResponse struct {
	Pins []store.PinnedFact `json:"pins"`
}

// EditPinRequest replaces a pinned fact.
type EditPinRequest struct {
	OldText string  `json:"old_text"`
	NewText string  `json:"new_text"`
	Source  *string `json:"source,omitempty"`
}

// DiffResponse is the unified diff between two sessions' memory contexts.
type DiffResponse struct {
	SessionA string `json:"session_a"`
	SessionB string `json:"session_b"`
	ContextA string `json:"context_a"`
	ContextB string `json:"context_b"`
	Diff     string `json:"diff"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

func (s *Server) handleGetSession(c *fiber.Ctx) error {
	info, err := s.session.Info()
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(info)
}

func (s *Server) handleInitSession(c *fiber.Ctx) error {
	var req InitRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	var err error
	if sid := strings.TrimSpace(req.SessionID); sid != "" {
		err = s.session.Resume(c.Context(), req.FirstName, req.LastName, sid)
	} else {
		err = s.session.Init(c.Context(), req.FirstName, req.LastName)
	}
	if err != nil {
		return s.fail(c, err)
	}

	return s.handleGetSession(c)
}

func (s *Server) handleNewSession(c *fiber.Ctx) error {
	if _, err := s.session.NewSession(c.Context()); err != nil {
		return s.fail(c, err)
	}
	return s.handleGetSession(c)
}

func (s *Server) handleSetMinRating(c *fiber.Ctx) error {
	var req RatingRequest
	if err := c.BodyParser(&req); err != nil || req.MinRating == nil {
		return badRequest(c, "min_rating is required")
	}
	if err := s.session.SetMinRating(*req.MinRating); err != nil {
		return s.fail(c, err)
	}
	return s.handleGetSession(c)
}

func (s *Server) handleListSessions(c *fiber.Ctx) error {
	sessions, err := s.session.Sessions()
	if err != nil {
		return s.fail(c, err)
	}
	if sessions == nil {
		sessions = []store.SessionRecord{}
	}
	return c.JSON(SessionsResponse{Sessions: sessions})
}

func (s *Server) handleChat(c *fiber.Ctx) error {
	var req ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	result, err := s.session.Chat(c.Context(), req.Message)
	if err != nil {
		return s.fail(c, err)
	}

	return c.JSON(ChatResponse{
		Reply:         result.Reply,
		MemoryContext: result.MemoryContext,
		Event:         result.Event,
	})
}

func (s *Server) handleListMessages(c *fiber.Ctx) error {
	msgs, err := s.session.Messages(c.Context())
	if err != nil {
		return s.fail(c, err)
	}
	if msgs == nil {
		msgs = []llm.Message{}
	}
	return c.JSON(MessagesResponse{Messages: msgs})
}

func (s *Server) handleClearMessages(c *fiber.Ctx) error {
	if err := s.session.ClearMessages(c.Context()); err != nil {
		return s.fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleTranscript(c *fiber.Ctx) error {
	export, err := s.session.Export(c.Context())
	if err != nil {
		return s.fail(c, err)
	}

	body, err := export.JSON()
	if err != nil {
		return s.fail(c, err)
	}

	c.Attachment(export.Filename())
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(body)
}

func (s *Server) handleFacts(c *fiber.Ctx) error {
	facts, err := s.session.Facts(c.Context())
	if err != nil {
		return s.fail(c, err)
	}
	if facts == nil {
		facts = []memory.FactItem{}
	}
	return c.JSON(FactsResponse{Facts: facts})
}

func (s *Server) pins(c *fiber.Ctx, pins []store.PinnedFact, err error) error {
	if err != nil {
		return s.fail(c, err)
	}
	if pins == nil {
		pins = []store.PinnedFact{}
	}
	return c.JSON(PinsResponse{Pins: pins})
}

func (s *Server) handleListPins(c *fiber.Ctx) error {
	pins, err := s.session.Pinned()
	return s.pins(c, pins, err)
}

func (s *Server) handlePin(c *fiber.Ctx) error {
	var req memory.FactItem
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	pins, err := s.session.Pin(req)
	return s.pins(c, pins, err)
}

func (s *Server) handleEditPin(c *fiber.Ctx) error {
	var req EditPinRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	pins, err := s.session.EditPinned(req.OldText, req.NewText, req.Source)
	return s.pins(c, pins, err)
}

// handleUnpin removes the pinned fact named by the text query parameter.
func (s *Server) handleUnpin(c *fiber.Ctx) error {
	text := c.Query("text")
	if strings.TrimSpace(text) == "" {
		return badRequest(c, "text parameter required")
	}
	pins, err := s.session.Unpin(text)
	return s.pins(c, pins, err)
}

func (s *Server) handleDiff(c *fiber.Ctx) error {
	a, b := c.Query("a"), c.Query("b")
	if (a == "") != (b == "") {
		return badRequest(c, "both a and b are required when either is set")
	}

	result, err := s.session.Diff(c.Context(), a, b)
	if err != nil {
		return s.fail(c, err)
	}

	return c.JSON(DiffResponse{
		SessionA: result.A,
		SessionB: result.B,
		ContextA: result.ContextA,
		ContextB: result.ContextB,
		Diff:     result.Diff,
	})
}

func (s *Server) handleAnalytics(c *fiber.Ctx) error {
	summary, err := s.session.Analytics()
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(summary)
}
