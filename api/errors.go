package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/tracememory/pkg/apperr"
	"github.com/papercomputeco/tracememory/pkg/chat"
	"github.com/papercomputeco/tracememory/pkg/llm"
	"github.com/papercomputeco/tracememory/pkg/runtime"
	"github.com/papercomputeco/tracememory/pkg/sessiondiff"
)

// statusFor maps a session error to its HTTP status.
func statusFor(err error) int {
	var (
		genErr     *apperr.GenerationError
		backendErr *apperr.BackendError
	)

	switch {
	case errors.Is(err, runtime.ErrNotInitialized):
		return fiber.StatusConflict
	case errors.Is(err, chat.ErrEmptyMessage),
		errors.Is(err, runtime.ErrEmptyFact),
		errors.Is(err, runtime.ErrInvalidRating),
		errors.Is(err, sessiondiff.ErrSameSession),
		errors.Is(err, sessiondiff.ErrNotEnoughSessions),
		apperr.IsConfig(err):
		return fiber.StatusBadRequest
	case errors.Is(err, runtime.ErrPinNotFound),
		errors.Is(err, sessiondiff.ErrNoContext):
		return fiber.StatusNotFound
	case apperr.IsAuth(err):
		return fiber.StatusUnauthorized
	case apperr.IsThrottled(err):
		return fiber.StatusTooManyRequests
	case errors.Is(err, chat.ErrNoResponse),
		errors.As(err, &genErr),
		errors.As(err, &backendErr):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

func (s *Server) fail(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	if status >= fiber.StatusInternalServerError {
		s.logger.Error("request failed",
			"path", c.Path(),
			"error", err,
		)
	}
	return c.Status(status).JSON(llm.ErrorResponse{Error: apperr.UserMessage(err)})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: msg})
}
