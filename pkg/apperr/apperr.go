// Package apperr defines the error taxonomy shared by the memory backend,
// the completion providers and the outer surfaces.
//
// Every error type records the failing operation and wraps the underlying
// cause so callers can use errors.As for classification and errors.Is for
// sentinel checks further down the chain.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	goopenai "github.com/meguminnnnnnnnn/go-openai"
	ollamaapi "github.com/ollama/ollama/api"
)

// AuthError is a credential or permission failure on any backend call.
// It must propagate to the caller and is never retried as a different
// operation.
type AuthError struct {
	Op  string
	Err error
}

func (e *AuthError) Error() string { return format("authentication failed", e.Op, e.Err) }
func (e *AuthError) Unwrap() error { return e.Err }

// ThrottledError is a rate limited completion call. Callers may retry.
type ThrottledError struct {
	Op  string
	Err error
}

func (e *ThrottledError) Error() string { return format("rate limited", e.Op, e.Err) }
func (e *ThrottledError) Unwrap() error { return e.Err }

// GenerationError is any other completion failure.
type GenerationError struct {
	Op  string
	Err error
}

func (e *GenerationError) Error() string { return format("failed to generate response", e.Op, e.Err) }
func (e *GenerationError) Unwrap() error { return e.Err }

// BackendError is an unexpected memory backend failure.
type BackendError struct {
	Op  string
	Err error
}

func (e *BackendError) Error() string { return format("memory backend error", e.Op, e.Err) }
func (e *BackendError) Unwrap() error { return e.Err }

// ConfigError reports a missing or malformed credential detected before any
// network call is attempted.
type ConfigError struct {
	Field string
	Msg   string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return "configuration error: " + e.Msg
	}
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Msg)
}

func format(kind, op string, err error) string {
	switch {
	case op == "" && err == nil:
		return kind
	case op == "":
		return fmt.Sprintf("%s: %v", kind, err)
	case err == nil:
		return fmt.Sprintf("%s: %s", kind, op)
	default:
		return fmt.Sprintf("%s: %s: %v", kind, op, err)
	}
}

// IsAuth reports whether err is or wraps an *AuthError.
func IsAuth(err error) bool {
	var target *AuthError
	return errors.As(err, &target)
}

// IsThrottled reports whether err is or wraps a *ThrottledError.
func IsThrottled(err error) bool {
	var target *ThrottledError
	return errors.As(err, &target)
}

// IsConfig reports whether err is or wraps a *ConfigError.
func IsConfig(err error) bool {
	var target *ConfigError
	return errors.As(err, &target)
}

// IsAuthMessage reports whether an error message looks like a 401/403 class
// response from the memory backend.
func IsAuthMessage(msg string) bool {
	m := strings.ToLower(msg)
	for _, marker := range []string{"401", "unauthorized", "403", "forbidden"} {
		if strings.Contains(m, marker) {
			return true
		}
	}
	return false
}

// ClassifyCompletion maps a chat-completion failure onto the taxonomy. Typed
// provider errors are classified by status and error code, anything else by
// the wording of its message. Already classified errors are returned
// unchanged.
func ClassifyCompletion(op string, err error) error {
	if err == nil {
		return nil
	}

	var (
		authErr     *AuthError
		throttleErr *ThrottledError
		genErr      *GenerationError
	)
	if errors.As(err, &authErr) || errors.As(err, &throttleErr) || errors.As(err, &genErr) {
		return err
	}

	if kind := classifyByStatus(err); kind != nil {
		return kind(op, err)
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "rate_limit"):
		return &ThrottledError{Op: op, Err: err}
	case strings.Contains(msg, "api_key"), strings.Contains(msg, "authentication"):
		return &AuthError{Op: op, Err: err}
	default:
		return &GenerationError{Op: op, Err: err}
	}
}

type classifier func(op string, err error) error

func throttled(op string, err error) error { return &ThrottledError{Op: op, Err: err} }
func unauthorized(op string, err error) error { return &AuthError{Op: op, Err: err} }

// classifyByStatus inspects the OpenAI and Ollama client error types. It
// returns nil when err carries neither or the status is not decisive.
func classifyByStatus(err error) classifier {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		code, _ := apiErr.Code.(string)
		switch {
		case code == "rate_limit_exceeded", apiErr.HTTPStatusCode == http.StatusTooManyRequests:
			return throttled
		case code == "invalid_api_key", isAuthStatus(apiErr.HTTPStatusCode):
			return unauthorized
		}
		return nil
	}

	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		return byStatusCode(reqErr.HTTPStatusCode)
	}

	var statusErr ollamaapi.StatusError
	if errors.As(err, &statusErr) {
		return byStatusCode(statusErr.StatusCode)
	}
	var statusPtr *ollamaapi.StatusError
	if errors.As(err, &statusPtr) && statusPtr != nil {
		return byStatusCode(statusPtr.StatusCode)
	}
	return nil
}

func byStatusCode(status int) classifier {
	switch {
	case status == http.StatusTooManyRequests:
		return throttled
	case isAuthStatus(status):
		return unauthorized
	default:
		return nil
	}
}

func isAuthStatus(status int) bool {
	return status == http.StatusUnauthorized || status == http.StatusForbidden
}

// UserMessage renders err as guidance suitable for an end user.
func UserMessage(err error) string {
	var (
		cfgErr      *ConfigError
		authErr     *AuthError
		throttleErr *ThrottledError
		genErr      *GenerationError
	)

	switch {
	case err == nil:
		return ""
	case errors.As(err, &cfgErr):
		return cfgErr.Error() + ". Set the missing value in config.toml, the environment or .env."
	case errors.As(err, &authErr):
		return "Authentication failed. Check that your API keys are valid and active."
	case errors.As(err, &throttleErr):
		return "Rate limit exceeded. Please try again in a moment."
	case errors.As(err, &genErr):
		return "Failed to generate response: " + unwrapMsg(genErr.Err)
	default:
		return err.Error()
	}
}

func unwrapMsg(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}
