package zep

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/papercomputeco/tracememory/pkg/apperr"
	"github.com/papercomputeco/tracememory/pkg/memory"
)

type userRequest struct {
	UserID                string              `json:"user_id"`
	FirstName             string              `json:"first_name,omitempty"`
	LastName              string              `json:"last_name,omitempty"`
	FactRatingInstruction memory.RatingPolicy `json:"fact_rating_instruction"`
}

type userResponse struct {
	UserID string `json:"user_id"`
	UUID   string `json:"uuid,omitempty"`
}

func (c *Client) getUser(ctx context.Context, userID string) (*userResponse, error) {
	var out userResponse
	if err := c.do(ctx, http.MethodGet, "/users/"+url.PathEscape(userID), nil, nil, &out); err != nil {
		if isStatus(err, http.StatusNotFound) {
			return nil, fmt.Errorf("%w: %v", memory.ErrUserNotFound, err)
		}
		return nil, err
	}
	return &out, nil
}

// EnsureUser looks the user up and creates it with the default rating
// policy when absent.
//
// A credential failure on either call is returned as *apperr.AuthError. Any
// other create failure reports the original lookup failure, annotated with
// the create error.
func (c *Client) EnsureUser(ctx context.Context, userID, firstName, lastName string) (bool, error) {
	_, getErr := c.getUser(ctx, userID)
	if getErr == nil {
		return true, nil
	}
	if isAuthFailure(getErr) {
		return false, &apperr.AuthError{Op: "get user", Err: getErr}
	}

	req := userRequest{
		UserID:                userID,
		FirstName:             firstName,
		LastName:              lastName,
		FactRatingInstruction: memory.DefaultRatingPolicy(),
	}
	createErr := c.do(ctx, http.MethodPost, "/users", nil, req, nil)
	if createErr == nil {
		c.logger.Info("created user", "user_id", userID)
		return false, nil
	}
	if isAuthFailure(createErr) {
		return false, &apperr.AuthError{Op: "create user", Err: createErr}
	}

	return false, &apperr.BackendError{
		Op:  "ensure user",
		Err: fmt.Errorf("%w (create failed: %v)", getErr, createErr),
	}
}
