package momentum

import (
	"context"
	"net/http"
)

// CreateTask creates a caseworker task in Momentum. Single attempt: a
// retried create could duplicate tasks on the caseworker's board.
func (c *Client) CreateTask(ctx context.Context, req TaskRequest) error {
	return c.do(ctx, http.MethodPost, "/tasks", req, nil)
}
