package client

import (
	"context"
	"net/http"
	"strings"

	"github.com/debemdeboas/archive-console/internal/config"
	"github.com/debemdeboas/archive-console/internal/model"
)

// RequestAdmin submits a contributor request. It does not authenticate.
func (c *Client) RequestAdmin(ctx context.Context, req model.AdminRequest) error {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Portfolio = strings.TrimSpace(req.Portfolio)
	if req.Name == "" || req.Email == "" {
		return ErrNameEmailRequired
	}

	body, err := jsonBody(req)
	if err != nil {
		return err
	}
	return c.do(ctx, request{
		method: http.MethodPost,
		path:   config.RequestAdminPath,
		body:   body,
	}, nil)
}
