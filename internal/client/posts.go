package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/debemdeboas/archive-console/internal/config"
	"github.com/debemdeboas/archive-console/internal/model"
)

type ListParams struct {
	Limit       int
	Skip        int
	ShowDeleted bool
}

func (p ListParams) query() url.Values {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(p.Limit))
	q.Set("skip", strconv.Itoa(p.Skip))
	if p.ShowDeleted {
		q.Set("show_deleted", "1")
	}
	return q
}

// ListPosts returns the admin listing, newest first as ordered by the server.
func (c *Client) ListPosts(ctx context.Context, params ListParams) ([]model.Post, error) {
	var posts []model.Post
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   config.PostsPath,
		query:  params.query(),
		auth:   true,
	}, &posts)
	return posts, err
}

func (c *Client) GetPost(ctx context.Context, id model.PostID) (*model.Post, error) {
	if id == "" {
		return nil, ErrMissingID
	}

	var post model.Post
	if err := c.do(ctx, request{
		method: http.MethodGet,
		path:   postPath(string(id)),
		auth:   true,
	}, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// CreatePost asks the server for a new empty post. The server assigns the id.
func (c *Client) CreatePost(ctx context.Context) (model.CreatedPost, error) {
	var created model.CreatedPost
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   config.PostsPath,
		auth:   true,
	}, &created)
	return created, err
}

func (c *Client) UpdatePost(ctx context.Context, id model.PostID, update model.PostUpdate) (*model.Post, error) {
	if id == "" {
		return nil, ErrMissingID
	}

	body, err := jsonBody(update)
	if err != nil {
		return nil, err
	}

	var post model.Post
	if err := c.do(ctx, request{
		method: http.MethodPatch,
		path:   postPath(string(id)),
		body:   body,
		auth:   true,
	}, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

func (c *Client) SetStatus(ctx context.Context, id model.PostID, status model.Status) error {
	if id == "" {
		return ErrMissingID
	}

	q := url.Values{}
	q.Set("status", string(status))
	return c.do(ctx, request{
		method: http.MethodPatch,
		path:   postPath(string(id), "status"),
		query:  q,
		auth:   true,
	}, nil)
}

func (c *Client) SoftDelete(ctx context.Context, id model.PostID) error {
	if id == "" {
		return ErrMissingID
	}
	return c.do(ctx, request{
		method: http.MethodPatch,
		path:   postPath(string(id), "delete"),
		auth:   true,
	}, nil)
}

func (c *Client) Restore(ctx context.Context, id model.PostID) error {
	if id == "" {
		return ErrMissingID
	}
	return c.do(ctx, request{
		method: http.MethodPatch,
		path:   postPath(string(id), "restore"),
		auth:   true,
	}, nil)
}

// PermanentDelete removes the post on the server. It cannot be undone.
func (c *Client) PermanentDelete(ctx context.Context, id model.PostID) error {
	if id == "" {
		return ErrMissingID
	}
	return c.do(ctx, request{
		method: http.MethodDelete,
		path:   postPath(string(id), "delete"),
		auth:   true,
	}, nil)
}
