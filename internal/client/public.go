package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/debemdeboas/archive-console/internal/config"
	"github.com/debemdeboas/archive-console/internal/model"
)

// ListPublicPosts returns one page of the published listing. It does not authenticate. A
// payload that is not a JSON array yields an empty page.
func (c *Client) ListPublicPosts(ctx context.Context, limit, skip int) ([]model.Post, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("skip", strconv.Itoa(skip))

	var raw json.RawMessage
	if err := c.do(ctx, request{
		method: http.MethodGet,
		path:   config.PublicPostsPath,
		query:  q,
	}, &raw); err != nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		clientLogger.Warn().Int("skip", skip).Msg("Public listing page is not a list")
		return []model.Post{}, nil
	}

	var posts []model.Post
	if err := json.Unmarshal(trimmed, &posts); err != nil {
		return nil, fmt.Errorf("decode public posts: %w", err)
	}
	return posts, nil
}

// AssetURL is the public address of an uploaded asset.
func (c *Client) AssetURL(id model.AssetID) string {
	if id == "" {
		return ""
	}
	return c.baseURL + config.AssetsPath + "/" + url.PathEscape(string(id))
}

// FetchAsset streams an asset. The caller closes the reader.
func (c *Client) FetchAsset(ctx context.Context, id model.AssetID) (io.ReadCloser, string, error) {
	if id == "" {
		return nil, "", ErrMissingAssetID
	}

	res, err := c.send(ctx, request{
		method: http.MethodGet,
		path:   config.AssetsPath + "/" + url.PathEscape(string(id)),
	})
	if err != nil {
		return nil, "", err
	}
	return res.Body, res.Header.Get(config.HCType), nil
}

// FetchAssetHTML returns an exported post page with a base element pointing at the asset,
// so relative links inside the page resolve against the API.
func (c *Client) FetchAssetHTML(ctx context.Context, id model.AssetID) (string, error) {
	if id == "" {
		return "", ErrMissingAssetID
	}

	res, err := c.send(ctx, request{
		method: http.MethodGet,
		path:   config.AssetsPath + "/" + url.PathEscape(string(id)),
		accept: config.CTypeHTML,
	})
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	page, err := io.ReadAll(res.Body)
	if err != nil {
		return "", fmt.Errorf("read asset %s: %w", id, err)
	}

	return fmt.Sprintf(`<base href="%s">`, html.EscapeString(c.AssetURL(id))) + string(page), nil
}
