// Package model defines the blog entities exchanged with the posts API.
package model

import (
	"encoding/json"
	"time"
)

type PostID string

type UserID string

type AssetID string

type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

// Toggle returns the opposite publish status. Unknown values are treated as drafts.
func (s Status) Toggle() Status {
	if s == StatusPublished {
		return StatusDraft
	}
	return StatusPublished
}

type Post struct {
	ID      PostID `json:"id"`
	Title   string `json:"title"`
	Slug    string `json:"slug"`
	Summary string `json:"summary"`
	Status  Status `json:"status"`

	IsDeleted bool `json:"is_deleted"`

	CoverAssetID *AssetID `json:"cover_asset_id"`
	CoverCaption string   `json:"cover_caption,omitempty"`

	// Asset holding the exported HTML page. Set by the server once the post was published.
	HTMLAssetID *AssetID `json:"html_asset_id,omitempty"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`

	Tags []string `json:"tags"`

	// Raw is the editor content, Body the full exported HTML document.
	Raw  string `json:"raw"`
	Body string `json:"body"`
}

func (p Post) Clone() Post {
	c := p
	if p.Tags != nil {
		c.Tags = append([]string(nil), p.Tags...)
	}
	if p.CoverAssetID != nil {
		id := *p.CoverAssetID
		c.CoverAssetID = &id
	}
	if p.HTMLAssetID != nil {
		id := *p.HTMLAssetID
		c.HTMLAssetID = &id
	}
	if p.UpdatedAt != nil {
		t := *p.UpdatedAt
		c.UpdatedAt = &t
	}
	return c
}

func ClonePosts(posts []Post) []Post {
	if posts == nil {
		return nil
	}
	out := make([]Post, len(posts))
	for i, p := range posts {
		out[i] = p.Clone()
	}
	return out
}

// PostUpdate is the PATCH payload of the editor.
type PostUpdate struct {
	Title        string   `json:"title"`
	Slug         string   `json:"slug"`
	Tags         []string `json:"tags"`
	Summary      string   `json:"summary"`
	Raw          string   `json:"raw"`
	Body         string   `json:"body"`
	Status       Status   `json:"status"`
	CoverAssetID AssetID  `json:"cover_asset_id,omitempty"`
}

// CreatedPost is the answer of the create endpoint. Older backends call the id "post_id".
type CreatedPost struct {
	ID PostID
}

func (c *CreatedPost) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID     PostID `json:"id"`
		PostID PostID `json:"post_id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	c.ID = raw.ID
	if c.ID == "" {
		c.ID = raw.PostID
	}
	return nil
}

// Asset is an uploaded image or HTML document.
type Asset struct {
	ID   AssetID `json:"id"`
	Link string  `json:"link"`
}

func (a *Asset) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID         AssetID `json:"id"`
		AssetID    AssetID `json:"asset_id"`
		AssetIDCC  AssetID `json:"assetId"`
		Link       string  `json:"link"`
		PublicLink string  `json:"public_link"`
		URL        string  `json:"url"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	a.ID = firstNonEmpty(raw.ID, raw.AssetID, raw.AssetIDCC)
	a.Link = firstNonEmpty(raw.Link, raw.PublicLink, raw.URL)
	return nil
}

func firstNonEmpty[T ~string](values ...T) T {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// AdminRequest is submitted by people asking to contribute to the blog.
type AdminRequest struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Portfolio string `json:"portfolio"`
}
