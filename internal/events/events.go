// Package events announces published posts to downstream consumers.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/debemdeboas/archive-console/internal/model"
)

var eventsLogger zerolog.Logger = zerolog.Nop()

func SetLogger(l zerolog.Logger) {
	eventsLogger = l
}

const TypePostPublished = "post.published"

type PostPublishedPayload struct {
	PostID      model.PostID  `json:"post_id"`
	Slug        string        `json:"slug"`
	Title       string        `json:"title"`
	HTMLAssetID model.AssetID `json:"html_asset_id,omitempty"`
	URL         string        `json:"url,omitempty"`
}

type PostPublished struct {
	ID        string               `json:"id"`
	Type      string               `json:"type"`
	Timestamp time.Time            `json:"timestamp"`
	Payload   PostPublishedPayload `json:"payload"`
}

func NewPostPublished(payload PostPublishedPayload) PostPublished {
	return PostPublished{
		ID:        uuid.NewString(),
		Type:      TypePostPublished,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

type Publisher interface {
	PublishPostPublished(ctx context.Context, e PostPublished) error
	Close() error
}

type NoopPublisher struct{}

func (NoopPublisher) PublishPostPublished(context.Context, PostPublished) error {
	return nil
}

func (NoopPublisher) Close() error {
	return nil
}

var _ Publisher = NoopPublisher{}
