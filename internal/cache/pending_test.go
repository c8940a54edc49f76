package cache

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/debemdeboas/archive-console/internal/model"
	"github.com/debemdeboas/archive-console/internal/notify"
)

func TestPendingSet(t *testing.T) {
	hub := notify.NewHub()
	sub := hub.Subscribe(PendingTopic, 8)
	p := NewPendingSet(hub)

	p.Add("b")
	p.Add("a")

	if !p.Has("a") || !p.Has("b") {
		t.Error("Expected both ids to be pending")
	}
	if got := p.IDs(); !slices.Equal(got, []model.PostID{"a", "b"}) {
		t.Errorf("Expected sorted ids, got %v", got)
	}

	p.Remove("a")
	if p.Has("a") {
		t.Error("Expected id to be cleared")
	}

	if got := len(sub.Msg); got != 3 {
		t.Errorf("Expected 3 notifications, got %d", got)
	}
}

func TestPendingSetWithoutHub(t *testing.T) {
	p := NewPendingSet(nil)
	p.Add("x")
	p.Remove("x")
}

func TestPostCache(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewPostCache(5 * time.Minute)
	c.now = func() time.Time { return now }

	calls := 0
	fetch := func(_ context.Context, id model.PostID) (*model.Post, error) {
		calls++
		return &model.Post{ID: id, Title: "Fetched"}, nil
	}

	t.Run("prefetch fills the cache", func(t *testing.T) {
		post, err := c.Prefetch(context.Background(), "7", fetch)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if post.Title != "Fetched" {
			t.Errorf("Unexpected post %+v", post)
		}

		c.Prefetch(context.Background(), "7", fetch)
		if calls != 1 {
			t.Errorf("Expected cached post to be reused, got %d calls", calls)
		}
	})

	t.Run("expires after ttl", func(t *testing.T) {
		now = now.Add(5 * time.Minute)
		if _, ok := c.Get("7"); ok {
			t.Error("Expected post to expire")
		}
		c.Prefetch(context.Background(), "7", fetch)
		if calls != 2 {
			t.Errorf("Expected refetch after expiry, got %d calls", calls)
		}
	})

	t.Run("fetch error is returned", func(t *testing.T) {
		boom := errors.New("boom")
		_, err := c.Prefetch(context.Background(), "8", func(context.Context, model.PostID) (*model.Post, error) {
			return nil, boom
		})
		if !errors.Is(err, boom) {
			t.Errorf("Expected boom, got %v", err)
		}
	})

	t.Run("delete", func(t *testing.T) {
		c.Set(model.Post{ID: "9"})
		c.Delete("9")
		if _, ok := c.Get("9"); ok {
			t.Error("Expected post to be deleted")
		}
	})
}
