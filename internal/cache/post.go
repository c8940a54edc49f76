package cache

import (
	"context"
	"time"

	"github.com/debemdeboas/archive-console/internal/model"
)

// PostFetcher loads a single post from the server.
type PostFetcher func(ctx context.Context, id model.PostID) (*model.Post, error)

type cachedPost struct {
	post      model.Post
	fetchedAt time.Time
}

// PostCache keeps single posts around so the editor opens without waiting on the network.
type PostCache struct {
	items *Cache[model.PostID, cachedPost]
	ttl   time.Duration
	now   func() time.Time
}

func NewPostCache(ttl time.Duration) *PostCache {
	return &PostCache{
		items: NewCache[model.PostID, cachedPost](),
		ttl:   ttl,
		now:   time.Now,
	}
}

// Get returns the post while it is younger than the TTL.
func (c *PostCache) Get(id model.PostID) (*model.Post, bool) {
	item, ok := c.items.Get(id)
	if !ok || c.expired(item) {
		return nil, false
	}
	post := item.post.Clone()
	return &post, true
}

func (c *PostCache) Set(post model.Post) {
	c.items.Set(post.ID, cachedPost{post: post.Clone(), fetchedAt: c.now()})
}

func (c *PostCache) Delete(id model.PostID) {
	c.items.Delete(id)
}

func (c *PostCache) expired(item cachedPost) bool {
	return c.ttl <= 0 || c.now().Sub(item.fetchedAt) >= c.ttl
}

// Prefetch loads the post unless a fresh copy is cached and returns it.
func (c *PostCache) Prefetch(ctx context.Context, id model.PostID, fetch PostFetcher) (*model.Post, error) {
	if post, ok := c.Get(id); ok {
		return post, nil
	}

	post, err := fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	c.Set(*post)

	cacheLogger.Debug().Str("post_id", string(id)).Msg("Prefetched post")
	out := post.Clone()
	return &out, nil
}
