package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/debemdeboas/archive-console/internal/model"
	"github.com/debemdeboas/archive-console/internal/notify"
)

var cacheLogger zerolog.Logger = zerolog.Nop()

func SetLogger(l zerolog.Logger) {
	cacheLogger = l
}

// ErrFetchSuperseded is returned by Fetch when its result was discarded because the key was
// cancelled or a newer fetch started while it was in flight.
var ErrFetchSuperseded = errors.New("post list fetch superseded")

// ListKey is the query key of a post list: the filter state of the dashboard.
type ListKey struct {
	ShowDeleted bool
}

func (k ListKey) String() string {
	return fmt.Sprintf("posts:show_deleted=%t", k.ShowDeleted)
}

// ListFetcher loads a post list from the server.
type ListFetcher func(ctx context.Context, key ListKey) ([]model.Post, error)

// Persister receives every list fetched from the server.
type Persister interface {
	Save(ctx context.Context, key string, posts []model.Post) error
}

// Snapshot is a deep copy of one cache entry taken before an optimistic write.
type Snapshot struct {
	Key     ListKey
	Posts   []model.Post
	Present bool
}

type listEntry struct {
	posts     []model.Post
	present   bool
	stale     bool
	fetchedAt time.Time

	// Bumped by Cancel, Invalidate and every new fetch. A fetch only stores its result
	// when the generation it started with is still current.
	generation uint64
	cancel     context.CancelFunc
}

// PostListCache stores post lists per ListKey. Values handed out and taken in are deep
// copies, so callers can never mutate cache state directly.
type PostListCache struct {
	mu      sync.Mutex
	entries *Cache[ListKey, *listEntry]

	staleTime time.Duration
	hub       *notify.Hub
	persister Persister
	now       func() time.Time
}

type Option func(*PostListCache)

// WithStaleTime sets how long a fetched list is served without refetching. Zero means
// every Fetch goes to the server.
func WithStaleTime(d time.Duration) Option {
	return func(c *PostListCache) { c.staleTime = d }
}

func WithHub(h *notify.Hub) Option {
	return func(c *PostListCache) { c.hub = h }
}

func WithPersister(p Persister) Option {
	return func(c *PostListCache) { c.persister = p }
}

func withClock(now func() time.Time) Option {
	return func(c *PostListCache) { c.now = now }
}

func NewPostListCache(opts ...Option) *PostListCache {
	c := &PostListCache{
		entries: NewCache[ListKey, *listEntry](),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.hub == nil {
		c.hub = notify.NewHub()
	}
	return c
}

// Subscribe returns a subscriber that receives every change of every key. The topic of an
// event is the key's String form.
func (c *PostListCache) Subscribe(buffer int) *notify.Subscriber {
	return c.hub.Subscribe("", buffer)
}

func (c *PostListCache) Unsubscribe(s *notify.Subscriber) {
	c.hub.Unsubscribe(s)
}

// entry must be called with c.mu held.
func (c *PostListCache) entry(key ListKey) *listEntry {
	e, ok := c.entries.Get(key)
	if !ok {
		e = &listEntry{}
		c.entries.Set(key, e)
	}
	return e
}

func (c *PostListCache) notify(key ListKey, reason string) {
	c.hub.Broadcast(key.String(), reason)
}

func (c *PostListCache) Get(key ListKey) ([]model.Post, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries.Get(key)
	if !ok || !e.present {
		return nil, false
	}
	return model.ClonePosts(e.posts), true
}

func (c *PostListCache) Set(key ListKey, posts []model.Post) {
	c.mu.Lock()
	e := c.entry(key)
	e.posts = model.ClonePosts(posts)
	e.present = true
	e.stale = false
	e.fetchedAt = c.now()
	c.mu.Unlock()

	c.notify(key, "set")
}

// Hydrate seeds a key with a list that is known to be old, typically a persisted snapshot.
// The entry is readable right away but the next Fetch goes to the server.
func (c *PostListCache) Hydrate(key ListKey, posts []model.Post) {
	c.mu.Lock()
	e := c.entry(key)
	e.posts = model.ClonePosts(posts)
	e.present = true
	e.stale = true
	c.mu.Unlock()

	c.notify(key, "hydrate")
}

// Update replaces the value of key with fn applied to a copy of it. A missing value is
// handed to fn as an empty list.
func (c *PostListCache) Update(key ListKey, fn func([]model.Post) []model.Post) {
	c.mu.Lock()
	e := c.entry(key)
	current := model.ClonePosts(e.posts)
	if current == nil {
		current = []model.Post{}
	}
	e.posts = model.ClonePosts(fn(current))
	e.present = true
	c.mu.Unlock()

	c.notify(key, "update")
}

func (c *PostListCache) Snapshot(key ListKey) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{Key: key}
	if e, ok := c.entries.Get(key); ok && e.present {
		snap.Posts = model.ClonePosts(e.posts)
		snap.Present = true
	}
	return snap
}

// Restore overwrites the entry with the snapshot. It is not a merge.
func (c *PostListCache) Restore(snap Snapshot) {
	c.mu.Lock()
	e := c.entry(snap.Key)
	e.posts = model.ClonePosts(snap.Posts)
	e.present = snap.Present
	c.mu.Unlock()

	c.notify(snap.Key, "restore")
}

// Cancel aborts the in-flight fetch of key, if any. Its response is dropped even if it
// arrives after the cancellation.
func (c *PostListCache) Cancel(key ListKey) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.entry(key)
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
		cacheLogger.Debug().Str("key", key.String()).Msg("Cancelled in-flight fetch")
	}
	e.generation++
}

// Invalidate marks key stale and drops any fetch that is still in flight, so a response
// issued before the invalidation cannot be stored as fresh.
func (c *PostListCache) Invalidate(key ListKey) {
	c.mu.Lock()
	c.invalidate(key)
	c.mu.Unlock()

	c.notify(key, "invalidate")
}

// InvalidateAll marks every known list stale.
func (c *PostListCache) InvalidateAll() {
	c.mu.Lock()
	keys := c.entries.Keys()
	for _, key := range keys {
		c.invalidate(key)
	}
	c.mu.Unlock()

	for _, key := range keys {
		c.notify(key, "invalidate")
	}
}

// invalidate must be called with c.mu held.
func (c *PostListCache) invalidate(key ListKey) {
	e := c.entry(key)
	e.stale = true
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	e.generation++
}

// IsStale reports whether the next Fetch of key will go to the server.
func (c *PostListCache) IsStale(key ListKey) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries.Get(key)
	if !ok {
		return true
	}
	return !c.fresh(e)
}

func (c *PostListCache) fresh(e *listEntry) bool {
	if !e.present || e.stale || c.staleTime <= 0 {
		return false
	}
	return c.now().Sub(e.fetchedAt) < c.staleTime
}

// Fetch returns the cached list when it is fresh and otherwise loads it with fetch. The fetch
// runs under a context that Cancel aborts; a result that lost its generation is not stored
// and ErrFetchSuperseded is returned.
func (c *PostListCache) Fetch(ctx context.Context, key ListKey, fetch ListFetcher) ([]model.Post, error) {
	c.mu.Lock()
	e := c.entry(key)
	if c.fresh(e) {
		posts := model.ClonePosts(e.posts)
		c.mu.Unlock()
		return posts, nil
	}

	if e.cancel != nil {
		e.cancel()
	}
	fetchCtx, cancel := context.WithCancel(ctx)
	e.generation++
	gen := e.generation
	e.cancel = cancel
	c.mu.Unlock()

	defer cancel()

	posts, err := fetch(fetchCtx, key)

	c.mu.Lock()
	if e.generation != gen {
		c.mu.Unlock()
		cacheLogger.Debug().Str("key", key.String()).Msg("Dropping superseded fetch result")
		if err != nil && !errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, ErrFetchSuperseded
	}
	e.cancel = nil
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}

	e.posts = model.ClonePosts(posts)
	e.present = true
	e.stale = false
	e.fetchedAt = c.now()
	c.mu.Unlock()

	c.notify(key, "fetch")

	if c.persister != nil {
		if err := c.persister.Save(ctx, key.String(), posts); err != nil {
			cacheLogger.Warn().Err(err).Str("key", key.String()).Msg("Failed to persist post list")
		}
	}

	return model.ClonePosts(posts), nil
}
