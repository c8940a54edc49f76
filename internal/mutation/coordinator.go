// Package mutation applies post mutations to the list cache before the server confirms them
// and rolls the cache back when the server refuses.
//
// Every optimistic mutation runs the same protocol: cancel the in-flight fetch of the list,
// snapshot it, write the expected result, mark the post pending, send the request, restore
// the snapshot on failure, then clear the pending mark and invalidate the list.
//
// Two overlapping mutations of the same post are not isolated from each other. The second
// one snapshots the list after the first one's optimistic write, so when the second fails
// the list returns to the first one's state rather than the original.
package mutation

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/debemdeboas/archive-console/internal/cache"
	"github.com/debemdeboas/archive-console/internal/model"
	"github.com/debemdeboas/archive-console/internal/notify"
)

var mutationLogger zerolog.Logger = zerolog.Nop()

func SetLogger(l zerolog.Logger) {
	mutationLogger = l
}

// Topic carries mutation outcomes on the change hub.
const Topic = "mutation"

var (
	ErrPostNotCached   = errors.New("post is not in the cached list")
	ErrNotConfirmed    = errors.New("permanent delete was not confirmed")
	ErrMissingCreateID = errors.New("create response carries no post id")
)

type Kind string

const (
	KindToggleStatus    Kind = "toggle_status"
	KindSoftDelete      Kind = "soft_delete"
	KindRestore         Kind = "restore"
	KindPermanentDelete Kind = "permanent_delete"
	KindCreate          Kind = "create"
)

// API is the part of the posts API the coordinator drives. *client.Client implements it.
type API interface {
	SetStatus(ctx context.Context, id model.PostID, status model.Status) error
	SoftDelete(ctx context.Context, id model.PostID) error
	Restore(ctx context.Context, id model.PostID) error
	PermanentDelete(ctx context.Context, id model.PostID) error
	CreatePost(ctx context.Context) (model.CreatedPost, error)
}

// Reporter surfaces a failed mutation to the user.
type Reporter interface {
	Report(kind Kind, id model.PostID, err error)
}

type ReporterFunc func(kind Kind, id model.PostID, err error)

func (f ReporterFunc) Report(kind Kind, id model.PostID, err error) {
	f(kind, id, err)
}

// Confirmer asks the user before an irreversible action.
type Confirmer interface {
	Confirm(ctx context.Context, post model.Post) bool
}

type ConfirmFunc func(ctx context.Context, post model.Post) bool

func (f ConfirmFunc) Confirm(ctx context.Context, post model.Post) bool {
	return f(ctx, post)
}

type Coordinator struct {
	api     API
	lists   *cache.PostListCache
	pending *cache.PendingSet

	reporter Reporter
	hub      *notify.Hub

	// Serializes snapshot+apply and rollback steps. Requests run outside of it.
	mu  sync.Mutex
	key cache.ListKey
}

type Option func(*Coordinator)

func WithReporter(r Reporter) Option {
	return func(c *Coordinator) { c.reporter = r }
}

func WithHub(h *notify.Hub) Option {
	return func(c *Coordinator) { c.hub = h }
}

func NewCoordinator(api API, lists *cache.PostListCache, pending *cache.PendingSet, opts ...Option) *Coordinator {
	c := &Coordinator{
		api:     api,
		lists:   lists,
		pending: pending,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetShowDeleted selects the list the next mutations operate on.
func (c *Coordinator) SetShowDeleted(show bool) {
	c.mu.Lock()
	c.key = cache.ListKey{ShowDeleted: show}
	c.mu.Unlock()
}

func (c *Coordinator) ActiveKey() cache.ListKey {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.key
}

func (c *Coordinator) Pending() *cache.PendingSet {
	return c.pending
}

// Begin cancels the in-flight fetch of key and returns a snapshot of its current value.
func (c *Coordinator) Begin(key cache.ListKey) cache.Snapshot {
	c.lists.Cancel(key)
	return c.lists.Snapshot(key)
}

func (c *Coordinator) Apply(key cache.ListKey, transform func([]model.Post) []model.Post) {
	c.lists.Update(key, transform)
}

// Settle finishes a mutation. A non-nil err restores snap verbatim. The pending mark of id is
// cleared and key is invalidated either way.
func (c *Coordinator) Settle(key cache.ListKey, id model.PostID, snap cache.Snapshot, err error) {
	if err != nil {
		c.mu.Lock()
		c.lists.Restore(snap)
		c.mu.Unlock()
	}
	c.pending.Remove(id)
	c.lists.Invalidate(key)
}

func (c *Coordinator) ToggleStatus(ctx context.Context, id model.PostID) error {
	var next model.Status
	return c.optimistic(ctx, KindToggleStatus, id,
		func(p *model.Post) {
			next = p.Status.Toggle()
			p.Status = next
		},
		func(ctx context.Context) error {
			return c.api.SetStatus(ctx, id, next)
		})
}

func (c *Coordinator) SoftDelete(ctx context.Context, id model.PostID) error {
	return c.optimistic(ctx, KindSoftDelete, id,
		func(p *model.Post) { p.IsDeleted = true },
		func(ctx context.Context) error { return c.api.SoftDelete(ctx, id) })
}

func (c *Coordinator) Restore(ctx context.Context, id model.PostID) error {
	return c.optimistic(ctx, KindRestore, id,
		func(p *model.Post) { p.IsDeleted = false },
		func(ctx context.Context) error { return c.api.Restore(ctx, id) })
}

func (c *Coordinator) optimistic(
	ctx context.Context,
	kind Kind,
	id model.PostID,
	write func(*model.Post),
	send func(context.Context) error,
) error {
	l := mutationLogger.With().Str("mutation", string(kind)).Str("post_id", string(id)).Logger()

	c.mu.Lock()
	key := c.key
	posts, ok := c.lists.Get(key)
	if !ok || indexOf(posts, id) < 0 {
		c.mu.Unlock()
		l.Warn().Str("key", key.String()).Msg("Post not in cached list")
		return fmt.Errorf("%s %s: %w", kind, id, ErrPostNotCached)
	}

	snap := c.Begin(key)
	c.Apply(key, func(posts []model.Post) []model.Post {
		if i := indexOf(posts, id); i >= 0 {
			write(&posts[i])
		}
		return posts
	})
	c.pending.Add(id)
	c.mu.Unlock()

	l.Debug().Str("key", key.String()).Msg("Applied optimistic update")

	err := send(ctx)
	c.Settle(key, id, snap, err)

	if err != nil {
		l.Error().Err(err).Str("key", key.String()).Msg("Mutation failed, rolled back")
		c.fail(kind, id, err)
		return fmt.Errorf("%s %s: %w", kind, id, err)
	}

	l.Info().Msg("Mutation confirmed")
	c.record(kind, id, "ok")
	return nil
}

// PermanentDelete removes the post on the server after confirm agrees. The post leaves the
// cache only once the server has confirmed.
func (c *Coordinator) PermanentDelete(ctx context.Context, id model.PostID, confirm Confirmer) error {
	l := mutationLogger.With().Str("mutation", string(KindPermanentDelete)).Str("post_id", string(id)).Logger()

	key := c.ActiveKey()
	post := model.Post{ID: id}
	if posts, ok := c.lists.Get(key); ok {
		if i := indexOf(posts, id); i >= 0 {
			post = posts[i]
		}
	}

	if confirm == nil || !confirm.Confirm(ctx, post) {
		l.Info().Msg("Permanent delete declined")
		return ErrNotConfirmed
	}

	c.lists.Cancel(key)
	c.pending.Add(id)
	err := c.api.PermanentDelete(ctx, id)
	if err == nil {
		c.mu.Lock()
		c.lists.Update(key, func(posts []model.Post) []model.Post {
			return removePost(posts, id)
		})
		c.mu.Unlock()
	}
	c.pending.Remove(id)
	c.lists.Invalidate(key)

	if err != nil {
		l.Error().Err(err).Msg("Permanent delete failed")
		c.fail(KindPermanentDelete, id, err)
		return fmt.Errorf("%s %s: %w", KindPermanentDelete, id, err)
	}

	l.Info().Msg("Post permanently deleted")
	c.record(KindPermanentDelete, id, "ok")
	return nil
}

// Create asks the server for a new post and returns its id. Nothing is inserted locally;
// every list is invalidated instead.
func (c *Coordinator) Create(ctx context.Context) (model.PostID, error) {
	created, err := c.api.CreatePost(ctx)
	if err == nil && created.ID == "" {
		err = ErrMissingCreateID
	}
	if err != nil {
		mutationLogger.Error().Err(err).Str("mutation", string(KindCreate)).Msg("Create failed")
		c.fail(KindCreate, "", err)
		return "", fmt.Errorf("%s: %w", KindCreate, err)
	}

	c.lists.InvalidateAll()
	mutationLogger.Info().Str("mutation", string(KindCreate)).Str("post_id", string(created.ID)).Msg("Post created")
	c.record(KindCreate, created.ID, "ok")
	return created.ID, nil
}

func (c *Coordinator) fail(kind Kind, id model.PostID, err error) {
	if c.reporter != nil {
		c.reporter.Report(kind, id, err)
	}
	c.record(kind, id, "error")
}

func (c *Coordinator) record(kind Kind, id model.PostID, outcome string) {
	c.hub.Broadcast(Topic, fmt.Sprintf("%s:%s:%s", kind, id, outcome))
}

func indexOf(posts []model.Post, id model.PostID) int {
	for i := range posts {
		if posts[i].ID == id {
			return i
		}
	}
	return -1
}

func removePost(posts []model.Post, id model.PostID) []model.Post {
	out := posts[:0]
	for _, p := range posts {
		if p.ID != id {
			out = append(out, p)
		}
	}
	return out
}
