package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/debemdeboas/archive-console/internal/auth"
	"github.com/debemdeboas/archive-console/internal/cache"
	"github.com/debemdeboas/archive-console/internal/client"
	"github.com/debemdeboas/archive-console/internal/config"
	"github.com/debemdeboas/archive-console/internal/db"
	"github.com/debemdeboas/archive-console/internal/editor"
	"github.com/debemdeboas/archive-console/internal/events"
	"github.com/debemdeboas/archive-console/internal/logger"
	"github.com/debemdeboas/archive-console/internal/model"
	"github.com/debemdeboas/archive-console/internal/mutation"
	"github.com/debemdeboas/archive-console/internal/notify"
	"github.com/debemdeboas/archive-console/internal/render"
	"github.com/debemdeboas/archive-console/internal/repository"
	"github.com/debemdeboas/archive-console/internal/storage"
	"github.com/debemdeboas/archive-console/internal/util/compression"
)

// App holds everything a command needs. It lives for one invocation.
type App struct {
	cfg    *config.Config
	log    zerolog.Logger
	tokens client.TokenSource
	auth   auth.AuthProvider

	api       *client.Client
	hub       *notify.Hub
	lists     *cache.PostListCache
	posts     *cache.PostCache
	coord     *mutation.Coordinator
	editor    *editor.Service
	snapshots *repository.SnapshotStore
	publisher events.Publisher

	closers []func() error
}

func setLoggers(l zerolog.Logger) {
	config.SetLogger(logger.Component(l, "config"))
	client.SetLogger(logger.Component(l, "client"))
	auth.SetLogger(logger.Component(l, "auth"))
	cache.SetLogger(logger.Component(l, "cache"))
	mutation.SetLogger(logger.Component(l, "mutation"))
	db.SetLogger(logger.Component(l, "db"))
	repository.SetLogger(logger.Component(l, "repository"))
	storage.SetLogger(logger.Component(l, "storage"))
	events.SetLogger(logger.Component(l, "events"))
	render.SetLogger(logger.Component(l, "render"))
	editor.SetLogger(logger.Component(l, "editor"))
}

func newApp(ctx context.Context, cfg *config.Config, l zerolog.Logger) (*App, error) {
	a := &App{
		cfg:       cfg,
		log:       l,
		tokens:    auth.NewEnvTokenSource(),
		auth:      auth.NewProvider(cfg.Auth, os.Getenv(config.EnvClerkSecretKey)),
		hub:       notify.NewHub(),
		publisher: events.NoopPublisher{},
	}
	a.api = client.New(cfg.API.BaseURL, a.tokens, client.WithTimeout(cfg.API.Timeout))

	listOpts := []cache.Option{cache.WithStaleTime(cfg.Cache.StaleTime), cache.WithHub(a.hub)}
	if cfg.Cache.SnapshotDB != "" {
		sqlite := db.NewSQLite(cfg.Cache.SnapshotDB)
		if err := sqlite.InitDb(); err != nil {
			l.Warn().Msgf(config.ErrOpenSnapshotsFmt, err)
		} else {
			codec, err := compression.ForName(cfg.Cache.SnapshotCodec)
			if err != nil {
				sqlite.Close()
				return nil, err
			}
			a.snapshots = repository.NewSnapshotStore(sqlite, repository.WithCompressor(codec))
			a.closers = append(a.closers, sqlite.Close)
			listOpts = append(listOpts, cache.WithPersister(a.snapshots))
		}
	}
	a.lists = cache.NewPostListCache(listOpts...)
	a.posts = cache.NewPostCache(cfg.Cache.PostStaleTime)
	a.coord = mutation.NewCoordinator(a.api, a.lists, cache.NewPendingSet(a.hub),
		mutation.WithHub(a.hub),
		mutation.WithReporter(mutation.ReporterFunc(a.report)),
	)

	editorOpts := []editor.Option{editor.WithPostCache(a.posts)}
	if cfg.Storage.Enabled {
		s3Client, err := storage.NewS3Client(ctx, cfg.Storage,
			os.Getenv(config.EnvS3AccessKeyID), os.Getenv(config.EnvS3SecretKey))
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("storage: %w", err)
		}
		editorOpts = append(editorOpts, editor.WithStorage(storage.NewS3Storage(s3Client, cfg.Storage.Bucket), cfg.Storage.Prefix))
	}
	if cfg.Events.Enabled {
		pub, err := events.NewRabbitMQPublisher(os.Getenv(config.EnvRabbitMQURL))
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("events: %w", err)
		}
		a.publisher = pub
		a.closers = append(a.closers, pub.Close)
	}
	editorOpts = append(editorOpts, editor.WithPublisher(a.publisher))
	a.editor = editor.NewService(a.api, cfg.Editor, editorOpts...)

	return a, nil
}

func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) report(kind mutation.Kind, id model.PostID, err error) {
	a.log.Error().Err(err).Str("mutation", string(kind)).Str("post_id", string(id)).Msg("Mutation rolled back")
}

// authorize runs the admin gate. Without it the token is sent as is and the API decides.
func (a *App) authorize(ctx context.Context) (context.Context, error) {
	if !a.cfg.Auth.EnforceGate {
		return ctx, nil
	}
	token, err := a.tokens.Token(ctx)
	if err != nil {
		return ctx, err
	}
	return a.auth.Authorize(ctx, token)
}

func (a *App) fetchList(ctx context.Context, key cache.ListKey) ([]model.Post, error) {
	return a.api.ListPosts(ctx, client.ListParams{
		Limit:       a.cfg.API.AdminPageSize,
		ShowDeleted: key.ShowDeleted,
	})
}

// loadList returns the admin list of key. A persisted snapshot seeds the cache first, and is
// served with stale set when the server cannot be reached.
func (a *App) loadList(ctx context.Context, key cache.ListKey) (posts []model.Post, stale bool, err error) {
	if _, ok := a.lists.Get(key); !ok && a.snapshots != nil {
		snap, savedAt, err := a.snapshots.Load(ctx, key.String())
		if err == nil {
			a.log.Debug().Str("key", key.String()).Time("saved_at", savedAt).Msg("Hydrated list from snapshot")
			a.lists.Hydrate(key, snap)
		} else if !errors.Is(err, repository.ErrSnapshotNotFound) {
			a.log.Warn().Err(err).Str("key", key.String()).Msg("Failed to load snapshot")
		}
	}

	posts, err = a.lists.Fetch(ctx, key, a.fetchList)
	if err == nil {
		return posts, false, nil
	}
	if client.StatusCode(err) == 0 {
		if cached, ok := a.lists.Get(key); ok {
			a.log.Warn().Err(err).Str("key", key.String()).Msg("Serving cached list")
			return cached, true, nil
		}
	}
	return nil, false, err
}
