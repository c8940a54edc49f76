// Package repository persists fetched post lists so the console can show the last known list
// before the first network round trip.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/debemdeboas/archive-console/internal/db"
	"github.com/debemdeboas/archive-console/internal/model"
	"github.com/debemdeboas/archive-console/internal/util"
	"github.com/debemdeboas/archive-console/internal/util/compression"
)

var repoLogger zerolog.Logger = zerolog.Nop()

func SetLogger(l zerolog.Logger) {
	repoLogger = l
}

var ErrSnapshotNotFound = errors.New("snapshot not found")

// SnapshotStore keeps one compressed JSON list per cache key, zstd unless configured otherwise. It implements
// cache.Persister.
type SnapshotStore struct {
	db         db.Db
	compressor compression.Compressor
	now        func() time.Time
}

type Option func(*SnapshotStore)

// WithCompressor replaces the zstd codec. Snapshots written with another codec no longer load.
func WithCompressor(c compression.Compressor) Option {
	return func(s *SnapshotStore) { s.compressor = c }
}

func NewSnapshotStore(d db.Db, opts ...Option) *SnapshotStore {
	s := &SnapshotStore{
		db:         d,
		compressor: compression.ZstdCompressor{},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save stores posts under key. An unchanged list only refreshes its timestamp.
func (s *SnapshotStore) Save(ctx context.Context, key string, posts []model.Post) error {
	if posts == nil {
		posts = []model.Post{}
	}
	data, err := json.Marshal(posts)
	if err != nil {
		return fmt.Errorf("encode snapshot %s: %w", key, err)
	}
	hash := util.ContentHash(data)
	now := s.now().UTC()

	var compressed []byte
	err = s.db.InTx(ctx, func(tx *sql.Tx) error {
		var current string
		err := tx.QueryRowContext(ctx, `SELECT hash FROM list_snapshots WHERE key = ?`, key).Scan(&current)
		switch {
		case err == nil && current == hash:
			if _, err := tx.ExecContext(ctx, `UPDATE list_snapshots SET saved_at = ? WHERE key = ?`, now, key); err != nil {
				return fmt.Errorf("touch snapshot %s: %w", key, err)
			}
			return nil
		case err != nil && !errors.Is(err, sql.ErrNoRows):
			return fmt.Errorf("read snapshot hash %s: %w", key, err)
		}

		compressed, err = s.compressor.Compress(data)
		if err != nil {
			return fmt.Errorf("compress snapshot %s: %w", key, err)
		}

		_, err = tx.ExecContext(ctx, `
INSERT INTO list_snapshots (key, payload, hash, saved_at) VALUES (?, ?, ?, ?)
ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, hash = excluded.hash, saved_at = excluded.saved_at`,
			key, compressed, hash, now)
		if err != nil {
			return fmt.Errorf("write snapshot %s: %w", key, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if compressed == nil {
		repoLogger.Debug().Str("key", key).Msg("Snapshot unchanged")
		return nil
	}

	repoLogger.Debug().Str("key", key).Int("posts", len(posts)).Int("bytes", len(compressed)).Msg("Snapshot saved")
	return nil
}

// Load returns the list stored under key and when it was saved.
func (s *SnapshotStore) Load(ctx context.Context, key string) ([]model.Post, time.Time, error) {
	var (
		compressed []byte
		hash       string
		savedAt    time.Time
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT payload, hash, saved_at FROM list_snapshots WHERE key = ?`, key).
		Scan(&compressed, &hash, &savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("read snapshot %s: %w", key, err)
	}

	data, err := s.compressor.Decompress(compressed)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("decompress snapshot %s: %w", key, err)
	}
	if util.ContentHash(data) != hash {
		repoLogger.Warn().Str("key", key).Msg("Snapshot hash mismatch, ignoring")
		return nil, time.Time{}, ErrSnapshotNotFound
	}

	var posts []model.Post
	if err := json.Unmarshal(data, &posts); err != nil {
		return nil, time.Time{}, fmt.Errorf("decode snapshot %s: %w", key, err)
	}
	return posts, savedAt, nil
}

func (s *SnapshotStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM list_snapshots WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete snapshot %s: %w", key, err)
	}
	return nil
}
