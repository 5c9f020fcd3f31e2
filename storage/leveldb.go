package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/ruteri/token-governance/interfaces"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
)

// LevelDBBackend implements a storage backend on an embedded LevelDB database.
type LevelDBBackend struct {
	db          *leveldb.DB
	path        string
	log         *slog.Logger
	locationURI string
}

// NewLevelDBBackend creates or opens a LevelDB database at path.
func NewLevelDBBackend(path string, log *slog.Logger) (*LevelDBBackend, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open leveldb at %s: %w", path, err)
	}

	return &LevelDBBackend{
		db:          db,
		path:        path,
		log:         log,
		locationURI: fmt.Sprintf("leveldb://%s", path),
	}, nil
}

// Fetch retrieves the value stored under key.
func (b *LevelDBBackend) Fetch(ctx context.Context, key interfaces.StorageKey) ([]byte, error) {
	data, err := b.db.Get([]byte(key), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, interfaces.ErrContentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrBackendUnavailable, err)
	}

	b.log.Debug("Fetched content from leveldb",
		slog.String("key", key.String()),
		slog.Int("size", len(data)))

	return data, nil
}

// Store writes data under key with a synced write.
func (b *LevelDBBackend) Store(ctx context.Context, key interfaces.StorageKey, data []byte) (interfaces.ContentID, error) {
	id := interfaces.ComputeID(data)

	if err := b.db.Put([]byte(key), data, &opt.WriteOptions{Sync: true}); err != nil {
		return id, fmt.Errorf("%w: %v", interfaces.ErrBackendUnavailable, err)
	}

	b.log.Debug("Stored content in leveldb",
		slog.String("key", key.String()),
		slog.String("contentID", id.String()))

	return id, nil
}

// Available reports whether the database is still open.
func (b *LevelDBBackend) Available(ctx context.Context) bool {
	if _, err := b.db.GetProperty("leveldb.stats"); err != nil {
		b.log.Debug("LevelDB backend unavailable", "err", err)
		return false
	}
	return true
}

// Name returns a unique identifier for this storage backend.
func (b *LevelDBBackend) Name() string {
	return fmt.Sprintf("leveldb-%s", filepath.Base(b.path))
}

// LocationURI returns the URI that identifies this storage backend.
func (b *LevelDBBackend) LocationURI() string {
	return b.locationURI
}

// Close releases the database.
func (b *LevelDBBackend) Close() error {
	return b.db.Close()
}
