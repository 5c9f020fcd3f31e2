package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ruteri/token-governance/interfaces"
)

// ErrChecksumMismatch is returned by Load when the stored snapshot does not match its checksum.
var ErrChecksumMismatch = errors.New("snapshot checksum mismatch")

// snapshotEnvelope is the stored form of a snapshot.
type snapshotEnvelope struct {
	Checksum string          `json:"checksum"`
	LastSeq  uint64          `json:"last_seq"`
	Snapshot json.RawMessage `json:"snapshot"`
}

// Snapshotter persists governance snapshots to a storage backend under interfaces.SnapshotKey.
// Saves are serialized, and a snapshot older than the last one saved or loaded is skipped.
type Snapshotter struct {
	backend interfaces.StorageBackend
	log     *slog.Logger

	mu       sync.Mutex
	hasSaved bool
	lastSeq  uint64
}

var _ interfaces.SnapshotStore = (*Snapshotter)(nil)

// NewSnapshotter creates a snapshotter writing to backend.
func NewSnapshotter(backend interfaces.StorageBackend, log *slog.Logger) *Snapshotter {
	if log == nil {
		log = slog.Default()
	}
	return &Snapshotter{
		backend: backend,
		log:     log,
	}
}

// Save stores snap unless a snapshot with an equal or higher LastSeq is already stored.
func (s *Snapshotter) Save(ctx context.Context, snap interfaces.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.hasSaved && snap.LastSeq <= s.lastSeq {
		s.log.Debug("Skipping stale snapshot",
			slog.Uint64("seq", snap.LastSeq),
			slog.Uint64("stored_seq", s.lastSeq))
		return nil
	}

	body, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	data, err := json.Marshal(snapshotEnvelope{
		Checksum: interfaces.ComputeID(body).String(),
		LastSeq:  snap.LastSeq,
		Snapshot: body,
	})
	if err != nil {
		return fmt.Errorf("failed to encode snapshot envelope: %w", err)
	}

	id, err := s.backend.Store(ctx, interfaces.SnapshotKey, data)
	if err != nil {
		return fmt.Errorf("failed to store snapshot: %w", err)
	}

	s.hasSaved = true
	s.lastSeq = snap.LastSeq

	s.log.Info("Stored governance snapshot",
		slog.Uint64("seq", snap.LastSeq),
		slog.String("backend", s.backend.Name()),
		slog.String("contentID", id.String()))
	return nil
}

// multiFetcher is implemented by backends holding several copies of a key.
type multiFetcher interface {
	FetchAll(ctx context.Context, key interfaces.StorageKey) ([][]byte, error)
}

var _ multiFetcher = (*MultiStorageBackend)(nil)

// Load fetches and verifies the latest snapshot.
// When the backend keeps several copies, every copy is read and the valid one with
// the highest LastSeq wins; copies failing verification are skipped.
// Returns interfaces.ErrContentNotFound if nothing was saved yet.
func (s *Snapshotter) Load(ctx context.Context) (*interfaces.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	copies, err := s.fetchCopies(ctx)
	if err != nil {
		return nil, err
	}

	var latest *interfaces.Snapshot
	var errs []error
	for _, data := range copies {
		snap, err := decodeSnapshot(data)
		if err != nil {
			s.log.Warn("Skipping invalid snapshot copy", "err", err)
			errs = append(errs, err)
			continue
		}
		if latest == nil || snap.LastSeq > latest.LastSeq {
			latest = snap
		}
	}
	if latest == nil {
		return nil, errors.Join(errs...)
	}

	if !s.hasSaved || latest.LastSeq > s.lastSeq {
		s.hasSaved = true
		s.lastSeq = latest.LastSeq
	}

	s.log.Info("Loaded governance snapshot",
		slog.Uint64("seq", latest.LastSeq),
		slog.Int("copies", len(copies)),
		slog.String("backend", s.backend.Name()))
	return latest, nil
}

func (s *Snapshotter) fetchCopies(ctx context.Context) ([][]byte, error) {
	if multi, ok := s.backend.(multiFetcher); ok {
		return multi.FetchAll(ctx, interfaces.SnapshotKey)
	}
	data, err := s.backend.Fetch(ctx, interfaces.SnapshotKey)
	if err != nil {
		return nil, err
	}
	return [][]byte{data}, nil
}

// decodeSnapshot unwraps an envelope and verifies its checksum.
func decodeSnapshot(data []byte) (*interfaces.Snapshot, error) {
	var envelope snapshotEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot envelope: %w", err)
	}

	expected, err := interfaces.NewContentIDFromHex(envelope.Checksum)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrChecksumMismatch, err)
	}
	if got := interfaces.ComputeID(envelope.Snapshot); !got.Equal(expected) {
		return nil, fmt.Errorf("%w: expected %s, got %s", ErrChecksumMismatch, expected, got)
	}

	var snap interfaces.Snapshot
	if err := json.Unmarshal(envelope.Snapshot, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	if snap.LastSeq != envelope.LastSeq {
		return nil, fmt.Errorf("%w: envelope seq %d, snapshot seq %d", ErrChecksumMismatch, envelope.LastSeq, snap.LastSeq)
	}
	return &snap, nil
}
