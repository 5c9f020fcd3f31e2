package interfaces

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

// Snapshot is a point-in-time copy of the whole governance state.
// Tokens are ordered by id. LastSeq is the sequence number of the last event
// applied to the state the snapshot was taken from.
type Snapshot struct {
	Initialized   bool                    `json:"initialized"`
	Governor      common.Address          `json:"governor"`
	BridgeManager common.Address          `json:"bridge_manager"`
	Validators    map[common.Address]bool `json:"validators"`
	Tokens        []Token                 `json:"tokens"`
	LastSeq       uint64                  `json:"last_seq"`
}

// SnapshotStore persists governance snapshots.
type SnapshotStore interface {
	// Save persists snap unless a snapshot with a higher LastSeq was already saved.
	Save(ctx context.Context, snap Snapshot) error

	// Load returns the latest persisted snapshot, or ErrContentNotFound.
	Load(ctx context.Context) (*Snapshot, error)
}
