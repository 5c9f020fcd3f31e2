package governance

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ruteri/token-governance/interfaces"
)

// ErrCorruptSnapshot is returned by Restore for snapshots that violate a state invariant.
var ErrCorruptSnapshot = errors.New("corrupt governance snapshot")

// Snapshot returns a deep copy of the current state.
func (e *Engine) Snapshot() interfaces.Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()

	tokens := make([]interfaces.Token, 0, len(e.tokens))
	for _, id := range slices.Sorted(maps.Keys(e.tokens)) {
		tokens = append(tokens, e.tokens[id])
	}

	return interfaces.Snapshot{
		Initialized:   e.initialized,
		Governor:      e.governor,
		BridgeManager: e.bridgeManager,
		Validators:    maps.Clone(e.validators),
		Tokens:        tokens,
		LastSeq:       e.seq,
	}
}

// Restore builds an engine from a snapshot after checking every state invariant.
// The restored engine continues event numbering after snap.LastSeq; events emitted
// before the snapshot are not available through EventsSince.
func Restore(log *slog.Logger, snap interfaces.Snapshot) (*Engine, error) {
	if err := validateSnapshot(snap); err != nil {
		return nil, err
	}

	e := NewEngine(log)
	e.initialized = snap.Initialized
	e.governor = snap.Governor
	e.bridgeManager = snap.BridgeManager
	e.seq = snap.LastSeq
	for validator, active := range snap.Validators {
		e.validators[validator] = active
	}
	for _, token := range snap.Tokens {
		e.tokens[token.TokenID] = token
		e.addressIndex[token.TokenAddress] = token.TokenID
	}
	return e, nil
}

func validateSnapshot(snap interfaces.Snapshot) error {
	if !snap.Initialized {
		if !interfaces.IsNullAddress(snap.Governor) || len(snap.Tokens) != 0 || len(snap.Validators) != 0 || !interfaces.IsNullAddress(snap.BridgeManager) {
			return fmt.Errorf("%w: uninitialized snapshot carries state", ErrCorruptSnapshot)
		}
		return nil
	}

	if interfaces.IsNullAddress(snap.Governor) {
		return fmt.Errorf("%w: null governor", ErrCorruptSnapshot)
	}

	ids := make(map[interfaces.TokenID]struct{}, len(snap.Tokens))
	addrs := make(map[common.Address]struct{}, len(snap.Tokens))
	for _, token := range snap.Tokens {
		if !token.TokenID.Valid() {
			return fmt.Errorf("%w: token id %d out of range", ErrCorruptSnapshot, token.TokenID)
		}
		if !token.Registered {
			return fmt.Errorf("%w: token %d not marked registered", ErrCorruptSnapshot, token.TokenID)
		}
		if interfaces.IsNullAddress(token.TokenAddress) {
			return fmt.Errorf("%w: token %d has null address", ErrCorruptSnapshot, token.TokenID)
		}
		if _, dup := ids[token.TokenID]; dup {
			return fmt.Errorf("%w: duplicate token id %d", ErrCorruptSnapshot, token.TokenID)
		}
		if _, dup := addrs[token.TokenAddress]; dup {
			return fmt.Errorf("%w: address %s bound to more than one token", ErrCorruptSnapshot, token.TokenAddress.Hex())
		}
		ids[token.TokenID] = struct{}{}
		addrs[token.TokenAddress] = struct{}{}
	}
	return nil
}
