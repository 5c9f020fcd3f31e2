// Package governance implements the token governance engine: a single network
// governor administering a token registry, a validator set and a bridge manager.
//
// All state lives in one Engine guarded by one RWMutex. Each mutating operation runs
// authorization, validation, mutation and event emission inside a single write-locked
// section, so a rejected call leaves the state exactly as it was and no reader ever
// observes a partially applied mutation.
package governance

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ruteri/token-governance/interfaces"
)

// DefaultEventRetention is the number of most recent events kept for EventsSince.
const DefaultEventRetention = 10000

var _ interfaces.Governance = (*Engine)(nil)

// Engine implements interfaces.Governance in memory.
type Engine struct {
	mu      sync.RWMutex
	log     *slog.Logger
	emitter interfaces.Emitter

	initialized   bool
	governor      common.Address
	validators    map[common.Address]bool
	bridgeManager common.Address
	tokens        map[interfaces.TokenID]interfaces.Token
	addressIndex  map[common.Address]interfaces.TokenID

	events    []interfaces.EventRecord
	seq       uint64
	retention int
}

// NewEngine creates an uninitialized engine.
func NewEngine(log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		log:          log,
		emitter:      interfaces.NoopEmitter{},
		validators:   make(map[common.Address]bool),
		tokens:       make(map[interfaces.TokenID]interfaces.Token),
		addressIndex: make(map[common.Address]interfaces.TokenID),
		retention:    DefaultEventRetention,
	}
}

// SetEmitter configures the emitter every event is forwarded to, in emission order.
// The emitter runs under the engine's write lock and must not call back into the engine.
// Passing nil resets it to a no-op.
func (e *Engine) SetEmitter(emitter interfaces.Emitter) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if emitter == nil {
		e.emitter = interfaces.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetEventRetention bounds how many recent events EventsSince can return.
// Non-positive values disable trimming.
func (e *Engine) SetEventRetention(n int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.retention = n
	e.trimEvents()
}

// AddToken registers tokenAddress under tokenID.
func (e *Engine) AddToken(caller common.Address, tokenID interfaces.TokenID, tokenAddress common.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.authorize(caller, RoleGovernorOnly); err != nil {
		return e.reject("addToken", caller, err)
	}
	if !tokenID.Valid() {
		return e.reject("addToken", caller, ErrTokenIDOutOfRange)
	}
	if interfaces.IsNullAddress(tokenAddress) {
		return e.reject("addToken", caller, ErrNullTokenAddress)
	}
	if _, exists := e.tokens[tokenID]; exists {
		return e.reject("addToken", caller, ErrTokenRegistered)
	}
	if _, bound := e.addressIndex[tokenAddress]; bound {
		return e.reject("addToken", caller, ErrAddressBound)
	}

	e.tokens[tokenID] = interfaces.Token{
		TokenID:      tokenID,
		TokenAddress: tokenAddress,
		Registered:   true,
		Paused:       false,
	}
	e.addressIndex[tokenAddress] = tokenID
	e.emit(interfaces.TokenRegistered{TokenID: tokenID, TokenAddress: tokenAddress})

	e.log.Info("Token registered", "tokenID", tokenID, "tokenAddress", tokenAddress.Hex())
	return nil
}

// SetTokenPaused sets the pause flag. The event is emitted even if the flag does not change.
func (e *Engine) SetTokenPaused(caller common.Address, tokenID interfaces.TokenID, paused bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.authorize(caller, RoleGovernorOnly); err != nil {
		return e.reject("setTokenPaused", caller, err)
	}
	token, exists := e.tokens[tokenID]
	if !exists {
		return e.reject("setTokenPaused", caller, ErrPauseUnknownToken)
	}

	token.Paused = paused
	e.tokens[tokenID] = token
	e.emit(interfaces.TokenPausedUpdate{TokenID: tokenID, Paused: paused})

	e.log.Info("Token pause updated", "tokenID", tokenID, "paused", paused)
	return nil
}

// SetTokenAddress rotates the address of a registered token.
// Checks run in a fixed order: new address validity, registration, no-op, native immutability.
// A new address already bound to another token is rejected last, to keep the
// id/address mapping one-to-one.
func (e *Engine) SetTokenAddress(caller common.Address, tokenID interfaces.TokenID, newAddress common.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.authorize(caller, RoleGovernorOnly); err != nil {
		return e.reject("setTokenAddress", caller, err)
	}
	if interfaces.IsNullAddress(newAddress) || newAddress == interfaces.NativeTokenAddress {
		return e.reject("setTokenAddress", caller, ErrInvalidNewAddress)
	}
	token, exists := e.tokens[tokenID]
	if !exists {
		return e.reject("setTokenAddress", caller, ErrUpdateUnknownToken)
	}
	if token.TokenAddress == newAddress {
		return e.reject("setTokenAddress", caller, ErrSameAddress)
	}
	if token.TokenAddress == interfaces.NativeTokenAddress {
		return e.reject("setTokenAddress", caller, ErrNativeImmutable)
	}
	if _, bound := e.addressIndex[newAddress]; bound {
		return e.reject("setTokenAddress", caller, ErrAddressBound)
	}

	previous := token.TokenAddress
	delete(e.addressIndex, previous)
	e.addressIndex[newAddress] = tokenID
	token.TokenAddress = newAddress
	e.tokens[tokenID] = token
	e.emit(interfaces.TokenAddressUpdate{TokenID: tokenID, TokenAddress: newAddress})

	e.log.Info("Token address updated", "tokenID", tokenID, "previous", previous.Hex(), "tokenAddress", newAddress.Hex())
	return nil
}

// SetValidator records the validator status of a principal. Redundant writes still emit.
func (e *Engine) SetValidator(caller, validator common.Address, active bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.authorize(caller, RoleGovernorOnly); err != nil {
		return e.reject("setValidator", caller, err)
	}

	e.validators[validator] = active
	e.emit(interfaces.ValidatorStatusUpdate{Validator: validator, Active: active})

	e.log.Info("Validator status updated", "validator", validator.Hex(), "active", active)
	return nil
}

// SetBridgeManager replaces the bridge manager. The null address is accepted.
func (e *Engine) SetBridgeManager(caller, manager common.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.authorize(caller, RoleGovernorOnly); err != nil {
		return e.reject("setBridgeManager", caller, err)
	}

	e.bridgeManager = manager
	e.emit(interfaces.BridgeManagerUpdate{BridgeManager: manager})

	e.log.Info("Bridge manager updated", "bridgeManager", manager.Hex())
	return nil
}

// GetToken returns a copy of the record for tokenID.
func (e *Engine) GetToken(tokenID interfaces.TokenID) (interfaces.Token, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	token, ok := e.tokens[tokenID]
	return token, ok
}

// GetTokenID returns the id registered under tokenAddress.
func (e *Engine) GetTokenID(tokenAddress common.Address) (interfaces.TokenID, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	id, ok := e.addressIndex[tokenAddress]
	return id, ok
}

// IsValidator reports the recorded status; unknown principals are not validators.
func (e *Engine) IsValidator(validator common.Address) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.validators[validator]
}

// BridgeManager returns the current bridge manager.
func (e *Engine) BridgeManager() common.Address {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.bridgeManager
}

// EventsSince returns retained events with Seq > seq, oldest first.
func (e *Engine) EventsSince(seq uint64) []interfaces.EventRecord {
	e.mu.RLock()
	defer e.mu.RUnlock()

	i := sort.Search(len(e.events), func(i int) bool { return e.events[i].Seq > seq })
	out := make([]interfaces.EventRecord, len(e.events)-i)
	copy(out, e.events[i:])
	return out
}

// LastSeq returns the sequence number of the most recent event.
func (e *Engine) LastSeq() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.seq
}

// emit appends an event to the log and forwards it. Callers must hold e.mu for writing,
// and must only call it once every check has passed.
func (e *Engine) emit(ev interfaces.Event) {
	e.seq++
	rec := interfaces.EventRecord{Seq: e.seq, Event: ev}
	e.events = append(e.events, rec)
	e.trimEvents()
	e.emitter.Emit(rec)
}

// trimEvents drops the oldest events once the log holds twice the retention.
func (e *Engine) trimEvents() {
	if e.retention <= 0 || len(e.events) <= 2*e.retention {
		return
	}
	kept := make([]interfaces.EventRecord, e.retention)
	copy(kept, e.events[len(e.events)-e.retention:])
	e.events = kept
}

func (e *Engine) reject(op string, caller common.Address, err error) error {
	e.log.Debug("Governance operation rejected", "op", op, "caller", caller.Hex(), "code", CodeOf(err))
	return err
}
