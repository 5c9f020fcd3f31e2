package interfaces

import (
	"github.com/ethereum/go-ethereum/common"
)

// Governance is the request/response surface of the governance engine.
// Every mutating call carries the already-authenticated caller principal.
type Governance interface {
	// Initialize sets the first governor. It succeeds at most once.
	Initialize(governor common.Address) error

	// NetworkGovernor returns the current governor.
	NetworkGovernor() common.Address

	// ChangeGovernor hands full control to newGovernor.
	ChangeGovernor(caller, newGovernor common.Address) error

	// AddToken registers tokenAddress under tokenID.
	AddToken(caller common.Address, tokenID TokenID, tokenAddress common.Address) error

	// SetTokenPaused sets the pause flag of a registered token.
	SetTokenPaused(caller common.Address, tokenID TokenID, paused bool) error

	// SetTokenAddress rotates the address of a registered token.
	SetTokenAddress(caller common.Address, tokenID TokenID, newAddress common.Address) error

	// SetValidator records the validator status of a principal.
	SetValidator(caller, validator common.Address, active bool) error

	// SetBridgeManager replaces the bridge manager.
	SetBridgeManager(caller, manager common.Address) error

	// GetToken returns the record for tokenID, or false if it was never registered.
	GetToken(tokenID TokenID) (Token, bool)

	// GetTokenID returns the id registered under tokenAddress, or false.
	GetTokenID(tokenAddress common.Address) (TokenID, bool)

	// IsValidator reports the recorded validator status of a principal.
	IsValidator(validator common.Address) bool

	// BridgeManager returns the current bridge manager, possibly the null address.
	BridgeManager() common.Address

	// EventsSince returns the emitted events with a sequence number greater than seq.
	EventsSince(seq uint64) []EventRecord

	// LastSeq returns the sequence number of the most recent event, retained or not.
	LastSeq() uint64

	// Snapshot returns a consistent copy of the whole state.
	Snapshot() Snapshot
}
