package api

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ruteri/token-governance/interfaces"
)

// CallerHeader carries the authenticated caller principal. It is set by the
// authenticating proxy in front of the service, never by end users directly.
const CallerHeader = "X-Governance-Caller"

// InitializeRequest sets the first governor.
type InitializeRequest struct {
	Governor common.Address `json:"governor"`
}

// ChangeGovernorRequest hands control to a new governor.
type ChangeGovernorRequest struct {
	Governor common.Address `json:"governor"`
}

// AddTokenRequest registers a token.
type AddTokenRequest struct {
	TokenID      interfaces.TokenID `json:"token_id"`
	TokenAddress common.Address     `json:"token_address"`
}

// SetTokenPausedRequest sets the pause flag of the token named in the path.
type SetTokenPausedRequest struct {
	Paused bool `json:"paused"`
}

// SetTokenAddressRequest rotates the address of the token named in the path.
type SetTokenAddressRequest struct {
	TokenAddress common.Address `json:"token_address"`
}

// SetValidatorRequest sets the status of the validator named in the path.
type SetValidatorRequest struct {
	Active bool `json:"active"`
}

// SetBridgeManagerRequest replaces the bridge manager.
type SetBridgeManagerRequest struct {
	BridgeManager common.Address `json:"bridge_manager"`
}

// GovernorResponse is returned by GET /api/public/governor.
type GovernorResponse struct {
	Governor common.Address `json:"governor"`
}

// TokenIDResponse is returned by GET /api/public/token_ids/{token_address}.
type TokenIDResponse struct {
	TokenID      interfaces.TokenID `json:"token_id"`
	TokenAddress common.Address     `json:"token_address"`
}

// ValidatorResponse is returned by GET /api/public/validators/{address}.
type ValidatorResponse struct {
	Validator common.Address `json:"validator"`
	Active    bool           `json:"active"`
}

// BridgeManagerResponse is returned by GET /api/public/bridge_manager.
type BridgeManagerResponse struct {
	BridgeManager common.Address `json:"bridge_manager"`
}

// EventsResponse is returned by GET /api/public/events.
// Truncated is set when events after the requested cursor are no longer retained,
// so the subscriber has to resynchronize from a snapshot.
type EventsResponse struct {
	Events    []interfaces.EventRecord `json:"events"`
	LastSeq   uint64                   `json:"last_seq"`
	Truncated bool                     `json:"truncated,omitempty"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}
