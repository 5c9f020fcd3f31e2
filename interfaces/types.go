// Package interfaces defines the core types and contracts of the token governance service.
// It provides the contract between the engine, its storage and its transport without
// implementation details.
package interfaces

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// TokenID identifies a registered token. Valid ids lie in the open interval (0, MaxTokenID).
type TokenID uint32

// MaxTokenID is the exclusive upper bound of the token id domain.
const MaxTokenID TokenID = 8192

var (
	// NullAddress is the zero principal/address.
	NullAddress = common.Address{}

	// NativeTokenAddress is the reserved address standing for the chain's native asset.
	// A token registered under it can never have its address rotated.
	NativeTokenAddress = common.HexToAddress("0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE")

	// ErrInvalidAddress is returned when a string is not a 20-byte hex address.
	ErrInvalidAddress = errors.New("invalid address")

	// ErrInvalidTokenID is returned when a string is not a decimal token id.
	ErrInvalidTokenID = errors.New("invalid token id")
)

// Valid reports whether the id lies in (0, MaxTokenID).
func (id TokenID) Valid() bool {
	return id > 0 && id < MaxTokenID
}

// String returns the decimal representation of the id.
func (id TokenID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// ParseTokenID parses a decimal token id. Values that do not fit a TokenID are clamped to
// math.MaxUint32 so that range validation, not parsing, rejects them.
func ParseTokenID(s string) (TokenID, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) {
			return TokenID(math.MaxUint32), nil
		}
		return 0, fmt.Errorf("%w: %q", ErrInvalidTokenID, s)
	}
	if v > math.MaxUint32 {
		return TokenID(math.MaxUint32), nil
	}
	return TokenID(v), nil
}

// UnmarshalJSON accepts a JSON number or a quoted decimal. Out-of-range values are
// clamped the same way ParseTokenID clamps them.
func (id *TokenID) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	v, err := ParseTokenID(strings.Trim(string(b), `"`))
	if err != nil {
		return err
	}
	*id = v
	return nil
}

// ParseAddress parses a 40-char hex address with or without the 0x prefix.
func ParseAddress(s string) (common.Address, error) {
	s = strings.TrimSpace(s)
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	return common.HexToAddress(s), nil
}

// IsNullAddress reports whether addr is the zero address.
func IsNullAddress(addr common.Address) bool {
	return addr == NullAddress
}

// Token is the registry record of a single token.
type Token struct {
	TokenID      TokenID        `json:"token_id"`
	TokenAddress common.Address `json:"token_address"`
	Registered   bool           `json:"registered"`
	Paused       bool           `json:"paused"`
}
