// Package config loads the genesis state the governance service starts from.
package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/ruteri/token-governance/interfaces"
)

// Genesis describes the initial governance state.
//
//	governor = "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"
//	bridge_manager = "0x90F79bf6EB2c4f870365E785982E1f101E93b906"
//	validators = ["0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC"]
//
//	[[tokens]]
//	id = 1
//	address = "0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE"
type Genesis struct {
	Governor      string         `toml:"governor"`
	BridgeManager string         `toml:"bridge_manager"`
	Validators    []string       `toml:"validators"`
	Tokens        []GenesisToken `toml:"tokens"`
}

// GenesisToken is a token registered at genesis.
type GenesisToken struct {
	ID      uint32 `toml:"id"`
	Address string `toml:"address"`
	Paused  bool   `toml:"paused"`
}

// Load decodes a genesis file. Unknown keys are rejected.
func Load(path string) (*Genesis, error) {
	g := &Genesis{}
	meta, err := toml.DecodeFile(path, g)
	if err != nil {
		return nil, fmt.Errorf("failed to decode genesis %s: %w", path, err)
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}
		return nil, fmt.Errorf("genesis %s has unknown keys: %s", path, strings.Join(keys, ", "))
	}

	return g, nil
}

// Apply initializes gov and replays the genesis entries as governor calls,
// so every entry passes the same validation as a live request.
func (g *Genesis) Apply(gov interfaces.Governance) error {
	governor, err := interfaces.ParseAddress(g.Governor)
	if err != nil {
		return fmt.Errorf("governor: %w", err)
	}
	if err := gov.Initialize(governor); err != nil {
		return fmt.Errorf("initialize: %w", err)
	}

	for _, raw := range g.Validators {
		validator, err := interfaces.ParseAddress(raw)
		if err != nil {
			return fmt.Errorf("validator: %w", err)
		}
		if err := gov.SetValidator(governor, validator, true); err != nil {
			return fmt.Errorf("validator %s: %w", validator.Hex(), err)
		}
	}

	for _, token := range g.Tokens {
		tokenAddress, err := interfaces.ParseAddress(token.Address)
		if err != nil {
			return fmt.Errorf("token %d: %w", token.ID, err)
		}
		tokenID := interfaces.TokenID(token.ID)
		if err := gov.AddToken(governor, tokenID, tokenAddress); err != nil {
			return fmt.Errorf("token %d: %w", token.ID, err)
		}
		if token.Paused {
			if err := gov.SetTokenPaused(governor, tokenID, true); err != nil {
				return fmt.Errorf("token %d: %w", token.ID, err)
			}
		}
	}

	if g.BridgeManager != "" {
		manager, err := interfaces.ParseAddress(g.BridgeManager)
		if err != nil {
			return fmt.Errorf("bridge manager: %w", err)
		}
		if err := gov.SetBridgeManager(governor, manager); err != nil {
			return fmt.Errorf("bridge manager: %w", err)
		}
	}

	return nil
}
