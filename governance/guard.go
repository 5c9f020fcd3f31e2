package governance

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ruteri/token-governance/interfaces"
)

// Role is the permission an operation requires from its caller.
type Role int

const (
	// RolePublic always passes.
	RolePublic Role = iota
	// RoleGovernorOnly requires the caller to be exactly the current governor.
	RoleGovernorOnly
)

func (r Role) String() string {
	switch r {
	case RolePublic:
		return "public"
	case RoleGovernorOnly:
		return "governor-only"
	default:
		return "unknown"
	}
}

// authorize is the single gate every operation passes before any other check.
// Callers must hold e.mu.
func (e *Engine) authorize(caller common.Address, role Role) error {
	switch role {
	case RolePublic:
		return nil
	case RoleGovernorOnly:
		if !e.initialized {
			return ErrNotInitialized
		}
		if caller != e.governor {
			return ErrUnauthorized
		}
		return nil
	default:
		return ErrUnauthorized
	}
}

// Initialize sets the first governor. It is a one-shot call: once a governor is
// set, further calls fail with ErrAlreadyInitialized and leave state untouched.
func (e *Engine) Initialize(governor common.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.initialized {
		return e.reject("initialize", governor, ErrAlreadyInitialized)
	}
	if interfaces.IsNullAddress(governor) {
		return e.reject("initialize", governor, ErrNullGovernor)
	}

	e.initialized = true
	e.governor = governor
	e.emit(interfaces.Initialized{Governor: governor})

	e.log.Info("Governance initialized", "governor", governor.Hex())
	return nil
}

// NetworkGovernor returns the current governor, or the null address before Initialize.
func (e *Engine) NetworkGovernor() common.Address {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.governor
}

// ChangeGovernor hands full control to newGovernor in a single step.
func (e *Engine) ChangeGovernor(caller, newGovernor common.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.authorize(caller, RoleGovernorOnly); err != nil {
		return e.reject("changeGovernor", caller, err)
	}
	if interfaces.IsNullAddress(newGovernor) {
		return e.reject("changeGovernor", caller, ErrNullGovernor)
	}

	e.governor = newGovernor
	e.emit(interfaces.GovernorChange{Governor: newGovernor})

	e.log.Info("Governor changed", "previous", caller.Hex(), "governor", newGovernor.Hex())
	return nil
}
