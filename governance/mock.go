package governance

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ruteri/token-governance/interfaces"
	"github.com/stretchr/testify/mock"
)

// MockGovernance mocks the interfaces.Governance interface
type MockGovernance struct {
	mock.Mock
}

var _ interfaces.Governance = (*MockGovernance)(nil)

// Initialize mocks the Initialize method
func (m *MockGovernance) Initialize(governor common.Address) error {
	args := m.Called(governor)
	return args.Error(0)
}

// NetworkGovernor mocks the NetworkGovernor method
func (m *MockGovernance) NetworkGovernor() common.Address {
	args := m.Called()
	return args.Get(0).(common.Address)
}

// ChangeGovernor mocks the ChangeGovernor method
func (m *MockGovernance) ChangeGovernor(caller, newGovernor common.Address) error {
	args := m.Called(caller, newGovernor)
	return args.Error(0)
}

// AddToken mocks the AddToken method
func (m *MockGovernance) AddToken(caller common.Address, tokenID interfaces.TokenID, tokenAddress common.Address) error {
	args := m.Called(caller, tokenID, tokenAddress)
	return args.Error(0)
}

// SetTokenPaused mocks the SetTokenPaused method
func (m *MockGovernance) SetTokenPaused(caller common.Address, tokenID interfaces.TokenID, paused bool) error {
	args := m.Called(caller, tokenID, paused)
	return args.Error(0)
}

// SetTokenAddress mocks the SetTokenAddress method
func (m *MockGovernance) SetTokenAddress(caller common.Address, tokenID interfaces.TokenID, newAddress common.Address) error {
	args := m.Called(caller, tokenID, newAddress)
	return args.Error(0)
}

// SetValidator mocks the SetValidator method
func (m *MockGovernance) SetValidator(caller, validator common.Address, active bool) error {
	args := m.Called(caller, validator, active)
	return args.Error(0)
}

// SetBridgeManager mocks the SetBridgeManager method
func (m *MockGovernance) SetBridgeManager(caller, manager common.Address) error {
	args := m.Called(caller, manager)
	return args.Error(0)
}

// GetToken mocks the GetToken method
func (m *MockGovernance) GetToken(tokenID interfaces.TokenID) (interfaces.Token, bool) {
	args := m.Called(tokenID)
	return args.Get(0).(interfaces.Token), args.Bool(1)
}

// GetTokenID mocks the GetTokenID method
func (m *MockGovernance) GetTokenID(tokenAddress common.Address) (interfaces.TokenID, bool) {
	args := m.Called(tokenAddress)
	return args.Get(0).(interfaces.TokenID), args.Bool(1)
}

// IsValidator mocks the IsValidator method
func (m *MockGovernance) IsValidator(validator common.Address) bool {
	args := m.Called(validator)
	return args.Bool(0)
}

// BridgeManager mocks the BridgeManager method
func (m *MockGovernance) BridgeManager() common.Address {
	args := m.Called()
	return args.Get(0).(common.Address)
}

// EventsSince mocks the EventsSince method
func (m *MockGovernance) EventsSince(seq uint64) []interfaces.EventRecord {
	args := m.Called(seq)
	return args.Get(0).([]interfaces.EventRecord)
}

// LastSeq mocks the LastSeq method
func (m *MockGovernance) LastSeq() uint64 {
	args := m.Called()
	return args.Get(0).(uint64)
}

// Snapshot mocks the Snapshot method
func (m *MockGovernance) Snapshot() interfaces.Snapshot {
	args := m.Called()
	return args.Get(0).(interfaces.Snapshot)
}
