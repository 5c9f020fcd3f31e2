package governance

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ruteri/token-governance/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice = common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
	bob   = common.HexToAddress("0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC")
	jack  = common.HexToAddress("0x90F79bf6EB2c4f870365E785982E1f101E93b906")

	tokenA = common.HexToAddress("0x823B747710C5bC9b8A47243f2c3d1805F1aA00c5")
	tokenB = common.HexToAddress("0x807a0774236a0fbe9e7f8e7df49edfed0e6777ea")
	tokenC = common.HexToAddress("0x72847c8bdc54b338e787352bcec33ba90cd7afe0")
)

// recordingEmitter collects every emitted record.
type recordingEmitter struct {
	records []interfaces.EventRecord
}

func (r *recordingEmitter) Emit(rec interfaces.EventRecord) {
	r.records = append(r.records, rec)
}

func (r *recordingEmitter) events() []interfaces.Event {
	out := make([]interfaces.Event, len(r.records))
	for i, rec := range r.records {
		out[i] = rec.Event
	}
	return out
}

func newTestEngine(t *testing.T, governor common.Address) (*Engine, *recordingEmitter) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	e := NewEngine(logger)
	rec := &recordingEmitter{}
	e.SetEmitter(rec)
	require.NoError(t, e.Initialize(governor))
	rec.records = nil
	return e, rec
}

// TestGovernanceScenario walks through the full administrative lifecycle in order.
func TestGovernanceScenario(t *testing.T) {
	e, rec := newTestEngine(t, alice)
	assert.Equal(t, alice, e.NetworkGovernor())

	// change governor
	require.NoError(t, e.ChangeGovernor(alice, bob))
	assert.Equal(t, bob, e.NetworkGovernor())
	assert.ErrorIs(t, e.ChangeGovernor(bob, interfaces.NullAddress), ErrNullGovernor)

	// add token
	assert.ErrorIs(t, e.AddToken(jack, 1, tokenA), ErrUnauthorized)
	assert.ErrorIs(t, e.AddToken(bob, 0, tokenA), ErrTokenIDOutOfRange)
	assert.ErrorIs(t, e.AddToken(bob, 8192, tokenA), ErrTokenIDOutOfRange)
	assert.ErrorIs(t, e.AddToken(bob, 1, interfaces.NullAddress), ErrNullTokenAddress)

	require.NoError(t, e.AddToken(bob, 1, tokenA))
	token, ok := e.GetToken(1)
	require.True(t, ok)
	assert.True(t, token.Registered)
	assert.False(t, token.Paused)
	assert.Equal(t, tokenA, token.TokenAddress)
	id, ok := e.GetTokenID(tokenA)
	require.True(t, ok)
	assert.Equal(t, interfaces.TokenID(1), id)

	assert.ErrorIs(t, e.AddToken(bob, 1, tokenA), ErrTokenRegistered)
	assert.ErrorIs(t, e.AddToken(bob, 2, tokenA), ErrAddressBound)

	// pause
	assert.ErrorIs(t, e.SetTokenPaused(jack, 1, true), ErrUnauthorized)
	assert.ErrorIs(t, e.SetTokenPaused(bob, 2, true), ErrPauseUnknownToken)
	require.NoError(t, e.SetTokenPaused(bob, 1, true))
	token, _ = e.GetToken(1)
	assert.True(t, token.Paused)

	// address rotation
	assert.ErrorIs(t, e.SetTokenAddress(jack, 1, tokenB), ErrUnauthorized)
	assert.ErrorIs(t, e.SetTokenAddress(bob, 1, interfaces.NullAddress), ErrInvalidNewAddress)
	assert.ErrorIs(t, e.SetTokenAddress(bob, 1, interfaces.NativeTokenAddress), ErrInvalidNewAddress)
	assert.ErrorIs(t, e.SetTokenAddress(bob, 2, tokenB), ErrUpdateUnknownToken)
	assert.ErrorIs(t, e.SetTokenAddress(bob, 1, tokenA), ErrSameAddress)
	require.NoError(t, e.SetTokenAddress(bob, 1, tokenB))
	token, _ = e.GetToken(1)
	assert.Equal(t, tokenB, token.TokenAddress)

	// native token address is immutable
	require.NoError(t, e.AddToken(bob, 2, interfaces.NativeTokenAddress))
	assert.ErrorIs(t, e.SetTokenAddress(bob, 2, tokenC), ErrNativeImmutable)

	// validators
	require.NoError(t, e.SetValidator(bob, jack, true))
	require.NoError(t, e.SetValidator(bob, jack, false))
	assert.False(t, e.IsValidator(jack))

	// bridge manager
	require.NoError(t, e.SetBridgeManager(bob, jack))
	assert.Equal(t, jack, e.BridgeManager())

	assert.Equal(t, []interfaces.Event{
		interfaces.GovernorChange{Governor: bob},
		interfaces.TokenRegistered{TokenID: 1, TokenAddress: tokenA},
		interfaces.TokenPausedUpdate{TokenID: 1, Paused: true},
		interfaces.TokenAddressUpdate{TokenID: 1, TokenAddress: tokenB},
		interfaces.TokenRegistered{TokenID: 2, TokenAddress: interfaces.NativeTokenAddress},
		interfaces.ValidatorStatusUpdate{Validator: jack, Active: true},
		interfaces.ValidatorStatusUpdate{Validator: jack, Active: false},
		interfaces.BridgeManagerUpdate{BridgeManager: jack},
	}, rec.events())
}

func TestInitialize(t *testing.T) {
	e := NewEngine(slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Equal(t, interfaces.NullAddress, e.NetworkGovernor())

	// nothing mutates before a governor exists
	assert.ErrorIs(t, e.AddToken(alice, 1, tokenA), ErrNotInitialized)
	assert.ErrorIs(t, e.ChangeGovernor(interfaces.NullAddress, alice), ErrNotInitialized)
	assert.ErrorIs(t, e.SetBridgeManager(interfaces.NullAddress, alice), ErrNotInitialized)

	assert.ErrorIs(t, e.Initialize(interfaces.NullAddress), ErrNullGovernor)
	require.NoError(t, e.Initialize(alice))
	assert.Equal(t, alice, e.NetworkGovernor())

	before := e.Snapshot()
	assert.ErrorIs(t, e.Initialize(bob), ErrAlreadyInitialized)
	assert.Equal(t, alice, e.NetworkGovernor())
	assert.Equal(t, before, e.Snapshot())

	events := e.EventsSince(0)
	require.Len(t, events, 1)
	assert.Equal(t, interfaces.Initialized{Governor: alice}, events[0].Event)
}

// TestNonGovernorRejected checks that every governor-only operation fails with G0
// for any other principal and leaves state untouched, even with invalid arguments.
func TestNonGovernorRejected(t *testing.T) {
	e, rec := newTestEngine(t, alice)
	require.NoError(t, e.AddToken(alice, 1, tokenA))
	require.NoError(t, e.AddToken(alice, 2, interfaces.NativeTokenAddress))
	rec.records = nil

	ops := map[string]func(caller common.Address) error{
		"changeGovernor":          func(c common.Address) error { return e.ChangeGovernor(c, bob) },
		"changeGovernor null":     func(c common.Address) error { return e.ChangeGovernor(c, interfaces.NullAddress) },
		"addToken":                func(c common.Address) error { return e.AddToken(c, 3, tokenC) },
		"addToken bad id":         func(c common.Address) error { return e.AddToken(c, 0, tokenC) },
		"addToken null":           func(c common.Address) error { return e.AddToken(c, 3, interfaces.NullAddress) },
		"addToken duplicate":      func(c common.Address) error { return e.AddToken(c, 1, tokenA) },
		"setTokenPaused":          func(c common.Address) error { return e.SetTokenPaused(c, 1, true) },
		"setTokenPaused unknown":  func(c common.Address) error { return e.SetTokenPaused(c, 99, true) },
		"setTokenAddress":         func(c common.Address) error { return e.SetTokenAddress(c, 1, tokenB) },
		"setTokenAddress null":    func(c common.Address) error { return e.SetTokenAddress(c, 1, interfaces.NullAddress) },
		"setTokenAddress native":  func(c common.Address) error { return e.SetTokenAddress(c, 2, tokenB) },
		"setValidator":            func(c common.Address) error { return e.SetValidator(c, jack, true) },
		"setBridgeManager":        func(c common.Address) error { return e.SetBridgeManager(c, jack) },
		"setBridgeManager null":   func(c common.Address) error { return e.SetBridgeManager(c, interfaces.NullAddress) },
		"setTokenAddress unknown": func(c common.Address) error { return e.SetTokenAddress(c, 77, tokenB) },
	}

	for name, op := range ops {
		for _, caller := range []common.Address{bob, jack, interfaces.NullAddress, interfaces.NativeTokenAddress} {
			t.Run(fmt.Sprintf("%s/%s", name, caller.Hex()), func(t *testing.T) {
				before := e.Snapshot()
				err := op(caller)
				assert.ErrorIs(t, err, ErrUnauthorized)
				assert.Equal(t, CodeUnauthorized, CodeOf(err))
				assert.Equal(t, before, e.Snapshot())
			})
		}
	}

	assert.Empty(t, rec.records)
}

func TestChangeGovernor(t *testing.T) {
	e, _ := newTestEngine(t, alice)

	require.NoError(t, e.ChangeGovernor(alice, bob))

	// the previous governor lost every privilege immediately
	assert.ErrorIs(t, e.SetValidator(alice, jack, true), ErrUnauthorized)
	assert.ErrorIs(t, e.ChangeGovernor(alice, alice), ErrUnauthorized)

	require.NoError(t, e.SetValidator(bob, jack, true))
	assert.True(t, e.IsValidator(jack))

	// governor is not implicitly a validator
	assert.False(t, e.IsValidator(bob))

	// handing control to oneself is allowed and still emits
	require.NoError(t, e.ChangeGovernor(bob, bob))
	assert.Equal(t, bob, e.NetworkGovernor())
}

func TestAddToken_TokenIDRange(t *testing.T) {
	tests := []struct {
		id      interfaces.TokenID
		wantErr error
	}{
		{0, ErrTokenIDOutOfRange},
		{1, nil},
		{4096, nil},
		{8191, nil},
		{8192, ErrTokenIDOutOfRange},
		{8193, ErrTokenIDOutOfRange},
		{math.MaxUint16, ErrTokenIDOutOfRange},
		{math.MaxUint32, ErrTokenIDOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.id.String(), func(t *testing.T) {
			e, _ := newTestEngine(t, alice)
			err := e.AddToken(alice, tt.id, tokenA)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				_, ok := e.GetTokenID(tokenA)
				assert.False(t, ok)
				return
			}
			require.NoError(t, err)
			got, ok := e.GetToken(tt.id)
			require.True(t, ok)
			assert.Equal(t, interfaces.Token{TokenID: tt.id, TokenAddress: tokenA, Registered: true}, got)
		})
	}
}

func TestAddToken_ValidationOrder(t *testing.T) {
	e, _ := newTestEngine(t, alice)
	require.NoError(t, e.AddToken(alice, 1, tokenA))

	// id range is checked before the address
	assert.ErrorIs(t, e.AddToken(alice, 0, interfaces.NullAddress), ErrTokenIDOutOfRange)
	// null address before duplicate id
	assert.ErrorIs(t, e.AddToken(alice, 1, interfaces.NullAddress), ErrNullTokenAddress)
	// duplicate id before duplicate address
	assert.ErrorIs(t, e.AddToken(alice, 1, tokenA), ErrTokenRegistered)
	assert.ErrorIs(t, e.AddToken(alice, 1, tokenB), ErrTokenRegistered)
	assert.ErrorIs(t, e.AddToken(alice, 5, tokenA), ErrAddressBound)

	// the native token can be registered
	require.NoError(t, e.AddToken(alice, 2, interfaces.NativeTokenAddress))
	assert.ErrorIs(t, e.AddToken(alice, 3, interfaces.NativeTokenAddress), ErrAddressBound)
}

func TestSetTokenAddress_ValidationOrder(t *testing.T) {
	e, _ := newTestEngine(t, alice)
	require.NoError(t, e.AddToken(alice, 1, tokenA))
	require.NoError(t, e.AddToken(alice, 2, interfaces.NativeTokenAddress))
	require.NoError(t, e.AddToken(alice, 3, tokenC))

	tests := []struct {
		name    string
		id      interfaces.TokenID
		addr    common.Address
		wantErr error
	}{
		{"null address on unknown token", 9, interfaces.NullAddress, ErrInvalidNewAddress},
		{"native address on unknown token", 9, interfaces.NativeTokenAddress, ErrInvalidNewAddress},
		{"native address on native token", 2, interfaces.NativeTokenAddress, ErrInvalidNewAddress},
		{"unknown token", 9, tokenB, ErrUpdateUnknownToken},
		{"unknown token with bound address", 9, tokenA, ErrUpdateUnknownToken},
		{"same address", 1, tokenA, ErrSameAddress},
		{"native token", 2, tokenB, ErrNativeImmutable},
		{"native token with bound address", 2, tokenA, ErrNativeImmutable},
		{"address bound to another token", 1, tokenC, ErrAddressBound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := e.Snapshot()
			assert.ErrorIs(t, e.SetTokenAddress(alice, tt.id, tt.addr), tt.wantErr)
			assert.Equal(t, before, e.Snapshot())
		})
	}
}

func TestSetTokenAddress_UpdatesIndex(t *testing.T) {
	e, rec := newTestEngine(t, alice)
	require.NoError(t, e.AddToken(alice, 1, tokenA))
	require.NoError(t, e.SetTokenPaused(alice, 1, true))

	require.NoError(t, e.SetTokenAddress(alice, 1, tokenB))

	_, ok := e.GetTokenID(tokenA)
	assert.False(t, ok, "old address must be released")
	id, ok := e.GetTokenID(tokenB)
	require.True(t, ok)
	assert.Equal(t, interfaces.TokenID(1), id)

	token, _ := e.GetToken(1)
	assert.Equal(t, interfaces.Token{TokenID: 1, TokenAddress: tokenB, Registered: true, Paused: true}, token)

	// the released address can be registered again under a new id
	require.NoError(t, e.AddToken(alice, 2, tokenA))

	// and the token can rotate back once it is free
	require.NoError(t, e.SetTokenAddress(alice, 2, tokenC))
	require.NoError(t, e.SetTokenAddress(alice, 1, tokenA))

	assert.Equal(t, interfaces.TokenAddressUpdate{TokenID: 1, TokenAddress: tokenA}, rec.records[len(rec.records)-1].Event)
}

func TestSetTokenPaused_Idempotent(t *testing.T) {
	e, rec := newTestEngine(t, alice)
	require.NoError(t, e.AddToken(alice, 1, tokenA))
	rec.records = nil

	require.NoError(t, e.SetTokenPaused(alice, 1, true))
	first := e.Snapshot()
	require.NoError(t, e.SetTokenPaused(alice, 1, true))
	second := e.Snapshot()

	first.LastSeq, second.LastSeq = 0, 0
	assert.Equal(t, first, second)
	assert.Equal(t, []interfaces.Event{
		interfaces.TokenPausedUpdate{TokenID: 1, Paused: true},
		interfaces.TokenPausedUpdate{TokenID: 1, Paused: true},
	}, rec.events())

	require.NoError(t, e.SetTokenPaused(alice, 1, false))
	token, _ := e.GetToken(1)
	assert.False(t, token.Paused)
}

func TestSetValidator_RedundantWritesEmit(t *testing.T) {
	e, rec := newTestEngine(t, alice)

	for _, status := range []bool{false, true, true, false} {
		require.NoError(t, e.SetValidator(alice, jack, status))
		assert.Equal(t, status, e.IsValidator(jack))
	}

	assert.Equal(t, []interfaces.Event{
		interfaces.ValidatorStatusUpdate{Validator: jack, Active: false},
		interfaces.ValidatorStatusUpdate{Validator: jack, Active: true},
		interfaces.ValidatorStatusUpdate{Validator: jack, Active: true},
		interfaces.ValidatorStatusUpdate{Validator: jack, Active: false},
	}, rec.events())
}

func TestSetBridgeManager_AcceptsNull(t *testing.T) {
	e, rec := newTestEngine(t, alice)

	require.NoError(t, e.SetBridgeManager(alice, jack))
	require.NoError(t, e.SetBridgeManager(alice, interfaces.NullAddress))
	assert.Equal(t, interfaces.NullAddress, e.BridgeManager())

	// the bridge manager holds no governance privilege
	require.NoError(t, e.SetBridgeManager(alice, jack))
	assert.ErrorIs(t, e.SetValidator(jack, jack, true), ErrUnauthorized)

	assert.Len(t, rec.records, 3)
}

func TestReads(t *testing.T) {
	e, _ := newTestEngine(t, alice)

	_, ok := e.GetToken(1)
	assert.False(t, ok)
	_, ok = e.GetTokenID(tokenA)
	assert.False(t, ok)
	assert.False(t, e.IsValidator(jack))
	assert.Equal(t, interfaces.NullAddress, e.BridgeManager())

	require.NoError(t, e.AddToken(alice, 1, tokenA))

	// returned records are copies
	token, _ := e.GetToken(1)
	token.Paused = true
	token.TokenAddress = tokenB
	fresh, _ := e.GetToken(1)
	assert.False(t, fresh.Paused)
	assert.Equal(t, tokenA, fresh.TokenAddress)
}

func TestEventsSince(t *testing.T) {
	e, rec := newTestEngine(t, alice)
	require.NoError(t, e.AddToken(alice, 1, tokenA))
	require.NoError(t, e.SetTokenPaused(alice, 1, true))
	require.NoError(t, e.SetValidator(alice, jack, true))

	all := e.EventsSince(0)
	require.Len(t, all, 4)
	for i, r := range all {
		assert.Equal(t, uint64(i+1), r.Seq)
	}
	assert.Equal(t, interfaces.Initialized{Governor: alice}, all[0].Event)
	assert.Equal(t, rec.records, all[1:])

	tail := e.EventsSince(2)
	require.Len(t, tail, 2)
	assert.Equal(t, uint64(3), tail[0].Seq)

	assert.Empty(t, e.EventsSince(4))
	assert.Empty(t, e.EventsSince(100))
	assert.Equal(t, uint64(4), e.LastSeq())

	// failed calls do not emit
	assert.Error(t, e.AddToken(jack, 2, tokenB))
	assert.Equal(t, uint64(4), e.LastSeq())
}

func TestEventRetention(t *testing.T) {
	e, _ := newTestEngine(t, alice)
	e.SetEventRetention(5)

	for i := 0; i < 20; i++ {
		require.NoError(t, e.SetValidator(alice, jack, i%2 == 0))
	}

	all := e.EventsSince(0)
	assert.GreaterOrEqual(t, len(all), 5)
	assert.LessOrEqual(t, len(all), 10)
	assert.Equal(t, uint64(21), all[len(all)-1].Seq)
	assert.Equal(t, uint64(21), e.LastSeq())

	// sequence numbers remain contiguous
	for i := 1; i < len(all); i++ {
		assert.Equal(t, all[i-1].Seq+1, all[i].Seq)
	}
}

// TestConcurrentMutations drives the engine from many goroutines; run with -race.
func TestConcurrentMutations(t *testing.T) {
	e, rec := newTestEngine(t, alice)

	const workers = 16
	const perWorker = 32

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				id := interfaces.TokenID(w*perWorker + i + 1)
				tokenAddr := common.BytesToAddress([]byte{0xAA, byte(w), byte(i), 0x01})
				assert.NoError(t, e.AddToken(alice, id, tokenAddr))
				assert.NoError(t, e.SetTokenPaused(alice, id, true))
				assert.ErrorIs(t, e.AddToken(alice, id, tokenAddr), ErrTokenRegistered)
			}
		}(w)
	}

	// concurrent readers
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				snap := e.Snapshot()
				for _, token := range snap.Tokens {
					got, ok := e.GetTokenID(token.TokenAddress)
					if ok {
						assert.Equal(t, token.TokenID, got)
					}
				}
			}
		}()
	}
	wg.Wait()

	snap := e.Snapshot()
	require.Len(t, snap.Tokens, workers*perWorker)
	seen := make(map[common.Address]bool)
	for _, token := range snap.Tokens {
		assert.True(t, token.Paused)
		assert.False(t, seen[token.TokenAddress])
		seen[token.TokenAddress] = true
		id, ok := e.GetTokenID(token.TokenAddress)
		require.True(t, ok)
		assert.Equal(t, token.TokenID, id)
	}

	// events arrive in sequence order with no gaps
	require.Len(t, rec.records, 2*workers*perWorker)
	for i, r := range rec.records {
		assert.Equal(t, uint64(i+2), r.Seq)
	}
}

func TestCodeHTTPStatus(t *testing.T) {
	assert.Equal(t, 403, CodeUnauthorized.HTTPStatus())
	assert.Equal(t, 400, CodeTokenIDOutOfRange.HTTPStatus())
	assert.Equal(t, 409, CodeNativeImmutable.HTTPStatus())
	assert.Equal(t, 404, CodePauseUnknownToken.HTTPStatus())
	assert.Equal(t, 404, CodeNotFound.HTTPStatus())
	assert.Equal(t, 500, Code("bogus").HTTPStatus())

	assert.Equal(t, Code(""), CodeOf(fmt.Errorf("plain")))
	assert.Equal(t, CodeSameAddress, CodeOf(fmt.Errorf("wrapped: %w", ErrSameAddress)))
	assert.ErrorIs(t, &Error{Code: CodeSameAddress, Message: "from the wire"}, ErrSameAddress)
	assert.NotErrorIs(t, ErrSameAddress, ErrNativeImmutable)
}
