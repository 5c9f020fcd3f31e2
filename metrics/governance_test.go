package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/ruteri/token-governance/governance"
	"github.com/ruteri/token-governance/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGovernanceMetrics(t *testing.T) {
	m, err := NewGovernanceMetrics("test", prometheus.NewRegistry())
	require.NoError(t, err)

	m.ObserveOperation("addToken", nil, time.Millisecond)
	m.ObserveOperation("addToken", governance.ErrTokenRegistered, time.Millisecond)
	m.ObserveOperation("addToken", governance.ErrTokenRegistered, time.Millisecond)
	m.ObserveOperation("addToken", errors.New("decode"), time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues("addToken", "ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.operations.WithLabelValues("addToken", "G4")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues("addToken", "error")))

	m.Emit(interfaces.EventRecord{Seq: 3, Event: interfaces.TokenPausedUpdate{TokenID: 1, Paused: true}})
	m.Emit(interfaces.EventRecord{Seq: 4, Event: interfaces.TokenPausedUpdate{TokenID: 1, Paused: false}})
	m.Emit(interfaces.EventRecord{Seq: 5, Event: interfaces.BridgeManagerUpdate{BridgeManager: common.Address{}}})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.events.WithLabelValues(string(interfaces.EventTokenPausedUpdate))))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.events.WithLabelValues(string(interfaces.EventBridgeManagerUpdate))))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.lastSeq))

	m.ObserveSnapshotSave(nil)
	m.ObserveSnapshotSave(errors.New("backend down"))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.snapshotSaves.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.snapshotSaves.WithLabelValues("error")))
}

func TestGovernanceMetrics_Nil(t *testing.T) {
	var m *GovernanceMetrics
	assert.NotPanics(t, func() {
		m.ObserveOperation("addToken", nil, time.Second)
		m.Emit(interfaces.EventRecord{Seq: 1, Event: interfaces.Initialized{}})
		m.ObserveSnapshotSave(nil)
	})
}

func TestGovernanceMetrics_DoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewGovernanceMetrics("test", reg)
	require.NoError(t, err)
	_, err = NewGovernanceMetrics("test", reg)
	assert.Error(t, err)
}

func TestMetricsServer_Handler(t *testing.T) {
	m, err := New("token_governance", "127.0.0.1:0")
	require.NoError(t, err)

	m.Governance.ObserveOperation("setValidator", nil, time.Millisecond)

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	body, err := io.ReadAll(rr.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `token_governance_governance_operations_total{code="ok",op="setValidator"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
