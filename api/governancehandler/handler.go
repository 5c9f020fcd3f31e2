package governancehandler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"github.com/ruteri/token-governance/api"
	"github.com/ruteri/token-governance/governance"
	"github.com/ruteri/token-governance/interfaces"
	"github.com/ruteri/token-governance/metrics"
)

const (
	// maxBodySize is the maximum allowed request body size (64KB).
	maxBodySize = 64 * 1024

	// snapshotTimeout bounds a snapshot save triggered by a request.
	snapshotTimeout = 10 * time.Second

	// CodeInvalidRequest is returned for malformed paths, queries and bodies.
	CodeInvalidRequest = "INVALID_REQUEST"
	// CodeUnauthenticated is returned when the caller header is missing or malformed.
	CodeUnauthenticated = "UNAUTHENTICATED"
	// CodeInternal is returned for failures without a governance code.
	CodeInternal = "INTERNAL"
)

// Handler serves the governance API on top of an interfaces.Governance.
// When a snapshot store is configured, every successful mutation is followed by a snapshot save.
type Handler struct {
	gov       interfaces.Governance
	snapshots interfaces.SnapshotStore
	metrics   *metrics.GovernanceMetrics
	log       *slog.Logger
}

// NewHandler creates a governance handler.
//
// Parameters:
//   - gov: the governance engine
//   - snapshots: optional snapshot store, nil disables persistence
//   - m: optional metrics recorder, nil disables metrics
//   - log: Structured logger for operational insights
func NewHandler(gov interfaces.Governance, snapshots interfaces.SnapshotStore, m *metrics.GovernanceMetrics, log *slog.Logger) *Handler {
	return &Handler{
		gov:       gov,
		snapshots: snapshots,
		metrics:   m,
		log:       log,
	}
}

// RegisterRoutes configures the HTTP router with governance endpoints.
// Mutations live under /api/governance and require the caller header;
// reads live under /api/public.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/api/governance/initialize", h.HandleInitialize)
	r.Post("/api/governance/governor", h.HandleChangeGovernor)
	r.Post("/api/governance/tokens", h.HandleAddToken)
	r.Post("/api/governance/tokens/{token_id}/paused", h.HandleSetTokenPaused)
	r.Post("/api/governance/tokens/{token_id}/address", h.HandleSetTokenAddress)
	r.Post("/api/governance/validators/{address}", h.HandleSetValidator)
	r.Post("/api/governance/bridge_manager", h.HandleSetBridgeManager)

	r.Get("/api/public/governor", h.HandleGetGovernor)
	r.Get("/api/public/tokens/{token_id}", h.HandleGetToken)
	r.Get("/api/public/token_ids/{token_address}", h.HandleGetTokenID)
	r.Get("/api/public/validators/{address}", h.HandleGetValidator)
	r.Get("/api/public/bridge_manager", h.HandleGetBridgeManager)
	r.Get("/api/public/events", h.HandleGetEvents)
}

// HandleInitialize sets the first governor. It needs no caller: it succeeds at most once.
//
// URL format: POST /api/governance/initialize
func (h *Handler) HandleInitialize(w http.ResponseWriter, r *http.Request) {
	var req api.InitializeRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.apply(w, r, "initialize", func() error {
		return h.gov.Initialize(req.Governor)
	})
}

// HandleChangeGovernor hands control to a new governor.
//
// URL format: POST /api/governance/governor
func (h *Handler) HandleChangeGovernor(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req api.ChangeGovernorRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.apply(w, r, "changeGovernor", func() error {
		return h.gov.ChangeGovernor(caller, req.Governor)
	})
}

// HandleAddToken registers a token.
//
// URL format: POST /api/governance/tokens
func (h *Handler) HandleAddToken(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req api.AddTokenRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.apply(w, r, "addToken", func() error {
		return h.gov.AddToken(caller, req.TokenID, req.TokenAddress)
	})
}

// HandleSetTokenPaused sets the pause flag of a token.
//
// URL format: POST /api/governance/tokens/{token_id}/paused
func (h *Handler) HandleSetTokenPaused(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	tokenID, ok := h.pathTokenID(w, r)
	if !ok {
		return
	}
	var req api.SetTokenPausedRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.apply(w, r, "setTokenPaused", func() error {
		return h.gov.SetTokenPaused(caller, tokenID, req.Paused)
	})
}

// HandleSetTokenAddress rotates the address of a token.
//
// URL format: POST /api/governance/tokens/{token_id}/address
func (h *Handler) HandleSetTokenAddress(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	tokenID, ok := h.pathTokenID(w, r)
	if !ok {
		return
	}
	var req api.SetTokenAddressRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.apply(w, r, "setTokenAddress", func() error {
		return h.gov.SetTokenAddress(caller, tokenID, req.TokenAddress)
	})
}

// HandleSetValidator sets the status of a validator.
//
// URL format: POST /api/governance/validators/{address}
func (h *Handler) HandleSetValidator(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	validator, ok := h.pathAddress(w, r, "address")
	if !ok {
		return
	}
	var req api.SetValidatorRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.apply(w, r, "setValidator", func() error {
		return h.gov.SetValidator(caller, validator, req.Active)
	})
}

// HandleSetBridgeManager replaces the bridge manager.
//
// URL format: POST /api/governance/bridge_manager
func (h *Handler) HandleSetBridgeManager(w http.ResponseWriter, r *http.Request) {
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	var req api.SetBridgeManagerRequest
	if !h.decode(w, r, &req) {
		return
	}
	h.apply(w, r, "setBridgeManager", func() error {
		return h.gov.SetBridgeManager(caller, req.BridgeManager)
	})
}

// HandleGetGovernor returns the current network governor.
//
// URL format: GET /api/public/governor
func (h *Handler) HandleGetGovernor(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, api.GovernorResponse{Governor: h.gov.NetworkGovernor()})
}

// HandleGetToken returns the token record, or 404 NOT_FOUND for unregistered ids.
//
// URL format: GET /api/public/tokens/{token_id}
func (h *Handler) HandleGetToken(w http.ResponseWriter, r *http.Request) {
	tokenID, ok := h.pathTokenID(w, r)
	if !ok {
		return
	}
	token, found := h.gov.GetToken(tokenID)
	if !found {
		h.writeError(w, governance.ErrNotFound)
		return
	}
	h.writeJSON(w, http.StatusOK, token)
}

// HandleGetTokenID returns the id bound to an address, or 404 NOT_FOUND.
//
// URL format: GET /api/public/token_ids/{token_address}
func (h *Handler) HandleGetTokenID(w http.ResponseWriter, r *http.Request) {
	tokenAddress, ok := h.pathAddress(w, r, "token_address")
	if !ok {
		return
	}
	tokenID, found := h.gov.GetTokenID(tokenAddress)
	if !found {
		h.writeError(w, governance.ErrNotFound)
		return
	}
	h.writeJSON(w, http.StatusOK, api.TokenIDResponse{TokenID: tokenID, TokenAddress: tokenAddress})
}

// HandleGetValidator returns the recorded validator status; unknown principals are inactive.
//
// URL format: GET /api/public/validators/{address}
func (h *Handler) HandleGetValidator(w http.ResponseWriter, r *http.Request) {
	validator, ok := h.pathAddress(w, r, "address")
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, api.ValidatorResponse{Validator: validator, Active: h.gov.IsValidator(validator)})
}

// HandleGetBridgeManager returns the bridge manager, possibly the null address.
//
// URL format: GET /api/public/bridge_manager
func (h *Handler) HandleGetBridgeManager(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, api.BridgeManagerResponse{BridgeManager: h.gov.BridgeManager()})
}

// HandleGetEvents returns events with a sequence number above the "from" query parameter.
// When some of those events were already dropped from the log, the response is marked truncated.
//
// URL format: GET /api/public/events?from=N
func (h *Handler) HandleGetEvents(w http.ResponseWriter, r *http.Request) {
	var from uint64
	if raw := r.URL.Query().Get("from"); raw != "" {
		v, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			h.writeRequestError(w, http.StatusBadRequest, CodeInvalidRequest, "invalid from parameter")
			return
		}
		from = v
	}

	head := h.gov.LastSeq()
	events := h.gov.EventsSince(from)
	resp := api.EventsResponse{
		Events:    events,
		LastSeq:   from,
		Truncated: head > from && (len(events) == 0 || events[0].Seq > from+1),
	}
	if len(events) > 0 {
		resp.LastSeq = events[len(events)-1].Seq
	} else {
		resp.Events = []interfaces.EventRecord{}
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// apply runs a mutation, records it and persists a snapshot on success.
// A failed snapshot save is logged but does not fail the request: the mutation is already applied.
func (h *Handler) apply(w http.ResponseWriter, r *http.Request, op string, fn func() error) {
	start := time.Now()
	err := fn()
	h.metrics.ObserveOperation(op, err, time.Since(start))
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.persist(r.Context(), op)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) persist(ctx context.Context, op string) {
	if h.snapshots == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), snapshotTimeout)
	defer cancel()

	err := h.snapshots.Save(ctx, h.gov.Snapshot())
	h.metrics.ObserveSnapshotSave(err)
	if err != nil {
		h.log.Error("Failed to save governance snapshot", "op", op, "err", err)
	}
}

// caller extracts the authenticated principal from CallerHeader.
func (h *Handler) caller(w http.ResponseWriter, r *http.Request) (common.Address, bool) {
	raw := r.Header.Get(api.CallerHeader)
	if raw == "" {
		h.writeRequestError(w, http.StatusUnauthorized, CodeUnauthenticated, "missing "+api.CallerHeader+" header")
		return common.Address{}, false
	}
	caller, err := interfaces.ParseAddress(raw)
	if err != nil {
		h.writeRequestError(w, http.StatusUnauthorized, CodeUnauthenticated, err.Error())
		return common.Address{}, false
	}
	return caller, true
}

func (h *Handler) pathTokenID(w http.ResponseWriter, r *http.Request) (interfaces.TokenID, bool) {
	tokenID, err := interfaces.ParseTokenID(r.PathValue("token_id"))
	if err != nil {
		h.writeRequestError(w, http.StatusBadRequest, CodeInvalidRequest, err.Error())
		return 0, false
	}
	return tokenID, true
}

func (h *Handler) pathAddress(w http.ResponseWriter, r *http.Request, name string) (common.Address, bool) {
	addr, err := interfaces.ParseAddress(r.PathValue(name))
	if err != nil {
		h.writeRequestError(w, http.StatusBadRequest, CodeInvalidRequest, err.Error())
		return common.Address{}, false
	}
	return addr, true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize+1))
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		h.writeRequestError(w, http.StatusRequestEntityTooLarge, CodeInvalidRequest, "request body too large")
		return false
	}
	if err != nil {
		h.writeRequestError(w, http.StatusBadRequest, CodeInvalidRequest, "failed to read request body")
		return false
	}
	if len(body) > maxBodySize {
		h.writeRequestError(w, http.StatusRequestEntityTooLarge, CodeInvalidRequest, "request body too large")
		return false
	}
	if err := json.Unmarshal(body, v); err != nil {
		h.writeRequestError(w, http.StatusBadRequest, CodeInvalidRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var gerr *governance.Error
	if errors.As(err, &gerr) {
		h.writeJSON(w, gerr.Code.HTTPStatus(), api.ErrorResponse{Code: string(gerr.Code), Error: gerr.Message})
		return
	}
	h.log.Error("Governance operation failed", "err", err)
	h.writeJSON(w, http.StatusInternalServerError, api.ErrorResponse{Code: CodeInternal, Error: "internal server error"})
}

func (h *Handler) writeRequestError(w http.ResponseWriter, status int, code, msg string) {
	h.writeJSON(w, status, api.ErrorResponse{Code: code, Error: msg})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("Failed to encode response", "err", err)
	}
}
