package governancehandler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ruteri/token-governance/api"
	"github.com/ruteri/token-governance/governance"
	"github.com/ruteri/token-governance/interfaces"
)

// ErrEventsTruncated is returned by EventsSince when events after the cursor were dropped.
var ErrEventsTruncated = errors.New("events after cursor no longer retained")

// Client calls a remote governance API. Rejections carrying a governance code are
// returned as *governance.Error, so errors.Is works against the governance sentinels.
type Client struct {
	// ServerAddr is the base URL, e.g. "http://127.0.0.1:8080".
	ServerAddr string
	// Caller is sent in api.CallerHeader on every request unless it is the null address.
	Caller common.Address
	// HTTPClient defaults to http.DefaultClient.
	HTTPClient *http.Client
}

// NewClient creates a client acting as caller.
func NewClient(serverAddr string, caller common.Address) *Client {
	return &Client{
		ServerAddr: strings.TrimSuffix(serverAddr, "/"),
		Caller:     caller,
		HTTPClient: http.DefaultClient,
	}
}

func (c *Client) Initialize(ctx context.Context, governor common.Address) error {
	return c.do(ctx, http.MethodPost, "/api/governance/initialize", api.InitializeRequest{Governor: governor}, nil)
}

func (c *Client) ChangeGovernor(ctx context.Context, newGovernor common.Address) error {
	return c.do(ctx, http.MethodPost, "/api/governance/governor", api.ChangeGovernorRequest{Governor: newGovernor}, nil)
}

func (c *Client) AddToken(ctx context.Context, tokenID interfaces.TokenID, tokenAddress common.Address) error {
	return c.do(ctx, http.MethodPost, "/api/governance/tokens", api.AddTokenRequest{TokenID: tokenID, TokenAddress: tokenAddress}, nil)
}

func (c *Client) SetTokenPaused(ctx context.Context, tokenID interfaces.TokenID, paused bool) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/api/governance/tokens/%s/paused", tokenID), api.SetTokenPausedRequest{Paused: paused}, nil)
}

func (c *Client) SetTokenAddress(ctx context.Context, tokenID interfaces.TokenID, newAddress common.Address) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/api/governance/tokens/%s/address", tokenID), api.SetTokenAddressRequest{TokenAddress: newAddress}, nil)
}

func (c *Client) SetValidator(ctx context.Context, validator common.Address, active bool) error {
	return c.do(ctx, http.MethodPost, "/api/governance/validators/"+validator.Hex(), api.SetValidatorRequest{Active: active}, nil)
}

func (c *Client) SetBridgeManager(ctx context.Context, manager common.Address) error {
	return c.do(ctx, http.MethodPost, "/api/governance/bridge_manager", api.SetBridgeManagerRequest{BridgeManager: manager}, nil)
}

func (c *Client) NetworkGovernor(ctx context.Context) (common.Address, error) {
	var resp api.GovernorResponse
	err := c.do(ctx, http.MethodGet, "/api/public/governor", nil, &resp)
	return resp.Governor, err
}

// GetToken returns the token record. Unregistered ids fail with governance.ErrNotFound.
func (c *Client) GetToken(ctx context.Context, tokenID interfaces.TokenID) (*interfaces.Token, error) {
	var token interfaces.Token
	if err := c.do(ctx, http.MethodGet, "/api/public/tokens/"+tokenID.String(), nil, &token); err != nil {
		return nil, err
	}
	return &token, nil
}

// GetTokenID returns the id bound to tokenAddress. Unbound addresses fail with governance.ErrNotFound.
func (c *Client) GetTokenID(ctx context.Context, tokenAddress common.Address) (interfaces.TokenID, error) {
	var resp api.TokenIDResponse
	err := c.do(ctx, http.MethodGet, "/api/public/token_ids/"+tokenAddress.Hex(), nil, &resp)
	return resp.TokenID, err
}

func (c *Client) IsValidator(ctx context.Context, validator common.Address) (bool, error) {
	var resp api.ValidatorResponse
	err := c.do(ctx, http.MethodGet, "/api/public/validators/"+validator.Hex(), nil, &resp)
	return resp.Active, err
}

func (c *Client) BridgeManager(ctx context.Context) (common.Address, error) {
	var resp api.BridgeManagerResponse
	err := c.do(ctx, http.MethodGet, "/api/public/bridge_manager", nil, &resp)
	return resp.BridgeManager, err
}

// Events returns the raw events page above seq, including the truncation flag.
func (c *Client) Events(ctx context.Context, seq uint64) (*api.EventsResponse, error) {
	var resp api.EventsResponse
	if err := c.do(ctx, http.MethodGet, "/api/public/events?from="+strconv.FormatUint(seq, 10), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// EventsSince returns retained events with a sequence number above seq.
// If the server no longer holds every event after seq, the retained ones are returned
// together with ErrEventsTruncated.
func (c *Client) EventsSince(ctx context.Context, seq uint64) ([]interfaces.EventRecord, error) {
	resp, err := c.Events(ctx, seq)
	if err != nil {
		return nil, err
	}
	if resp.Truncated {
		return resp.Events, ErrEventsTruncated
	}
	return resp.Events, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("could not encode request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.ServerAddr+path, reqBody)
	if err != nil {
		return fmt.Errorf("could not initialize request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if !interfaces.IsNullAddress(c.Caller) {
		req.Header.Set(api.CallerHeader, c.Caller.Hex())
	}

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("could not read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var errResp api.ErrorResponse
		if jsonErr := json.Unmarshal(respBody, &errResp); jsonErr != nil || errResp.Code == "" {
			return fmt.Errorf("request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
		}
		if errResp.Code != CodeInternal && governance.Code(errResp.Code).HTTPStatus() == resp.StatusCode {
			return &governance.Error{Code: governance.Code(errResp.Code), Message: errResp.Error}
		}
		return fmt.Errorf("request failed with status %d: %s: %s", resp.StatusCode, errResp.Code, errResp.Error)
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("could not parse response: %w", err)
	}
	return nil
}
