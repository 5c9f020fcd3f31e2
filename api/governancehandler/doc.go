// Package governancehandler exposes the token governance engine over HTTP and
// provides a matching Go client.
//
// The service does not authenticate callers itself. An authenticating proxy in
// front of it sets the X-Governance-Caller header to the verified principal, and
// every governance route passes that principal to the engine unchanged.
//
// # Routes
//
// Mutations, all answering 204 No Content on success:
//
//	POST /api/governance/initialize                {"governor"}
//	POST /api/governance/governor                  {"governor"}
//	POST /api/governance/tokens                    {"token_id", "token_address"}
//	POST /api/governance/tokens/{token_id}/paused  {"paused"}
//	POST /api/governance/tokens/{token_id}/address {"token_address"}
//	POST /api/governance/validators/{address}      {"active"}
//	POST /api/governance/bridge_manager            {"bridge_manager"}
//
// Reads:
//
//	GET /api/public/governor
//	GET /api/public/tokens/{token_id}
//	GET /api/public/token_ids/{token_address}
//	GET /api/public/validators/{address}
//	GET /api/public/bridge_manager
//	GET /api/public/events?from=N
//
// The events page is marked "truncated" when events after the cursor are no longer
// retained; a subscriber seeing it must resynchronize from the public reads.
//
// # Errors
//
// Failures answer with {"code", "error"}. Governance rejections carry their G-code
// and map to 403 (G0), 400 (invalid arguments), 404 (unknown token) or 409
// (conflicting state). The client turns them back into *governance.Error values:
//
//	client := governancehandler.NewClient("http://127.0.0.1:8080", governor)
//	err := client.AddToken(ctx, 1, tokenAddress)
//	if errors.Is(err, governance.ErrAddressBound) {
//	    // address already registered under another id
//	}
package governancehandler
