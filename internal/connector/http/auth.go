package http

import "net/http"

// =============================================================================
// AUTHENTICATION STRATEGIES
// =============================================================================

// AuthConfig represents authentication configuration.
type AuthConfig interface {
	Apply(req *http.Request)
}

// NoAuth represents no authentication.
type NoAuth struct{}

func (a NoAuth) Apply(req *http.Request) {}

// BearerToken uses Bearer token authentication.
type BearerToken struct {
	Token string
}

// Apply adds the Bearer token header to the request.
func (a BearerToken) Apply(req *http.Request) {
	if a.Token == "" {
		return
	}
	req.Header.Set("Authorization", "Bearer "+a.Token)
}

// AccountAuth uses a personal access token scoped to an account, the scheme
// used by Harvest (Bearer token plus Harvest-Account-Id header).
type AccountAuth struct {
	AccountID string
	Token     string

	// AccountHeader names the account header (default: Harvest-Account-Id).
	AccountHeader string
}

// Apply adds the token and account headers to the request.
func (a AccountAuth) Apply(req *http.Request) {
	if a.Token == "" {
		return
	}
	header := a.AccountHeader
	if header == "" {
		header = "Harvest-Account-Id"
	}
	req.Header.Set("Authorization", "Bearer "+a.Token)
	if a.AccountID != "" {
		req.Header.Set(header, a.AccountID)
	}
}
