// Package http provides the HTTP transport layer for REST API source
// connectors. The stream layer above it only ever sees decoded success
// bodies: rate limiting, retry with backoff, and timeouts all live here.
//
// Structure:
//
//	client.go  - HTTP client with rate limiting and retry
//	auth.go    - Authentication strategies (Bearer, account-scoped)
//	base.go    - Embeddable endpoint base with identity metadata
package http
