package harvest

import "time"

// DefaultBaseURL is the Harvest v2 API root.
const DefaultBaseURL = "https://api.harvestapp.com/v2/"

// DefaultPageSize is the number of records requested per page.
const DefaultPageSize = 50

// MaxPageSize is the Harvest API hard limit for per_page.
const MaxPageSize = 100

// Config holds Harvest connection configuration.
type Config struct {
	// AccountID is the numeric Harvest account identifier, sent as the
	// Harvest-Account-Id header on every request.
	AccountID string `json:"accountId"`

	// AccessToken is a Harvest personal access token.
	AccessToken string `json:"accessToken"`

	// ReplicationStartDate is an ISO 8601 timestamp. Incremental streams
	// with no stored checkpoint start from here; empty means full history.
	ReplicationStartDate string `json:"replicationStartDate,omitempty"`

	// ReportsFromDate is the lower bound of the report date window, in
	// YYYY-MM-DD form. Defaults to one year before connector construction.
	ReportsFromDate string `json:"reportsFromDate,omitempty"`

	// PageSize is the number of records per API request.
	PageSize int `json:"pageSize,omitempty"`

	// BaseURL overrides the API root (tests and proxies).
	BaseURL string `json:"baseUrl,omitempty"`
}

// Validate validates the configuration and fills in defaults.
func (c *Config) Validate() error {
	if c.AccountID == "" {
		return &ValidationError{Field: "accountId", Message: "required"}
	}
	if c.AccessToken == "" {
		return &ValidationError{Field: "accessToken", Message: "required"}
	}
	if c.ReplicationStartDate != "" {
		if _, err := time.Parse(time.RFC3339, c.ReplicationStartDate); err != nil {
			return &ValidationError{Field: "replicationStartDate", Message: "must be ISO 8601 (RFC 3339)"}
		}
	}
	if c.ReportsFromDate != "" {
		if _, err := time.Parse("2006-01-02", c.ReportsFromDate); err != nil {
			return &ValidationError{Field: "reportsFromDate", Message: "must be YYYY-MM-DD"}
		}
	}
	if c.PageSize <= 0 {
		c.PageSize = DefaultPageSize
	}
	if c.PageSize > MaxPageSize {
		c.PageSize = MaxPageSize
	}
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	return nil
}

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}
