package harvest

import "github.com/nucleus/harvest-core/internal/endpoint"

// init registers the Harvest factory with the global registry.
func init() {
	endpoint.DefaultRegistry().Register("http.harvest", func(config map[string]any) (endpoint.Endpoint, error) {
		cfg := &Config{
			AccountID:            getString(config, "accountId", ""),
			AccessToken:          getString(config, "accessToken", ""),
			ReplicationStartDate: getString(config, "replicationStartDate", ""),
			ReportsFromDate:      getString(config, "reportsFromDate", ""),
			PageSize:             getInt(config, "pageSize", DefaultPageSize),
			BaseURL:              getString(config, "baseUrl", ""),
		}
		return New(cfg)
	})
}

// --- Config Helpers ---

func getString(m map[string]any, key, defaultVal string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return defaultVal
}

func getInt(m map[string]any, key string, defaultVal int) int {
	switch v := m[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return defaultVal
}
