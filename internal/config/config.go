// Package config provides configuration loading for sync runs.
package config

import (
	"os"
	"strconv"
	"strings"
)

// SyncConfig holds everything one harvest-sync run needs.
type SyncConfig struct {
	// Source settings
	AccountID            string
	AccessToken          string
	ReplicationStartDate string
	ReportsFromDate      string
	PageSize             int

	// Streams to sync; empty means the whole catalog.
	Streams []string

	// BatchSize is the number of records per sink part.
	BatchSize int

	// StateDSN is a Postgres connection string for checkpoints; empty keeps
	// state in memory for the duration of the run.
	StateDSN string

	// Sink settings
	SinkBucket    string
	SinkPrefix    string
	SinkFormat    string
	SinkLocalRoot string

	// S3 settings; empty endpoint selects the local filesystem store.
	S3EndpointURL     string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3Region          string
	S3UseSSL          bool
}

// LoadSyncConfig loads configuration from environment.
func LoadSyncConfig() *SyncConfig {
	return &SyncConfig{
		AccountID:            getEnv("HARVEST_ACCOUNT_ID", ""),
		AccessToken:          getEnv("HARVEST_ACCESS_TOKEN", ""),
		ReplicationStartDate: getEnv("HARVEST_REPLICATION_START_DATE", ""),
		ReportsFromDate:      getEnv("HARVEST_REPORTS_FROM_DATE", ""),
		PageSize:             getEnvInt("HARVEST_PAGE_SIZE", 0),
		Streams:              getEnvList("HARVEST_STREAMS"),
		BatchSize:            getEnvInt("HARVEST_BATCH_SIZE", 500),
		StateDSN:             getEnv("HARVEST_STATE_DSN", ""),
		SinkBucket:           getEnv("HARVEST_SINK_BUCKET", "harvest-sink"),
		SinkPrefix:           getEnv("HARVEST_SINK_PREFIX", "raw"),
		SinkFormat:           getEnv("HARVEST_SINK_FORMAT", "jsonl"),
		SinkLocalRoot:        getEnv("HARVEST_SINK_LOCAL_ROOT", ""),
		S3EndpointURL:        getEnv("HARVEST_S3_ENDPOINT_URL", ""),
		S3AccessKeyID:        getEnv("HARVEST_S3_ACCESS_KEY_ID", ""),
		S3SecretAccessKey:    getEnv("HARVEST_S3_SECRET_ACCESS_KEY", ""),
		S3Region:             getEnv("HARVEST_S3_REGION", ""),
		S3UseSSL:             getEnvBool("HARVEST_S3_USE_SSL", false),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func getEnvList(key string) []string {
	val := os.Getenv(key)
	if val == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
