//go:build integration
// +build integration

package testhelpers

import (
	"os"
	"testing"
)

// IntegrationTestConfig holds configuration for tests against live DataPoint.
type IntegrationTestConfig struct {
	APIKey        string
	APIURL        string
	CacheBackend  string // "in_memory" or "memcached"
	MemcachedAddr string
}

// GetIntegrationConfig loads integration test configuration from environment.
// Skips test if DATAPOINT_API_KEY is not set.
func GetIntegrationConfig(t *testing.T) IntegrationTestConfig {
	t.Helper()
	apiKey := os.Getenv("DATAPOINT_API_KEY")
	if apiKey == "" {
		t.Skip("DATAPOINT_API_KEY not set, skipping integration test")
	}

	apiURL := os.Getenv("DATAPOINT_URL")
	if apiURL == "" {
		apiURL = "http://datapoint.metoffice.gov.uk/public/data/"
	}

	cacheBackend := os.Getenv("INTEGRATION_CACHE_BACKEND")
	memcachedAddr := os.Getenv("MEMCACHED_ADDRS")
	if memcachedAddr == "" {
		memcachedAddr = "localhost:11211"
	}

	return IntegrationTestConfig{
		APIKey:        apiKey,
		APIURL:        apiURL,
		CacheBackend:  cacheBackend,
		MemcachedAddr: memcachedAddr,
	}
}
