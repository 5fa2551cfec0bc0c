//go:build integration
// +build integration

package client

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kjstillabower/weather-uk/internal/testhelpers"
)

// TestIntegration_LiveDataPoint walks the three operations against the real
// service: authenticate, list sites, then fetch a forecast for the first site.
func TestIntegration_LiveDataPoint(t *testing.T) {
	cfg := testhelpers.GetIntegrationConfig(t)
	c := NewMetOfficeClient(cfg.APIKey, WithBaseURL(cfg.APIURL), WithTimeout(30*time.Second))
	defer c.Close()
	ctx := context.Background()

	if err := c.Authenticate(ctx); err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}

	locs, err := c.ListLocations(ctx)
	if err != nil {
		t.Fatalf("ListLocations() error = %v", err)
	}
	if len(locs) == 0 {
		t.Fatal("ListLocations() returned no sites")
	}

	days, err := c.GetForecast(ctx, locs[0].ID)
	if err != nil {
		t.Fatalf("GetForecast(%d) error = %v", locs[0].ID, err)
	}
	if len(days) == 0 || len(days[0].Periods) == 0 {
		t.Errorf("GetForecast(%d) returned no periods", locs[0].ID)
	}
}

func TestIntegration_WrongKey(t *testing.T) {
	cfg := testhelpers.GetIntegrationConfig(t)
	c := NewMetOfficeClient("00000000-0000-0000-0000-000000000000", WithBaseURL(cfg.APIURL), WithTimeout(30*time.Second))
	defer c.Close()

	if err := c.Authenticate(context.Background()); !errors.Is(err, ErrAuthentication) {
		t.Fatalf("Authenticate() error = %v, want ErrAuthentication", err)
	}
}
