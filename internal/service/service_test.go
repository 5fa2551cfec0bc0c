package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kjstillabower/weather-uk/internal/cache"
	"github.com/kjstillabower/weather-uk/internal/client"
	"github.com/kjstillabower/weather-uk/internal/models"
	"github.com/kjstillabower/weather-uk/internal/testhelpers"
)

type mockWeatherClient struct {
	validKey  string
	apiKey    string
	keysSeen  []string
	locations []models.Location
	forecast  []models.ForecastDay
	listErr   error
	fcErr     error

	listCalls     int
	forecastCalls int
}

func (m *mockWeatherClient) SetAPIKey(key string) {
	m.apiKey = key
	m.keysSeen = append(m.keysSeen, key)
}

func (m *mockWeatherClient) Authenticate(ctx context.Context) error {
	if m.apiKey == "" || m.apiKey != m.validKey {
		return client.ErrAuthentication
	}
	return nil
}

func (m *mockWeatherClient) ListLocations(ctx context.Context) ([]models.Location, error) {
	m.listCalls++
	return m.locations, m.listErr
}

func (m *mockWeatherClient) GetForecast(ctx context.Context, locationID int) ([]models.ForecastDay, error) {
	m.forecastCalls++
	return m.forecast, m.fcErr
}

type mockCache struct {
	data   map[string][]models.Location
	getErr error
	setErr error
	sets   int
}

func (m *mockCache) Get(ctx context.Context, key string) ([]models.Location, bool, error) {
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	val, ok := m.data[key]
	return val, ok, nil
}

func (m *mockCache) Set(ctx context.Context, key string, value []models.Location, ttl time.Duration) error {
	m.sets++
	if m.setErr != nil {
		return m.setErr
	}
	if m.data == nil {
		m.data = make(map[string][]models.Location)
	}
	m.data[key] = value
	return nil
}

func TestNormalizeQuery(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"trim and lower", " Exeter ", "exeter"},
		{"already normalized", "exeter", "exeter"},
		{"mixed case", "ExEtEr", "exeter"},
		{"with spaces", "  Carlisle Airport  ", "carlisle airport"},
		{"blank", "   ", ""},
		{"accents", "Ynys Môn", "ynys mon"},
		{"welsh w", "Llŷn", "llyn"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := normalizeQuery(tc.in); got != tc.want {
				t.Fatalf("normalizeQuery(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestForecastService_ConfigureAPIKey_Success(t *testing.T) {
	mc := &mockWeatherClient{validKey: "good"}
	svc := NewForecastService(mc, "", nil, time.Hour, nil)
	if svc.HasAPIKey() {
		t.Fatal("HasAPIKey() = true before configuring")
	}

	if err := svc.ConfigureAPIKey(context.Background(), "good"); err != nil {
		t.Fatalf("ConfigureAPIKey() error = %v", err)
	}
	if !svc.HasAPIKey() {
		t.Error("HasAPIKey() = false after configuring")
	}
	if mc.apiKey != "good" {
		t.Errorf("client key = %q, want good", mc.apiKey)
	}
}

func TestForecastService_ConfigureAPIKey_RestoresPreviousKey(t *testing.T) {
	mc := &mockWeatherClient{validKey: "old"}
	svc := NewForecastService(mc, "old", nil, time.Hour, nil)

	err := svc.ConfigureAPIKey(context.Background(), "typo")
	if !errors.Is(err, client.ErrAuthentication) {
		t.Fatalf("ConfigureAPIKey() error = %v, want ErrAuthentication", err)
	}
	if mc.apiKey != "old" {
		t.Errorf("client key = %q, want previous key restored", mc.apiKey)
	}
	if err := svc.Authenticate(context.Background()); err != nil {
		t.Errorf("Authenticate() after failed configure = %v, want nil", err)
	}
}

func TestForecastService_Locations_CacheHit(t *testing.T) {
	cached := testhelpers.SampleLocations()
	mc := &mockWeatherClient{}
	c := &mockCache{data: map[string][]models.Location{cache.SiteListKey: cached}}
	svc := NewForecastService(mc, "k", c, time.Hour, nil)

	got, err := svc.Locations(context.Background())
	if err != nil {
		t.Fatalf("Locations() error = %v", err)
	}
	if len(got) != len(cached) {
		t.Errorf("len = %d, want %d", len(got), len(cached))
	}
	if mc.listCalls != 0 {
		t.Errorf("ListLocations called %d times on cache hit, want 0", mc.listCalls)
	}
}

func TestForecastService_Locations_CacheMissPopulatesCache(t *testing.T) {
	mc := &mockWeatherClient{locations: testhelpers.SampleLocations()}
	c := &mockCache{}
	svc := NewForecastService(mc, "k", c, time.Hour, nil)

	for i := 0; i < 2; i++ {
		if _, err := svc.Locations(context.Background()); err != nil {
			t.Fatalf("Locations() error = %v", err)
		}
	}
	if mc.listCalls != 1 {
		t.Errorf("ListLocations calls = %d, want 1", mc.listCalls)
	}
	if c.sets != 1 {
		t.Errorf("cache sets = %d, want 1", c.sets)
	}
}

func TestForecastService_Locations_NoCache(t *testing.T) {
	mc := &mockWeatherClient{locations: testhelpers.SampleLocations()}
	svc := NewForecastService(mc, "k", nil, time.Hour, nil)

	for i := 0; i < 2; i++ {
		if _, err := svc.Locations(context.Background()); err != nil {
			t.Fatalf("Locations() error = %v", err)
		}
	}
	if mc.listCalls != 2 {
		t.Errorf("ListLocations calls = %d, want 2 without cache", mc.listCalls)
	}
}

func TestForecastService_Locations_CacheErrorsAreNotFatal(t *testing.T) {
	mc := &mockWeatherClient{locations: testhelpers.SampleLocations()}
	c := &mockCache{getErr: errors.New("memcache: connection refused"), setErr: errors.New("i/o timeout")}
	svc := NewForecastService(mc, "k", c, time.Hour, nil)

	got, err := svc.Locations(context.Background())
	if err != nil {
		t.Fatalf("Locations() error = %v, want nil despite cache errors", err)
	}
	if len(got) != 4 {
		t.Errorf("len = %d, want 4", len(got))
	}
}

func TestForecastService_Locations_UpstreamFailure(t *testing.T) {
	mc := &mockWeatherClient{listErr: client.ErrTimeout}
	c := &mockCache{}
	svc := NewForecastService(mc, "k", c, time.Hour, nil)

	_, err := svc.Locations(context.Background())
	if !errors.Is(err, client.ErrTimeout) {
		t.Fatalf("Locations() error = %v, want ErrTimeout", err)
	}
	if c.sets != 0 {
		t.Errorf("cache sets = %d, want 0 after failure", c.sets)
	}
}

func TestForecastService_SearchLocations(t *testing.T) {
	mc := &mockWeatherClient{locations: testhelpers.SampleLocations()}
	svc := NewForecastService(mc, "k", cache.NewInMemoryCache(), time.Hour, nil)

	tests := []struct {
		query string
		want  []int
	}{
		{"", []int{3066, 310069, 14, 352409}},
		{"ex", []int{310069}},
		{"DEVON", []int{310069}},
		{" air ", []int{14}},
		{"on", []int{310069, 352409}},
		{"westminster", []int{352409}},
		{"nowhere", []int{}},
		{"Kinlòss", []int{3066}},
	}
	for _, tc := range tests {
		t.Run(tc.query, func(t *testing.T) {
			got, err := svc.SearchLocations(context.Background(), tc.query)
			if err != nil {
				t.Fatalf("SearchLocations() error = %v", err)
			}
			if got == nil {
				t.Fatal("SearchLocations() returned nil, want empty slice")
			}
			if len(got) != len(tc.want) {
				t.Fatalf("SearchLocations(%q) = %d sites, want %d", tc.query, len(got), len(tc.want))
			}
			for i, id := range tc.want {
				if got[i].ID != id {
					t.Errorf("result[%d].ID = %d, want %d", i, got[i].ID, id)
				}
			}
		})
	}
}

func TestForecastService_FindLocation(t *testing.T) {
	mc := &mockWeatherClient{locations: testhelpers.SampleLocations()}
	svc := NewForecastService(mc, "k", nil, time.Hour, nil)

	got, err := svc.FindLocation(context.Background(), 14)
	if err != nil {
		t.Fatalf("FindLocation() error = %v", err)
	}
	if got.Name != "Carlisle Airport" {
		t.Errorf("Name = %q, want Carlisle Airport", got.Name)
	}

	if _, err := svc.FindLocation(context.Background(), 999); !errors.Is(err, ErrLocationNotFound) {
		t.Errorf("FindLocation(999) error = %v, want ErrLocationNotFound", err)
	}
}

func TestForecastService_CachedLocation(t *testing.T) {
	mc := &mockWeatherClient{locations: testhelpers.SampleLocations()}
	ctx := context.Background()

	t.Run("no cache", func(t *testing.T) {
		svc := NewForecastService(mc, "k", nil, time.Hour, nil)
		if got := svc.CachedLocation(ctx, 14); got.ID != 14 || got.Name != "" {
			t.Errorf("CachedLocation() = %+v, want id only", got)
		}
	})

	t.Run("cold cache", func(t *testing.T) {
		svc := NewForecastService(mc, "k", &mockCache{}, time.Hour, nil)
		if got := svc.CachedLocation(ctx, 14); got.Name != "" {
			t.Errorf("CachedLocation() = %+v, want id only", got)
		}
	})

	t.Run("cache error", func(t *testing.T) {
		svc := NewForecastService(mc, "k", &mockCache{getErr: errors.New("i/o timeout")}, time.Hour, nil)
		if got := svc.CachedLocation(ctx, 14); got.ID != 14 {
			t.Errorf("CachedLocation() = %+v", got)
		}
	})

	t.Run("warm cache", func(t *testing.T) {
		c := &mockCache{data: map[string][]models.Location{cache.SiteListKey: testhelpers.SampleLocations()}}
		svc := NewForecastService(mc, "k", c, time.Hour, nil)
		if got := svc.CachedLocation(ctx, 14); got.Name != "Carlisle Airport" {
			t.Errorf("CachedLocation() = %+v, want Carlisle Airport", got)
		}
		if got := svc.CachedLocation(ctx, 999); got.ID != 999 || got.Name != "" {
			t.Errorf("CachedLocation(999) = %+v, want id only", got)
		}
	})

	if mc.listCalls != 0 {
		t.Errorf("ListLocations called %d times, want 0", mc.listCalls)
	}
}

func TestForecastService_Forecast_NeverCached(t *testing.T) {
	days := testhelpers.SampleForecast(time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC))
	mc := &mockWeatherClient{forecast: days}
	svc := NewForecastService(mc, "k", cache.NewInMemoryCache(), time.Hour, nil)

	for i := 0; i < 3; i++ {
		got, err := svc.Forecast(context.Background(), 3066)
		if err != nil {
			t.Fatalf("Forecast() error = %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("days = %d, want 2", len(got))
		}
	}
	if mc.forecastCalls != 3 {
		t.Errorf("GetForecast calls = %d, want 3", mc.forecastCalls)
	}
}

func TestForecastService_Forecast_RemoteError(t *testing.T) {
	mc := &mockWeatherClient{fcErr: &client.RemoteError{StatusCode: 404, Resource: "val/wxfcs/all/json/1"}}
	svc := NewForecastService(mc, "k", nil, time.Hour, nil)

	_, err := svc.Forecast(context.Background(), 1)
	var re *client.RemoteError
	if !errors.As(err, &re) || re.StatusCode != 404 {
		t.Fatalf("Forecast() error = %v, want RemoteError 404", err)
	}
}

// TestForecastService_WithFakeDataPoint runs the real client against the fake
// server: the second site list read is a cache hit, forecasts always go out.
func TestForecastService_WithFakeDataPoint(t *testing.T) {
	fake := testhelpers.NewFakeDataPoint(testhelpers.TestAPIKey)
	defer fake.Close()

	c := client.NewMetOfficeClient("", client.WithBaseURL(fake.BaseURL()), client.WithRateLimit(0, 0))
	defer c.Close()
	svc := NewForecastService(c, "", cache.NewInMemoryCache(), time.Hour, nil)

	ctx := context.Background()
	if err := svc.ConfigureAPIKey(ctx, "00000000-0000-0000-0000-000000000000"); !errors.Is(err, client.ErrAuthentication) {
		t.Fatalf("ConfigureAPIKey(wrong) error = %v, want ErrAuthentication", err)
	}
	if err := svc.ConfigureAPIKey(ctx, testhelpers.TestAPIKey); err != nil {
		t.Fatalf("ConfigureAPIKey() error = %v", err)
	}

	if _, err := svc.SearchLocations(ctx, "exeter"); err != nil {
		t.Fatalf("SearchLocations() error = %v", err)
	}
	loc, err := svc.FindLocation(ctx, 310069)
	if err != nil {
		t.Fatalf("FindLocation() error = %v", err)
	}
	if _, err := svc.Forecast(ctx, loc.ID); err != nil {
		t.Fatalf("Forecast() error = %v", err)
	}
	if _, err := svc.Forecast(ctx, loc.ID); err != nil {
		t.Fatalf("Forecast() error = %v", err)
	}

	if n := fake.RequestCount("/sitelist"); n != 1 {
		t.Errorf("sitelist requests = %d, want 1", n)
	}
	if n := fake.RequestCount("/310069"); n != 2 {
		t.Errorf("forecast requests = %d, want 2", n)
	}
}
