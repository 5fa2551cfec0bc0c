package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/kjstillabower/weather-uk/internal/cache"
	"github.com/kjstillabower/weather-uk/internal/client"
	"github.com/kjstillabower/weather-uk/internal/models"
	"github.com/kjstillabower/weather-uk/internal/observability"
)

// ErrLocationNotFound is returned by FindLocation when no site has the id.
var ErrLocationNotFound = errors.New("location not found")

// ForecastService orchestrates DataPoint access for the app: it owns the API
// key, serves the site list cache-aside and always fetches forecasts fresh.
type ForecastService struct {
	client client.WeatherClient
	cache  cache.Cache // nil disables caching
	ttl    time.Duration
	apiKey string
	logger *zap.Logger
}

// NewForecastService creates a ForecastService and hands apiKey to the client.
// A nil cache disables site list caching; a nil logger discards logs.
func NewForecastService(c client.WeatherClient, apiKey string, siteCache cache.Cache, ttl time.Duration, logger *zap.Logger) *ForecastService {
	if logger == nil {
		logger = zap.NewNop()
	}
	c.SetAPIKey(apiKey)
	return &ForecastService{
		client: c,
		cache:  siteCache,
		ttl:    ttl,
		apiKey: apiKey,
		logger: logger,
	}
}

// HasAPIKey reports whether a key is configured. It says nothing about validity.
func (s *ForecastService) HasAPIKey() bool {
	return s.apiKey != ""
}

// Authenticate checks the configured key with DataPoint.
func (s *ForecastService) Authenticate(ctx context.Context) error {
	if err := s.client.Authenticate(ctx); err != nil {
		return fmt.Errorf("authenticate: %w", err)
	}
	return nil
}

// ConfigureAPIKey switches to key and authenticates with it. On failure the
// previous key is restored, so a typo never locks the user out of a working key.
func (s *ForecastService) ConfigureAPIKey(ctx context.Context, key string) error {
	previous := s.apiKey
	s.client.SetAPIKey(key)
	if err := s.client.Authenticate(ctx); err != nil {
		s.client.SetAPIKey(previous)
		s.logger.Info("api key rejected", zap.String("category", string(client.CategorizeError(err))))
		return fmt.Errorf("configure api key: %w", err)
	}
	s.apiKey = key
	s.logger.Info("api key configured")
	return nil
}

// Locations returns the DataPoint site list in provider order, from cache when
// possible. Cache failures are logged and counted, never returned.
func (s *ForecastService) Locations(ctx context.Context) ([]models.Location, error) {
	start := time.Now()
	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, cache.SiteListKey)
		if err != nil {
			observability.LocationCacheErrorsTotal.WithLabelValues("get", categorizeCacheError(err)).Inc()
			s.logger.Warn("cache get failed", zap.Error(err))
		} else if ok {
			observability.LocationCacheHitsTotal.Inc()
			s.logger.Debug("locations served", zap.Bool("cached", true), zap.Int("count", len(cached)), zap.Duration("duration", time.Since(start)))
			return cached, nil
		}
	}

	locs, err := s.client.ListLocations(ctx)
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cache.SiteListKey, locs, s.ttl); err != nil {
			observability.LocationCacheErrorsTotal.WithLabelValues("set", categorizeCacheError(err)).Inc()
			s.logger.Warn("cache set failed", zap.Error(err))
		}
	}
	s.logger.Debug("locations served", zap.Bool("cached", false), zap.Int("count", len(locs)), zap.Duration("duration", time.Since(start)))
	return locs, nil
}

// SearchLocations returns sites whose name or area contains query, ignoring
// case and accents ("mon" finds "Ynys Môn"). An empty query returns every site.
func (s *ForecastService) SearchLocations(ctx context.Context, query string) ([]models.Location, error) {
	locs, err := s.Locations(ctx)
	if err != nil {
		return nil, err
	}
	q := normalizeQuery(query)
	if q == "" {
		return locs, nil
	}
	matches := make([]models.Location, 0)
	for _, l := range locs {
		if strings.Contains(normalizeQuery(l.Name), q) || strings.Contains(normalizeQuery(l.Area), q) {
			matches = append(matches, l)
		}
	}
	return matches, nil
}

// FindLocation returns the site with the given id.
func (s *ForecastService) FindLocation(ctx context.Context, id int) (models.Location, error) {
	locs, err := s.Locations(ctx)
	if err != nil {
		return models.Location{}, err
	}
	for _, l := range locs {
		if l.ID == id {
			return l, nil
		}
	}
	return models.Location{}, fmt.Errorf("%w: %d", ErrLocationNotFound, id)
}

// CachedLocation returns the site with id from the cached site list without
// fetching it. A miss, or a disabled cache, gives a Location with only ID set.
func (s *ForecastService) CachedLocation(ctx context.Context, id int) models.Location {
	if s.cache == nil {
		return models.Location{ID: id}
	}
	locs, ok, err := s.cache.Get(ctx, cache.SiteListKey)
	if err != nil {
		observability.LocationCacheErrorsTotal.WithLabelValues("get", categorizeCacheError(err)).Inc()
		s.logger.Warn("cache get failed", zap.Error(err))
	}
	if ok {
		for _, l := range locs {
			if l.ID == id {
				return l
			}
		}
	}
	return models.Location{ID: id}
}

// Forecast fetches the 3-hourly forecast for a site. Forecasts are never cached.
func (s *ForecastService) Forecast(ctx context.Context, id int) ([]models.ForecastDay, error) {
	start := time.Now()
	days, err := s.client.GetForecast(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("forecast for %d: %w", id, err)
	}
	s.logger.Debug("forecast served", zap.Int("location_id", id), zap.Int("days", len(days)), zap.Duration("duration", time.Since(start)))
	return days, nil
}

// categorizeCacheError returns a stable label for cache error metrics (timeout, connection, unknown).
func categorizeCacheError(err error) string {
	if err == nil {
		return "unknown"
	}
	errStr := err.Error()
	if strings.Contains(errStr, "timeout") {
		return "timeout"
	}
	if strings.Contains(errStr, "connection") || strings.Contains(errStr, "network") {
		return "connection"
	}
	return "unknown"
}

// normalizeQuery trims whitespace, strips combining marks and lowercases.
func normalizeQuery(query string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, strings.TrimSpace(query))
	if err != nil {
		folded = strings.TrimSpace(query)
	}
	return strings.ToLower(folded)
}
