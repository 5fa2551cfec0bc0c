package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kjstillabower/weather-uk/internal/datapoint"
	"github.com/kjstillabower/weather-uk/internal/models"
	"github.com/kjstillabower/weather-uk/internal/observability"
)

// WeatherClient is the capability set of a forecast provider.
type WeatherClient interface {
	SetAPIKey(key string)
	Authenticate(ctx context.Context) error
	ListLocations(ctx context.Context) ([]models.Location, error)
	GetForecast(ctx context.Context, locationID int) ([]models.ForecastDay, error)
}

const (
	// DefaultBaseURL is the public DataPoint endpoint. It is plain HTTP.
	DefaultBaseURL = "http://datapoint.metoffice.gov.uk/public/data/"
	// DefaultTimeout bounds each request, including the rate limiter wait.
	DefaultTimeout = 10 * time.Second

	dataType   = "json"
	tracerName = "github.com/kjstillabower/weather-uk/internal/client"
)

const (
	opAuthenticate  = "authenticate"
	opListLocations = "list_locations"
	opGetForecast   = "get_forecast"
)

// MetOfficeClient talks to Met Office DataPoint. It issues one synchronous
// request at a time and is not safe for concurrent use with SetAPIKey.
type MetOfficeClient struct {
	apiKey  string
	baseURL string
	timeout time.Duration
	client  *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
	tracer  trace.Tracer
}

var _ WeatherClient = (*MetOfficeClient)(nil)

// Option configures a MetOfficeClient.
type Option func(*MetOfficeClient)

// WithBaseURL overrides DefaultBaseURL. A trailing slash is added if missing.
func WithBaseURL(u string) Option {
	return func(c *MetOfficeClient) {
		if u == "" {
			return
		}
		if u[len(u)-1] != '/' {
			u += "/"
		}
		c.baseURL = u
	}
}

// WithTimeout sets the per-request deadline.
func WithTimeout(d time.Duration) Option {
	return func(c *MetOfficeClient) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithRateLimit caps requests at perMinute with the given burst. Zero disables it.
func WithRateLimit(perMinute, burst int) Option {
	return func(c *MetOfficeClient) {
		if perMinute <= 0 {
			c.limiter = nil
			return
		}
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), burst)
	}
}

// WithLogger sets the request logger. The API key is never logged.
func WithLogger(l *zap.Logger) Option {
	return func(c *MetOfficeClient) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithHTTPClient replaces the HTTP session, e.g. for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *MetOfficeClient) {
		c.client = hc
	}
}

// WithTracerProvider overrides the global tracer provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *MetOfficeClient) {
		if tp != nil {
			c.tracer = tp.Tracer(tracerName)
		}
	}
}

// NewMetOfficeClient creates a client holding apiKey, which may be empty until
// SetAPIKey is called. Call Close when done with it.
func NewMetOfficeClient(apiKey string, opts ...Option) *MetOfficeClient {
	c := &MetOfficeClient{
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		timeout: DefaultTimeout,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.client == nil {
		c.client = &http.Client{Timeout: c.timeout}
	}
	if c.tracer == nil {
		c.tracer = otel.Tracer(tracerName)
	}
	return c
}

// SetAPIKey replaces the stored API key.
func (c *MetOfficeClient) SetAPIKey(key string) {
	c.apiKey = key
}

// Close releases idle connections held by the HTTP session.
func (c *MetOfficeClient) Close() {
	c.client.CloseIdleConnections()
}

// Authenticate checks the API key against the cheap capabilities resource.
func (c *MetOfficeClient) Authenticate(ctx context.Context) (err error) {
	ctx, span := c.tracer.Start(ctx, "datapoint."+opAuthenticate)
	defer func() { c.finish(span, err) }()

	_, err = c.request(ctx, opAuthenticate, "txt/wxfcs/regionalforecast/json/capabilities", "")
	return err
}

// ListLocations returns every forecast site in provider order.
func (c *MetOfficeClient) ListLocations(ctx context.Context) (locs []models.Location, err error) {
	ctx, span := c.tracer.Start(ctx, "datapoint."+opListLocations)
	defer func() { c.finish(span, err) }()

	resource := fmt.Sprintf("val/wxfcs/all/%s/sitelist", dataType)
	body, err := c.request(ctx, opListLocations, resource, "")
	if err != nil {
		return nil, err
	}
	locs, err = datapoint.DecodeLocations(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDecode, resource, err)
	}

	observability.DecodedLocations.Set(float64(len(locs)))
	span.SetAttributes(attribute.Int("datapoint.locations", len(locs)))
	return locs, nil
}

// GetForecast returns the 3-hourly forecast for a site id obtained from
// ListLocations. Unknown ids are reported by the provider, typically as a
// *RemoteError.
func (c *MetOfficeClient) GetForecast(ctx context.Context, locationID int) (days []models.ForecastDay, err error) {
	ctx, span := c.tracer.Start(ctx, "datapoint."+opGetForecast,
		trace.WithAttributes(attribute.Int("datapoint.location_id", locationID)))
	defer func() { c.finish(span, err) }()

	resource := fmt.Sprintf("val/wxfcs/all/%s/%d", dataType, locationID)
	body, err := c.request(ctx, opGetForecast, resource, "res=3hourly&")
	if err != nil {
		return nil, err
	}
	days, err = datapoint.DecodeForecast(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDecode, resource, err)
	}

	span.SetAttributes(attribute.Int("datapoint.days", len(days)))
	return days, nil
}

// request performs one GET and returns the body of a 2xx response. query is
// empty or ends in "&"; the key parameter is always last.
func (c *MetOfficeClient) request(ctx context.Context, op, resource, query string) ([]byte, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("%w: API key is not set", ErrAuthentication)
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if c.limiter != nil {
		if err := c.limiter.Wait(reqCtx); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil, transportError(resource, err)
			}
			return nil, fmt.Errorf("%w: %s: rate limit wait: %w", ErrTimeout, resource, err)
		}
	}

	req, err := c.buildRequest(reqCtx, resource, query)
	if err != nil {
		return nil, err
	}

	requestID := uuid.NewString()
	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.observe(op, "error", start)
		err = transportError(resource, err)
		c.logger.Debug("datapoint request failed",
			zap.String("request_id", requestID),
			zap.String("operation", op),
			zap.String("resource", resource),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return nil, err
	}
	defer resp.Body.Close()

	c.observe(op, observability.StatusLabel(resp.StatusCode), start)
	trace.SpanFromContext(ctx).SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	c.logger.Debug("datapoint response",
		zap.String("request_id", requestID),
		zap.String("operation", op),
		zap.String("resource", resource),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if err := statusError(resource, resp.StatusCode); err != nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(resource, err)
	}
	return body, nil
}

func (c *MetOfficeClient) buildRequest(ctx context.Context, resource, query string) (*http.Request, error) {
	u, err := url.Parse(c.baseURL + resource)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid base URL: %w", ErrTransport, err)
	}
	u.RawQuery = query + "key=" + url.QueryEscape(c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create request for %s", ErrTransport, resource)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *MetOfficeClient) observe(op, status string, start time.Time) {
	observability.DatapointRequestsTotal.WithLabelValues(op, status).Inc()
	observability.DatapointRequestDuration.WithLabelValues(op, status).Observe(time.Since(start).Seconds())
}

// finish records the outcome of an operation on its span and error metrics.
func (c *MetOfficeClient) finish(span trace.Span, err error) {
	if err != nil {
		category := CategorizeError(err)
		observability.DatapointErrorsTotal.WithLabelValues(string(category)).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, string(category))
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
