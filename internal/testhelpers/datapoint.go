package testhelpers

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/kjstillabower/weather-uk/internal/datapoint"
	"github.com/kjstillabower/weather-uk/internal/models"
)

const pathPrefix = "/public/data"

// RequestRecord is a request seen by FakeDataPoint.
type RequestRecord struct {
	Path     string
	RawQuery string
}

type cannedResponse struct {
	status int
	body   []byte
}

// FakeDataPoint is an in-process DataPoint server serving Locations and
// Forecasts. Requests without the expected key get 403, unknown site ids 404.
type FakeDataPoint struct {
	Server *httptest.Server
	APIKey string

	mu        sync.Mutex
	locations []models.Location
	forecasts map[int][]models.ForecastDay
	canned    map[string]cannedResponse
	requests  []RequestRecord
}

// NewFakeDataPoint starts a server seeded with SampleLocations and a forecast
// for each of them. Call Close when done.
func NewFakeDataPoint(apiKey string) *FakeDataPoint {
	f := &FakeDataPoint{
		APIKey:    apiKey,
		locations: SampleLocations(),
		forecasts: make(map[int][]models.ForecastDay),
		canned:    make(map[string]cannedResponse),
	}
	for _, l := range f.locations {
		f.forecasts[l.ID] = SampleForecast(time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC))
	}

	r := mux.NewRouter()
	api := r.PathPrefix(pathPrefix).Subrouter()
	api.Use(f.record, f.cannedMiddleware, f.auth)
	api.HandleFunc("/txt/wxfcs/regionalforecast/{format}/capabilities", f.capabilities).Methods(http.MethodGet)
	api.HandleFunc("/val/wxfcs/all/{format}/sitelist", f.siteList).Methods(http.MethodGet)
	api.HandleFunc("/val/wxfcs/all/{format}/{id:[0-9]+}", f.forecast).Methods(http.MethodGet)

	f.Server = httptest.NewServer(r)
	return f
}

// BaseURL is the value to pass to client.WithBaseURL.
func (f *FakeDataPoint) BaseURL() string {
	return f.Server.URL + pathPrefix + "/"
}

// Close shuts the server down.
func (f *FakeDataPoint) Close() {
	f.Server.Close()
}

// SetLocations replaces the site list.
func (f *FakeDataPoint) SetLocations(locs []models.Location) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.locations = locs
}

// SetForecast replaces the forecast for a site id.
func (f *FakeDataPoint) SetForecast(id int, days []models.ForecastDay) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.forecasts[id] = days
}

// SetResponse makes resource (e.g. "val/wxfcs/all/json/sitelist") answer with
// status and body regardless of the key.
func (f *FakeDataPoint) SetResponse(resource string, status int, body []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.canned[pathPrefix+"/"+strings.TrimPrefix(resource, "/")] = cannedResponse{status: status, body: body}
}

// Requests returns the requests received so far.
func (f *FakeDataPoint) Requests() []RequestRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]RequestRecord(nil), f.requests...)
}

// RequestCount returns the number of requests whose path ends in suffix.
func (f *FakeDataPoint) RequestCount(suffix string) int {
	n := 0
	for _, r := range f.Requests() {
		if strings.HasSuffix(r.Path, suffix) {
			n++
		}
	}
	return n
}

func (f *FakeDataPoint) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.requests = append(f.requests, RequestRecord{Path: r.URL.Path, RawQuery: r.URL.RawQuery})
		f.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (f *FakeDataPoint) cannedMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		resp, ok := f.canned[r.URL.Path]
		f.mu.Unlock()
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(resp.status)
		_, _ = w.Write(resp.body)
	})
}

func (f *FakeDataPoint) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != f.APIKey {
			http.Error(w, "Invalid key", http.StatusForbidden)
			return
		}
		if mux.Vars(r)["format"] != "json" {
			http.Error(w, "unsupported format", http.StatusBadRequest)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (f *FakeDataPoint) capabilities(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, []byte(`{"RegionalFcst":{"issuedAt":"2024-03-05T04:00:00"}}`))
}

func (f *FakeDataPoint) siteList(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	locs := f.locations
	f.mu.Unlock()

	body, err := datapoint.EncodeLocations(locs)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, body)
}

func (f *FakeDataPoint) forecast(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("res") != "3hourly" {
		http.Error(w, "unsupported resolution", http.StatusBadRequest)
		return
	}
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "bad id", http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	days, ok := f.forecasts[id]
	var site models.Location
	for _, l := range f.locations {
		if l.ID == id {
			site = l
		}
	}
	f.mu.Unlock()
	if !ok {
		http.NotFound(w, r)
		return
	}

	body, err := datapoint.EncodeForecast(site, days)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, body)
}

func writeJSON(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
