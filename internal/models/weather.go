package models

import "time"

// Location is a DataPoint forecast site.
type Location struct {
	ID          int          `json:"id"`
	Name        string       `json:"name"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
	Elevation   *float64     `json:"elevation,omitempty"` // metres
	Region      string       `json:"region,omitempty"`
	Area        string       `json:"area,omitempty"` // unitary authority
}

// Coordinates is a WGS84 position.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// ForecastDay is one calendar day of a site forecast. Periods are in the order
// the provider returned them (chronological for 3-hourly data).
type ForecastDay struct {
	Date    time.Time `json:"date"`
	Periods []Period  `json:"periods"`
}

// Period is a single intra-day forecast reading.
type Period struct {
	Offset                   time.Duration `json:"offset"` // since midnight UTC
	Time                     time.Time     `json:"time"`
	Temperature              float64       `json:"temperature"` // Celsius
	FeelsLike                float64       `json:"feelsLike"`   // Celsius
	WindSpeed                int           `json:"windSpeed"`   // mph
	WindGust                 int           `json:"windGust"`    // mph, 0 when not reported
	WindDirection            string        `json:"windDirection"`
	Humidity                 int           `json:"humidity"`                 // percent
	PrecipitationProbability int           `json:"precipitationProbability"` // percent
	WeatherType              WeatherType   `json:"weatherType"`
	Visibility               string        `json:"visibility,omitempty"`
	UVIndex                  int           `json:"uvIndex"`
}
