package testhelpers

import (
	"time"

	"github.com/kjstillabower/weather-uk/internal/models"
)

// TestAPIKey is a well-formed DataPoint key for fakes.
const TestAPIKey = "01234567-89ab-cdef-0123-456789abcdef"

func float64Ptr(f float64) *float64 { return &f }

// SampleLocations returns a small site list in provider (unsorted) order.
func SampleLocations() []models.Location {
	return []models.Location{
		{ID: 3066, Name: "Kinloss", Coordinates: &models.Coordinates{Latitude: 57.6494, Longitude: -3.5606}, Elevation: float64Ptr(5), Region: "gr", Area: "Moray"},
		{ID: 310069, Name: "Exeter", Coordinates: &models.Coordinates{Latitude: 50.7, Longitude: -3.5}, Elevation: float64Ptr(10), Region: "sw", Area: "Devon"},
		{ID: 14, Name: "Carlisle Airport", Coordinates: &models.Coordinates{Latitude: 54.9375, Longitude: -2.8092}, Elevation: float64Ptr(50), Region: "nw", Area: "Cumbria"},
		{ID: 352409, Name: "London", Coordinates: &models.Coordinates{Latitude: 51.5081, Longitude: -0.1248}, Region: "se", Area: "City of Westminster"},
	}
}

// SampleForecast returns two days of 3-hourly periods starting on start
// (midnight UTC). The first day starts at 12:00 as DataPoint does mid-day.
func SampleForecast(start time.Time) []models.ForecastDay {
	day := func(date time.Time, fromHour int) models.ForecastDay {
		d := models.ForecastDay{Date: date}
		for h := fromHour; h < 24; h += 3 {
			offset := time.Duration(h) * time.Hour
			d.Periods = append(d.Periods, models.Period{
				Offset:                   offset,
				Time:                     date.Add(offset),
				Temperature:              float64(5 + h/3),
				FeelsLike:                float64(3 + h/3),
				WindSpeed:                7,
				WindGust:                 16,
				WindDirection:            "SW",
				Humidity:                 80,
				PrecipitationProbability: 10 * (h / 3),
				WeatherType:              models.WeatherType(7),
				Visibility:               "GO",
				UVIndex:                  1,
			})
		}
		return d
	}
	return []models.ForecastDay{
		day(start, 12),
		day(start.AddDate(0, 0, 1), 0),
	}
}
