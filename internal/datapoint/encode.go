package datapoint

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/kjstillabower/weather-uk/internal/models"
)

// The encoders produce DataPoint-shaped documents with every number quoted.
// They exist for fixtures and the fake provider in internal/testhelpers.

type wireLocation struct {
	Elevation       string `json:"elevation,omitempty"`
	ID              string `json:"id"`
	Latitude        string `json:"latitude,omitempty"`
	Longitude       string `json:"longitude,omitempty"`
	Name            string `json:"name"`
	Region          string `json:"region,omitempty"`
	UnitaryAuthArea string `json:"unitaryAuthArea,omitempty"`
}

type wireSiteList struct {
	Locations struct {
		Location []wireLocation `json:"Location"`
	} `json:"Locations"`
}

// EncodeLocations renders locations as a sitelist document.
func EncodeLocations(locs []models.Location) ([]byte, error) {
	var doc wireSiteList
	doc.Locations.Location = make([]wireLocation, 0, len(locs))
	for _, l := range locs {
		w := wireLocation{
			ID:              strconv.Itoa(l.ID),
			Name:            l.Name,
			Region:          l.Region,
			UnitaryAuthArea: l.Area,
		}
		if l.Coordinates != nil {
			w.Latitude = formatFloat(l.Coordinates.Latitude)
			w.Longitude = formatFloat(l.Coordinates.Longitude)
		}
		if l.Elevation != nil {
			w.Elevation = formatFloat(*l.Elevation)
		}
		doc.Locations.Location = append(doc.Locations.Location, w)
	}
	return json.Marshal(doc)
}

type wireParam struct {
	Name  string `json:"name"`
	Units string `json:"units"`
	Text  string `json:"$"`
}

var forecastParams = []wireParam{
	{"F", "C", "Feels Like Temperature"},
	{"G", "mph", "Wind Gust"},
	{"H", "%", "Screen Relative Humidity"},
	{"T", "C", "Temperature"},
	{"V", "", "Visibility"},
	{"D", "compass", "Wind Direction"},
	{"S", "mph", "Wind Speed"},
	{"U", "", "Max UV Index"},
	{"W", "", "Weather Type"},
	{"Pp", "%", "Precipitation Probability"},
}

type wirePeriod struct {
	Type  string              `json:"type"`
	Value string              `json:"value"`
	Rep   []map[string]string `json:"Rep"`
}

type wireSite struct {
	I         string       `json:"i"`
	Lat       string       `json:"lat,omitempty"`
	Lon       string       `json:"lon,omitempty"`
	Name      string       `json:"name"`
	Elevation string       `json:"elevation,omitempty"`
	Period    []wirePeriod `json:"Period"`
}

type wireForecast struct {
	SiteRep struct {
		Wx struct {
			Param []wireParam `json:"Param"`
		} `json:"Wx"`
		DV struct {
			DataDate string   `json:"dataDate"`
			Type     string   `json:"type"`
			Location wireSite `json:"Location"`
		} `json:"DV"`
	} `json:"SiteRep"`
}

// EncodeForecast renders a 3-hourly forecast document for site.
func EncodeForecast(site models.Location, days []models.ForecastDay) ([]byte, error) {
	var doc wireForecast
	doc.SiteRep.Wx.Param = forecastParams
	doc.SiteRep.DV.Type = "Forecast"
	if len(days) > 0 {
		doc.SiteRep.DV.DataDate = days[0].Date.UTC().Format(time.RFC3339)
	}

	loc := wireSite{
		I:      strconv.Itoa(site.ID),
		Name:   site.Name,
		Period: make([]wirePeriod, 0, len(days)),
	}
	if site.Coordinates != nil {
		loc.Lat = formatFloat(site.Coordinates.Latitude)
		loc.Lon = formatFloat(site.Coordinates.Longitude)
	}
	if site.Elevation != nil {
		loc.Elevation = formatFloat(*site.Elevation)
	}

	for _, d := range days {
		wp := wirePeriod{
			Type:  "Day",
			Value: d.Date.UTC().Format("2006-01-02") + "Z",
			Rep:   make([]map[string]string, 0, len(d.Periods)),
		}
		for _, p := range d.Periods {
			wp.Rep = append(wp.Rep, encodePeriod(p))
		}
		loc.Period = append(loc.Period, wp)
	}
	doc.SiteRep.DV.Location = loc
	return json.Marshal(doc)
}

func encodePeriod(p models.Period) map[string]string {
	rep := map[string]string{
		"$":  strconv.Itoa(int(p.Offset / time.Minute)),
		"T":  formatFloat(p.Temperature),
		"F":  formatFloat(p.FeelsLike),
		"S":  strconv.Itoa(p.WindSpeed),
		"G":  strconv.Itoa(p.WindGust),
		"D":  p.WindDirection,
		"H":  strconv.Itoa(p.Humidity),
		"Pp": strconv.Itoa(p.PrecipitationProbability),
		"U":  strconv.Itoa(p.UVIndex),
		"W":  strconv.Itoa(int(p.WeatherType)),
	}
	if p.WeatherType == models.WeatherTypeNotAvailable {
		rep["W"] = "NA"
	}
	if p.Visibility != "" {
		rep["V"] = p.Visibility
	}
	return rep
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
