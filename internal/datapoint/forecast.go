package datapoint

import (
	"fmt"
	"time"

	"github.com/kjstillabower/weather-uk/internal/models"
)

// dayLayout matches DataPoint period values such as "2024-03-05Z".
const dayLayout = "2006-01-02Z07:00"

// DecodeForecast decodes a per-site forecast document into days, keeping the
// day order and the period order within each day exactly as given.
func DecodeForecast(body []byte) ([]models.ForecastDay, error) {
	tree, err := parse(body)
	if err != nil {
		return nil, err
	}
	root, err := asObject(tree, "document")
	if err != nil {
		return nil, err
	}

	site, err := descend(root, "SiteRep", "DV", "Location")
	if err != nil {
		return nil, err
	}
	periodsV, err := member(site, "Period", "Location")
	if err != nil {
		return nil, err
	}
	periods, err := asList(periodsV, "Location.Period")
	if err != nil {
		return nil, err
	}

	days := make([]models.ForecastDay, 0, len(periods))
	for i, p := range periods {
		day, err := decodeDay(p, fmt.Sprintf("Location.Period[%d]", i))
		if err != nil {
			return nil, err
		}
		days = append(days, day)
	}
	return days, nil
}

func descend(obj map[string]any, keys ...string) (map[string]any, error) {
	path := "document"
	for _, k := range keys {
		v, err := member(obj, k, path)
		if err != nil {
			return nil, err
		}
		path = k
		if obj, err = asObject(v, path); err != nil {
			return nil, err
		}
	}
	return obj, nil
}

func decodeDay(v any, path string) (models.ForecastDay, error) {
	obj, err := asObject(v, path)
	if err != nil {
		return models.ForecastDay{}, err
	}
	value, err := stringField(obj, "value", path, true)
	if err != nil {
		return models.ForecastDay{}, err
	}
	date, err := time.Parse(dayLayout, value)
	if err != nil {
		return models.ForecastDay{}, fmt.Errorf("%w: %s.value: %v", ErrDecode, path, err)
	}
	date = date.UTC()

	repsV, err := member(obj, "Rep", path)
	if err != nil {
		return models.ForecastDay{}, err
	}
	reps, err := asList(repsV, path+".Rep")
	if err != nil {
		return models.ForecastDay{}, err
	}
	day := models.ForecastDay{Date: date, Periods: make([]models.Period, 0, len(reps))}
	for i, r := range reps {
		p, err := decodePeriod(r, date, fmt.Sprintf("%s.Rep[%d]", path, i))
		if err != nil {
			return models.ForecastDay{}, err
		}
		day.Periods = append(day.Periods, p)
	}
	return day, nil
}

func decodePeriod(v any, date time.Time, path string) (models.Period, error) {
	obj, err := asObject(v, path)
	if err != nil {
		return models.Period{}, err
	}

	var p models.Period
	minutes, _, err := intField(obj, "$", path, true)
	if err != nil {
		return models.Period{}, err
	}
	p.Offset = time.Duration(minutes) * time.Minute
	p.Time = date.Add(p.Offset)

	if p.Temperature, _, err = floatField(obj, "T", path, true); err != nil {
		return models.Period{}, err
	}
	if p.FeelsLike, _, err = floatField(obj, "F", path, true); err != nil {
		return models.Period{}, err
	}
	if p.WindSpeed, _, err = intField(obj, "S", path, true); err != nil {
		return models.Period{}, err
	}
	if p.WindGust, _, err = intField(obj, "G", path, false); err != nil {
		return models.Period{}, err
	}
	if p.WindDirection, err = stringField(obj, "D", path, true); err != nil {
		return models.Period{}, err
	}
	if p.Humidity, _, err = intField(obj, "H", path, true); err != nil {
		return models.Period{}, err
	}
	if p.PrecipitationProbability, _, err = intField(obj, "Pp", path, true); err != nil {
		return models.Period{}, err
	}
	if p.WeatherType, err = weatherType(obj, path); err != nil {
		return models.Period{}, err
	}
	if p.Visibility, err = stringField(obj, "V", path, false); err != nil {
		return models.Period{}, err
	}
	if p.UVIndex, _, err = intField(obj, "U", path, false); err != nil {
		return models.Period{}, err
	}
	return p, nil
}

func weatherType(obj map[string]any, path string) (models.WeatherType, error) {
	if s, ok := obj["W"].(string); ok && s == "NA" {
		return models.WeatherTypeNotAvailable, nil
	}
	code, _, err := intField(obj, "W", path, true)
	if err != nil {
		return 0, err
	}
	return models.WeatherType(code), nil
}
