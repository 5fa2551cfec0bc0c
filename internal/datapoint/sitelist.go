package datapoint

import (
	"fmt"

	"github.com/kjstillabower/weather-uk/internal/models"
)

// DecodeLocations decodes a sitelist document. The result is in document
// order and is never nil on success; a list with no sites yields an empty
// slice.
func DecodeLocations(body []byte) ([]models.Location, error) {
	tree, err := parse(body)
	if err != nil {
		return nil, err
	}
	root, err := asObject(tree, "document")
	if err != nil {
		return nil, err
	}
	locsV, err := member(root, "Locations", "document")
	if err != nil {
		return nil, err
	}
	locs, err := asObject(locsV, "Locations")
	if err != nil {
		return nil, err
	}
	entries, err := asList(locs["Location"], "Locations.Location")
	if err != nil {
		return nil, err
	}

	out := make([]models.Location, 0, len(entries))
	for i, e := range entries {
		loc, err := decodeLocation(e, fmt.Sprintf("Locations.Location[%d]", i))
		if err != nil {
			return nil, err
		}
		out = append(out, loc)
	}
	return out, nil
}

func decodeLocation(v any, path string) (models.Location, error) {
	obj, err := asObject(v, path)
	if err != nil {
		return models.Location{}, err
	}

	var loc models.Location
	if loc.ID, _, err = intField(obj, "id", path, true); err != nil {
		return models.Location{}, err
	}
	if loc.Name, err = stringField(obj, "name", path, true); err != nil {
		return models.Location{}, err
	}

	lat, hasLat, err := floatField(obj, "latitude", path, false)
	if err != nil {
		return models.Location{}, err
	}
	lon, hasLon, err := floatField(obj, "longitude", path, false)
	if err != nil {
		return models.Location{}, err
	}
	if hasLat && hasLon {
		loc.Coordinates = &models.Coordinates{Latitude: lat, Longitude: lon}
	}

	elev, hasElev, err := floatField(obj, "elevation", path, false)
	if err != nil {
		return models.Location{}, err
	}
	if hasElev {
		loc.Elevation = &elev
	}

	if loc.Region, err = stringField(obj, "region", path, false); err != nil {
		return models.Location{}, err
	}
	if loc.Area, err = stringField(obj, "unitaryAuthArea", path, false); err != nil {
		return models.Location{}, err
	}
	return loc, nil
}
