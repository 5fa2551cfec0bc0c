package models

// WeatherType is the Met Office significant weather code.
type WeatherType int

// WeatherTypeNotAvailable is used when the provider reports "NA".
const WeatherTypeNotAvailable WeatherType = -1

var weatherTypeNames = map[WeatherType]string{
	0:  "Clear night",
	1:  "Sunny day",
	2:  "Partly cloudy (night)",
	3:  "Partly cloudy (day)",
	4:  "Not used",
	5:  "Mist",
	6:  "Fog",
	7:  "Cloudy",
	8:  "Overcast",
	9:  "Light rain shower (night)",
	10: "Light rain shower (day)",
	11: "Drizzle",
	12: "Light rain",
	13: "Heavy rain shower (night)",
	14: "Heavy rain shower (day)",
	15: "Heavy rain",
	16: "Sleet shower (night)",
	17: "Sleet shower (day)",
	18: "Sleet",
	19: "Hail shower (night)",
	20: "Hail shower (day)",
	21: "Hail",
	22: "Light snow shower (night)",
	23: "Light snow shower (day)",
	24: "Light snow",
	25: "Heavy snow shower (night)",
	26: "Heavy snow shower (day)",
	27: "Heavy snow",
	28: "Thunder shower (night)",
	29: "Thunder shower (day)",
	30: "Thunder",
}

func (w WeatherType) String() string {
	if w == WeatherTypeNotAvailable {
		return "Not available"
	}
	if name, ok := weatherTypeNames[w]; ok {
		return name
	}
	return "Unknown"
}

// visibilityNames maps DataPoint visibility codes to descriptions.
var visibilityNames = map[string]string{
	"UN": "Unknown",
	"VP": "Very poor",
	"PO": "Poor",
	"MO": "Moderate",
	"GO": "Good",
	"VG": "Very good",
	"EX": "Excellent",
}

// VisibilityDescription returns a readable form of a visibility code, or the
// code itself when it is not recognised.
func VisibilityDescription(code string) string {
	if name, ok := visibilityNames[code]; ok {
		return name
	}
	return code
}
