// Package render formats sites and forecasts as plain-text tables.
package render

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/kjstillabower/weather-uk/internal/models"
)

const dateLayout = "Monday 2 January 2006"

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// Locations writes one row per site in the order given.
func Locations(w io.Writer, locs []models.Location) error {
	if len(locs) == 0 {
		_, err := fmt.Fprintln(w, "No matching locations.")
		return err
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tNAME\tAREA\tREGION\tLAT\tLON\tELEVATION")
	for _, l := range locs {
		lat, lon := "-", "-"
		if l.Coordinates != nil {
			lat = strconv.FormatFloat(l.Coordinates.Latitude, 'f', 4, 64)
			lon = strconv.FormatFloat(l.Coordinates.Longitude, 'f', 4, 64)
		}
		elev := "-"
		if l.Elevation != nil {
			elev = strconv.FormatFloat(*l.Elevation, 'f', -1, 64) + "m"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n", l.ID, l.Name, orDash(l.Area), orDash(l.Region), lat, lon, elev)
	}
	return tw.Flush()
}

// Forecast writes a heading for loc followed by one table per day.
func Forecast(w io.Writer, loc models.Location, days []models.ForecastDay) error {
	heading := fmt.Sprintf("3-hourly forecast for site %d", loc.ID)
	if loc.Name != "" {
		heading = fmt.Sprintf("3-hourly forecast for %s (%d)", loc.Name, loc.ID)
	}
	if _, err := fmt.Fprintln(w, heading); err != nil {
		return err
	}
	if len(days) == 0 {
		_, err := fmt.Fprintln(w, "No forecast available.")
		return err
	}
	for _, d := range days {
		if _, err := fmt.Fprintf(w, "\n%s\n", d.Date.Format(dateLayout)); err != nil {
			return err
		}
		tw := newTable(w)
		fmt.Fprintln(tw, "TIME\tWEATHER\tTEMP\tFEELS\tWIND\tGUST\tRAIN\tHUMIDITY\tVISIBILITY\tUV")
		for _, p := range d.Periods {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d mph %s\t%s\t%d%%\t%d%%\t%s\t%d\n",
				p.Time.Format("15:04"),
				p.WeatherType,
				celsius(p.Temperature),
				celsius(p.FeelsLike),
				p.WindSpeed, p.WindDirection,
				optionalInt(p.WindGust, " mph"),
				p.PrecipitationProbability,
				p.Humidity,
				orDash(models.VisibilityDescription(p.Visibility)),
				p.UVIndex,
			)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	return nil
}

func celsius(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "°C"
}

// optionalInt renders the zero value of an optional field as a dash.
func optionalInt(v int, unit string) string {
	if v == 0 {
		return "-"
	}
	return strconv.Itoa(v) + unit
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
