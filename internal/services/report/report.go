package report

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"

	"github.com/Nazarious-ucu/city-data-reporter/internal/models"
)

const noDataMsg = "No CSV data to report yet."

// PrintSummary writes the one-line weather summary for rec.
func PrintSummary(w io.Writer, rec models.WeatherRecord) error {
	place := rec.City
	if rec.Country != "" {
		place += ", " + rec.Country
	}
	_, err := fmt.Fprintf(w, "\nWeather for %s: %s | Temp: %s°C | Humidity: %d%%\n\n",
		place, rec.Description, formatTemp(rec.Temperature), rec.Humidity)
	return err
}

// PrintStats writes the entry count, one line per entry and the average
// temperature of the file at path.
func PrintStats(w io.Writer, path string, stats models.Stats) error {
	if stats.Count == 0 {
		_, err := fmt.Fprintln(w, noDataMsg)
		return err
	}

	if _, err := fmt.Fprintf(w, "Entries in %s: %d\n", filepath.Base(path), stats.Count); err != nil {
		return err
	}
	for _, rec := range stats.Entries {
		if _, err := fmt.Fprintf(w, " - %s: %s°C\n", rec.City, formatTemp(rec.Temperature)); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "Average temperature: %.1f°C\n", stats.Average)
	return err
}

func formatTemp(t float64) string {
	return strconv.FormatFloat(t, 'f', -1, 64)
}
