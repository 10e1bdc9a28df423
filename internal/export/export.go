// Package export renders aggregated route dose reports for downstream
// consumers: JSON for tooling, CSV for spreadsheets.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/hazlab/doseplan/internal/dosereport"
)

// ReportExport is the top-level JSON export structure.
type ReportExport struct {
	ExportedAt string                 `json:"exportedAt"`
	Routes     []dosereport.RouteDose `json:"routes"`
}

// WriteJSON renders the route reports as indented JSON.
func WriteJSON(w io.Writer, routes []dosereport.RouteDose) error {
	export := ReportExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Routes:     routes,
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(&export); err != nil {
		return fmt.Errorf("export: encode json: %w", err)
	}
	return nil
}

// WriteCSV renders one row per waypoint, with per-route aggregates repeated
// so each row is self-contained.
func WriteCSV(w io.Writer, routes []dosereport.RouteDose) error {
	cw := csv.NewWriter(w)
	header := []string{"route", "index", "dose", "route_total", "route_max", "route_mean"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("export: write csv header: %w", err)
	}

	for _, r := range routes {
		for _, p := range r.Points {
			row := []string{
				r.Route,
				strconv.Itoa(p.Index),
				formatDose(p.Dose),
				formatDose(r.Total),
				formatDose(r.Max),
				formatDose(r.Mean),
			}
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("export: write csv row: %w", err)
			}
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("export: flush csv: %w", err)
	}
	return nil
}

func formatDose(v float64) string {
	return strconv.FormatFloat(v, 'E', 4, 64)
}
