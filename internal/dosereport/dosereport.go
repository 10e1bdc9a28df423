// Package dosereport aggregates the dose seen along a route after its
// simulation runs finished. Each waypoint's run directory holds a deposit
// output file whose "sum over" line carries the total dose at that point.
package dosereport

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// PointDose is the dose measured at one waypoint's detector.
type PointDose struct {
	// Index is the waypoint's position along the route.
	Index int `json:"index"`

	// File is the deposit output the value was read from.
	File string `json:"file"`

	// Dose is the summed deposit, in the tally's output unit.
	Dose float64 `json:"dose"`
}

// RouteDose is the aggregated dose picture of one route.
type RouteDose struct {
	Route  string      `json:"route"`
	Points []PointDose `json:"points"`
	Total  float64     `json:"total"`
	Max    float64     `json:"max"`
	Mean   float64     `json:"mean"`
}

// ScanRoute walks dir for run subdirectories named run_NNNN, reads the
// deposit file inside each, and aggregates. Runs whose deposit file is
// missing are skipped; a run present but unreadable is an error.
func ScanRoute(dir, routeName, depositName string) (*RouteDose, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("dosereport: read route dir: %w", err)
	}

	rd := &RouteDose{Route: routeName}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		idx, ok := runIndex(e.Name())
		if !ok {
			continue
		}
		path := filepath.Join(dir, e.Name(), depositName)
		f, err := os.Open(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue // run not finished yet
			}
			return nil, fmt.Errorf("dosereport: open %s: %w", path, err)
		}
		dose, err := SumOverDose(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("dosereport: %s: %w", path, err)
		}
		rd.Points = append(rd.Points, PointDose{Index: idx, File: path, Dose: dose})
	}

	if len(rd.Points) == 0 {
		return nil, fmt.Errorf("dosereport: no completed runs under %s", dir)
	}
	sort.Slice(rd.Points, func(i, j int) bool { return rd.Points[i].Index < rd.Points[j].Index })

	doses := make([]float64, len(rd.Points))
	for i, p := range rd.Points {
		doses[i] = p.Dose
	}
	rd.Total = floats.Sum(doses)
	rd.Max = floats.Max(doses)
	rd.Mean = stat.Mean(doses, nil)
	return rd, nil
}

// SumOverDose extracts the dose total from a deposit output: the first line
// containing "sum over", second-to-last whitespace field.
func SumOverDose(r io.Reader) (float64, error) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		if !strings.Contains(line, "sum over") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return 0, fmt.Errorf("dosereport: malformed sum over line %q", line)
		}
		v, err := strconv.ParseFloat(fields[len(fields)-2], 64)
		if err != nil {
			return 0, fmt.Errorf("dosereport: parse sum over value %q: %w", fields[len(fields)-2], err)
		}
		return v, nil
	}
	if err := sc.Err(); err != nil {
		return 0, fmt.Errorf("dosereport: scan deposit output: %w", err)
	}
	return 0, fmt.Errorf("dosereport: no sum over line found")
}

// runIndex parses a run directory name of the form run_NNNN.
func runIndex(name string) (int, bool) {
	rest, ok := strings.CutPrefix(name, "run_")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
