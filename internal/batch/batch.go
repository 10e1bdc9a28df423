// Package batch turns a planned route into one simulation input file per
// sampled waypoint. Waypoints are merged against the environment deck in
// parallel; a single bad waypoint is recorded and skipped, never aborting
// the rest of the batch.
package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/hazlab/doseplan/internal/envgen"
	"github.com/hazlab/doseplan/internal/gridmap"
	"github.com/hazlab/doseplan/internal/merge"
	"github.com/hazlab/doseplan/internal/phitsdoc"
	"github.com/hazlab/doseplan/internal/route"
)

// Options configures a generation run.
type Options struct {
	// OutDir is the directory that receives one subdirectory per route.
	OutDir string

	// Prefix and Ext name the output files <Prefix>_<%04d>.<Ext>.
	Prefix string
	Ext    string

	// Parallel caps concurrent merges. Zero means one per CPU.
	Parallel int

	// ExclusionCell is the base cell that overlay cells are carved out of.
	// Zero selects the generated environment's air region.
	ExclusionCell int

	// DetectorCell is the overlay template's detector cell identifier.
	DetectorCell int

	// Subs carries the run-wide substitutions (source position, nuclide,
	// statistics). Per-waypoint detector values are filled in here.
	Subs merge.Substitutions
}

func (o Options) withDefaults() Options {
	if o.Prefix == "" {
		o.Prefix = "input"
	}
	if o.Ext == "" {
		o.Ext = "inp"
	}
	if o.Parallel <= 0 {
		o.Parallel = runtime.NumCPU()
	}
	if o.ExclusionCell == 0 {
		o.ExclusionCell = envgen.AirCell
	}
	return o
}

// Item is the outcome for one waypoint.
type Item struct {
	// Index is the waypoint's position along the route, and the number in
	// its file name.
	Index int

	// Waypoint is the sampled detector position.
	Waypoint route.Waypoint

	// File is the written path on success.
	File string

	// Err is non-nil if this waypoint's document could not be produced.
	Err error
}

// Report summarizes a generation run.
type Report struct {
	Route string
	Dir   string
	Items []Item
}

// Produced counts the successfully written documents.
func (r *Report) Produced() int {
	n := 0
	for _, it := range r.Items {
		if it.Err == nil {
			n++
		}
	}
	return n
}

// Failed counts the waypoints that produced no document.
func (r *Report) Failed() int {
	return len(r.Items) - r.Produced()
}

// Generate samples the route on grid g and writes one merged document per
// waypoint. All items are reported regardless of individual failures; the
// returned error is non-nil only when nothing at all was produced (or the
// context was canceled).
func Generate(ctx context.Context, base, overlay *phitsdoc.Document, rt route.Route, g *gridmap.Grid, opts Options, rep *Reporter) (*Report, error) {
	opts = opts.withDefaults()

	waypoints, err := rt.Waypoints(g)
	if err != nil {
		return nil, err
	}

	dir := filepath.Join(opts.OutDir, rt.Name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("batch: create output dir: %w", err)
	}

	report := &Report{Route: rt.Name, Dir: dir, Items: make([]Item, len(waypoints))}

	grp, gctx := errgroup.WithContext(ctx)
	grp.SetLimit(opts.Parallel)

	for i, wp := range waypoints {
		name := fmt.Sprintf("%s_%04d.%s", opts.Prefix, i, opts.Ext)
		emit(rep, Event{Index: i, Name: name, Status: StatusPending})

		grp.Go(func() error {
			if err := gctx.Err(); err != nil {
				report.Items[i] = Item{Index: i, Waypoint: wp, Err: err}
				return err
			}
			emit(rep, Event{Index: i, Name: name, Status: StatusWorking})

			path := filepath.Join(dir, name)
			if err := generateOne(base, overlay, wp, path, opts); err != nil {
				// Record and continue: one bad waypoint must not sink the batch.
				report.Items[i] = Item{Index: i, Waypoint: wp, Err: err}
				emit(rep, Event{Index: i, Name: name, Status: StatusFailed, Message: err.Error()})
				return nil
			}

			report.Items[i] = Item{Index: i, Waypoint: wp, File: path}
			emit(rep, Event{Index: i, Name: name, Status: StatusComplete})
			return nil
		})
	}

	if err := grp.Wait(); err != nil {
		return report, fmt.Errorf("batch: route %s: %w", rt.Name, err)
	}
	if report.Produced() == 0 {
		return report, fmt.Errorf("batch: route %s: no documents produced", rt.Name)
	}
	return report, nil
}

// generateOne merges one waypoint's document and writes it atomically.
func generateOne(base, overlay *phitsdoc.Document, wp route.Waypoint, path string, opts Options) error {
	subs := make(merge.Substitutions, len(opts.Subs)+3)
	for k, v := range opts.Subs {
		subs[k] = v
	}
	subs[merge.KeyDetX] = fmt.Sprintf("%.3f", wp.X)
	subs[merge.KeyDetY] = fmt.Sprintf("%.3f", wp.Y)
	subs[merge.KeyDetZ] = fmt.Sprintf("%.3f", wp.Z)

	res, err := merge.Merge(base, overlay, subs, merge.Options{
		ExclusionCell: opts.ExclusionCell,
		DetectorCell:  opts.DetectorCell,
	})
	if err != nil {
		return err
	}
	return writeAtomic(path, []byte(res.Doc.Serialize()))
}

// writeAtomic writes via a temp file and rename, so a crashed or failed run
// never leaves a truncated document behind.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("batch: create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("batch: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("batch: close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("batch: rename temp file: %w", err)
	}
	return nil
}

// emit sends a progress event if a reporter is attached.
func emit(rep *Reporter, ev Event) {
	if rep != nil {
		rep.Emit(ev)
	}
}
