package mcptools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazlab/doseplan/internal/batch"
	"github.com/hazlab/doseplan/internal/config"
	"github.com/hazlab/doseplan/internal/dosefield"
	"github.com/hazlab/doseplan/internal/dosereport"
	"github.com/hazlab/doseplan/internal/envgen"
	"github.com/hazlab/doseplan/internal/gridmap"
	"github.com/hazlab/doseplan/internal/merge"
	"github.com/hazlab/doseplan/internal/pathfind"
	"github.com/hazlab/doseplan/internal/phitsdoc"
	"github.com/hazlab/doseplan/internal/route"
)

// Defaults applied when neither the tool input nor the config sets a value.
const (
	defaultStep         = 50.0
	defaultDetectorCell = 9001
	defaultDepositFile  = "deposit.out"
)

// Service handles MCP tool calls for the doseplan server mode. It shares the
// route store between calls so a planned route is available to generation.
type Service struct {
	cfg        *config.ProjectConfig
	store      *route.Store
	routesPath string // when set, find_route persists the route list here
}

// NewService creates a Service with the given config and route store.
func NewService(cfg *config.ProjectConfig, store *route.Store, routesPath string) *Service {
	return &Service{cfg: cfg, store: store, routesPath: routesPath}
}

// FindRoute plans a dose-aware route on a grid snapshot and stores it.
func (s *Service) FindRoute(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input FindRouteInput,
) (*mcp.CallToolResult, FindRouteOutput, error) {
	if input.Name == "" || input.GridPath == "" {
		return nil, FindRouteOutput{
			Status:  "failed",
			Message: "name and gridPath are required",
		}, fmt.Errorf("find_route: name and gridPath are required")
	}

	fail := func(err error) (*mcp.CallToolResult, FindRouteOutput, error) {
		return nil, FindRouteOutput{Name: input.Name, Status: "failed", Message: err.Error()}, nil
	}

	g, err := gridmap.Load(input.GridPath)
	if err != nil {
		return fail(err)
	}
	start, ok := g.Start()
	if !ok {
		return fail(fmt.Errorf("grid has no start marker"))
	}
	goal, ok := g.Goal()
	if !ok {
		return fail(fmt.Errorf("grid has no goal marker"))
	}
	var middle *gridmap.Point
	if m, ok := g.Middle(); ok {
		middle = &m
	}

	var field *dosefield.Field
	if input.DosePath != "" {
		f, err := os.Open(input.DosePath)
		if err != nil {
			return fail(err)
		}
		field, err = dosefield.ParseDeposit(f, g.Rows(), g.Cols())
		f.Close()
		if err != nil {
			return fail(err)
		}
	}

	weight := input.Weight
	if weight == 0 {
		weight = s.cfg.Weight
	}
	step := input.Step
	if step == 0 {
		step = s.cfg.Step
	}
	if step == 0 {
		step = defaultStep
	}
	conn := pathfind.Connectivity(input.Connectivity)
	if conn == 0 {
		conn = pathfind.Connectivity(s.cfg.Connectivity)
	}
	if conn == 0 {
		conn = pathfind.Eight
	}

	path, err := pathfind.FindRoute(g, field, start, goal, middle, pathfind.Options{
		Weight:       weight,
		Connectivity: conn,
	})
	if err != nil {
		return fail(err)
	}

	rt := route.Route{
		Name:   input.Name,
		Start:  start,
		Middle: middle,
		Goal:   goal,
		Step:   step,
		Weight: weight,
		Path:   path,
	}
	if err := s.store.Put(rt); err != nil {
		return fail(err)
	}
	if s.routesPath != "" {
		if err := s.store.Save(s.routesPath); err != nil {
			return fail(err)
		}
	}

	waypoints, err := rt.Waypoints(g)
	if err != nil {
		return fail(err)
	}

	return nil, FindRouteOutput{
		Name:      input.Name,
		Cells:     len(path),
		Waypoints: len(waypoints),
		Status:    "completed",
	}, nil
}

// GenerateInputs emits one merged simulation input per waypoint of a stored
// route.
func (s *Service) GenerateInputs(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GenerateInputsInput,
) (*mcp.CallToolResult, GenerateInputsOutput, error) {
	if input.Name == "" || input.GridPath == "" || input.TemplatePath == "" {
		return nil, GenerateInputsOutput{
			Status:  "failed",
			Message: "name, gridPath and templatePath are required",
		}, fmt.Errorf("generate_inputs: name, gridPath and templatePath are required")
	}

	fail := func(err error) (*mcp.CallToolResult, GenerateInputsOutput, error) {
		return nil, GenerateInputsOutput{Name: input.Name, Status: "failed", Message: err.Error()}, nil
	}

	rt, ok := s.store.Get(input.Name)
	if !ok {
		return fail(fmt.Errorf("no stored route named %q, run find_route first", input.Name))
	}
	g, err := gridmap.Load(input.GridPath)
	if err != nil {
		return fail(err)
	}
	data, err := os.ReadFile(input.TemplatePath)
	if err != nil {
		return fail(err)
	}
	overlay, err := phitsdoc.Parse(string(data))
	if err != nil {
		return fail(err)
	}

	base := envgen.Build(g, envgen.Options{
		MaxCas:   s.cfg.MaxCas,
		MaxBch:   s.cfg.MaxBch,
		Nuclide:  s.cfg.Nuclide,
		Activity: s.cfg.Activity,
	})

	outDir := input.OutDir
	if outDir == "" {
		outDir = s.cfg.OutputDir
	}
	detector := s.cfg.DetectorCell
	if detector == 0 {
		detector = defaultDetectorCell
	}

	report, err := batch.Generate(ctx, base, overlay, rt, g, batch.Options{
		OutDir:        outDir,
		Prefix:        s.cfg.OutputPrefix,
		Ext:           s.cfg.OutputExt,
		Parallel:      s.cfg.Parallel,
		ExclusionCell: s.cfg.ExclusionCell,
		DetectorCell:  detector,
		Subs:          defaultSubs(s.cfg),
	}, nil)
	if err != nil {
		return fail(err)
	}

	out := GenerateInputsOutput{
		Name:     input.Name,
		Produced: report.Produced(),
		Failed:   report.Failed(),
		Status:   "completed",
	}
	for _, it := range report.Items {
		if it.Err == nil {
			out.Files = append(out.Files, it.File)
		}
	}
	return nil, out, nil
}

// RouteStatus reports how far a route has progressed: whether it is stored,
// how many inputs exist, and the dose aggregates of completed runs.
func (s *Service) RouteStatus(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input RouteStatusInput,
) (*mcp.CallToolResult, RouteStatusOutput, error) {
	if input.Name == "" {
		return nil, RouteStatusOutput{}, fmt.Errorf("route_status: name is required")
	}

	out := RouteStatusOutput{Name: input.Name}
	_, out.Stored = s.store.Get(input.Name)

	outDir := input.OutDir
	if outDir == "" {
		outDir = s.cfg.OutputDir
	}
	dir := filepath.Join(outDir, input.Name)

	ext := s.cfg.OutputExt
	if ext == "" {
		ext = "inp"
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, out, nil // nothing generated yet
	}
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), "."+ext) {
			out.Inputs++
		}
	}

	deposit := input.DepositFile
	if deposit == "" {
		deposit = s.cfg.DepositFile
	}
	if deposit == "" {
		deposit = defaultDepositFile
	}
	rd, err := dosereport.ScanRoute(dir, input.Name, deposit)
	if err != nil {
		return nil, out, nil // no completed runs yet
	}
	out.CompletedRuns = len(rd.Points)
	out.TotalDose = rd.Total
	out.MaxDose = rd.Max
	out.MeanDose = rd.Mean
	return nil, out, nil
}

// defaultSubs builds the run-wide optional substitutions from config.
func defaultSubs(cfg *config.ProjectConfig) merge.Substitutions {
	subs := merge.Substitutions{}
	if cfg.Nuclide != "" {
		subs[merge.KeyNuclide] = cfg.Nuclide
	}
	if cfg.Activity != "" {
		subs[merge.KeyActivity] = cfg.Activity
	}
	if cfg.MaxCas > 0 {
		subs[merge.KeyMaxCas] = fmt.Sprintf("%d", cfg.MaxCas)
	}
	if cfg.MaxBch > 0 {
		subs[merge.KeyMaxBch] = fmt.Sprintf("%d", cfg.MaxBch)
	}
	return subs
}
