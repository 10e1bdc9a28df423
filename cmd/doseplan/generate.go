package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sync"

	"github.com/hazlab/doseplan/internal/batch"
	"github.com/hazlab/doseplan/internal/envgen"
	"github.com/hazlab/doseplan/internal/gridmap"
	"github.com/hazlab/doseplan/internal/merge"
	"github.com/hazlab/doseplan/internal/phitsdoc"
	"github.com/hazlab/doseplan/internal/route"
)

func runGenerate(args []string) error {
	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	name := fs.String("name", "", "name of a previously planned route")
	gridPath := fs.String("grid", "", "path to the grid snapshot JSON")
	templatePath := fs.String("template", "", "path to the per-point overlay template")
	routesPath := fs.String("routes", "routes.json", "route list file")
	outDir := fs.String("out", "", "output directory (default: config or cwd)")
	parallel := fs.Int("parallel", 0, "concurrent merges (default: one per CPU)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *name == "" || *gridPath == "" || *templatePath == "" {
		return fmt.Errorf("generate: -name, -grid and -template are required")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store := route.NewStore()
	if err := store.Load(*routesPath); err != nil {
		return err
	}
	rt, ok := store.Get(*name)
	if !ok {
		return fmt.Errorf("generate: no route named %q in %s, run plan first", *name, *routesPath)
	}

	g, err := gridmap.Load(*gridPath)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(*templatePath)
	if err != nil {
		return fmt.Errorf("generate: read template: %w", err)
	}
	overlay, err := phitsdoc.Parse(string(data))
	if err != nil {
		return err
	}

	base := envgen.Build(g, envgen.Options{
		MaxCas:   cfg.MaxCas,
		MaxBch:   cfg.MaxBch,
		Nuclide:  cfg.Nuclide,
		Activity: cfg.Activity,
	})

	if *outDir == "" {
		*outDir = cfg.OutputDir
	}
	detector := cfg.DetectorCell
	if detector == 0 {
		detector = 9001
	}

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

	reporter := batch.NewReporter()
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for ev := range reporter.Subscribe() {
			fmt.Println(batch.FormatEvent(ev))
		}
	}()

	fmt.Printf("Generating inputs for route %s\n", rt.Name)
	report, genErr := batch.Generate(context.Background(), base, overlay, rt, g, batch.Options{
		OutDir:        *outDir,
		Prefix:        cfg.OutputPrefix,
		Ext:           cfg.OutputExt,
		Parallel:      *parallel,
		ExclusionCell: cfg.ExclusionCell,
		DetectorCell:  detector,
		Subs:          subs,
	}, reporter)
	reporter.Close()
	wg.Wait()

	if report != nil {
		fmt.Printf("%d produced, %d failed, in %s\n", report.Produced(), report.Failed(), report.Dir)
	}
	return genErr
}
