package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hazlab/doseplan/internal/dosereport"
	"github.com/hazlab/doseplan/internal/export"
)

func runExport(args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	name := fs.String("name", "", "route name (default: every route under the output directory)")
	outDir := fs.String("out", "", "output directory the inputs were generated into")
	format := fs.String("format", "json", "export format: json or csv")
	deposit := fs.String("deposit", "", "deposit file name inside each run directory")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if *outDir == "" {
		*outDir = cfg.OutputDir
	}
	if *deposit == "" {
		*deposit = cfg.DepositFile
	}
	if *deposit == "" {
		*deposit = "deposit.out"
	}

	var names []string
	if *name != "" {
		names = []string{*name}
	} else {
		entries, err := os.ReadDir(*outDir)
		if err != nil {
			return fmt.Errorf("export: read output dir: %w", err)
		}
		for _, e := range entries {
			if e.IsDir() {
				names = append(names, e.Name())
			}
		}
	}
	if len(names) == 0 {
		return fmt.Errorf("export: no routes found under %s", *outDir)
	}

	var routes []dosereport.RouteDose
	for _, n := range names {
		rd, err := dosereport.ScanRoute(filepath.Join(*outDir, n), n, *deposit)
		if err != nil {
			fmt.Fprintf(os.Stderr, "skipping %s: %v\n", n, err)
			continue
		}
		routes = append(routes, *rd)
	}
	if len(routes) == 0 {
		return fmt.Errorf("export: no completed routes to export")
	}

	switch *format {
	case "json":
		return export.WriteJSON(os.Stdout, routes)
	case "csv":
		return export.WriteCSV(os.Stdout, routes)
	default:
		return fmt.Errorf("export: unknown format %q", *format)
	}
}
