package main

import (
	"flag"
	"fmt"
	"path/filepath"

	"github.com/hazlab/doseplan/internal/dosereport"
)

func runReport(args []string) error {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	name := fs.String("name", "", "route name")
	outDir := fs.String("out", "", "output directory the inputs were generated into")
	deposit := fs.String("deposit", "", "deposit file name inside each run directory")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *name == "" {
		return fmt.Errorf("report: -name is required")
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

	rd, err := dosereport.ScanRoute(filepath.Join(*outDir, *name), *name, *deposit)
	if err != nil {
		return err
	}

	fmt.Printf("Route: %s (%d completed runs)\n", rd.Route, len(rd.Points))
	for _, p := range rd.Points {
		fmt.Printf("  %4d  %.4E\n", p.Index, p.Dose)
	}
	fmt.Printf("  total %.4E  max %.4E  mean %.4E\n", rd.Total, rd.Max, rd.Mean)
	return nil
}
