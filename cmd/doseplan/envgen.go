package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/hazlab/doseplan/internal/envgen"
	"github.com/hazlab/doseplan/internal/gridmap"
)

func runEnvgen(args []string) error {
	fs := flag.NewFlagSet("envgen", flag.ContinueOnError)
	gridPath := fs.String("grid", "", "path to the grid snapshot JSON")
	outPath := fs.String("out", "env_input.inp", "output file for the environment deck")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *gridPath == "" {
		return fmt.Errorf("envgen: -grid is required")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	g, err := gridmap.Load(*gridPath)
	if err != nil {
		return err
	}

	doc := envgen.Build(g, envgen.Options{
		MaxCas:   cfg.MaxCas,
		MaxBch:   cfg.MaxBch,
		Nuclide:  cfg.Nuclide,
		Activity: cfg.Activity,
	})
	if err := os.WriteFile(*outPath, []byte(doc.Serialize()), 0o644); err != nil {
		return fmt.Errorf("envgen: write deck: %w", err)
	}

	fmt.Printf("Environment deck written to %s\n", *outPath)
	return nil
}
