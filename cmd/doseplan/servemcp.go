package main

import (
	"context"
	"flag"
	"os"

	"github.com/hazlab/doseplan/internal/mcptools"
	"github.com/hazlab/doseplan/internal/route"
)

func runServeMCP(args []string) error {
	fs := flag.NewFlagSet("serve-mcp", flag.ContinueOnError)
	routesPath := fs.String("routes", "routes.json", "route list file to share with the CLI")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store := route.NewStore()
	if _, err := os.Stat(*routesPath); err == nil {
		if err := store.Load(*routesPath); err != nil {
			return err
		}
	}

	svc := mcptools.NewService(cfg, store, *routesPath)
	server := mcptools.NewMCPServer(svc)
	return mcptools.RunMCPServerStdio(context.Background(), server)
}
