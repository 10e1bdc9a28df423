package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/hazlab/doseplan/internal/dosefield"
	"github.com/hazlab/doseplan/internal/gridmap"
	"github.com/hazlab/doseplan/internal/pathfind"
	"github.com/hazlab/doseplan/internal/route"
)

func runPlan(args []string) error {
	fs := flag.NewFlagSet("plan", flag.ContinueOnError)
	gridPath := fs.String("grid", "", "path to the grid snapshot JSON")
	dosePath := fs.String("dose", "", "path to a deposit output used as the dose field")
	name := fs.String("name", "", "route name")
	step := fs.Float64("step", 0, "waypoint spacing in cm (default: config or 50)")
	weight := fs.Float64("weight", -1, "dose avoidance weight (default: config)")
	conn := fs.Int("connectivity", 0, "4 or 8 neighbor moves (default: config or 8)")
	routesPath := fs.String("routes", "routes.json", "route list file to update")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *gridPath == "" || *name == "" {
		return fmt.Errorf("plan: -grid and -name are required")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	g, err := gridmap.Load(*gridPath)
	if err != nil {
		return err
	}
	start, ok := g.Start()
	if !ok {
		return fmt.Errorf("plan: grid has no start marker")
	}
	goal, ok := g.Goal()
	if !ok {
		return fmt.Errorf("plan: grid has no goal marker")
	}
	var middle *gridmap.Point
	if m, ok := g.Middle(); ok {
		middle = &m
	}

	var field *dosefield.Field
	if *dosePath != "" {
		f, err := os.Open(*dosePath)
		if err != nil {
			return fmt.Errorf("plan: open dose field: %w", err)
		}
		field, err = dosefield.ParseDeposit(f, g.Rows(), g.Cols())
		f.Close()
		if err != nil {
			return err
		}
	}

	if *weight < 0 {
		*weight = cfg.Weight
	}
	if *step == 0 {
		*step = cfg.Step
	}
	if *step == 0 {
		*step = 50
	}
	connectivity := pathfind.Connectivity(*conn)
	if connectivity == 0 {
		connectivity = pathfind.Connectivity(cfg.Connectivity)
	}
	if connectivity == 0 {
		connectivity = pathfind.Eight
	}

	path, err := pathfind.FindRoute(g, field, start, goal, middle, pathfind.Options{
		Weight:       *weight,
		Connectivity: connectivity,
	})
	if err != nil {
		return err
	}

	rt := route.Route{
		Name:   *name,
		Start:  start,
		Middle: middle,
		Goal:   goal,
		Step:   *step,
		Weight: *weight,
		Path:   path,
	}

	store := route.NewStore()
	if _, err := os.Stat(*routesPath); err == nil {
		if err := store.Load(*routesPath); err != nil {
			return err
		}
	}
	if err := store.Put(rt); err != nil {
		return err
	}
	if err := store.Save(*routesPath); err != nil {
		return err
	}

	waypoints, err := rt.Waypoints(g)
	if err != nil {
		return err
	}

	fmt.Printf("Route: %s\n", rt.Name)
	fmt.Printf("  %s -> %s", start, goal)
	if middle != nil {
		fmt.Printf(" via %s", *middle)
	}
	fmt.Println()
	fmt.Printf("  %d cells, %d waypoints at %.1f cm spacing\n", len(path), len(waypoints), *step)
	fmt.Printf("  saved to %s\n", *routesPath)
	return nil
}
