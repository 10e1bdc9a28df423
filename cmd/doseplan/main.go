// Command doseplan plans dose-aware robot routes on a grid snapshot and
// generates PHITS input files along them.
package main

import (
	"fmt"
	"os"

	"github.com/hazlab/doseplan/internal/config"
)

// version is set by goreleaser at build time.
var version = "dev"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		printUsage()
		return nil
	}

	switch args[0] {
	case "plan":
		return runPlan(args[1:])
	case "envgen":
		return runEnvgen(args[1:])
	case "generate":
		return runGenerate(args[1:])
	case "report":
		return runReport(args[1:])
	case "export":
		return runExport(args[1:])
	case "serve-mcp", "--serve-mcp":
		return runServeMCP(args[1:])
	case "version", "--version":
		fmt.Println(version)
		return nil
	case "help", "-h", "--help":
		printUsage()
		return nil
	default:
		printUsage()
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func printUsage() {
	fmt.Println(`doseplan - dose-aware route planning and PHITS input generation

Usage:
  doseplan plan      -grid <snapshot> [-dose <deposit>] -name <route>  plan a route
  doseplan envgen    -grid <snapshot> [-out <file>]                    write the environment deck
  doseplan generate  -name <route> -grid <snapshot> -template <file>   write per-waypoint inputs
  doseplan report    -name <route> [-out <dir>]                        aggregate run doses
  doseplan export    [-format json|csv] [-out <dir>]                   export dose reports
  doseplan serve-mcp                                                   run as MCP server on stdio
  doseplan version                                                     print version`)
}

// loadConfig reads doseplan.yml from the working directory.
func loadConfig() (*config.ProjectConfig, error) {
	cfg, err := config.Load(".")
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
