package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ProjectConfig holds project-level settings loaded from doseplan.yml.
// Zero values defer to each package's own defaults.
type ProjectConfig struct {
	// Grid geometry, in cm.
	CellSizeX   float64 `yaml:"cellSizeX,omitempty"`
	CellSizeY   float64 `yaml:"cellSizeY,omitempty"`
	CellHeightZ float64 `yaml:"cellHeightZ,omitempty"`
	WorldMargin float64 `yaml:"worldMargin,omitempty"`

	// Simulation defaults.
	Nuclide  string `yaml:"nuclide,omitempty"`
	Activity string `yaml:"activity,omitempty"`
	MaxCas   int    `yaml:"maxcas,omitempty"`
	MaxBch   int    `yaml:"maxbch,omitempty"`

	// Planner defaults.
	Weight       float64 `yaml:"weight,omitempty"`
	Step         float64 `yaml:"step,omitempty"`
	Connectivity int     `yaml:"connectivity,omitempty"`

	// Generation defaults.
	OutputDir     string `yaml:"outputDir,omitempty"`
	OutputPrefix  string `yaml:"outputPrefix,omitempty"`
	OutputExt     string `yaml:"outputExt,omitempty"`
	DetectorCell  int    `yaml:"detectorCell,omitempty"`
	ExclusionCell int    `yaml:"exclusionCell,omitempty"`
	DepositFile   string `yaml:"depositFile,omitempty"`
	Parallel      int    `yaml:"parallel,omitempty"`
}

// Load attempts to read doseplan.yml or doseplan.yaml from the given
// directory. Returns a zero-value config (not an error) if no config file
// exists.
func Load(dir string) (*ProjectConfig, error) {
	for _, name := range []string{"doseplan.yml", "doseplan.yaml"} {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var cfg ProjectConfig
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
		return &cfg, nil
	}
	return &ProjectConfig{}, nil
}
