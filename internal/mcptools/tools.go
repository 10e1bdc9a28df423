// Package mcptools exposes route planning and input generation as MCP tools,
// so agent frontends can drive the planner over stdio instead of shelling out.
package mcptools

// --- MCP tool types for the doseplan server mode (--serve-mcp) ---

// FindRouteInput is the input for the find_route MCP tool.
type FindRouteInput struct {
	Name         string  `json:"name" jsonschema:"route name"`
	GridPath     string  `json:"gridPath" jsonschema:"path to the grid snapshot JSON"`
	DosePath     string  `json:"dosePath,omitempty" jsonschema:"path to a deposit output used as the dose field (default: zero dose)"`
	Step         float64 `json:"step,omitempty" jsonschema:"waypoint spacing in cm (default: config or 50)"`
	Weight       float64 `json:"weight,omitempty" jsonschema:"dose avoidance weight (default: config)"`
	Connectivity int     `json:"connectivity,omitempty" jsonschema:"4 or 8 neighbor moves (default: 8)"`
}

// FindRouteOutput is the result of the find_route MCP tool.
type FindRouteOutput struct {
	Name      string `json:"name"`
	Cells     int    `json:"cells"`
	Waypoints int    `json:"waypoints"`
	Status    string `json:"status"` // "completed" or "failed"
	Message   string `json:"message,omitempty"`
}

// GenerateInputsInput is the input for the generate_inputs MCP tool.
type GenerateInputsInput struct {
	Name         string `json:"name" jsonschema:"name of a previously planned route"`
	GridPath     string `json:"gridPath" jsonschema:"path to the grid snapshot JSON"`
	TemplatePath string `json:"templatePath" jsonschema:"path to the per-point overlay template"`
	OutDir       string `json:"outDir,omitempty" jsonschema:"output directory (default: config or cwd)"`
}

// GenerateInputsOutput is the result of the generate_inputs MCP tool.
type GenerateInputsOutput struct {
	Name     string   `json:"name"`
	Produced int      `json:"produced"`
	Failed   int      `json:"failed"`
	Files    []string `json:"files,omitempty"`
	Status   string   `json:"status"` // "completed" or "failed"
	Message  string   `json:"message,omitempty"`
}

// RouteStatusInput is the input for the route_status MCP tool.
type RouteStatusInput struct {
	Name        string `json:"name" jsonschema:"route name"`
	OutDir      string `json:"outDir,omitempty" jsonschema:"output directory the inputs were generated into"`
	DepositFile string `json:"depositFile,omitempty" jsonschema:"deposit file name inside each run directory (default: deposit.out)"`
}

// RouteStatusOutput is the result of the route_status MCP tool.
type RouteStatusOutput struct {
	Name          string  `json:"name"`
	Stored        bool    `json:"stored"`
	Inputs        int     `json:"inputs"`
	CompletedRuns int     `json:"completedRuns"`
	TotalDose     float64 `json:"totalDose,omitempty"`
	MaxDose       float64 `json:"maxDose,omitempty"`
	MeanDose      float64 `json:"meanDose,omitempty"`
}
