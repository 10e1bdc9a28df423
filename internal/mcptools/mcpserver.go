package mcptools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// version is set by the linker at build time.
var version = "dev"

// NewMCPServer creates an MCP server with the 3 doseplan tools registered:
// find_route, generate_inputs, and route_status.
func NewMCPServer(svc *Service) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "doseplan",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "find_route",
		Description: "Plan a dose-aware route on a grid snapshot using A* with a dose-field cost overlay. Stores the route for later input generation.",
	}, svc.FindRoute)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "generate_inputs",
		Description: "Generate one merged simulation input file per sampled waypoint of a previously planned route. Returns the files written.",
	}, svc.GenerateInputs)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "route_status",
		Description: "Report a route's progress: whether it is stored, how many inputs were generated, and the dose aggregates of completed runs.",
	}, svc.RouteStatus)

	return server
}

// RunMCPServerStdio runs the MCP server on stdio transport, blocking until
// stdin is closed or the context is cancelled.
func RunMCPServerStdio(ctx context.Context, server *mcp.Server) error {
	return server.Run(ctx, &mcp.StdioTransport{})
}
