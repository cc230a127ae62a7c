// Package tools provides the tool registry and its MCP (Model Context
// Protocol) bridges.
//
// It is organized into sub-packages:
//   - [github.com/germanamz/actloop/pkg/tools/toolbox]: Tool type and the ToolBox registry that validates, runs and reports tool calls
//   - [github.com/germanamz/actloop/pkg/tools/mcpclient]: connects to external MCP servers and imports their tools into a ToolBox
//   - [github.com/germanamz/actloop/pkg/tools/mcpserver]: exposes a ToolBox over MCP
//
// Both bridges are thin wrappers around the official MCP Go SDK
// (github.com/modelcontextprotocol/go-sdk) and depend only on toolbox.
package tools
