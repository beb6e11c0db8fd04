// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package server hosts Gobby's own MCP server: the tool surface an agent
// session talks to (tasks, memories, skills, artifacts, agents, worktrees,
// workflows, pipelines, messaging, search) over the same stdio transport
// the agent's other MCP servers use.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Server wraps the MCP server and the services its tools are backed by.
type Server struct {
	mcpServer   *server.MCPServer
	name        string
	version     string
	rateLimiter *RateLimiter
	logger      *slog.Logger
	schemas     *schemaCache
	deps        Dependencies

	tools map[string]*toolEntry
}

// toolEntry is what addTool records for each registered tool, so the
// loopback HTTP surface (`GET/POST /mcp/{server}/tools...`) can invoke the
// same handlers in-process without going through mcp-go's own stdio
// transport.
type toolEntry struct {
	description string
	schema      map[string]interface{}
	required    []string
	handler     func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)
}

// ToolInfo describes one registered tool for the HTTP tool-listing route.
type ToolInfo struct {
	Name        string
	Description string
	Schema      map[string]interface{}
	Required    []string
}

// ServerConfig configures the MCP server.
type ServerConfig struct {
	// Name is the server name (default: "gobby")
	Name string

	// Version is the Gobby version
	Version string

	// LogLevel controls logging verbosity (debug, info, warn, error)
	LogLevel string

	// Deps are the services this server's tools call into. Tools whose
	// backing service is nil answer with an Internal error rather than
	// panicking, so the server can be stood up incrementally.
	Deps Dependencies
}

// createLogger creates a logger with the specified log level.
// Writes to stderr to avoid interfering with MCP stdio protocol.
func createLogger(levelStr string) (*slog.Logger, error) {
	var level slog.Level

	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info", "":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return nil, fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", levelStr)
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})

	return slog.New(handler), nil
}

// NewServer creates a new MCP server instance.
func NewServer(config ServerConfig) (*Server, error) {
	if config.Name == "" {
		config.Name = "gobby"
	}
	if config.Version == "" {
		config.Version = "dev"
	}

	logger, err := createLogger(config.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	mcpServer := server.NewMCPServer(config.Name, config.Version)
	rateLimiter := NewRateLimiter(10, 100)

	s := &Server{
		mcpServer:   mcpServer,
		name:        config.Name,
		version:     config.Version,
		rateLimiter: rateLimiter,
		logger:      logger,
		schemas:     newSchemaCache(),
		deps:        config.Deps,
		tools:       make(map[string]*toolEntry),
	}

	s.registerTaskTools()
	s.registerMemoryTools()
	s.registerSkillTools()
	s.registerArtifactTools()
	s.registerSearchTools()
	s.registerMessagingTools()
	s.registerWorkflowTools()
	s.registerWorktreeTools()
	s.registerPipelineTools()
	s.registerAgentTools()

	return s, nil
}

// Run starts the MCP server using stdio transport.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("starting gobby MCP server", slog.String("version", s.version))

	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("MCP server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down gobby MCP server")
	// mcp-go has no explicit shutdown hook; returning from ServeStdio is enough.
	return nil
}

// addTool registers a tool, validating its arguments against schema before
// handler runs.
func (s *Server) addTool(name, description string, schema map[string]interface{}, required []string, handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)) {
	props, _ := schema["properties"].(map[string]interface{})
	schemaDoc := map[string]interface{}{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		schemaDoc["required"] = required
	}

	wrapped := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if !s.rateLimiter.AllowCall() {
			return errorResponse("rate limit exceeded, try again shortly"), nil
		}
		if err := s.schemas.validateArgs(name, schemaDoc, req.GetArguments()); err != nil {
			return errorResponse(err.Error()), nil
		}
		return handler(ctx, req)
	}

	s.mcpServer.AddTool(mcp.Tool{
		Name:        name,
		Description: description,
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: props,
			Required:   required,
		},
	}, wrapped)

	s.tools[name] = &toolEntry{description: description, schema: schemaDoc, required: required, handler: wrapped}
}

// ListTools returns every registered tool's name, description, and schema —
// backs the `GET /mcp/{server}/tools` loopback HTTP route.
func (s *Server) ListTools() []ToolInfo {
	out := make([]ToolInfo, 0, len(s.tools))
	for name, t := range s.tools {
		out = append(out, ToolInfo{Name: name, Description: t.description, Schema: t.schema, Required: t.required})
	}
	return out
}

// CallTool invokes a registered tool in-process by name, bypassing mcp-go's
// stdio transport entirely — backs `POST /mcp/{server}/tools/{tool}`.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]interface{}) (*mcp.CallToolResult, error) {
	t, ok := s.tools[name]
	if !ok {
		return nil, fmt.Errorf("unknown tool %q", name)
	}
	req := mcp.CallToolRequest{Params: mcp.CallToolParams{Name: name, Arguments: args}}
	return t.handler(ctx, req)
}

func errorResponse(message string) *mcp.CallToolResult {
	return mcp.NewToolResultError(message)
}

func textResponse(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
	}
}

func jsonResponse(v interface{}) (*mcp.CallToolResult, error) {
	return textResponse(toJSON(v)), nil
}
