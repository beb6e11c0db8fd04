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

// Package httpapi is gobbyd's loopback HTTP and WebSocket surface: the one
// place every vendor adapter, CLI invocation, and browser-based dashboard
// talks to the running daemon. It never listens on a non-loopback address
// and carries no distributed/clustering concerns of its own — it's a thin
// transport in front of the Store, Hook Dispatcher, Session Registry, MCP
// tool servers, and Event Bus that the daemon already wires together.
package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/gobbyhq/gobby/internal/config"
	"github.com/gobbyhq/gobby/internal/eventbus"
	"github.com/gobbyhq/gobby/internal/hooks"
	mcpserver "github.com/gobbyhq/gobby/internal/mcp/server"
	"github.com/gobbyhq/gobby/internal/session"
	"github.com/gobbyhq/gobby/internal/store"
)

// Dependencies are the already-wired components the HTTP/WS surface is a
// transport in front of. Nil fields are tolerated: the routes that need
// them answer with an Internal error rather than panicking, matching the
// nil-safe pattern C5/C7's Dependencies bundles already use.
type Dependencies struct {
	Store    *store.Store
	Sessions *session.Registry
	Hooks    *hooks.Dispatcher
	Bus      *eventbus.Bus
	Config   *config.Config

	// MCP maps a server name (e.g. "gobby") to the in-process tool server
	// backing /mcp/{server}/tools routes.
	MCP map[string]*mcpserver.Server

	// Version is reported by /admin/status.
	Version string

	// Shutdown is invoked by POST /admin/shutdown. Typically cancels the
	// daemon's root context.
	Shutdown func()
}

// Server is the loopback HTTP/WS listener. One per daemon process.
type Server struct {
	deps      Dependencies
	mux       *http.ServeMux
	logger    *slog.Logger
	hub       *wsHub
	startedAt time.Time
}

// New builds a Server and registers every route. Call ListenAndServe (or
// wrap Handler in an *http.Server) to start serving.
func New(deps Dependencies, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		deps:      deps,
		mux:       http.NewServeMux(),
		logger:    logger,
		hub:       newWSHub(deps.Bus, logger),
		startedAt: time.Now(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("POST /hooks/execute", s.handleHooksExecute)

	s.mux.HandleFunc("POST /sessions/register", s.handleSessionsRegister)
	s.mux.HandleFunc("GET /sessions/{id}", s.handleSessionsGet)
	s.mux.HandleFunc("POST /sessions/find_current", s.handleSessionsFindCurrent)
	s.mux.HandleFunc("POST /sessions/find_parent", s.handleSessionsFindParent)
	s.mux.HandleFunc("POST /sessions/update_status", s.handleSessionsUpdateStatus)
	s.mux.HandleFunc("POST /sessions/update_summary", s.handleSessionsUpdateSummary)

	s.mux.HandleFunc("GET /admin/status", s.handleAdminStatus)
	s.mux.HandleFunc("GET /admin/config", s.handleAdminConfig)
	s.mux.HandleFunc("GET /admin/metrics", s.handleAdminMetrics)
	s.mux.HandleFunc("POST /admin/shutdown", s.handleAdminShutdown)

	s.mux.HandleFunc("GET /mcp/{server}/tools", s.handleMCPListTools)
	s.mux.HandleFunc("POST /mcp/{server}/tools/{tool}", s.handleMCPCallTool)

	s.mux.HandleFunc("GET /ws", s.handleWebSocket)
}

// Handler returns the fully wrapped handler (route mux plus logging
// middleware), suitable for http.Server.Handler.
func (s *Server) Handler() http.Handler {
	return s.withLogging(s.mux)
}

// withLogging logs every request with a per-request correlation id,
// grounded on the teacher's daemon router's request-logging middleware —
// simplified to drop its OpenTelemetry tracing layer, which this surface
// has no use for.
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.NewString()
		logger := s.logger.With(slog.String("request_id", requestID))

		defer func() {
			logger.Info("httpapi: request completed",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int64("duration_ms", time.Since(start).Milliseconds()))
		}()

		next.ServeHTTP(w, r)
	})
}

// Close shuts down the WebSocket hub's background goroutines. Does not
// close the underlying http.Server — callers own that lifecycle.
func (s *Server) Close() {
	s.hub.close()
}

func uptimeSince(t time.Time) time.Duration { return time.Since(t) }
