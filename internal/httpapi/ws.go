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

package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/gobbyhq/gobby/internal/eventbus"
)

const (
	wsPingInterval = 30 * time.Second
	wsIdleTimeout  = 60 * time.Second
)

// wsHub tracks every live WebSocket connection and fans Event Bus
// occurrences out to them. Each connection subscribes to the bus under its
// own name so a slow client only drops its own queued events (eventbus's
// non-blocking, drop-oldest delivery) rather than stalling the others.
type wsHub struct {
	bus    *eventbus.Bus
	logger *slog.Logger

	mu    sync.Mutex
	conns map[string]*wsConn
}

func newWSHub(bus *eventbus.Bus, logger *slog.Logger) *wsHub {
	if logger == nil {
		logger = slog.Default()
	}
	return &wsHub{bus: bus, logger: logger, conns: make(map[string]*wsConn)}
}

func (h *wsHub) register(c *wsConn) {
	h.mu.Lock()
	h.conns[c.id] = c
	h.mu.Unlock()
}

func (h *wsHub) unregister(c *wsConn) {
	h.mu.Lock()
	delete(h.conns, c.id)
	h.mu.Unlock()
}

func (h *wsHub) close() {
	h.mu.Lock()
	conns := make([]*wsConn, 0, len(h.conns))
	for _, c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.Unlock()
	for _, c := range conns {
		c.conn.Close()
	}
}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// Loopback-only surface (spec.md §6) — every caller is the local
	// machine, so the usual cross-origin browser check doesn't apply.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsOutbound is the envelope every server-to-client message uses. Type
// mirrors the Event Bus topic it was derived from, or one of the
// synchronous response kinds (tool_result, error).
type wsOutbound struct {
	Type    string      `json:"type"`
	Topic   string      `json:"topic,omitempty"`
	Kind    string      `json:"kind,omitempty"`
	ID      string      `json:"id,omitempty"`
	Session string      `json:"session,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// wsInbound is the shape of every client-to-server message. Fields not used
// by a given Type are left zero.
type wsInbound struct {
	Type    string                 `json:"type"`
	Tool    string                 `json:"tool"`
	Args    map[string]interface{} `json:"args"`
	Session string                 `json:"session"`
	Cols    int                    `json:"cols"`
	Rows    int                    `json:"rows"`
	Input   string                 `json:"input"`
}

type wsConn struct {
	id     string
	conn   *websocket.Conn
	hub    *wsHub
	server *Server
	logger *slog.Logger

	writeMu sync.Mutex

	termMu sync.Mutex
	term   *terminalAttachment
}

// handleWebSocket upgrades the request and runs the connection's read and
// write loops until the client disconnects or goes idle past wsIdleTimeout.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("httpapi: websocket upgrade failed", slog.Any("error", err))
		return
	}

	c := &wsConn{
		id:     uuid.NewString(),
		conn:   conn,
		hub:    s.hub,
		server: s,
		logger: s.logger.With(slog.String("ws_conn", uuid.NewString())),
	}
	s.hub.register(c)

	ctx, cancel := context.WithCancel(context.Background())
	go c.writeLoop(ctx)
	c.readLoop(ctx, cancel)
}

func (c *wsConn) writeJSON(v interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(v)
}

// writeLoop fans Event Bus occurrences + periodic pings out to the client
// until ctx is cancelled by readLoop exiting.
func (c *wsConn) writeLoop(ctx context.Context) {
	var events <-chan eventbus.Event
	if c.hub.bus != nil {
		events = c.hub.bus.Subscribe(c.id)
		defer c.hub.bus.Unsubscribe(c.id)
	}

	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.writeMu.Lock()
			err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
			c.writeMu.Unlock()
			if err != nil {
				return
			}
		case evt, ok := <-events:
			if !ok {
				return
			}
			if err := c.writeJSON(outboundForEvent(evt)); err != nil {
				return
			}
		}
	}
}

// outboundForEvent maps an Event Bus occurrence onto spec.md §6's fixed
// outbound vocabulary (session_update, terminal_output, tmux_session_event,
// tool_result, error). Every non-session-lifecycle topic is folded into
// session_update, carrying its originating topic/kind so a client can still
// discriminate — the Event Bus's topic set is broader than the WebSocket
// surface's message-type set.
func outboundForEvent(evt eventbus.Event) wsOutbound {
	return wsOutbound{
		Type:  "session_update",
		Topic: string(evt.Topic),
		Kind:  evt.Kind,
		ID:    evt.ID,
		Data:  evt.Payload,
	}
}

// readLoop handles inbound client messages: ping keepalive, MCP tool_call
// dispatch, and terminal multiplexer control (list/create/kill/resize/
// attach/detach/input). It enforces the 60s idle timeout itself by resetting
// the read deadline on every received frame.
func (c *wsConn) readLoop(ctx context.Context, cancel context.CancelFunc) {
	defer cancel()
	defer c.hub.unregister(c)
	defer func() {
		c.termMu.Lock()
		if c.term != nil {
			c.term.Detach()
		}
		c.termMu.Unlock()
	}()
	defer c.conn.Close()

	c.conn.SetReadDeadline(time.Now().Add(wsIdleTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(wsIdleTimeout))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("httpapi: websocket read error", slog.Any("error", err))
			}
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(wsIdleTimeout))

		var msg wsInbound
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.writeJSON(wsOutbound{Type: "error", Data: "invalid JSON message"})
			continue
		}

		switch msg.Type {
		case "ping":
			c.writeJSON(wsOutbound{Type: "pong"})
		case "tool_call":
			c.handleToolCall(ctx, msg)
		case "tmux_list", "tmux_create", "tmux_kill", "tmux_resize", "tmux_attach", "tmux_detach", "tmux_input":
			c.handleTerminalControl(ctx, msg)
		default:
			c.writeJSON(wsOutbound{Type: "error", Data: "unknown message type " + msg.Type})
		}
	}
}

func (c *wsConn) handleToolCall(ctx context.Context, msg wsInbound) {
	srv, ok := c.server.deps.MCP["gobby"]
	if !ok {
		c.writeJSON(wsOutbound{Type: "error", Data: "mcp server unavailable"})
		return
	}
	result, err := srv.CallTool(ctx, msg.Tool, msg.Args)
	if err != nil {
		c.writeJSON(wsOutbound{Type: "tool_result", Data: map[string]interface{}{"success": false, "error": err.Error()}})
		return
	}
	if result.IsError {
		c.writeJSON(wsOutbound{Type: "tool_result", Data: map[string]interface{}{"success": false, "error": toolResultText(result)}})
		return
	}
	c.writeJSON(wsOutbound{Type: "tool_result", Data: map[string]interface{}{"success": true, "result": toolResultText(result)}})
}

func (c *wsConn) handleTerminalControl(ctx context.Context, msg wsInbound) {
	switch msg.Type {
	case "tmux_list":
		sessions, err := tmuxList(ctx)
		if err != nil {
			c.writeJSON(wsOutbound{Type: "error", Data: err.Error()})
			return
		}
		c.writeJSON(wsOutbound{Type: "tmux_session_event", Kind: "list", Data: sessions})

	case "tmux_create":
		if err := tmuxCreate(ctx, msg.Session); err != nil {
			c.writeJSON(wsOutbound{Type: "error", Data: err.Error()})
			return
		}
		c.writeJSON(wsOutbound{Type: "tmux_session_event", Kind: "created", Session: msg.Session})

	case "tmux_kill":
		c.termMu.Lock()
		if c.term != nil {
			c.term.Detach()
			c.term = nil
		}
		c.termMu.Unlock()
		if err := tmuxKill(ctx, msg.Session); err != nil {
			c.writeJSON(wsOutbound{Type: "error", Data: err.Error()})
			return
		}
		c.writeJSON(wsOutbound{Type: "tmux_session_event", Kind: "killed", Session: msg.Session})

	case "tmux_resize":
		if err := tmuxResize(ctx, msg.Session, msg.Cols, msg.Rows); err != nil {
			c.writeJSON(wsOutbound{Type: "error", Data: err.Error()})
			return
		}
		c.writeJSON(wsOutbound{Type: "tmux_session_event", Kind: "resized", Session: msg.Session})

	case "tmux_attach":
		c.termMu.Lock()
		if c.term != nil {
			c.term.Detach()
		}
		term := &terminalAttachment{}
		c.term = term
		c.termMu.Unlock()

		err := term.Attach(ctx, msg.Session, func(chunk []byte) {
			c.writeJSON(wsOutbound{Type: "terminal_output", Session: msg.Session, Data: string(chunk)})
		})
		if err != nil {
			c.writeJSON(wsOutbound{Type: "error", Data: err.Error()})
			return
		}
		c.writeJSON(wsOutbound{Type: "tmux_session_event", Kind: "attached", Session: msg.Session})

	case "tmux_detach":
		c.termMu.Lock()
		if c.term != nil {
			c.term.Detach()
			c.term = nil
		}
		c.termMu.Unlock()
		c.writeJSON(wsOutbound{Type: "tmux_session_event", Kind: "detached", Session: msg.Session})

	case "tmux_input":
		c.termMu.Lock()
		term := c.term
		c.termMu.Unlock()
		if term == nil {
			c.writeJSON(wsOutbound{Type: "error", Data: "no attached terminal"})
			return
		}
		if err := term.Write([]byte(msg.Input)); err != nil {
			c.writeJSON(wsOutbound{Type: "error", Data: err.Error()})
		}
	}
}
