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
	"encoding/json"
	"net/http"
	"time"

	"github.com/gobbyhq/gobby/internal/hooks"
)

// hookExecuteRequest is the wire shape an adapter posts to /hooks/execute:
// its own translate_to_hook_event step has already folded the vendor-native
// payload down to this, leaving only hook_type/source fixed and everything
// else free-form in data/metadata.
type hookExecuteRequest struct {
	HookType  string                 `json:"hook_type"`
	Source    string                 `json:"source"`
	SessionID string                 `json:"session_id"`
	MachineID string                 `json:"machine_id"`
	CWD       string                 `json:"cwd"`
	Data      map[string]interface{} `json:"data"`
	Metadata  map[string]interface{} `json:"metadata"`
}

// handleHooksExecute always answers HTTP 200: any failure to dispatch (bad
// JSON, unknown hook_type, a panic inside the dispatcher) is encoded into
// the response body as a fail-open allow decision rather than surfaced as
// an HTTP error, so a misbehaving daemon never blocks the calling agent.
func (s *Server) handleHooksExecute(w http.ResponseWriter, r *http.Request) {
	var req hookExecuteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusOK, hooks.HookResponse{Decision: hooks.DecisionAllow, Reason: "invalid request body"})
		return
	}

	if s.deps.Hooks == nil {
		writeJSON(w, http.StatusOK, hooks.HookResponse{Decision: hooks.DecisionAllow, Reason: "hook dispatcher unavailable"})
		return
	}

	evt := hooks.HookEvent{
		EventType: hooks.EventType(req.HookType),
		SessionID: req.SessionID,
		Source:    req.Source,
		Timestamp: time.Now().UTC(),
		MachineID: req.MachineID,
		CWD:       req.CWD,
		Data:      req.Data,
		Metadata:  req.Metadata,
	}

	resp := s.deps.Hooks.Dispatch(r.Context(), evt)
	writeJSON(w, http.StatusOK, resp)
}
