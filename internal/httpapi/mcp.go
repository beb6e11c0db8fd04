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
)

func (s *Server) handleMCPListTools(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("server")
	srv, ok := s.deps.MCP[name]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown mcp server " + name})
		return
	}

	tools := srv.ListTools()
	out := make([]map[string]interface{}, 0, len(tools))
	for _, t := range tools {
		out = append(out, map[string]interface{}{
			"name":        t.Name,
			"description": t.Description,
			"schema":      t.Schema,
			"required":    t.Required,
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"tools": out})
}

// handleMCPCallTool invokes a registered tool in-process and always
// answers 200, folding a dispatch failure into {"success": false, "error"}
// per spec's documented tool-call response shape — tool calls themselves
// are fail-closed (a failing tool answers with success:false, it doesn't
// silently no-op), but the transport layer itself never 5xxs here.
func (s *Server) handleMCPCallTool(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("server")
	tool := r.PathValue("tool")

	srv, ok := s.deps.MCP[name]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown mcp server " + name})
		return
	}

	var args map[string]interface{}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&args); err != nil {
			writeJSON(w, http.StatusOK, map[string]interface{}{"success": false, "error": "invalid JSON body"})
			return
		}
	}

	result, err := srv.CallTool(r.Context(), tool, args)
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": false, "error": err.Error()})
		return
	}
	if result.IsError {
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": false, "error": toolResultText(result)})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "result": toolResultText(result)})
}
