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

	"github.com/gobbyhq/gobby/internal/session"
	"github.com/gobbyhq/gobby/internal/store"
	apierrors "github.com/gobbyhq/gobby/pkg/errors"
)

func (s *Server) sessionRegistry() (*session.Registry, error) {
	if s.deps.Sessions == nil {
		return nil, apierrors.Internal("httpapi", apierrors.New("session registry unavailable"))
	}
	return s.deps.Sessions, nil
}

type registerRequest struct {
	ExternalID      string `json:"external_id"`
	MachineID       string `json:"machine_id"`
	Source          string `json:"source"`
	CWD             string `json:"cwd"`
	Title           string `json:"title"`
	GitBranch       string `json:"git_branch"`
	ParentSessionID string `json:"parent_session_id"`
}

func (s *Server) handleSessionsRegister(w http.ResponseWriter, r *http.Request) {
	registry, err := s.sessionRegistry()
	if err != nil {
		writeError(w, err)
		return
	}
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apierrors.Validation("body", "invalid JSON"))
		return
	}
	sess, err := registry.Register(r.Context(), session.RegisterInput{
		ExternalID:      req.ExternalID,
		MachineID:       req.MachineID,
		Source:          req.Source,
		CWD:             req.CWD,
		Title:           req.Title,
		GitBranch:       req.GitBranch,
		ParentSessionID: req.ParentSessionID,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleSessionsGet(w http.ResponseWriter, r *http.Request) {
	registry, err := s.sessionRegistry()
	if err != nil {
		writeError(w, err)
		return
	}
	id := r.PathValue("id")
	sess, err := registry.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

type findCurrentRequest struct {
	ExternalID string `json:"external_id"`
	MachineID  string `json:"machine_id"`
	Source     string `json:"source"`
}

func (s *Server) handleSessionsFindCurrent(w http.ResponseWriter, r *http.Request) {
	registry, err := s.sessionRegistry()
	if err != nil {
		writeError(w, err)
		return
	}
	var req findCurrentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apierrors.Validation("body", "invalid JSON"))
		return
	}
	sess, err := registry.FindCurrent(r.Context(), req.ExternalID, req.MachineID, req.Source)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

type findParentRequest struct {
	SessionID string `json:"session_id"`
}

func (s *Server) handleSessionsFindParent(w http.ResponseWriter, r *http.Request) {
	registry, err := s.sessionRegistry()
	if err != nil {
		writeError(w, err)
		return
	}
	var req findParentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apierrors.Validation("body", "invalid JSON"))
		return
	}
	parent, err := registry.FindParent(r.Context(), req.SessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, parent)
}

type updateStatusRequest struct {
	SessionID string             `json:"session_id"`
	Status    store.SessionStatus `json:"status"`
}

func (s *Server) handleSessionsUpdateStatus(w http.ResponseWriter, r *http.Request) {
	registry, err := s.sessionRegistry()
	if err != nil {
		writeError(w, err)
		return
	}
	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apierrors.Validation("body", "invalid JSON"))
		return
	}
	if err := registry.UpdateStatus(r.Context(), req.SessionID, req.Status); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type updateSummaryRequest struct {
	SessionID       string `json:"session_id"`
	SummaryMarkdown string `json:"summary_markdown"`
	CompactMarkdown string `json:"compact_markdown"`
}

func (s *Server) handleSessionsUpdateSummary(w http.ResponseWriter, r *http.Request) {
	registry, err := s.sessionRegistry()
	if err != nil {
		writeError(w, err)
		return
	}
	var req updateSummaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apierrors.Validation("body", "invalid JSON"))
		return
	}
	if err := registry.UpdateSummary(r.Context(), req.SessionID, req.SummaryMarkdown, req.CompactMarkdown); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
