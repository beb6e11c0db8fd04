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

package server

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/gobbyhq/gobby/internal/store"
)

func (s *Server) registerArtifactTools() {
	s.addTool("create_artifact",
		"Record an artifact (a document, diagram, or generated file) produced by a session.",
		map[string]interface{}{"properties": map[string]interface{}{
			"session_id":   stringProp("session id that produced the artifact"),
			"title":        stringProp("artifact title"),
			"content":      stringProp("artifact content"),
			"content_type": stringProp("MIME type or short content kind, e.g. 'text/markdown'"),
			"source_path":  stringProp("path the artifact was written from, if any"),
			"tags":         arrayOfStringsProp("free-form tags"),
		}},
		[]string{"session_id", "title", "content"},
		s.handleCreateArtifact)

	s.addTool("get_artifact",
		"Fetch an artifact by id.",
		map[string]interface{}{"properties": map[string]interface{}{
			"artifact_id": stringProp("artifact id"),
		}},
		[]string{"artifact_id"},
		s.handleGetArtifact)

	s.addTool("search_artifacts",
		"Full-text search over artifact titles and content, optionally scoped by project/session/content-type/tag.",
		map[string]interface{}{"properties": map[string]interface{}{
			"query":        stringProp("search text"),
			"project_id":   stringProp("restrict to a project"),
			"session_id":   stringProp("restrict to a session"),
			"content_type": stringProp("restrict to a content type"),
			"tag":          stringProp("restrict to artifacts carrying this tag"),
		}},
		[]string{"query"},
		s.handleSearchArtifacts)
}

func (s *Server) handleCreateArtifact(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := req.RequireString("session_id")
	title, _ := req.RequireString("title")
	content, _ := req.RequireString("content")

	sess, err := s.deps.Sessions.Get(ctx, sessionID)
	if err != nil {
		return errResult(err), nil
	}

	artifact := &store.Artifact{
		ProjectID:   sess.ProjectID,
		SessionID:   sessionID,
		Title:       title,
		Content:     content,
		ContentType: req.GetString("content_type", ""),
		SourcePath:  req.GetString("source_path", ""),
		Tags:        stringSliceArg(req, "tags"),
	}
	created, err := s.deps.Store.CreateArtifact(ctx, artifact)
	if err != nil {
		return errResult(err), nil
	}
	return jsonResponse(created)
}

func (s *Server) handleGetArtifact(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, _ := req.RequireString("artifact_id")
	artifact, err := s.deps.Store.GetArtifact(ctx, id)
	if err != nil {
		return errResult(err), nil
	}
	return jsonResponse(artifact)
}

func (s *Server) handleSearchArtifacts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, _ := req.RequireString("query")
	filter := store.ArtifactSearchFilter{
		ProjectID:   req.GetString("project_id", ""),
		SessionID:   req.GetString("session_id", ""),
		ContentType: req.GetString("content_type", ""),
		Tag:         req.GetString("tag", ""),
	}
	artifacts, err := s.deps.Store.SearchArtifacts(ctx, query, filter)
	if err != nil {
		return errResult(err), nil
	}
	return jsonResponse(artifacts)
}
