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
	pkgerrors "github.com/gobbyhq/gobby/pkg/errors"
)

func (s *Server) registerMessagingTools() {
	s.addTool("send_to_parent",
		"Send a message to the session that spawned this one.",
		map[string]interface{}{"properties": map[string]interface{}{
			"session_id": stringProp("sending session id"),
			"subject":    stringProp("message subject"),
			"body":       stringProp("message body"),
		}},
		[]string{"session_id", "subject", "body"},
		s.handleSendToParent)

	s.addTool("send_to_child",
		"Send a message to a direct child session.",
		map[string]interface{}{"properties": map[string]interface{}{
			"session_id": stringProp("sending session id"),
			"child_id":   stringProp("recipient session id, must be a direct child"),
			"subject":    stringProp("message subject"),
			"body":       stringProp("message body"),
		}},
		[]string{"session_id", "child_id", "subject", "body"},
		s.handleSendToChild)

	s.addTool("broadcast_to_children",
		"Send a message to every descendant session of this one.",
		map[string]interface{}{"properties": map[string]interface{}{
			"session_id": stringProp("sending session id"),
			"subject":    stringProp("message subject"),
			"body":       stringProp("message body"),
		}},
		[]string{"session_id", "subject", "body"},
		s.handleBroadcastToChildren)

	s.addTool("check_inbox",
		"List messages addressed to this session, optionally including already-read ones.",
		map[string]interface{}{"properties": map[string]interface{}{
			"session_id":   stringProp("session id"),
			"include_read": boolProp("include messages already marked read"),
		}},
		[]string{"session_id"},
		s.handleCheckInbox)

	s.addTool("mark_message_read",
		"Mark an inbox message as read.",
		map[string]interface{}{"properties": map[string]interface{}{
			"message_id": stringProp("message id"),
		}},
		[]string{"message_id"},
		s.handleMarkMessageRead)
}

func (s *Server) handleSendToParent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := req.RequireString("session_id")
	subject, _ := req.RequireString("subject")
	body, _ := req.RequireString("body")

	sess, err := s.deps.Sessions.Get(ctx, sessionID)
	if err != nil {
		return errResult(err), nil
	}
	if sess.ParentSessionID == "" {
		return errResult(pkgerrors.Validation("session_id", "session has no parent to send to")), nil
	}

	msg, err := s.deps.Store.SendInterSessionMessage(ctx, &store.InterSessionMessage{
		FromSessionID: sessionID,
		ToSessionID:   sess.ParentSessionID,
		Subject:       subject,
		Body:          body,
	})
	if err != nil {
		return errResult(err), nil
	}
	return jsonResponse(msg)
}

func (s *Server) handleSendToChild(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := req.RequireString("session_id")
	childID, _ := req.RequireString("child_id")
	subject, _ := req.RequireString("subject")
	body, _ := req.RequireString("body")

	children, err := s.deps.Sessions.FindChildren(ctx, sessionID)
	if err != nil {
		return errResult(err), nil
	}
	found := false
	for _, c := range children {
		if c.ID == childID {
			found = true
			break
		}
	}
	if !found {
		return errResult(pkgerrors.Validation("child_id", "not a direct child of session_id")), nil
	}

	msg, err := s.deps.Store.SendInterSessionMessage(ctx, &store.InterSessionMessage{
		FromSessionID: sessionID,
		ToSessionID:   childID,
		Subject:       subject,
		Body:          body,
	})
	if err != nil {
		return errResult(err), nil
	}
	return jsonResponse(msg)
}

func (s *Server) handleBroadcastToChildren(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := req.RequireString("session_id")
	subject, _ := req.RequireString("subject")
	body, _ := req.RequireString("body")

	msgs, err := s.deps.Store.BroadcastInterSessionMessage(ctx, sessionID, subject, body)
	if err != nil {
		return errResult(err), nil
	}
	return jsonResponse(msgs)
}

func (s *Server) handleCheckInbox(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := req.RequireString("session_id")
	includeRead := req.GetBool("include_read", false)

	msgs, err := s.deps.Store.InboxForSession(ctx, sessionID, includeRead)
	if err != nil {
		return errResult(err), nil
	}
	return jsonResponse(msgs)
}

func (s *Server) handleMarkMessageRead(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, _ := req.RequireString("message_id")
	if err := s.deps.Store.MarkInterSessionMessageRead(ctx, id); err != nil {
		return errResult(err), nil
	}
	return textResponse(`{"marked_read":true}`), nil
}
