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
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// toolResultText concatenates every text content block in a tool result.
// Gobby's own MCP tools only ever answer with a single text block (see
// internal/mcp/server's textResponse/jsonResponse helpers), so this is
// almost always one string — grounded on the teacher's own client-side
// content extraction in internal/mcp/client.go's CallTool, which uses the
// same mcp.AsTextContent type assertion.
func toolResultText(result *mcp.CallToolResult) string {
	var b strings.Builder
	for _, c := range result.Content {
		if tc, ok := mcp.AsTextContent(c); ok {
			b.WriteString(tc.Text)
		}
	}
	return b.String()
}
