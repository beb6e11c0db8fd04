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

package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVendorBinary(t *testing.T) {
	assert.Equal(t, "cursor-agent", vendorBinary("cursor"))
	assert.Equal(t, "gemini", vendorBinary("gemini-cli"))
	assert.Equal(t, "gemini", vendorBinary("gemini"))
	assert.Equal(t, "claude", vendorBinary("claude-code"))
	assert.Equal(t, "claude", vendorBinary(""))
}

func TestShellJoinQuotesArgsAndDir(t *testing.T) {
	line := shellJoin("claude", []string{"-p", "do it's thing"}, "/tmp/work dir")
	assert.Contains(t, line, "cd '/tmp/work dir'")
	assert.Contains(t, line, `'do it'\''s thing'`)
}

func TestQuoteAppleScriptEscapesDoubleQuotes(t *testing.T) {
	got := quoteAppleScript(`say "hi"`)
	assert.Equal(t, `"say \"hi\""`, got)
}
