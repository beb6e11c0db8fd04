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

// Package remote classifies workflow path arguments that look like
// remote references (github:owner/repo[/path][@version]) so the local
// path resolver can reject them with a clear error instead of trying
// to stat them as files.
package remote

import "strings"

// IsRemote reports whether ref looks like a github: remote workflow
// reference rather than a local path.
func IsRemote(ref string) bool {
	return strings.HasPrefix(ref, "github:")
}
