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

package expression

import "sync"

// StopRegistry is the small in-memory set the has_stop_signal predicate
// consults. A signal is raised by the admin "stop" command or a CLI
// interrupt and cleared once the workflow engine has acted on it.
type StopRegistry struct {
	mu      sync.RWMutex
	stopped map[string]bool
}

// NewStopRegistry creates an empty registry.
func NewStopRegistry() *StopRegistry {
	return &StopRegistry{stopped: make(map[string]bool)}
}

// Signal marks sessionID as having an outstanding stop request.
func (r *StopRegistry) Signal(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopped[sessionID] = true
}

// Clear removes sessionID's stop request, once acted on.
func (r *StopRegistry) Clear(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.stopped, sessionID)
}

// Has reports whether sessionID has an outstanding stop request.
func (r *StopRegistry) Has(sessionID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.stopped[sessionID]
}
