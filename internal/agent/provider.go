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

// resolveProvider applies the fixed lookup order: explicit request ->
// workflow default -> configuration -> built-in default. Gobby has no separate "workflow default provider" setting of
// its own yet, so that step falls through to configuration; the order is
// still honored so a future per-workflow default slots in without
// touching callers.
func (s *Supervisor) resolveProvider(req SpawnRequest) (provider, model string) {
	if req.Provider != "" {
		provider = req.Provider
	} else if s.cfg != nil && len(s.cfg.Providers) > 0 {
		if _, ok := s.cfg.Providers[s.agentCfg.DefaultProvider]; ok {
			provider = s.agentCfg.DefaultProvider
		} else {
			for name := range s.cfg.Providers {
				provider = name
				break
			}
		}
	} else {
		provider = s.agentCfg.DefaultProvider
	}

	if req.Model != "" {
		model = req.Model
	} else if s.cfg != nil {
		if pc, ok := s.cfg.Providers[provider]; ok {
			model = pc.Models.Balanced
		}
	}
	if model == "" {
		model = s.agentCfg.DefaultModel
	}
	return provider, model
}
