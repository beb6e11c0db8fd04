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
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gobbyhq/gobby/internal/config"
	"github.com/gobbyhq/gobby/internal/log"
)

func (s *Server) handleAdminStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"version": s.deps.Version,
		"uptime_seconds": uptimeSince(s.startedAt).Seconds(),
	})
}

// handleAdminConfig serializes the loaded configuration, redacting every
// provider's api_key field (log.SanitizeAPIKey's masking rule: show only
// the last four characters) so the response is safe to paste into a bug
// report without leaking credentials.
func (s *Server) handleAdminConfig(w http.ResponseWriter, r *http.Request) {
	if s.deps.Config == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{})
		return
	}

	redacted := *s.deps.Config
	if len(redacted.Providers) > 0 {
		providers := make(config.ProvidersMap, len(redacted.Providers))
		for name, p := range redacted.Providers {
			if p.APIKey != "" {
				p.APIKey = log.SanitizeAPIKey(p.APIKey)
			}
			providers[name] = p
		}
		redacted.Providers = providers
	}
	writeJSON(w, http.StatusOK, redacted)
}

// handleAdminMetrics exposes the process's Prometheus registry in text
// exposition format — the same `prometheus/client_golang` counters the
// Event Bus and webhook dispatcher already register via promauto.
func (s *Server) handleAdminMetrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) handleAdminShutdown(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	if s.deps.Shutdown != nil {
		go s.deps.Shutdown()
	}
}
