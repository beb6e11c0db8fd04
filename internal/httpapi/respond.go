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
	"log/slog"
	"net/http"

	apierrors "github.com/gobbyhq/gobby/pkg/errors"
)

// writeJSON writes a JSON body with the given status code. Grounded on the
// teacher's internal/daemon/httputil.WriteJSON, rewritten here rather than
// imported so this surface carries no dependency on the daemon package
// being replaced.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("httpapi: failed to encode response", slog.Any("error", err))
	}
}

// writeError maps a store/service error to the HTTP status the error kinds
// table assigns it and writes a {"error": "..."} body. The mapping mirrors
// the kind -> propagation table: Validation/InvalidState -> 400, NotFound
// -> 404, Conflict -> 409, Timeout -> 504, External/Internal -> 502/500.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch err.(type) {
	case *apierrors.ValidationError:
		status = http.StatusBadRequest
	case *apierrors.InvalidStateError:
		status = http.StatusBadRequest
	case *apierrors.NotFoundError:
		status = http.StatusNotFound
	case *apierrors.ConflictError:
		status = http.StatusConflict
	case *apierrors.AlreadyExistsError:
		status = http.StatusConflict
	case *apierrors.TimeoutError:
		status = http.StatusGatewayTimeout
	case *apierrors.ExternalError:
		status = http.StatusBadGateway
	case *apierrors.InternalError:
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
