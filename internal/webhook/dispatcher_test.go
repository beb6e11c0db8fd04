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

package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gobbyhq/gobby/internal/config"
	"github.com/gobbyhq/gobby/internal/eventbus"
	"github.com/gobbyhq/gobby/internal/store"
)

func newTestDispatcher(t *testing.T, endpoints []config.WebhookEndpoint) (*Dispatcher, *store.Store) {
	t.Helper()
	ctx := context.Background()

	st, err := store.Open(ctx, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	bus := eventbus.New(nil)
	t.Cleanup(bus.Close)

	cfg := DefaultConfig()
	cfg.RequestTimeout = 2 * time.Second
	cfg.MaxBackoffInterval = 50 * time.Millisecond
	d := New(st, bus, endpoints, cfg, nil)
	return d, st
}

func TestDispatcherDeliversMatchingEvent(t *testing.T) {
	var received int32
	var gotSignature string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&received, 1)
		gotSignature = r.Header.Get("X-Gobby-Signature")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	endpoint := config.WebhookEndpoint{Name: "test", URL: srv.URL, Events: []string{"pipeline.complete"}, Secret: "shh"}
	d, _ := newTestDispatcher(t, []config.WebhookEndpoint{endpoint})

	ctx := context.Background()
	d.Start()
	defer d.Close()

	require.NoError(t, d.Emit(ctx, "pipeline.complete", map[string]interface{}{"pipeline": "demo"}))

	require.Eventually(t, func() bool { return atomic.LoadInt32(&received) == 1 }, time.Second, 10*time.Millisecond)

	mac := hmac.New(sha256.New, []byte("shh"))
	mac.Write(gotBody)
	assert.Equal(t, "sha256="+hex.EncodeToString(mac.Sum(nil)), gotSignature)

	var envelope webhookEnvelope
	require.NoError(t, json.Unmarshal(gotBody, &envelope))
	assert.Equal(t, "pipeline.complete", envelope.Event)
	assert.Equal(t, "demo", envelope.Payload["pipeline"])
}

func TestDispatcherSkipsNonMatchingEvent(t *testing.T) {
	var received int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&received, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	endpoint := config.WebhookEndpoint{Name: "test", URL: srv.URL, Events: []string{"pipeline.complete"}}
	d, _ := newTestDispatcher(t, []config.WebhookEndpoint{endpoint})

	ctx := context.Background()
	d.Start()
	defer d.Close()

	require.NoError(t, d.Emit(ctx, "pipeline.failed", map[string]interface{}{}))

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&received))
}

func TestDispatcherRetriesThenSucceeds(t *testing.T) {
	var attempts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&attempts, 1)
		if n < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	endpoint := config.WebhookEndpoint{Name: "flaky", URL: srv.URL, MaxRetries: 5}
	d, st := newTestDispatcher(t, []config.WebhookEndpoint{endpoint})

	ctx := context.Background()
	d.Start()
	defer d.Close()

	require.NoError(t, d.Emit(ctx, "retry.test", map[string]interface{}{}))

	require.Eventually(t, func() bool { return atomic.LoadInt32(&attempts) >= 3 }, 2*time.Second, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		deliveries, err := st.ListWebhookDeliveries(ctx, "retry.test", 10)
		require.NoError(t, err)
		return len(deliveries) == 1 && deliveries[0].DeliveredAt != ""
	}, 2*time.Second, 20*time.Millisecond)
}

func TestDispatcherPermanentFailureDoesNotRetryPast4xx(t *testing.T) {
	var attempts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	endpoint := config.WebhookEndpoint{Name: "rejecting", URL: srv.URL, MaxRetries: 5}
	d, st := newTestDispatcher(t, []config.WebhookEndpoint{endpoint})

	ctx := context.Background()
	d.Start()
	defer d.Close()

	require.NoError(t, d.Emit(ctx, "bad.request", map[string]interface{}{}))

	require.Eventually(t, func() bool {
		deliveries, err := st.ListWebhookDeliveries(ctx, "bad.request", 10)
		require.NoError(t, err)
		return len(deliveries) == 1 && deliveries[0].LastError != ""
	}, time.Second, 10*time.Millisecond)

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&attempts))
}
