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

// Package webhook dispatches outbound notifications to the endpoints
// configured under hook_extensions.webhooks. Emission is fire-and-forget
// from the caller's point of view: Emit only publishes to the event bus,
// and a background loop performs the actual HTTP delivery with retries so
// a stalled or unreachable endpoint never holds up the hook dispatcher or
// the workflow engine that called it.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/gobbyhq/gobby/internal/config"
	"github.com/gobbyhq/gobby/internal/eventbus"
	"github.com/gobbyhq/gobby/internal/store"
)

// Config tunes the dispatcher's delivery behavior.
type Config struct {
	// RequestTimeout bounds a single HTTP delivery attempt.
	RequestTimeout time.Duration
	// DefaultMaxRetries is used for an endpoint that doesn't set its own.
	DefaultMaxRetries int
	// MaxBackoffInterval caps the exponential backoff between attempts.
	MaxBackoffInterval time.Duration
}

// DefaultConfig returns the dispatcher's out-of-the-box tuning.
func DefaultConfig() Config {
	return Config{
		RequestTimeout:     10 * time.Second,
		DefaultMaxRetries:  5,
		MaxBackoffInterval: 30 * time.Second,
	}
}

// Dispatcher subscribes to the event bus's webhook topic and delivers each
// event to every configured endpoint whose event filter matches. It
// satisfies workflow.WebhookEmitter.
type Dispatcher struct {
	store     *store.Store
	bus       *eventbus.Bus
	endpoints []config.WebhookEndpoint
	client    *http.Client
	cfg       Config
	logger    *slog.Logger

	mu   sync.Mutex
	stop chan struct{}
}

// New builds a Dispatcher. Call Start once to begin delivering; Emit
// works (by publishing to the bus) even before Start is called, the
// events just queue up in the subscriber's buffered channel.
func New(st *store.Store, bus *eventbus.Bus, endpoints []config.WebhookEndpoint, cfg Config, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.RequestTimeout == 0 {
		cfg = DefaultConfig()
	}
	return &Dispatcher{
		store:     st,
		bus:       bus,
		endpoints: endpoints,
		client:    &http.Client{Timeout: cfg.RequestTimeout},
		cfg:       cfg,
		logger:    logger,
	}
}

// webhookEnvelope is the event as published to the bus; kept distinct from
// eventbus.Event so a delivered payload doesn't leak bus-internal shape.
type webhookEnvelope struct {
	Event   string                 `json:"event"`
	Payload map[string]interface{} `json:"payload"`
}

// Emit publishes the event to the bus and returns immediately. Delivery
// happens asynchronously once Start is running; a dropped or
// never-running subscriber means the webhook is silently never sent,
// which matches the "best effort, never influences workflow decisions"
// contract callers rely on.
func (d *Dispatcher) Emit(ctx context.Context, event string, payload map[string]interface{}) error {
	d.bus.Publish(eventbus.Event{
		Topic:   eventbus.TopicWebhook,
		Kind:    event,
		Payload: webhookEnvelope{Event: event, Payload: payload},
	})
	return nil
}

// Start subscribes to the webhook topic and delivers events to matching
// endpoints in a background goroutine. Call once after New; call Close to
// stop it. A no-op if there are no configured endpoints.
func (d *Dispatcher) Start() {
	if len(d.endpoints) == 0 {
		return
	}
	d.mu.Lock()
	if d.stop != nil {
		d.mu.Unlock()
		return
	}
	d.stop = make(chan struct{})
	stop := d.stop
	d.mu.Unlock()

	events := d.bus.Subscribe("webhook-dispatcher", eventbus.TopicWebhook)
	go func() {
		for {
			select {
			case <-stop:
				d.bus.Unsubscribe("webhook-dispatcher")
				return
			case evt, ok := <-events:
				if !ok {
					return
				}
				envelope, ok := evt.Payload.(webhookEnvelope)
				if !ok {
					continue
				}
				d.deliverToMatching(context.Background(), envelope)
			}
		}
	}()
}

// Close stops the background delivery loop. Deliveries already in flight
// (each runs in its own goroutine) are not canceled.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stop == nil {
		return
	}
	close(d.stop)
	d.stop = nil
}

// deliverToMatching fans one event out to every endpoint subscribed to it,
// each delivered (and retried) independently so a slow or broken endpoint
// never delays the others.
func (d *Dispatcher) deliverToMatching(ctx context.Context, envelope webhookEnvelope) {
	for _, ep := range d.endpoints {
		if !matchesEvent(ep, envelope.Event) {
			continue
		}
		go d.deliverOne(ctx, ep, envelope)
	}
}

// matchesEvent reports whether an endpoint should receive this event; an
// empty Events filter subscribes to everything.
func matchesEvent(ep config.WebhookEndpoint, event string) bool {
	if len(ep.Events) == 0 {
		return true
	}
	for _, want := range ep.Events {
		if want == event {
			return true
		}
	}
	return false
}

// deliverOne performs the bounded-retry HTTP delivery for one endpoint and
// records the outcome. Retries do not preserve cross-endpoint or
// cross-event ordering: each delivery is its own independent backoff loop.
func (d *Dispatcher) deliverOne(ctx context.Context, ep config.WebhookEndpoint, envelope webhookEnvelope) {
	body, err := json.Marshal(envelope)
	if err != nil {
		d.logger.Error("webhook: failed to marshal payload", slog.String("endpoint", ep.Name), slog.Any("error", err))
		return
	}

	delivery, err := d.store.CreateWebhookDelivery(ctx, envelope.Event, ep.URL)
	if err != nil {
		d.logger.Error("webhook: failed to record delivery", slog.String("endpoint", ep.Name), slog.Any("error", err))
		return
	}

	maxRetries := ep.MaxRetries
	if maxRetries <= 0 {
		maxRetries = d.cfg.DefaultMaxRetries
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxInterval = d.cfg.MaxBackoffInterval
	b.MaxElapsedTime = 0 // bounded by attempt count below, not wall time
	bounded := backoff.WithMaxRetries(b, uint64(maxRetries))

	var statusCode int
	var lastErr error
	attempt := func() error {
		if err := ctx.Err(); err != nil {
			return backoff.Permanent(err)
		}
		statusCode, lastErr = d.send(ctx, ep, body)
		if lastErr == nil {
			return nil
		}
		if statusCode >= 400 && statusCode < 500 {
			// Client-side rejection (bad payload, auth failure): retrying
			// the identical request won't change the outcome.
			return backoff.Permanent(lastErr)
		}
		return lastErr
	}

	if err := backoff.Retry(attempt, backoff.WithContext(bounded, ctx)); err != nil {
		lastErr = err
	}

	msg := ""
	if lastErr != nil {
		msg = lastErr.Error()
		d.logger.Warn("webhook: delivery failed", slog.String("endpoint", ep.Name),
			slog.String("event", envelope.Event), slog.Any("error", lastErr))
	}
	if recErr := d.store.RecordWebhookAttempt(ctx, delivery.ID, statusCode, msg); recErr != nil {
		d.logger.Error("webhook: failed to record delivery outcome", slog.Any("error", recErr))
	}
}

// send performs one HTTP POST attempt and returns the response status code
// (0 if the request never reached a server) and an error if the attempt
// should be considered a failure.
func (d *Dispatcher) send(ctx context.Context, ep config.WebhookEndpoint, body []byte) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ep.URL, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if ep.Secret != "" {
		req.Header.Set("X-Gobby-Signature", sign(ep.Secret, body))
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return resp.StatusCode, fmt.Errorf("webhook endpoint %s returned status %d", ep.Name, resp.StatusCode)
	}
	return resp.StatusCode, nil
}

// sign computes the same sha256=<hex> HMAC convention the inbound generic
// webhook handler verifies, so an operator using Gobby on both ends of a
// webhook relationship can share one verification implementation.
func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}
