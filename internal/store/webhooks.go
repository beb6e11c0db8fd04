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

package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/gobbyhq/gobby/pkg/errors"
)

// WebhookDelivery is one outbound delivery attempt record: a row is
// created when a webhook is first scheduled and updated in place as
// retries run, so a reader always sees the latest attempt count and
// outcome rather than one row per attempt.
type WebhookDelivery struct {
	ID          string
	EventType   string
	URL         string
	StatusCode  int
	Attempts    int
	LastError   string
	DeliveredAt string
	CreatedAt   string
}

// CreateWebhookDelivery inserts a pending delivery row for one (event,
// endpoint) pair.
func (s *Store) CreateWebhookDelivery(ctx context.Context, eventType, url string) (*WebhookDelivery, error) {
	d := &WebhookDelivery{
		ID:        uuid.NewString(),
		EventType: eventType,
		URL:       url,
		CreatedAt: now(),
	}
	err := s.withTx(ctx, "webhook_deliveries", ChangeInsert, d.ID, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO webhook_deliveries (id, event_type, url, attempts, created_at)
			VALUES (?, ?, ?, 0, ?)`, d.ID, d.EventType, d.URL, d.CreatedAt)
		return err
	})
	if err != nil {
		return nil, errors.External("sqlite", "insert-webhook-delivery", err)
	}
	return d, nil
}

// RecordWebhookAttempt bumps the attempt counter and records the
// outcome of one delivery try. A non-zero statusCode with no lastError
// marks the delivery as finally delivered.
func (s *Store) RecordWebhookAttempt(ctx context.Context, id string, statusCode int, lastError string) error {
	delivered := lastError == "" && statusCode > 0
	return s.withTx(ctx, "webhook_deliveries", ChangeUpdate, id, func(tx *sql.Tx) error {
		if delivered {
			_, err := tx.ExecContext(ctx, `
				UPDATE webhook_deliveries
				SET attempts = attempts + 1, status_code = ?, last_error = NULL, delivered_at = ?
				WHERE id = ?`, statusCode, now(), id)
			return err
		}
		_, err := tx.ExecContext(ctx, `
			UPDATE webhook_deliveries
			SET attempts = attempts + 1, status_code = ?, last_error = ?
			WHERE id = ?`, nullableStatusCode(statusCode), nullable(lastError), id)
		return err
	})
}

// nullableStatusCode maps a non-positive status code to NULL (no
// response was ever received) rather than storing a meaningless 0.
func nullableStatusCode(v int) interface{} {
	if v <= 0 {
		return nil
	}
	return v
}

// ListWebhookDeliveries returns delivery rows for one event type, most
// recent first, for CLI/admin inspection.
func (s *Store) ListWebhookDeliveries(ctx context.Context, eventType string, limit int) ([]*WebhookDelivery, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.read.QueryContext(ctx, `
		SELECT id, event_type, url, COALESCE(status_code, 0), attempts, COALESCE(last_error, ''),
			COALESCE(delivered_at, ''), created_at
		FROM webhook_deliveries
		WHERE event_type = ? OR ? = ''
		ORDER BY created_at DESC LIMIT ?`, eventType, eventType, limit)
	if err != nil {
		return nil, errors.External("sqlite", "query-webhook-deliveries", err)
	}
	defer rows.Close()
	var out []*WebhookDelivery
	for rows.Next() {
		d := &WebhookDelivery{}
		if err := rows.Scan(&d.ID, &d.EventType, &d.URL, &d.StatusCode, &d.Attempts, &d.LastError,
			&d.DeliveredAt, &d.CreatedAt); err != nil {
			return nil, errors.External("sqlite", "scan-webhook-delivery", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
