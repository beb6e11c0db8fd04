package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/gobbyhq/gobby/pkg/errors"
)

// Message is one synced turn of a session's transcript.
type Message struct {
	ID        string
	SessionID string
	Role      string
	Content   string
	CreatedAt string
}

// AppendMessage records a transcript turn. Transcript sync is append-only;
// re-syncing the same turn is the caller's responsibility to dedup by id.
func (s *Store) AppendMessage(ctx context.Context, m *Message) (*Message, error) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	m.CreatedAt = now()
	err := s.withTx(ctx, "messages", ChangeInsert, m.ID, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO messages (id, session_id, role, content, created_at)
			VALUES (?, ?, ?, ?, ?)`,
			m.ID, m.SessionID, m.Role, m.Content, m.CreatedAt)
		return err
	})
	if err != nil {
		return nil, errors.External("sqlite", "insert-message", err)
	}
	return m, nil
}

// ListMessages returns a session's transcript in order, optionally limited
// to the most recent n turns (n<=0 means unlimited).
func (s *Store) ListMessages(ctx context.Context, sessionID string, n int) ([]*Message, error) {
	query := `SELECT id, session_id, role, content, created_at FROM messages WHERE session_id = ? ORDER BY created_at ASC`
	args := []interface{}{sessionID}
	if n > 0 {
		query = `SELECT id, session_id, role, content, created_at FROM (
			SELECT id, session_id, role, content, created_at FROM messages
			WHERE session_id = ? ORDER BY created_at DESC LIMIT ?) ORDER BY created_at ASC`
		args = append(args, n)
	}
	rows, err := s.read.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.External("sqlite", "query-messages", err)
	}
	defer rows.Close()
	var out []*Message
	for rows.Next() {
		m := &Message{}
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, errors.External("sqlite", "scan-message", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// InterSessionMessage is a mailbox entry delivered between sibling/ancestor
// sessions in an agent tree, e.g. a subagent reporting progress to its
// spawner, or a broadcast to every descendant of a session.
type InterSessionMessage struct {
	ID           string
	FromSessionID string
	ToSessionID  string // empty means broadcast to all descendants of FromSessionID
	Subject      string
	Body         string
	ReadAt       string
	CreatedAt    string
}

// SendInterSessionMessage records a point-to-point message in the mailbox.
func (s *Store) SendInterSessionMessage(ctx context.Context, m *InterSessionMessage) (*InterSessionMessage, error) {
	m.ID = uuid.NewString()
	m.CreatedAt = now()
	err := s.withTx(ctx, "intersession_messages", ChangeInsert, m.ID, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO intersession_messages (id, from_session_id, to_session_id, subject, body, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			m.ID, m.FromSessionID, nullable(m.ToSessionID), m.Subject, m.Body, m.CreatedAt)
		return err
	})
	if err != nil {
		return nil, errors.External("sqlite", "insert-intersession-message", err)
	}
	return m, nil
}

// BroadcastInterSessionMessage fans a message out to every current
// descendant of fromSessionID, recording one mailbox row per recipient.
func (s *Store) BroadcastInterSessionMessage(ctx context.Context, fromSessionID, subject, body string) ([]*InterSessionMessage, error) {
	children, err := s.FindChildrenSessions(ctx, fromSessionID)
	if err != nil {
		return nil, err
	}
	var out []*InterSessionMessage
	for _, c := range children {
		m, err := s.SendInterSessionMessage(ctx, &InterSessionMessage{
			FromSessionID: fromSessionID,
			ToSessionID:   c.ID,
			Subject:       subject,
			Body:          body,
		})
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// InboxForSession returns a session's unread mailbox entries, oldest first.
// Entries addressed to no one (broadcast markers) are never returned here —
// BroadcastInterSessionMessage already materializes one row per recipient.
func (s *Store) InboxForSession(ctx context.Context, sessionID string, includeRead bool) ([]*InterSessionMessage, error) {
	query := `
		SELECT id, from_session_id, COALESCE(to_session_id, ''), subject, body, COALESCE(read_at, ''), created_at
		FROM intersession_messages WHERE to_session_id = ?`
	if !includeRead {
		query += ` AND read_at IS NULL`
	}
	query += ` ORDER BY created_at ASC`
	rows, err := s.read.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, errors.External("sqlite", "query-inbox", err)
	}
	defer rows.Close()
	var out []*InterSessionMessage
	for rows.Next() {
		m := &InterSessionMessage{}
		if err := rows.Scan(&m.ID, &m.FromSessionID, &m.ToSessionID, &m.Subject, &m.Body, &m.ReadAt, &m.CreatedAt); err != nil {
			return nil, errors.External("sqlite", "scan-intersession-message", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// MarkInterSessionMessageRead stamps read_at on a mailbox entry.
func (s *Store) MarkInterSessionMessageRead(ctx context.Context, id string) error {
	return s.withTx(ctx, "intersession_messages", ChangeUpdate, id, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `UPDATE intersession_messages SET read_at = ? WHERE id = ?`, now(), id)
		return err
	})
}
