package store

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/gobbyhq/gobby/pkg/errors"
)

// SessionStatus is one of the fixed lifecycle states of a Session.
type SessionStatus string

const (
	SessionActive       SessionStatus = "active"
	SessionPaused        SessionStatus = "paused"
	SessionHandoffReady SessionStatus = "handoff_ready"
	SessionArchived     SessionStatus = "archived"
	SessionExpired      SessionStatus = "expired"
)

// validStatusTransitions encodes the fixed transition table: active <->
// paused, active -> handoff_ready -> archived, any -> expired, archived
// is terminal.
var validStatusTransitions = map[SessionStatus]map[SessionStatus]bool{
	SessionActive:       {SessionPaused: true, SessionHandoffReady: true, SessionExpired: true},
	SessionPaused:       {SessionActive: true, SessionExpired: true},
	SessionHandoffReady: {SessionArchived: true, SessionExpired: true},
	SessionArchived:     {},
	SessionExpired:      {},
}

// Session is a single conversation between a user (or parent agent) and one
// vendor agent CLI.
type Session struct {
	ID               string
	ExternalID       string
	MachineID        string
	Source           string
	ProjectID        string
	ProjectOrdinal   int64
	ParentSessionID  string
	AgentDepth       int
	SpawnedByAgentID string
	Status           SessionStatus
	Title            string
	CWD              string
	GitBranch        string
	SummaryMarkdown  string
	CompactMarkdown  string
	CreatedAt        string
	UpdatedAt        string
}

// Register upserts a Session by its composite key (external_id, machine_id,
// source). If an existing row matches, it is returned unchanged (idempotent
// re-registration, matching the original vendor-transcript-sync path which
// may call Register for sessions that already exist).
func (s *Store) RegisterSession(ctx context.Context, sess *Session) (*Session, error) {
	if existing, err := s.FindCurrentSession(ctx, sess.ExternalID, sess.MachineID, sess.Source); err == nil {
		return existing, nil
	} else if _, ok := err.(*errors.NotFoundError); !ok {
		return nil, err
	}

	sess.ID = uuid.NewString()
	if sess.Status == "" {
		sess.Status = SessionActive
	}
	sess.CreatedAt = now()
	sess.UpdatedAt = sess.CreatedAt

	if sess.ParentSessionID != "" {
		parent, err := s.GetSession(ctx, sess.ParentSessionID)
		if err != nil {
			return nil, err
		}
		sess.AgentDepth = parent.AgentDepth + 1
	} else {
		sess.AgentDepth = 0
	}

	err := s.withTx(ctx, "sessions", ChangeInsert, sess.ID, func(tx *sql.Tx) error {
		var ordinal int64
		err := tx.QueryRowContext(ctx, `
			SELECT COALESCE(MAX(project_ordinal), 0) + 1 FROM sessions WHERE project_id = ?`,
			sess.ProjectID).Scan(&ordinal)
		if err != nil {
			return err
		}
		sess.ProjectOrdinal = ordinal

		_, err = tx.ExecContext(ctx, `
			INSERT INTO sessions (
				id, external_id, machine_id, source, project_id, project_ordinal,
				parent_session_id, agent_depth, spawned_by_agent_id, status, title,
				cwd, git_branch, summary_markdown, compact_markdown, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			sess.ID, sess.ExternalID, sess.MachineID, sess.Source, sess.ProjectID, sess.ProjectOrdinal,
			nullable(sess.ParentSessionID), sess.AgentDepth, nullable(sess.SpawnedByAgentID), string(sess.Status),
			nullable(sess.Title), nullable(sess.CWD), nullable(sess.GitBranch),
			nullable(sess.SummaryMarkdown), nullable(sess.CompactMarkdown), sess.CreatedAt, sess.UpdatedAt)
		return err
	})
	if err != nil {
		if existing, gerr := s.FindCurrentSession(ctx, sess.ExternalID, sess.MachineID, sess.Source); gerr == nil {
			return existing, nil
		}
		return nil, errors.External("sqlite", "insert-session", err)
	}
	return sess, nil
}

// FindCurrentSession looks up a session by its composite natural key.
func (s *Store) FindCurrentSession(ctx context.Context, externalID, machineID, source string) (*Session, error) {
	row := s.read.QueryRowContext(ctx, sessionSelect+` WHERE external_id = ? AND machine_id = ? AND source = ?`,
		externalID, machineID, source)
	return scanSession(row)
}

// GetSession looks up a session by internal id.
func (s *Store) GetSession(ctx context.Context, id string) (*Session, error) {
	row := s.read.QueryRowContext(ctx, sessionSelect+` WHERE id = ?`, id)
	return scanSession(row)
}

// FindChildren returns direct children of parentID.
func (s *Store) FindChildrenSessions(ctx context.Context, parentID string) ([]*Session, error) {
	rows, err := s.read.QueryContext(ctx, sessionSelect+` WHERE parent_session_id = ? ORDER BY created_at`, parentID)
	if err != nil {
		return nil, errors.External("sqlite", "query-children", err)
	}
	defer rows.Close()
	return scanSessions(rows)
}

// FindLatestHandoff returns the most recently updated handoff_ready session
// for a project, if any.
func (s *Store) FindLatestHandoff(ctx context.Context, projectID string) (*Session, error) {
	row := s.read.QueryRowContext(ctx, sessionSelect+`
		WHERE project_id = ? AND status = 'handoff_ready' ORDER BY updated_at DESC LIMIT 1`, projectID)
	return scanSession(row)
}

// UpdateSessionStatus validates and applies the fixed transition table.
func (s *Store) UpdateSessionStatus(ctx context.Context, id string, newStatus SessionStatus) error {
	sess, err := s.GetSession(ctx, id)
	if err != nil {
		return err
	}
	if sess.Status == newStatus {
		return nil
	}
	allowed := validStatusTransitions[sess.Status]
	if !allowed[newStatus] {
		return errors.InvalidState("session", string(sess.Status),
			fmt.Sprintf("cannot transition to %q", newStatus))
	}
	return s.withTx(ctx, "sessions", ChangeUpdate, id, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `UPDATE sessions SET status = ?, updated_at = ? WHERE id = ?`,
			string(newStatus), now(), id)
		return err
	})
}

// UpdateSessionSummary persists summary/compact markdown produced at
// handoff or pre-compact time.
func (s *Store) UpdateSessionSummary(ctx context.Context, id, summaryMarkdown, compactMarkdown string) error {
	return s.withTx(ctx, "sessions", ChangeUpdate, id, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			UPDATE sessions SET summary_markdown = ?, compact_markdown = ?, updated_at = ? WHERE id = ?`,
			nullable(summaryMarkdown), nullable(compactMarkdown), now(), id)
		return err
	})
}

// SessionDepth iteratively walks parent_session_id, capped at 11 hops as a
// defense against cycles that should never occur but must never hang.
func (s *Store) SessionDepth(ctx context.Context, id string) (int, error) {
	depth := 0
	current := id
	for hop := 0; hop < 11; hop++ {
		sess, err := s.GetSession(ctx, current)
		if err != nil {
			return 0, err
		}
		if sess.ParentSessionID == "" {
			return depth, nil
		}
		depth++
		current = sess.ParentSessionID
	}
	return depth, nil
}

var uuidRe = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// ResolveSessionReference accepts `#N` (per-project ordinal), a raw
// integer (treated the same as `#N`), a full UUID, or a unique UUID
// prefix. projectID scopes ordinal and (when non-empty) all lookups; when
// projectID is empty, reference resolution is global.
func (s *Store) ResolveSessionReference(ctx context.Context, ref, projectID string) (*Session, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, errors.Validation("ref", "session reference cannot be empty")
	}

	if ordinal, ok := parseOrdinal(ref); ok {
		if projectID == "" {
			return nil, errors.Validation("ref", "ordinal reference requires a known project")
		}
		row := s.read.QueryRowContext(ctx, sessionSelect+` WHERE project_id = ? AND project_ordinal = ?`,
			projectID, ordinal)
		return scanSession(row)
	}

	if uuidRe.MatchString(ref) {
		return s.scopedSession(ctx, ref, projectID)
	}

	// Unique UUID prefix.
	query := sessionSelect + ` WHERE id LIKE ?`
	args := []interface{}{ref + "%"}
	if projectID != "" {
		query += ` AND project_id = ?`
		args = append(args, projectID)
	}
	rows, err := s.read.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.External("sqlite", "query-session-prefix", err)
	}
	defer rows.Close()
	matches, err := scanSessions(rows)
	if err != nil {
		return nil, err
	}
	switch len(matches) {
	case 0:
		return nil, errors.NotFound("session", ref)
	case 1:
		return matches[0], nil
	default:
		ids := make([]string, len(matches))
		for i, m := range matches {
			ids[i] = m.ID
		}
		return nil, &errors.ValidationError{
			Field:      "ref",
			Message:    fmt.Sprintf("ambiguous session prefix %q matches %d sessions: %s", ref, len(matches), strings.Join(ids, ", ")),
			Suggestion: "use a longer prefix or the full session id",
		}
	}
}

func (s *Store) scopedSession(ctx context.Context, id, projectID string) (*Session, error) {
	query := sessionSelect + ` WHERE id = ?`
	args := []interface{}{id}
	if projectID != "" {
		query += ` AND project_id = ?`
		args = append(args, projectID)
	}
	row := s.read.QueryRowContext(ctx, query, args...)
	return scanSession(row)
}

func parseOrdinal(ref string) (int64, bool) {
	trimmed := strings.TrimPrefix(ref, "#")
	n, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

const sessionSelect = `
	SELECT id, external_id, machine_id, source, COALESCE(project_id, ''), project_ordinal,
		COALESCE(parent_session_id, ''), agent_depth, COALESCE(spawned_by_agent_id, ''),
		status, COALESCE(title, ''), COALESCE(cwd, ''), COALESCE(git_branch, ''),
		COALESCE(summary_markdown, ''), COALESCE(compact_markdown, ''), created_at, updated_at
	FROM sessions`

func scanSession(row *sql.Row) (*Session, error) {
	sess := &Session{}
	var status string
	err := row.Scan(&sess.ID, &sess.ExternalID, &sess.MachineID, &sess.Source, &sess.ProjectID, &sess.ProjectOrdinal,
		&sess.ParentSessionID, &sess.AgentDepth, &sess.SpawnedByAgentID, &status, &sess.Title, &sess.CWD,
		&sess.GitBranch, &sess.SummaryMarkdown, &sess.CompactMarkdown, &sess.CreatedAt, &sess.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("session", "")
	}
	if err != nil {
		return nil, errors.External("sqlite", "scan-session", err)
	}
	sess.Status = SessionStatus(status)
	return sess, nil
}

func scanSessions(rows *sql.Rows) ([]*Session, error) {
	var out []*Session
	for rows.Next() {
		sess := &Session{}
		var status string
		if err := rows.Scan(&sess.ID, &sess.ExternalID, &sess.MachineID, &sess.Source, &sess.ProjectID, &sess.ProjectOrdinal,
			&sess.ParentSessionID, &sess.AgentDepth, &sess.SpawnedByAgentID, &status, &sess.Title, &sess.CWD,
			&sess.GitBranch, &sess.SummaryMarkdown, &sess.CompactMarkdown, &sess.CreatedAt, &sess.UpdatedAt); err != nil {
			return nil, errors.External("sqlite", "scan-session", err)
		}
		sess.Status = SessionStatus(status)
		out = append(out, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.External("sqlite", "iterate-sessions", err)
	}
	return out, nil
}
