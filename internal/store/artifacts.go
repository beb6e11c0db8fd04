package store

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/gobbyhq/gobby/pkg/errors"
)

// Artifact is a durable, searchable output produced by a session or pipeline
// step: a report, a generated file summary, a decision record.
type Artifact struct {
	ID          string
	ProjectID   string
	SessionID   string
	Title       string
	Content     string
	ContentType string
	SourcePath  string
	Tags        []string
	CreatedAt   string
	UpdatedAt   string
}

// CreateArtifact inserts a new artifact and its tags.
func (s *Store) CreateArtifact(ctx context.Context, a *Artifact) (*Artifact, error) {
	a.ID = uuid.NewString()
	a.CreatedAt = now()
	a.UpdatedAt = a.CreatedAt
	err := s.withTx(ctx, "artifacts", ChangeInsert, a.ID, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO artifacts (id, project_id, session_id, title, content, content_type, source_path,
				created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			a.ID, a.ProjectID, nullable(a.SessionID), a.Title, a.Content, a.ContentType, nullable(a.SourcePath),
			a.CreatedAt, a.UpdatedAt)
		if err != nil {
			return err
		}
		for _, tag := range a.Tags {
			if _, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO artifact_tags (artifact_id, tag) VALUES (?, ?)`, a.ID, tag); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, errors.External("sqlite", "insert-artifact", err)
	}
	return a, nil
}

// GetArtifact looks up an artifact by id, including its tags.
func (s *Store) GetArtifact(ctx context.Context, id string) (*Artifact, error) {
	row := s.read.QueryRowContext(ctx, artifactSelect+` WHERE id = ?`, id)
	a, err := scanArtifact(row)
	if err != nil {
		return nil, err
	}
	tags, err := s.artifactTags(ctx, id)
	if err != nil {
		return nil, err
	}
	a.Tags = tags
	return a, nil
}

// AddArtifactTag attaches a tag to an existing artifact.
func (s *Store) AddArtifactTag(ctx context.Context, artifactID, tag string) error {
	return s.withTx(ctx, "artifact_tags", ChangeInsert, artifactID, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO artifact_tags (artifact_id, tag) VALUES (?, ?)`, artifactID, tag)
		return err
	})
}

func (s *Store) artifactTags(ctx context.Context, artifactID string) ([]string, error) {
	rows, err := s.read.QueryContext(ctx, `SELECT tag FROM artifact_tags WHERE artifact_id = ? ORDER BY tag`, artifactID)
	if err != nil {
		return nil, errors.External("sqlite", "query-artifact-tags", err)
	}
	defer rows.Close()
	var tags []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, errors.External("sqlite", "scan-artifact-tag", err)
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// ArtifactSearchFilter narrows SearchArtifacts beyond the FTS5 match.
type ArtifactSearchFilter struct {
	ProjectID   string
	SessionID   string
	ContentType string
	Tag         string
}

// SearchArtifacts performs an FTS5 match against title/content, mirroring
// SearchTasks. An empty query always returns zero results.
func (s *Store) SearchArtifacts(ctx context.Context, query string, filter ArtifactSearchFilter) ([]*Artifact, error) {
	if query == "" {
		return nil, nil
	}
	sqlQuery := `
		SELECT a.id, a.project_id, COALESCE(a.session_id, ''), a.title, a.content, a.content_type,
			COALESCE(a.source_path, ''), a.created_at, a.updated_at
		FROM artifacts a JOIN artifacts_fts f ON a.id = f.id
		WHERE artifacts_fts MATCH ?`
	args := []interface{}{query}
	if filter.ProjectID != "" {
		sqlQuery += ` AND a.project_id = ?`
		args = append(args, filter.ProjectID)
	}
	if filter.SessionID != "" {
		sqlQuery += ` AND a.session_id = ?`
		args = append(args, filter.SessionID)
	}
	if filter.ContentType != "" {
		sqlQuery += ` AND a.content_type = ?`
		args = append(args, filter.ContentType)
	}
	if filter.Tag != "" {
		sqlQuery += ` AND EXISTS (SELECT 1 FROM artifact_tags t WHERE t.artifact_id = a.id AND t.tag = ?)`
		args = append(args, filter.Tag)
	}
	rows, err := s.read.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, errors.External("sqlite", "search-artifacts", err)
	}
	defer rows.Close()

	var out []*Artifact
	for rows.Next() {
		a := &Artifact{}
		if err := rows.Scan(&a.ID, &a.ProjectID, &a.SessionID, &a.Title, &a.Content, &a.ContentType,
			&a.SourcePath, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, errors.External("sqlite", "scan-artifact", err)
		}
		tags, err := s.artifactTags(ctx, a.ID)
		if err != nil {
			return nil, err
		}
		a.Tags = tags
		out = append(out, a)
	}
	return out, rows.Err()
}

// ArtifactsJSON is a convenience encoder used by the MCP artifacts namespace
// when returning search results as a single tool-result blob.
func ArtifactsJSON(artifacts []*Artifact) ([]byte, error) {
	return json.Marshal(artifacts)
}

const artifactSelect = `
	SELECT id, project_id, COALESCE(session_id, ''), title, content, content_type,
		COALESCE(source_path, ''), created_at, updated_at
	FROM artifacts`

func scanArtifact(row *sql.Row) (*Artifact, error) {
	a := &Artifact{}
	err := row.Scan(&a.ID, &a.ProjectID, &a.SessionID, &a.Title, &a.Content, &a.ContentType,
		&a.SourcePath, &a.CreatedAt, &a.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("artifact", "")
	}
	if err != nil {
		return nil, errors.External("sqlite", "scan-artifact", err)
	}
	return a, nil
}
