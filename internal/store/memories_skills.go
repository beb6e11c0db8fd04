package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/gobbyhq/gobby/pkg/errors"
)

// Memory is a durable, project-scoped fact imported from or exported to the
// adapter-native memory file layout (e.g. CLAUDE.md-style memory banks).
type Memory struct {
	ID          string
	ProjectID   string
	Title       string
	Body        string
	SourcePath  string
	SourceHash  string
	CreatedAt   string
	UpdatedAt   string
}

// UpsertMemory inserts a memory, or updates the existing row for the same
// (project_id, source_hash) pair — the dedup key the import projector uses
// to decide whether an on-disk memory file has changed since last sync.
func (s *Store) UpsertMemory(ctx context.Context, m *Memory) (*Memory, error) {
	existing, err := s.GetMemoryByHash(ctx, m.ProjectID, m.SourceHash)
	if err == nil {
		m.ID = existing.ID
		m.CreatedAt = existing.CreatedAt
		m.UpdatedAt = now()
		uerr := s.withTx(ctx, "memories", ChangeUpdate, m.ID, func(tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx, `
				UPDATE memories SET title = ?, body = ?, source_path = ?, updated_at = ? WHERE id = ?`,
				m.Title, m.Body, nullable(m.SourcePath), m.UpdatedAt, m.ID)
			return err
		})
		if uerr != nil {
			return nil, errors.External("sqlite", "update-memory", uerr)
		}
		return m, nil
	}
	if _, ok := err.(*errors.NotFoundError); !ok {
		return nil, err
	}

	m.ID = uuid.NewString()
	m.CreatedAt = now()
	m.UpdatedAt = m.CreatedAt
	ierr := s.withTx(ctx, "memories", ChangeInsert, m.ID, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO memories (id, project_id, title, body, source_path, source_hash, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			m.ID, m.ProjectID, m.Title, m.Body, nullable(m.SourcePath), m.SourceHash, m.CreatedAt, m.UpdatedAt)
		return err
	})
	if ierr != nil {
		return nil, errors.External("sqlite", "insert-memory", ierr)
	}
	return m, nil
}

// GetMemoryByHash looks up a memory by its project and content hash.
func (s *Store) GetMemoryByHash(ctx context.Context, projectID, sourceHash string) (*Memory, error) {
	row := s.read.QueryRowContext(ctx, memorySelect+` WHERE project_id = ? AND source_hash = ?`, projectID, sourceHash)
	return scanMemory(row)
}

// ListMemories returns every memory recorded for a project, newest first.
func (s *Store) ListMemories(ctx context.Context, projectID string) ([]*Memory, error) {
	rows, err := s.read.QueryContext(ctx, memorySelect+` WHERE project_id = ? ORDER BY updated_at DESC`, projectID)
	if err != nil {
		return nil, errors.External("sqlite", "query-memories", err)
	}
	defer rows.Close()
	var out []*Memory
	for rows.Next() {
		m := &Memory{}
		if err := rows.Scan(&m.ID, &m.ProjectID, &m.Title, &m.Body, &m.SourcePath, &m.SourceHash,
			&m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, errors.External("sqlite", "scan-memory", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

const memorySelect = `
	SELECT id, project_id, title, body, COALESCE(source_path, ''), source_hash, created_at, updated_at
	FROM memories`

func scanMemory(row *sql.Row) (*Memory, error) {
	m := &Memory{}
	err := row.Scan(&m.ID, &m.ProjectID, &m.Title, &m.Body, &m.SourcePath, &m.SourceHash, &m.CreatedAt, &m.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("memory", "")
	}
	if err != nil {
		return nil, errors.External("sqlite", "scan-memory", err)
	}
	return m, nil
}

// Skill is a reusable, named procedure scanned from a project's skills
// directory and made discoverable through the MCP skills namespace.
type Skill struct {
	ID          string
	ProjectID   string
	Name        string
	Description string
	Body        string
	SourcePath  string
	CreatedAt   string
	UpdatedAt   string
}

// UpsertSkill inserts a skill, or updates the row sharing (project_id, name)
// — skill identity is its name, unlike memories which dedup on content hash.
func (s *Store) UpsertSkill(ctx context.Context, sk *Skill) (*Skill, error) {
	existing, err := s.GetSkillByName(ctx, sk.ProjectID, sk.Name)
	if err == nil {
		sk.ID = existing.ID
		sk.CreatedAt = existing.CreatedAt
		sk.UpdatedAt = now()
		uerr := s.withTx(ctx, "skills", ChangeUpdate, sk.ID, func(tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx, `
				UPDATE skills SET description = ?, body = ?, source_path = ?, updated_at = ? WHERE id = ?`,
				sk.Description, sk.Body, nullable(sk.SourcePath), sk.UpdatedAt, sk.ID)
			return err
		})
		if uerr != nil {
			return nil, errors.External("sqlite", "update-skill", uerr)
		}
		return sk, nil
	}
	if _, ok := err.(*errors.NotFoundError); !ok {
		return nil, err
	}

	sk.ID = uuid.NewString()
	sk.CreatedAt = now()
	sk.UpdatedAt = sk.CreatedAt
	ierr := s.withTx(ctx, "skills", ChangeInsert, sk.ID, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO skills (id, project_id, name, description, body, source_path, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			sk.ID, sk.ProjectID, sk.Name, sk.Description, sk.Body, nullable(sk.SourcePath), sk.CreatedAt, sk.UpdatedAt)
		return err
	})
	if ierr != nil {
		return nil, errors.External("sqlite", "insert-skill", ierr)
	}
	return sk, nil
}

// GetSkillByName looks up a skill by its project and unique name.
func (s *Store) GetSkillByName(ctx context.Context, projectID, name string) (*Skill, error) {
	row := s.read.QueryRowContext(ctx, skillSelect+` WHERE project_id = ? AND name = ?`, projectID, name)
	return scanSkill(row)
}

// ListSkills returns every skill scanned for a project, alphabetically.
func (s *Store) ListSkills(ctx context.Context, projectID string) ([]*Skill, error) {
	rows, err := s.read.QueryContext(ctx, skillSelect+` WHERE project_id = ? ORDER BY name`, projectID)
	if err != nil {
		return nil, errors.External("sqlite", "query-skills", err)
	}
	defer rows.Close()
	var out []*Skill
	for rows.Next() {
		sk := &Skill{}
		if err := rows.Scan(&sk.ID, &sk.ProjectID, &sk.Name, &sk.Description, &sk.Body, &sk.SourcePath,
			&sk.CreatedAt, &sk.UpdatedAt); err != nil {
			return nil, errors.External("sqlite", "scan-skill", err)
		}
		out = append(out, sk)
	}
	return out, rows.Err()
}

// DeleteSkill removes a skill, used when the scanner notices its source file
// was deleted on disk.
func (s *Store) DeleteSkill(ctx context.Context, id string) error {
	return s.withTx(ctx, "skills", ChangeDelete, id, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `DELETE FROM skills WHERE id = ?`, id)
		return err
	})
}

const skillSelect = `
	SELECT id, project_id, name, description, body, COALESCE(source_path, ''), created_at, updated_at
	FROM skills`

func scanSkill(row *sql.Row) (*Skill, error) {
	sk := &Skill{}
	err := row.Scan(&sk.ID, &sk.ProjectID, &sk.Name, &sk.Description, &sk.Body, &sk.SourcePath, &sk.CreatedAt, &sk.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("skill", "")
	}
	if err != nil {
		return nil, errors.External("sqlite", "scan-skill", err)
	}
	return sk, nil
}
