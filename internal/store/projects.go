package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/gobbyhq/gobby/pkg/errors"
)

// Project is a workspace root, identified by its repo path.
type Project struct {
	ID                string
	Name              string
	RepoPath          string
	ParentProjectPath string
	CreatedAt         string
	UpdatedAt         string
}

// EnsureProject returns the project rooted at repoPath, creating it if this
// is the first session registered in that directory.
func (s *Store) EnsureProject(ctx context.Context, repoPath, name, parentProjectPath string) (*Project, error) {
	if p, err := s.GetProjectByPath(ctx, repoPath); err == nil {
		return p, nil
	} else if _, ok := err.(*errors.NotFoundError); !ok {
		return nil, err
	}

	p := &Project{
		ID:                uuid.NewString(),
		Name:              name,
		RepoPath:          repoPath,
		ParentProjectPath: parentProjectPath,
		CreatedAt:         now(),
		UpdatedAt:         now(),
	}
	err := s.withTx(ctx, "projects", ChangeInsert, p.ID, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO projects (id, name, repo_path, parent_project_path, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			p.ID, p.Name, p.RepoPath, nullable(p.ParentProjectPath), p.CreatedAt, p.UpdatedAt)
		return err
	})
	if err != nil {
		// Lost a race with a concurrent EnsureProject; fetch the winner.
		if existing, gerr := s.GetProjectByPath(ctx, repoPath); gerr == nil {
			return existing, nil
		}
		return nil, errors.External("sqlite", "insert-project", err)
	}
	return p, nil
}

// GetProjectByPath looks up a project by its repository root path.
func (s *Store) GetProjectByPath(ctx context.Context, repoPath string) (*Project, error) {
	row := s.read.QueryRowContext(ctx, `
		SELECT id, name, repo_path, COALESCE(parent_project_path, ''), created_at, updated_at
		FROM projects WHERE repo_path = ?`, repoPath)
	return scanProject(row)
}

// GetProject looks up a project by id.
func (s *Store) GetProject(ctx context.Context, id string) (*Project, error) {
	row := s.read.QueryRowContext(ctx, `
		SELECT id, name, repo_path, COALESCE(parent_project_path, ''), created_at, updated_at
		FROM projects WHERE id = ?`, id)
	return scanProject(row)
}

// ListProjects returns every known project, ordered by repo path. Used by
// the sync projectors to discover which project roots need an on-disk
// export/import pass.
func (s *Store) ListProjects(ctx context.Context) ([]*Project, error) {
	rows, err := s.read.QueryContext(ctx, `
		SELECT id, name, repo_path, COALESCE(parent_project_path, ''), created_at, updated_at
		FROM projects ORDER BY repo_path`)
	if err != nil {
		return nil, errors.External("sqlite", "list-projects", err)
	}
	defer rows.Close()
	var out []*Project
	for rows.Next() {
		p := &Project{}
		if err := rows.Scan(&p.ID, &p.Name, &p.RepoPath, &p.ParentProjectPath, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, errors.External("sqlite", "scan-project", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanProject(row *sql.Row) (*Project, error) {
	p := &Project{}
	err := row.Scan(&p.ID, &p.Name, &p.RepoPath, &p.ParentProjectPath, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("project", "")
	}
	if err != nil {
		return nil, errors.External("sqlite", "scan-project", err)
	}
	return p, nil
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
