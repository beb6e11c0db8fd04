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

package sync

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/gobbyhq/gobby/internal/store"
)

// skillFrontmatter is the YAML header of a SKILL.md file, matching the
// Claude-compatible `.claude/skills/<name>/SKILL.md` layout so the same
// directory can be read by either tool.
type skillFrontmatter struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// exportSkills writes one `<name>/SKILL.md` per skill under
// `.claude/skills`, skipping any skill whose on-disk copy already matches.
func (p *Projector) exportSkills(ctx context.Context, proj *store.Project, root string) error {
	skills, err := p.store.ListSkills(ctx, proj.ID)
	if err != nil {
		return err
	}
	base := skillsDir(root)
	if err := os.MkdirAll(base, 0o755); err != nil {
		return err
	}
	for _, sk := range skills {
		dir := filepath.Join(base, sk.Name)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
		path := filepath.Join(dir, "SKILL.md")
		rendered, err := renderSkillFile(sk)
		if err != nil {
			return err
		}
		if existing, err := os.ReadFile(path); err == nil && bytes.Equal(existing, rendered) {
			continue
		}
		if err := os.WriteFile(path, rendered, 0o644); err != nil {
			return err
		}
	}
	return nil
}

func renderSkillFile(sk *store.Skill) ([]byte, error) {
	fm, err := yaml.Marshal(skillFrontmatter{Name: sk.Name, Description: sk.Description})
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(fm)
	buf.WriteString("---\n\n")
	buf.WriteString(sk.Body)
	if !strings.HasSuffix(sk.Body, "\n") {
		buf.WriteString("\n")
	}
	return buf.Bytes(), nil
}

// importSkills globs every `*/SKILL.md` under `.claude/skills`, parses its
// frontmatter, and upserts it — skipping files whose body and description
// already match the stored skill, so an unchanged directory produces no
// writes.
func (p *Projector) importSkills(ctx context.Context, proj *store.Project, root string) error {
	base := skillsDir(root)
	if _, err := os.Stat(base); os.IsNotExist(err) {
		return nil
	}
	matches, err := doublestar.Glob(os.DirFS(base), "*/SKILL.md")
	if err != nil {
		return err
	}
	for _, rel := range matches {
		path := filepath.Join(base, rel)
		raw, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		fm, body, err := splitFrontmatter(raw)
		if err != nil {
			continue
		}
		name := fm.Name
		if name == "" {
			name = filepath.Base(filepath.Dir(path))
		}
		if existing, err := p.store.GetSkillByName(ctx, proj.ID, name); err == nil {
			if existing.Body == body && existing.Description == fm.Description {
				continue
			}
		}
		if _, err := p.store.UpsertSkill(ctx, &store.Skill{
			ProjectID:   proj.ID,
			Name:        name,
			Description: fm.Description,
			Body:        body,
			SourcePath:  path,
		}); err != nil {
			return fmt.Errorf("upsert skill %s: %w", name, err)
		}
	}
	return nil
}

func splitFrontmatter(raw []byte) (skillFrontmatter, string, error) {
	var fm skillFrontmatter
	s := string(raw)
	if !strings.HasPrefix(s, "---\n") {
		return fm, s, nil
	}
	rest := s[len("---\n"):]
	end := strings.Index(rest, "\n---\n")
	if end == -1 {
		return fm, s, nil
	}
	header := rest[:end]
	body := strings.TrimPrefix(rest[end+len("\n---\n"):], "\n")
	if err := yaml.Unmarshal([]byte(header), &fm); err != nil {
		return fm, "", err
	}
	return fm, body, nil
}
