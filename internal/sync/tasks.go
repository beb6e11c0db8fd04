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
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/gobbyhq/gobby/internal/store"
)

// taskRecord is one line of tasks.jsonl. Status/assignee are intentionally
// excluded: those are live claim-queue state the file mirror shouldn't be
// able to overwrite on import, only content fields are round-tripped.
type taskRecord struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	TaskType     string   `json:"task_type,omitempty"`
	Priority     string   `json:"priority,omitempty"`
	ParentTaskID string   `json:"parent_task_id,omitempty"`
	Labels       []string `json:"labels,omitempty"`
	TestStrategy string   `json:"test_strategy,omitempty"`
	ContentHash  string   `json:"content_hash"`
}

func tasksFile(root string) string { return filepath.Join(gobbyDir(root), "tasks.jsonl") }

func taskHash(t *store.Task) string {
	return contentHash(t.Title, t.Description, t.TaskType, t.Priority, t.TestStrategy)
}

// exportTasks writes every task for proj to tasks.jsonl.
func (p *Projector) exportTasks(ctx context.Context, proj *store.Project, root string) error {
	tasks, err := p.store.ListTasksByProject(ctx, proj.ID)
	if err != nil {
		return err
	}
	path := tasksFile(root)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, t := range tasks {
		rec := taskRecord{
			ID: t.ID, Title: t.Title, Description: t.Description, TaskType: t.TaskType,
			Priority: t.Priority, ParentTaskID: t.ParentTaskID, Labels: t.Labels,
			TestStrategy: t.TestStrategy, ContentHash: taskHash(t),
		}
		if err := enc.Encode(rec); err != nil {
			return err
		}
	}
	return w.Flush()
}

// importTasks reads tasks.jsonl and creates any task whose content hash
// hasn't been seen before for this project — existing tasks (matched by
// id) are left untouched so imported edits never clobber claim state.
func (p *Projector) importTasks(ctx context.Context, proj *store.Project, root string) error {
	path := tasksFile(root)
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()

	seen := make(map[string]bool)
	if existing, err := p.store.ListTasksByProject(ctx, proj.ID); err == nil {
		for _, t := range existing {
			seen[taskHash(t)] = true
		}
	}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec taskRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			continue
		}
		if rec.ID != "" {
			if _, err := p.store.GetTask(ctx, rec.ID); err == nil {
				continue // already exists, never overwritten by import
			}
		}
		if rec.ContentHash != "" && seen[rec.ContentHash] {
			continue
		}
		if _, err := p.store.CreateTask(ctx, &store.Task{
			ProjectID:    proj.ID,
			Title:        rec.Title,
			Description:  rec.Description,
			TaskType:     rec.TaskType,
			Priority:     rec.Priority,
			ParentTaskID: rec.ParentTaskID,
			Labels:       rec.Labels,
			TestStrategy: rec.TestStrategy,
		}); err != nil {
			return err
		}
	}
	return scanner.Err()
}
