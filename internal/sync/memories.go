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
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/gobbyhq/gobby/internal/store"
)

// memoryRecord is one line of memories.jsonl.
type memoryRecord struct {
	Title      string `json:"title"`
	Body       string `json:"body"`
	SourceHash string `json:"source_hash"`
}

func memoriesFile(root string) string { return filepath.Join(gobbyDir(root), "memories.jsonl") }

func contentHash(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// exportMemories writes every memory for proj to memories.jsonl, one JSON
// object per line, keyed by its content hash so a re-export of unchanged
// memories reproduces byte-identical output.
func (p *Projector) exportMemories(ctx context.Context, proj *store.Project, root string) error {
	memories, err := p.store.ListMemories(ctx, proj.ID)
	if err != nil {
		return err
	}
	path := memoriesFile(root)
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
	for _, m := range memories {
		if err := enc.Encode(memoryRecord{Title: m.Title, Body: m.Body, SourceHash: m.SourceHash}); err != nil {
			return err
		}
	}
	return w.Flush()
}

// importMemories reads memories.jsonl (if present) and upserts every
// record whose content hash hasn't been seen for this project yet.
// UpsertMemory's own (project_id, source_hash) dedup key makes re-running
// this against an unchanged file a no-op.
func (p *Projector) importMemories(ctx context.Context, proj *store.Project, root string) error {
	path := memoriesFile(root)
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec memoryRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			continue
		}
		hash := rec.SourceHash
		if hash == "" {
			hash = contentHash(rec.Title, rec.Body)
		}
		if _, err := p.store.GetMemoryByHash(ctx, proj.ID, hash); err == nil {
			continue // already imported
		}
		if _, err := p.store.UpsertMemory(ctx, &store.Memory{
			ProjectID:  proj.ID,
			Title:      rec.Title,
			Body:       rec.Body,
			SourcePath: path,
			SourceHash: hash,
		}); err != nil {
			return err
		}
	}
	return scanner.Err()
}
