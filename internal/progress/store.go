// Copyright (c) 2026 elasda977. All rights reserved.
// Use of this source code is governed by the MIT License.
//
// Slice-Video - HLS 视频切片转码服务

package progress

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// SnapshotFile is the snapshot's file name inside a job's output directory.
const SnapshotFile = ".progress.json"

// ErrNoSnapshot is returned when a job has never produced a snapshot.
var ErrNoSnapshot = errors.New("no snapshot for job")

// Store persists one snapshot per job under root/<job>/.progress.json. Each
// job has a single writer (its own conversion goroutine), so no locking is
// needed beyond the atomic publish.
type Store struct {
	root string
}

// NewStore creates a store rooted at the output directory.
func NewStore(root string) *Store {
	return &Store{root: root}
}

// Dir returns the output directory for a job.
func (s *Store) Dir(job string) string {
	return filepath.Join(s.root, job)
}

// Write replaces the job's snapshot, creating the job directory if absent.
// The snapshot is written to a temp file and renamed so readers never observe
// a torn write.
func (s *Store) Write(job string, snap Snapshot) error {
	if snap.Timestamp.IsZero() {
		snap.Timestamp = time.Now().UTC()
	}

	dir := s.Dir(job)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create job dir: %w", err)
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	path := filepath.Join(dir, SnapshotFile)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("publish snapshot: %w", err)
	}
	return nil
}

// Read returns the most recent snapshot for a job, or ErrNoSnapshot.
func (s *Store) Read(job string) (Snapshot, error) {
	var snap Snapshot

	data, err := os.ReadFile(filepath.Join(s.Dir(job), SnapshotFile))
	if err != nil {
		if os.IsNotExist(err) {
			return snap, ErrNoSnapshot
		}
		return snap, err
	}

	if err := json.Unmarshal(data, &snap); err != nil {
		return snap, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, nil
}
