// Package file is the zero-infrastructure submission archive: one JSON
// file, rewritten atomically on every save. It exists so the coach runs
// without postgres in local and demo setups.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"radar-coach-be/internal/entity"
	"radar-coach-be/internal/repository/contract"

	"github.com/google/uuid"
)

type SubmissionRepository struct {
	mu   sync.Mutex
	path string
}

func NewSubmissionRepository(path string) contract.SubmissionRepository {
	return &SubmissionRepository{path: path}
}

func (r *SubmissionRepository) Save(_ context.Context, submission *entity.Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, err := r.load()
	if err != nil {
		return err
	}

	if submission.Id == uuid.Nil {
		submission.Id = uuid.New()
	}
	if submission.SubmittedAt.IsZero() {
		submission.SubmittedAt = time.Now().UTC()
	}
	existing = append(existing, submission)

	return r.store(existing)
}

func (r *SubmissionRepository) FindAll(_ context.Context) ([]*entity.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	subs, err := r.load()
	if err != nil {
		return nil, err
	}
	// newest first, matching the postgres archive
	for i, j := 0, len(subs)-1; i < j; i, j = i+1, j-1 {
		subs[i], subs[j] = subs[j], subs[i]
	}
	return subs, nil
}

func (r *SubmissionRepository) load() ([]*entity.Submission, error) {
	raw, err := os.ReadFile(r.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var subs []*entity.Submission
	if err := json.Unmarshal(raw, &subs); err != nil {
		return nil, fmt.Errorf("submission archive %s is corrupt: %w", r.path, err)
	}
	return subs, nil
}

// store writes to a temp file in the same directory and renames it over
// the archive, so a crash mid-write never truncates existing history.
func (r *SubmissionRepository) store(subs []*entity.Submission) error {
	raw, err := json.MarshalIndent(subs, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".submissions-*.json")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), r.path)
}
