package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"waitlist-api/pkg/models"
)

// JSONFileStore keeps all submissions in a single indented JSON array on disk
type JSONFileStore struct {
	path string
	seed bool
	mu   sync.Mutex
}

// JSONFileOption configures a JSONFileStore
type JSONFileOption func(*JSONFileStore)

// WithSeed makes a freshly created file start with the example records instead of an empty array
func WithSeed() JSONFileOption {
	return func(s *JSONFileStore) { s.seed = true }
}

// NewJSONFileStore creates a file-backed store, creating the file if it does not exist yet
func NewJSONFileStore(path string, opts ...JSONFileOption) (*JSONFileStore, error) {
	s := &JSONFileStore{path: path}
	for _, opt := range opts {
		opt(s)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("error creating submissions directory: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if _, err := s.initLocked(); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, fmt.Errorf("error checking submissions file: %w", err)
	}

	return s, nil
}

// Path returns the backing file location
func (s *JSONFileStore) Path() string {
	return s.path
}

// Load reads every submission from the file. Content that is not valid JSON
// is logged and replaced with an empty array; any other failure is returned
func (s *JSONFileStore) Load(ctx context.Context) ([]models.Submission, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return s.initLocked()
	}
	if err != nil {
		return nil, fmt.Errorf("error reading submissions file: %w", err)
	}

	if !json.Valid(data) {
		log.Printf("Invalid JSON in submissions file %s, resetting to empty list", s.path)
		if err := s.writeLocked([]models.Submission{}); err != nil {
			return nil, err
		}
		return []models.Submission{}, nil
	}

	// Well-formed JSON that doesn't decode is left on disk untouched
	var submissions []models.Submission
	if err := json.Unmarshal(data, &submissions); err != nil {
		return nil, fmt.Errorf("error decoding submissions file: %w", err)
	}
	if submissions == nil {
		submissions = []models.Submission{}
	}

	return submissions, nil
}

// Save rewrites the whole file through a temp file and rename
func (s *JSONFileStore) Save(ctx context.Context, submissions []models.Submission) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeLocked(submissions)
}

func (s *JSONFileStore) initLocked() ([]models.Submission, error) {
	initial := []models.Submission{}
	if s.seed {
		initial = ExampleSubmissions(time.Now())
	}
	if err := s.writeLocked(initial); err != nil {
		return nil, err
	}
	return initial, nil
}

// writeLocked must be called with mu held
func (s *JSONFileStore) writeLocked(submissions []models.Submission) error {
	if submissions == nil {
		submissions = []models.Submission{}
	}

	data, err := json.MarshalIndent(submissions, "", "  ")
	if err != nil {
		return fmt.Errorf("error encoding submissions: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("error creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("error writing submissions file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("error syncing submissions file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("error closing submissions file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("error replacing submissions file: %w", err)
	}

	return nil
}
