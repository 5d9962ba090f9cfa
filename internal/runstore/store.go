package runstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/depscope/depscope/internal/analysis"
)

const (
	runsDir    = "runs"
	objectsDir = "objects"
	indexFile  = "index.json"
)

// Store provides content-addressable storage for analysis runs.
type Store struct {
	mu      sync.RWMutex
	rootDir string
	index   *RunIndex
}

// NewStore creates or opens a run store at the given directory.
func NewStore(rootDir string) (*Store, error) {
	s := &Store{rootDir: rootDir}

	dirs := []string{
		filepath.Join(rootDir, runsDir),
		filepath.Join(rootDir, objectsDir),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store directory %s: %w", dir, err)
		}
	}

	if err := s.loadIndex(); err != nil {
		s.index = &RunIndex{
			Runs:      []RunSummary{},
			UpdatedAt: time.Now(),
		}
	}

	return s, nil
}

// Save persists a run record and its serialized report.
func (s *Store) Save(run *Run, reportJSON []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writeObject(run.ContentHash, reportJSON); err != nil {
		return fmt.Errorf("store report object: %w", err)
	}

	runDir := filepath.Join(s.rootDir, runsDir, run.ID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return fmt.Errorf("create run dir: %w", err)
	}

	runData, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal run: %w", err)
	}

	if err := os.WriteFile(filepath.Join(runDir, "run.json"), runData, 0o644); err != nil {
		return fmt.Errorf("write run: %w", err)
	}

	s.index.Runs = append(s.index.Runs, run.Summary())
	s.index.UpdatedAt = time.Now()
	return s.saveIndex()
}

// Load retrieves a run record by ID.
func (s *Store) Load(id string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.load(id)
}

func (s *Store) load(id string) (*Run, error) {
	runPath := filepath.Join(s.rootDir, runsDir, id, "run.json")
	data, err := os.ReadFile(runPath)
	if err != nil {
		return nil, fmt.Errorf("read run %s: %w", id, err)
	}

	var run Run
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("unmarshal run %s: %w", id, err)
	}

	return &run, nil
}

// LoadReport retrieves a run's report from the content-addressed store.
func (s *Store) LoadReport(run *Run) (*analysis.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	content, err := s.readObject(run.ContentHash)
	if err != nil {
		return nil, fmt.Errorf("read report object for run %s: %w", run.ID, err)
	}

	var report analysis.Report
	if err := json.Unmarshal(content, &report); err != nil {
		return nil, fmt.Errorf("unmarshal report for run %s: %w", run.ID, err)
	}

	return &report, nil
}

// List returns all run summaries, newest first.
func (s *Store) List() []RunSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]RunSummary, len(s.index.Runs))
	copy(result, s.index.Runs)

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	return result
}

// FindByTag returns the run with the given tag.
func (s *Store) FindByTag(tag string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, summary := range s.index.Runs {
		if summary.Tag == tag {
			return s.load(summary.ID)
		}
	}
	return nil, fmt.Errorf("run with tag %q not found", tag)
}

// Tag assigns a tag to a run.
func (s *Store) Tag(id, tag string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, err := s.load(id)
	if err != nil {
		return err
	}

	run.Tag = tag
	runData, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal run: %w", err)
	}

	runPath := filepath.Join(s.rootDir, runsDir, id, "run.json")
	if err := os.WriteFile(runPath, runData, 0o644); err != nil {
		return fmt.Errorf("write run: %w", err)
	}

	for i, summary := range s.index.Runs {
		if summary.ID == id {
			s.index.Runs[i].Tag = tag
			break
		}
	}
	s.index.UpdatedAt = time.Now()
	return s.saveIndex()
}

// Delete removes a run record. Report objects stay in place since other
// runs may share the same content hash.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	runDir := filepath.Join(s.rootDir, runsDir, id)
	if err := os.RemoveAll(runDir); err != nil {
		return fmt.Errorf("remove run dir: %w", err)
	}

	filtered := s.index.Runs[:0]
	for _, summary := range s.index.Runs {
		if summary.ID != id {
			filtered = append(filtered, summary)
		}
	}
	s.index.Runs = filtered
	s.index.UpdatedAt = time.Now()

	return s.saveIndex()
}

// writeObject stores content by its hash.
func (s *Store) writeObject(hash string, content []byte) error {
	prefix := hash[:2]
	dir := filepath.Join(s.rootDir, objectsDir, prefix)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	objPath := filepath.Join(dir, hash[2:])
	if _, err := os.Stat(objPath); err == nil {
		return nil // Already exists (content-addressable dedup)
	}

	return os.WriteFile(objPath, content, 0o644)
}

// readObject retrieves content by its hash.
func (s *Store) readObject(hash string) ([]byte, error) {
	prefix := hash[:2]
	objPath := filepath.Join(s.rootDir, objectsDir, prefix, hash[2:])
	return os.ReadFile(objPath)
}

func (s *Store) loadIndex() error {
	data, err := os.ReadFile(filepath.Join(s.rootDir, indexFile))
	if err != nil {
		return err
	}
	s.index = &RunIndex{}
	return json.Unmarshal(data, s.index)
}

func (s *Store) saveIndex() error {
	data, err := json.MarshalIndent(s.index, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(s.rootDir, indexFile), data, 0o644)
}
