// Package values implements the layered local/remote values repository
// (spec.md §4.4, §6 filesystem layout): a per-agent values.yaml under each
// of a read-only local directory and a read/write remote directory.
package values

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"sigs.k8s.io/yaml"

	"github.com/newrelic/newrelic-agent-control-sub002/internal/agentid"
)

const (
	dirMode  = 0o700
	fileMode = 0o600
)

// Document is a decoded values.yaml mapping.
type Document map[string]interface{}

// Store is the shared interface of the local and remote value stores
// (spec.md §4.4: "Two layered stores with the same interface"). Local is
// read-only in practice (spec.md §6: "operator values (read-only)") but
// implements the same Go interface so callers don't special-case it; Load is
// the only method the local store's concrete implementation needs to
// support meaningfully.
type Store interface {
	Load(id agentid.ID) (Document, error)
	Store(id agentid.ID, doc Document) error
	Delete(id agentid.ID) error
}

// fileStore is the shared implementation behind both Local and Remote: one
// values.yaml file per agent id under baseDir/<agent-id>/values/values.yaml,
// or, for the controller id, baseDir/config.yaml directly (spec.md §6).
type fileStore struct {
	baseDir string
	mu      sync.RWMutex // serializes load/store within this process (spec.md §4.4, §5 note 3)
}

func newFileStore(baseDir string) *fileStore {
	return &fileStore{baseDir: baseDir}
}

func (s *fileStore) path(id agentid.ID) string {
	if id.IsController() {
		return filepath.Join(s.baseDir, "config.yaml")
	}
	return filepath.Join(s.baseDir, id.String(), "values", "values.yaml")
}

// Dir returns the per-agent directory this store keeps values (and, for
// on_host package installs, package trees) under, e.g. for remoteDir
// injection into a rendered package descriptor (spec.md §4.6 "Assemble").
func (s *fileStore) Dir(id agentid.ID) string {
	return filepath.Join(s.baseDir, id.String())
}

// Load reads and decodes the values file for id. A missing file is not an
// error: it returns an empty Document (spec.md resolution policy "else
// empty").
func (s *fileStore) Load(id agentid.ID) (Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	raw, err := os.ReadFile(s.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return Document{}, nil
		}
		return nil, fmt.Errorf("reading values for %s: %w", id, err)
	}
	var doc Document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decoding values for %s: %w", id, err)
	}
	if doc == nil {
		doc = Document{}
	}
	return doc, nil
}

// Store writes doc atomically: create the parent directory (mode 0700) if
// missing, then write the file (mode 0600) (spec.md §4.4 contract, §6).
func (s *fileStore) Store(id agentid.ID, doc Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.path(id)
	if err := os.MkdirAll(filepath.Dir(path), dirMode); err != nil {
		return fmt.Errorf("creating values directory for %s: %w", id, err)
	}
	raw, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding values for %s: %w", id, err)
	}
	if err := writeFileAtomic(path, raw, fileMode); err != nil {
		return fmt.Errorf("writing values for %s: %w", id, err)
	}
	return nil
}

// Delete removes only the values file, preserving any sibling files under
// the same agent directory (spec.md §4.4, §9).
func (s *fileStore) Delete(id agentid.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting values for %s: %w", id, err)
	}
	return nil
}

// writeFileAtomic writes to a temp file in the same directory then renames
// it into place, so a concurrent reader never observes a torn write.
func writeFileAtomic(path string, data []byte, mode os.FileMode) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, mode); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Local is the read-only, operator-supplied values store.
type Local struct{ *fileStore }

// NewLocal constructs a Local store rooted at dir.
func NewLocal(dir string) *Local { return &Local{newFileStore(dir)} }

// Remote is the read/write, OpAMP-managed values store.
type Remote struct{ *fileStore }

// NewRemote constructs a Remote store rooted at dir.
func NewRemote(dir string) *Remote { return &Remote{newFileStore(dir)} }
