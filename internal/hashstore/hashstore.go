// Package hashstore persists the most recently applied/failed OpAMP
// remote-config hash per agent id (spec.md §4.5, §6:
// "fleet/agents.d/<agent-id>/hash"), so that on restart the controller can
// report applied/failed for the last-seen configuration without
// re-processing it.
package hashstore

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/newrelic/newrelic-agent-control-sub002/internal/agentid"
)

const (
	dirMode  = 0o700
	fileMode = 0o600
)

// Store is a flat-file hash repository rooted at <remote-dir>/fleet/agents.d.
type Store struct {
	root string
}

// New constructs a Store under remoteDir (spec.md §6 filesystem layout).
func New(remoteDir string) *Store {
	return &Store{root: filepath.Join(remoteDir, "fleet", "agents.d")}
}

func (s *Store) path(id agentid.ID) string {
	return filepath.Join(s.root, id.String(), "hash")
}

// Load returns the last persisted hash for id, or ("", false) if none has
// been recorded yet.
func (s *Store) Load(id agentid.ID) (string, bool, error) {
	raw, err := os.ReadFile(s.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("reading hash for %s: %w", id, err)
	}
	return string(raw), true, nil
}

// Store persists hash as the last-seen value for id.
func (s *Store) Store(id agentid.ID, hash string) error {
	path := s.path(id)
	if err := os.MkdirAll(filepath.Dir(path), dirMode); err != nil {
		return fmt.Errorf("creating hash directory for %s: %w", id, err)
	}
	if err := os.WriteFile(path, []byte(hash), fileMode); err != nil {
		return fmt.Errorf("writing hash for %s: %w", id, err)
	}
	return nil
}
