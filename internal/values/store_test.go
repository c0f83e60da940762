package values

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/newrelic/newrelic-agent-control-sub002/internal/agentid"
)

func TestRemoteStoreLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	remote := NewRemote(dir)
	id := agentid.MustParse("nr-infra")

	doc := Document{"agents": map[string]interface{}{}}
	if err := remote.Store(id, doc); err != nil {
		t.Fatalf("store: %v", err)
	}

	loaded, err := remote.Load(id)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, ok := loaded["agents"]; !ok {
		t.Fatalf("expected 'agents' key in loaded doc, got %+v", loaded)
	}

	info, err := os.Stat(filepath.Join(dir, id.String(), "values", "values.yaml"))
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("expected file mode 0600, got %v", info.Mode().Perm())
	}
}

func TestRemoteStoreDeletePreservesSiblings(t *testing.T) {
	dir := t.TempDir()
	remote := NewRemote(dir)
	id := agentid.MustParse("nr-infra")

	if err := remote.Store(id, Document{"a": "b"}); err != nil {
		t.Fatalf("store: %v", err)
	}
	siblingPath := filepath.Join(dir, id.String(), "sibling.txt")
	if err := os.WriteFile(siblingPath, []byte("keep me"), 0o600); err != nil {
		t.Fatalf("writing sibling: %v", err)
	}

	if err := remote.Delete(id); err != nil {
		t.Fatalf("delete: %v", err)
	}

	loaded, err := remote.Load(id)
	if err != nil {
		t.Fatalf("load after delete: %v", err)
	}
	if len(loaded) != 0 {
		t.Fatalf("expected empty doc after delete, got %+v", loaded)
	}
	if _, err := os.Stat(siblingPath); err != nil {
		t.Fatalf("expected sibling file to survive delete: %v", err)
	}
}

func TestRepositoryResolvePolicy(t *testing.T) {
	dir := t.TempDir()
	repo := NewRepository(filepath.Join(dir, "local"), filepath.Join(dir, "remote"))
	id := agentid.MustParse("nr-infra")

	// Neither store populated -> empty.
	doc, err := repo.Resolve(id, true)
	if err != nil || len(doc) != 0 {
		t.Fatalf("expected empty doc, got %+v err=%v", doc, err)
	}

	// Local only -> local used regardless of capability.
	if err := repo.Local.Store(id, Document{"source": "local"}); err != nil {
		t.Fatalf("store local: %v", err)
	}
	doc, err = repo.Resolve(id, true)
	if err != nil || doc["source"] != "local" {
		t.Fatalf("expected local doc, got %+v err=%v", doc, err)
	}

	// Remote present + capable -> remote wins.
	if err := repo.StoreRemote(id, Document{"source": "remote"}); err != nil {
		t.Fatalf("store remote: %v", err)
	}
	doc, err = repo.Resolve(id, true)
	if err != nil || doc["source"] != "remote" {
		t.Fatalf("expected remote doc, got %+v err=%v", doc, err)
	}

	// Remote present but not capable -> local wins.
	doc, err = repo.Resolve(id, false)
	if err != nil || doc["source"] != "local" {
		t.Fatalf("expected local doc when not capable, got %+v err=%v", doc, err)
	}
}
