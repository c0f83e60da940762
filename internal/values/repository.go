package values

import (
	"github.com/newrelic/newrelic-agent-control-sub002/internal/agentid"
)

// Repository composes the local and remote stores behind the resolution
// policy documented in spec.md §4.4: "if remote management is advertised by
// the agent's capabilities AND a remote file exists, use remote; else use
// local; else empty."
type Repository struct {
	Local  *Local
	Remote *Remote
}

// NewRepository builds a Repository over the given local/remote directories.
func NewRepository(localDir, remoteDir string) *Repository {
	return &Repository{Local: NewLocal(localDir), Remote: NewRemote(remoteDir)}
}

func (r *Repository) LoadLocal(id agentid.ID) (Document, error) { return r.Local.Load(id) }

func (r *Repository) LoadRemote(id agentid.ID) (Document, error) { return r.Remote.Load(id) }

func (r *Repository) StoreRemote(id agentid.ID, doc Document) error {
	return r.Remote.Store(id, doc)
}

func (r *Repository) DeleteRemote(id agentid.ID) error { return r.Remote.Delete(id) }

// hasRemote reports whether a non-empty remote document exists for id.
func (r *Repository) hasRemote(id agentid.ID) (bool, error) {
	doc, err := r.Remote.Load(id)
	if err != nil {
		return false, err
	}
	return len(doc) > 0, nil
}

// Resolve returns the effective values document for id per the layering
// policy: remote if the agent advertises remote-management capability and a
// remote document exists; otherwise local; otherwise an empty document.
func (r *Repository) Resolve(id agentid.ID, remoteManagementCapable bool) (Document, error) {
	if remoteManagementCapable {
		hasRemote, err := r.hasRemote(id)
		if err != nil {
			return nil, err
		}
		if hasRemote {
			return r.Remote.Load(id)
		}
	}
	local, err := r.Local.Load(id)
	if err != nil {
		return nil, err
	}
	if len(local) > 0 {
		return local, nil
	}
	return Document{}, nil
}
