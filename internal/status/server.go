package status

import (
	"encoding/json"
	"net/http"
)

// ServeStatus returns an http.Handler that serves the current Snapshot as
// JSON (spec.md §5 note 1, `status_updater.rs`'s read-only HTTP contract).
// The handler is in scope; the listener it is mounted on is an external
// collaborator (spec.md §1 lists the HTTP status server transport as out of
// scope).
func ServeStatus(s *Status) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(s.Snapshot())
	})
}
