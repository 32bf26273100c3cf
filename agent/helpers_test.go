package agent_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/sagarc03/volstore"
)

const testToken = volstore.Token("tok")

type call struct {
	Method string
	Action string
	Path   string
}

// fakeAgent is an in-memory storage agent for one volume. It refuses to
// create anything whose parent is missing and answers existingStatus for a
// directory that is already there.
type fakeAgent struct {
	mu             sync.Mutex
	calls          []call
	dirs           map[string]bool
	files          map[string][]byte
	existingStatus int
	fail           map[string]int
}

func newFakeAgent(t *testing.T) (*fakeAgent, volstore.VolumeHandle) {
	t.Helper()

	fa := &fakeAgent{
		dirs:           map[string]bool{},
		files:          map[string][]byte{},
		existingStatus: http.StatusConflict,
		fail:           map[string]int{},
	}
	server := httptest.NewServer(fa)
	t.Cleanup(server.Close)

	return fa, volstore.VolumeHandle{ID: "v1", BaseURL: server.URL + "/jacsstorage/agent_api", OwnerKey: "user:alice", Name: "scratch"}
}

func (fa *fakeAgent) Calls() []call {
	fa.mu.Lock()
	defer fa.mu.Unlock()
	out := make([]call, len(fa.calls))
	copy(out, fa.calls)
	return out
}

func (fa *fakeAgent) File(p string) []byte {
	fa.mu.Lock()
	defer fa.mu.Unlock()
	return fa.files[p]
}

func (fa *fakeAgent) Reset() {
	fa.mu.Lock()
	defer fa.mu.Unlock()
	fa.calls = nil
}

func (fa *fakeAgent) CallPaths(action string) []string {
	var out []string
	for _, c := range fa.Calls() {
		if c.Action == action {
			out = append(out, c.Path)
		}
	}
	return out
}

func (fa *fakeAgent) parentExists(p string) bool {
	parent := path.Dir(p)
	return parent == "." || fa.dirs[parent]
}

func (fa *fakeAgent) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	fa.mu.Lock()
	defer fa.mu.Unlock()

	const prefix = "/jacsstorage/agent_api/agent_storage/v1/"
	if !strings.HasPrefix(r.URL.Path, prefix) {
		http.NotFound(w, r)
		return
	}
	action, rel, _ := strings.Cut(strings.TrimPrefix(r.URL.Path, prefix), "/")
	if action == "list" {
		rel = r.URL.Query().Get("entry")
	}
	fa.calls = append(fa.calls, call{Method: r.Method, Action: action, Path: rel})

	if r.Header.Get("Authorization") != testToken.Header() {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	if status, ok := fa.fail[action+":"+rel]; ok {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"errormessage":"injected failure"}`))
		return
	}

	switch {
	case action == "directory" && r.Method == http.MethodPost:
		switch {
		case fa.dirs[rel] || fa.files[rel] != nil:
			w.WriteHeader(fa.existingStatus)
			_, _ = w.Write([]byte(`{"errormessage":"` + rel + ` already exists"}`))
		case !fa.parentExists(rel):
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"errormessage":"parent of ` + rel + ` not found"}`))
		default:
			fa.dirs[rel] = true
			writeJSON(w, http.StatusCreated, volstore.Entry{VolumeID: "v1", Path: rel, Directory: true})
		}

	case action == "file" && r.Method == http.MethodPost:
		switch {
		case fa.dirs[rel] || fa.files[rel] != nil:
			w.WriteHeader(http.StatusConflict)
		case !fa.parentExists(rel):
			w.WriteHeader(http.StatusNotFound)
		default:
			data, err := io.ReadAll(r.Body)
			if err != nil {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			if data == nil {
				data = []byte{}
			}
			fa.files[rel] = data
			writeJSON(w, http.StatusCreated, volstore.Entry{VolumeID: "v1", Path: rel, Size: int64(len(data))})
		}

	case action == "list" && r.Method == http.MethodGet:
		if rel != "" && !fa.dirs[rel] && fa.files[rel] == nil {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if data, ok := fa.files[rel]; ok {
			writeJSON(w, http.StatusOK, []volstore.Entry{{VolumeID: "v1", Path: rel, Size: int64(len(data))}})
			return
		}
		entries := []volstore.Entry{}
		for d := range fa.dirs {
			if isChild(rel, d) {
				entries = append(entries, volstore.Entry{VolumeID: "v1", Path: d, Directory: true})
			}
		}
		for f, data := range fa.files {
			if isChild(rel, f) {
				entries = append(entries, volstore.Entry{VolumeID: "v1", Path: f, Size: int64(len(data))})
			}
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
		writeJSON(w, http.StatusOK, entries)

	case action == "entry_content" && r.Method == http.MethodGet:
		if fa.dirs[rel] {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"errormessage":"` + rel + ` is a directory"}`))
			return
		}
		data, ok := fa.files[rel]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write(data)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func isChild(parent, p string) bool {
	dir := path.Dir(p)
	if parent == "" {
		return dir == "."
	}
	return dir == parent
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
