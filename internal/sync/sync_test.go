package sync

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/gitnexus/gitnexus/internal/db"
	"github.com/gitnexus/gitnexus/internal/gh"
)

// testDB opens a throwaway sqlite database for one test.
func testDB(t *testing.T) *sqlx.DB {
	t.Helper()
	d, err := db.NewSqliteDb(
		db.WithPath(filepath.Join(t.TempDir(), "test.db")),
		db.WithMaxOpenConns(1),
	)
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	return d
}

// fakeRemote emulates the remote API surface the sync path touches.
type fakeRemote struct {
	mu     sync.Mutex
	files  map[string]string // decoded contents path -> base64 body
	shaSeq int
	pushed []string // decoded contents paths, in push order

	blockPut chan struct{}
	forcePut int // non-zero forces this status on PUT
	repoGone bool
	branches []string
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		files:    make(map[string]string),
		branches: []string{"main", "dev"},
	}
}

func (f *fakeRemote) pushedPaths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.pushed))
	copy(out, f.pushed)
	return out
}

func (f *fakeRemote) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		if r.URL.Path == "/user" {
			fmt.Fprint(w, `{"login":"octocat"}`)
			return
		}

		if i := strings.Index(r.URL.Path, "/contents/"); i >= 0 {
			path := r.URL.Path[i+len("/contents/"):]
			f.handleContents(w, r, path)
			return
		}

		switch {
		case strings.HasSuffix(r.URL.Path, "/branches"):
			f.mu.Lock()
			parts := make([]string, 0, len(f.branches))
			for _, b := range f.branches {
				parts = append(parts, fmt.Sprintf(`{"name":%q,"commit":{"sha":"head-%s"}}`, b, b))
			}
			f.mu.Unlock()
			fmt.Fprint(w, "["+strings.Join(parts, ",")+"]")

		case strings.HasSuffix(r.URL.Path, "/commits"):
			fmt.Fprint(w, `[{"sha":"head-sha"}]`)

		case strings.HasSuffix(r.URL.Path, "/git/refs"):
			w.WriteHeader(http.StatusCreated)
			fmt.Fprint(w, `{}`)

		default:
			// bare /repos/{owner}/{repo} visibility check
			if f.repoGone {
				w.WriteHeader(http.StatusNotFound)
				fmt.Fprint(w, `{"message":"Not Found"}`)
				return
			}
			fmt.Fprint(w, `{"name":"repo","default_branch":"main"}`)
		}
	})
}

func (f *fakeRemote) handleContents(w http.ResponseWriter, r *http.Request, path string) {
	switch r.Method {
	case http.MethodGet:
		f.mu.Lock()
		body, ok := f.files[path]
		f.mu.Unlock()
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"message":"Not Found"}`)
			return
		}
		fmt.Fprintf(w, `{"type":"file","path":%q,"sha":"sha-of-%s","content":%q}`, path, path, body)

	case http.MethodPut:
		if f.blockPut != nil {
			<-f.blockPut
		}
		if f.forcePut != 0 {
			w.WriteHeader(f.forcePut)
			fmt.Fprint(w, `{"message":"forced"}`)
			return
		}
		f.mu.Lock()
		f.shaSeq++
		f.pushed = append(f.pushed, path)
		f.files[path] = "" // body not needed, presence is
		seq := f.shaSeq
		f.mu.Unlock()
		fmt.Fprintf(w, `{"content":{"path":%q,"sha":"blob-%d"},"commit":{"sha":"commit-%d"}}`, path, seq, seq)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// harness wires a store, log store, engine and fake remote together.
type harness struct {
	remote *fakeRemote
	client *gh.Client
	store  *FolderStore
	logs   *LogStore
	engine *Engine
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	remote := newFakeRemote()
	srv := httptest.NewServer(remote.handler())
	t.Cleanup(srv.Close)

	client := gh.NewWithBaseURL("test-token", srv.URL)
	t.Cleanup(client.Close)

	d := testDB(t)
	store, err := NewFolderStoreWithDB(d)
	require.NoError(t, err)
	logs, err := NewLogStoreWithDB(d)
	require.NoError(t, err)

	executor := NewExecutor(client, logs)
	engine := NewEngine(store, executor, NewIgnoreList())

	return &harness{
		remote: remote,
		client: client,
		store:  store,
		logs:   logs,
		engine: engine,
	}
}
