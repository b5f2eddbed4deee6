package gh

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodePath(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain path",
			input: "src/app.ts",
			want:  "src/app.ts",
		},
		{
			name:  "spaces and hash",
			input: "a b/c#d.md",
			want:  "a%20b/c%23d.md",
		},
		{
			name:  "parent segments dropped",
			input: "../etc/passwd",
			want:  "etc/passwd",
		},
		{
			name:  "dot and empty segments dropped",
			input: "./a//b/./c",
			want:  "a/b/c",
		},
		{
			name:  "empty path",
			input: "",
			want:  "",
		},
		{
			name:  "draft with parens",
			input: "notes/My Draft (v2).md",
			want:  "notes/" + url.PathEscape("My Draft (v2).md"),
		},
		{
			name:  "non-ascii filename",
			input: "docs/привет 🎉.md",
			want:  "docs/" + url.PathEscape("привет 🎉.md"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EncodePath(tt.input))
		})
	}
}

// fakeBlob is one stored file on the fake contents API.
type fakeBlob struct {
	sha     string
	content string // base64
}

// fakeGithub emulates the slice of the REST API the client talks to:
// /user, /repos/{o}/{r}, branches, commits, refs and contents. Writes
// enforce the same stale-SHA rule as the real API.
type fakeGithub struct {
	mu       sync.Mutex
	files    map[string]fakeBlob // "owner/repo@branch:path"
	branches map[string]string   // branch -> head sha
	nextSHA  int

	login string

	// forceStatus short-circuits the named method with a status code.
	forceGet int
	forcePut int

	lastPutPath string // escaped request path of the last PUT
	lastPutSHA  string // sha field of the last PUT body
}

func newFakeGithub() *fakeGithub {
	return &fakeGithub{
		files:    make(map[string]fakeBlob),
		branches: map[string]string{"main": "head-0"},
		login:    "octocat",
	}
}

func (f *fakeGithub) key(owner, repo, branch, path string) string {
	return owner + "/" + repo + "@" + branch + ":" + path
}

func (f *fakeGithub) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")

		if r.URL.Path == "/user" {
			fmt.Fprintf(w, `{"login":%q}`, f.login)
			return
		}

		rest := strings.TrimPrefix(r.URL.Path, "/repos/")
		parts := strings.SplitN(rest, "/", 3)
		if len(parts) < 2 {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"message":"Not Found"}`)
			return
		}
		owner, repo := parts[0], parts[1]

		switch {
		case len(parts) == 2:
			// repo visibility check
			w.WriteHeader(http.StatusOK)
			fmt.Fprintf(w, `{"name":%q,"full_name":"%s/%s","default_branch":"main"}`, repo, owner, repo)

		case parts[2] == "branches":
			type branchOut struct {
				Name   string `json:"name"`
				Commit struct {
					SHA string `json:"sha"`
				} `json:"commit"`
			}
			out := make([]branchOut, 0, len(f.branches))
			for name, sha := range f.branches {
				b := branchOut{Name: name}
				b.Commit.SHA = sha
				out = append(out, b)
			}
			json.NewEncoder(w).Encode(out)

		case parts[2] == "commits":
			branch := r.URL.Query().Get("sha")
			sha, ok := f.branches[branch]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				fmt.Fprint(w, `{"message":"Not Found"}`)
				return
			}
			fmt.Fprintf(w, `[{"sha":%q}]`, sha)

		case parts[2] == "git/refs":
			var body struct {
				Ref string `json:"ref"`
				SHA string `json:"sha"`
			}
			json.NewDecoder(r.Body).Decode(&body)
			f.branches[strings.TrimPrefix(body.Ref, "refs/heads/")] = body.SHA
			w.WriteHeader(http.StatusCreated)
			fmt.Fprint(w, `{}`)

		case strings.HasPrefix(parts[2], "contents/"):
			path := strings.TrimPrefix(parts[2], "contents/")
			f.handleContents(w, r, owner, repo, path)

		default:
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"message":"Not Found"}`)
		}
	})
}

func (f *fakeGithub) handleContents(w http.ResponseWriter, r *http.Request, owner, repo, path string) {
	branch := r.URL.Query().Get("ref")
	if branch == "" {
		branch = "main"
	}
	key := f.key(owner, repo, branch, path)

	switch r.Method {
	case http.MethodGet:
		if f.forceGet != 0 {
			w.WriteHeader(f.forceGet)
			fmt.Fprint(w, `{"message":"forced"}`)
			return
		}
		blob, ok := f.files[key]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"message":"Not Found"}`)
			return
		}
		fmt.Fprintf(w, `{"type":"file","path":%q,"sha":%q,"content":%q,"encoding":"base64"}`,
			path, blob.sha, blob.content)

	case http.MethodPut:
		f.lastPutPath = r.URL.EscapedPath()

		var body struct {
			Message string `json:"message"`
			Content string `json:"content"`
			Branch  string `json:"branch"`
			SHA     string `json:"sha"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		f.lastPutSHA = body.SHA

		if f.forcePut != 0 {
			w.WriteHeader(f.forcePut)
			fmt.Fprint(w, `{"message":"forced"}`)
			return
		}

		key := f.key(owner, repo, body.Branch, path)
		existing, exists := f.files[key]
		if exists && body.SHA != existing.sha {
			w.WriteHeader(http.StatusConflict)
			fmt.Fprintf(w, `{"message":"%s does not match %s"}`, body.SHA, existing.sha)
			return
		}
		if !exists && body.SHA != "" {
			w.WriteHeader(http.StatusConflict)
			fmt.Fprint(w, `{"message":"sha provided for a new file"}`)
			return
		}

		f.nextSHA++
		blob := fakeBlob{sha: fmt.Sprintf("blob-%d", f.nextSHA), content: body.Content}
		f.files[key] = blob

		status := http.StatusOK
		if !exists {
			status = http.StatusCreated
		}
		w.WriteHeader(status)
		fmt.Fprintf(w, `{"content":{"path":%q,"sha":%q},"commit":{"sha":"commit-%d"}}`, path, blob.sha, f.nextSHA)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newTestClient(t *testing.T, fake *fakeGithub) *Client {
	t.Helper()
	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)
	client := NewWithBaseURL("test-token", srv.URL)
	t.Cleanup(client.Close)
	return client
}

func TestPushFileCreateThenUpdate(t *testing.T) {
	fake := newFakeGithub()
	client := newTestClient(t, fake)
	ctx := context.Background()

	b64 := func(s string) string { return base64.StdEncoding.EncodeToString([]byte(s)) }

	// first push: file absent, PUT must omit the sha
	res, err := client.PushFile(ctx, "octocat", "notes", "main", "src/app.ts", "sync", b64("v1"))
	require.NoError(t, err)
	assert.Empty(t, fake.lastPutSHA, "create must not send a blob sha")
	firstSHA := res.Content.SHA
	assert.NotEmpty(t, firstSHA)

	// second push: the freshly read sha must ride along
	res, err = client.PushFile(ctx, "octocat", "notes", "main", "src/app.ts", "sync", b64("v2"))
	require.NoError(t, err)
	assert.Equal(t, firstSHA, fake.lastPutSHA, "update must send the current blob sha")
	assert.NotEqual(t, firstSHA, res.Content.SHA)

	// stored content is the latest
	blob := fake.files[fake.key("octocat", "notes", "main", "src/app.ts")]
	assert.Equal(t, b64("v2"), blob.content)
}

func TestPushFileNonASCIIPath(t *testing.T) {
	fake := newFakeGithub()
	client := newTestClient(t, fake)
	ctx := context.Background()

	path := "docs/заметки 🎉.md"
	content := base64.StdEncoding.EncodeToString([]byte("你好 🎉"))

	_, err := client.PushFile(ctx, "octocat", "notes", "main", path, "sync", content)
	require.NoError(t, err)

	wantPath := "/repos/octocat/notes/contents/docs/" + url.PathEscape("заметки 🎉.md")
	assert.Equal(t, wantPath, fake.lastPutPath, "each segment must be percent-encoded on the wire")

	blob, ok := fake.files[fake.key("octocat", "notes", "main", path)]
	require.True(t, ok)
	decoded, err := base64.StdEncoding.DecodeString(blob.content)
	require.NoError(t, err)
	assert.Equal(t, "你好 🎉", string(decoded))
}

func TestErrorClassification(t *testing.T) {
	fake := newFakeGithub()
	client := newTestClient(t, fake)
	ctx := context.Background()

	_, err := client.GetContents(ctx, "octocat", "notes", "main", "missing.txt")
	assert.True(t, IsKind(err, KindNotFound), "read of a missing path is not_found, got %v", err)

	fake.forcePut = http.StatusForbidden
	_, err = client.PutContents(ctx, "octocat", "notes", "main", "a.txt", "sync", "YQ==", "")
	assert.True(t, IsKind(err, KindWriteDenied), "403 on a write is write_denied, got %v", err)

	fake.forcePut = http.StatusConflict
	_, err = client.PutContents(ctx, "octocat", "notes", "main", "a.txt", "sync", "YQ==", "stale")
	assert.True(t, IsKind(err, KindConflict), "409 on a write is conflict, got %v", err)

	fake.forcePut = http.StatusBadGateway
	_, err = client.PutContents(ctx, "octocat", "notes", "main", "a.txt", "sync", "YQ==", "")
	assert.True(t, IsKind(err, KindGeneric), "unmapped statuses stay generic, got %v", err)

	// a 403 on a read path is not a write denial
	fake.forcePut = 0
	fake.forceGet = http.StatusForbidden
	_, err = client.GetContents(ctx, "octocat", "notes", "main", "a.txt")
	assert.False(t, IsKind(err, KindWriteDenied))
	assert.True(t, IsKind(err, KindGeneric))
}

func TestResolveBlobSHASoftFailure(t *testing.T) {
	fake := newFakeGithub()
	client := newTestClient(t, fake)
	ctx := context.Background()

	// seed the cache through a successful write
	res, err := client.PutContents(ctx, "octocat", "notes", "main", "a.txt", "sync", "YQ==", "")
	require.NoError(t, err)

	// the lookup now fails, so the last-seen sha is reused
	fake.forceGet = http.StatusServiceUnavailable
	sha := client.ResolveBlobSHA(ctx, "octocat", "notes", "main", "a.txt")
	assert.Equal(t, res.Content.SHA, sha)

	// a path the client never saw degrades to a create attempt
	sha = client.ResolveBlobSHA(ctx, "octocat", "notes", "main", "never-seen.txt")
	assert.Empty(t, sha)
}

func TestResolveBlobSHAMissingFile(t *testing.T) {
	fake := newFakeGithub()
	client := newTestClient(t, fake)

	sha := client.ResolveBlobSHA(context.Background(), "octocat", "notes", "main", "new.txt")
	assert.Empty(t, sha, "a 404 means create, not failure")
}

func TestCheckRepository(t *testing.T) {
	fake := newFakeGithub()
	client := newTestClient(t, fake)
	ctx := context.Background()

	ok, err := client.CheckRepository(ctx, "octocat", "notes")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAuthenticatedUser(t *testing.T) {
	fake := newFakeGithub()
	client := newTestClient(t, fake)

	login, err := client.AuthenticatedUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "octocat", login)
}

func TestCreateBranchFromHead(t *testing.T) {
	fake := newFakeGithub()
	client := newTestClient(t, fake)
	ctx := context.Background()

	commits, err := client.ListCommits(ctx, "octocat", "notes", "main")
	require.NoError(t, err)
	require.NotEmpty(t, commits)

	err = client.CreateBranch(ctx, "octocat", "notes", "feature/sync", commits[0].SHA)
	require.NoError(t, err)

	branches, err := client.ListBranches(ctx, "octocat", "notes")
	require.NoError(t, err)

	names := make([]string, 0, len(branches))
	for _, b := range branches {
		names = append(names, b.Name)
	}
	assert.Contains(t, names, "feature/sync")
}
