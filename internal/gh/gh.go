package gh

import (
	"fmt"
	"runtime"
	"time"

	"github.com/goccy/go-json"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/imroc/req/v3"

	"github.com/gitnexus/gitnexus/internal/version"
)

const (
	DefaultBaseURL = "https://api.github.com"

	acceptGithubV3 = "application/vnd.github.v3+json"

	// entries are cheap (two short strings), the cap just bounds a
	// long-running daemon with many folders
	shaCacheSize = 4096
)

var userAgent = fmt.Sprintf("GitNexus/%s (%s; %s; %s)", version.Version, version.Revision, runtime.GOOS, runtime.GOARCH)

// Client wraps the GitHub REST endpoints used by the sync engine.
// All methods are stateless request wrappers; the only client state
// is the credential and a cache of last-seen blob SHAs.
type Client struct {
	http     *req.Client
	shaCache *lru.Cache[string, string]
}

// New creates a GitHub API client authenticated with token.
func New(token string) *Client {
	return NewWithBaseURL(token, DefaultBaseURL)
}

// NewWithBaseURL creates a client against a custom API base URL.
// Used by tests to point at a local fake server.
func NewWithBaseURL(token, baseURL string) *Client {
	http := req.C().
		SetBaseURL(baseURL).
		SetCommonBearerAuthToken(token).
		SetCommonHeader("Accept", acceptGithubV3).
		SetUserAgent(userAgent).
		SetCommonRetryCount(2).
		SetCommonRetryFixedInterval(1 * time.Second).
		SetJsonMarshal(json.Marshal).
		SetJsonUnmarshal(json.Unmarshal)

	cache, _ := lru.New[string, string](shaCacheSize)

	return &Client{
		http:     http,
		shaCache: cache,
	}
}

// SetToken replaces the credential on the underlying client.
func (c *Client) SetToken(token string) {
	c.http.SetCommonBearerAuthToken(token)
}

func (c *Client) Close() {
	c.shaCache.Purge()
}
