package gh

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/imroc/req/v3"
)

// ErrKind classifies remote API failures so callers can react without
// inspecting message text.
type ErrKind int

const (
	// KindGeneric is any unclassified network or API failure.
	KindGeneric ErrKind = iota
	// KindNotFound means the repo/branch/path does not exist or is not
	// visible with the current credential.
	KindNotFound
	// KindWriteDenied means the credential lacks write permission on
	// repository contents.
	KindWriteDenied
	// KindConflict means the remote blob changed between the SHA read
	// and the write (stale SHA).
	KindConflict
)

func (k ErrKind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindWriteDenied:
		return "write_denied"
	case KindConflict:
		return "conflict"
	default:
		return "generic"
	}
}

// APIError is a classified GitHub API failure carrying the remote
// message when one was provided.
type APIError struct {
	Kind       ErrKind
	StatusCode int
	Op         string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("github: %s: %s (http %d)", e.Op, e.Kind, e.StatusCode)
	}
	return fmt.Sprintf("github: %s: %s (http %d): %s", e.Op, e.Kind, e.StatusCode, e.Message)
}

// IsKind reports whether err is an APIError of the given kind.
func IsKind(err error, kind ErrKind) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Kind == kind
}

// ghErrorBody is the error payload GitHub returns on non-2xx responses.
type ghErrorBody struct {
	Message string `json:"message"`
}

// classify maps an error response to the taxonomy. Write-path status
// codes carry more specific meanings than read-path ones, so the
// caller indicates which side of the API it hit.
func classify(resp *req.Response, op string, write bool) error {
	var body ghErrorBody
	_ = json.Unmarshal(resp.Bytes(), &body)

	kind := KindGeneric
	switch resp.StatusCode {
	case http.StatusNotFound:
		kind = KindNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		if write {
			kind = KindWriteDenied
		}
	case http.StatusConflict:
		kind = KindConflict
	}

	return &APIError{
		Kind:       kind,
		StatusCode: resp.StatusCode,
		Op:         op,
		Message:    body.Message,
	}
}

// wrapRequestErr normalizes transport-level failures (DNS, TLS,
// timeouts) that never produced a response.
func wrapRequestErr(err error, op string) error {
	return fmt.Errorf("github: %s: request failed: %w", op, err)
}
