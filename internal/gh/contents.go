package gh

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/goccy/go-json"
)

// GetContents fetches one content node at path on branch. A directory
// path yields a listing; a file path yields a single node with a
// base64 body.
func (c *Client) GetContents(ctx context.Context, owner, repo, branch, path string) ([]ContentNode, error) {
	const op = "get contents"

	url := fmt.Sprintf("/repos/%s/%s/contents/%s", encodeSegment(owner), encodeSegment(repo), EncodePath(path))

	// the contents API returns an object for files and an array for
	// directories, so decode from the raw body
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("ref", branch).
		Get(url)
	if err != nil {
		return nil, wrapRequestErr(err, op)
	}
	if resp.IsErrorState() {
		return nil, classify(resp, op, false)
	}

	body, err := resp.ToBytes()
	if err != nil {
		return nil, fmt.Errorf("github: %s: read body: %w", op, err)
	}

	if len(body) > 0 && body[0] == '[' {
		var nodes []ContentNode
		if err := json.Unmarshal(body, &nodes); err != nil {
			return nil, fmt.Errorf("github: %s: decode listing: %w", op, err)
		}
		return nodes, nil
	}

	var node ContentNode
	if err := json.Unmarshal(body, &node); err != nil {
		return nil, fmt.Errorf("github: %s: decode node: %w", op, err)
	}
	return []ContentNode{node}, nil
}

// ResolveBlobSHA returns the current blob SHA for path on branch, or
// "" when the file does not exist yet. Any other read failure is a
// soft failure: the last SHA the client saw is returned (possibly "")
// and conflict detection is left to the subsequent PUT.
func (c *Client) ResolveBlobSHA(ctx context.Context, owner, repo, branch, path string) string {
	key := shaKey(owner, repo, branch, path)

	url := fmt.Sprintf("/repos/%s/%s/contents/%s", encodeSegment(owner), encodeSegment(repo), EncodePath(path))

	var node ContentNode
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("ref", branch).
		SetSuccessResult(&node).
		Get(url)

	switch {
	case err != nil:
		slog.Debug("blob sha lookup failed, proceeding without fresh sha", "path", path, "error", err)
	case resp.StatusCode == http.StatusNotFound:
		// file does not exist yet, this is a create
		c.shaCache.Remove(key)
		return ""
	case resp.IsErrorState():
		slog.Debug("blob sha lookup rejected, proceeding without fresh sha", "path", path, "status", resp.StatusCode)
	default:
		c.shaCache.Add(key, node.SHA)
		return node.SHA
	}

	if sha, ok := c.shaCache.Get(key); ok {
		return sha
	}
	return ""
}

// PutContents creates or updates one file. sha must be the current
// blob SHA for updates and empty for creates.
func (c *Client) PutContents(ctx context.Context, owner, repo, branch, path, message, contentB64, sha string) (*PutContentsResponse, error) {
	const op = "put contents"

	url := fmt.Sprintf("/repos/%s/%s/contents/%s", encodeSegment(owner), encodeSegment(repo), EncodePath(path))

	var result PutContentsResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(&putContentsRequest{
			Message: message,
			Content: contentB64,
			Branch:  branch,
			SHA:     sha,
		}).
		SetSuccessResult(&result).
		Put(url)
	if err != nil {
		return nil, wrapRequestErr(err, op)
	}
	if resp.IsErrorState() {
		c.shaCache.Remove(shaKey(owner, repo, branch, path))
		return nil, classify(resp, op, true)
	}

	c.shaCache.Add(shaKey(owner, repo, branch, path), result.Content.SHA)
	return &result, nil
}

// PushFile resolves the current blob SHA and performs the
// create-or-update write in one step.
func (c *Client) PushFile(ctx context.Context, owner, repo, branch, path, message, contentB64 string) (*PutContentsResponse, error) {
	sha := c.ResolveBlobSHA(ctx, owner, repo, branch, path)
	return c.PutContents(ctx, owner, repo, branch, path, message, contentB64, sha)
}

func shaKey(owner, repo, branch, path string) string {
	return owner + "/" + repo + "@" + branch + ":" + path
}
