package gh

import (
	"context"
	"fmt"
)

const commitsPageSize = 30

// ListBranches returns all branches of owner/repo.
func (c *Client) ListBranches(ctx context.Context, owner, repo string) ([]Branch, error) {
	const op = "list branches"

	var branches []Branch
	resp, err := c.http.R().
		SetContext(ctx).
		SetSuccessResult(&branches).
		Get(fmt.Sprintf("/repos/%s/%s/branches", encodeSegment(owner), encodeSegment(repo)))
	if err != nil {
		return nil, wrapRequestErr(err, op)
	}
	if resp.IsErrorState() {
		return nil, classify(resp, op, false)
	}

	return branches, nil
}

// ListCommits returns the most recent commits reachable from branch.
func (c *Client) ListCommits(ctx context.Context, owner, repo, branch string) ([]Commit, error) {
	const op = "list commits"

	var commits []Commit
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("sha", branch).
		SetQueryParam("per_page", fmt.Sprint(commitsPageSize)).
		SetSuccessResult(&commits).
		Get(fmt.Sprintf("/repos/%s/%s/commits", encodeSegment(owner), encodeSegment(repo)))
	if err != nil {
		return nil, wrapRequestErr(err, op)
	}
	if resp.IsErrorState() {
		return nil, classify(resp, op, false)
	}

	return commits, nil
}

// CreateBranch creates refs/heads/<name> pointing at sourceSHA.
func (c *Client) CreateBranch(ctx context.Context, owner, repo, name, sourceSHA string) error {
	const op = "create branch"

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(&createRefRequest{
			Ref: "refs/heads/" + name,
			SHA: sourceSHA,
		}).
		Post(fmt.Sprintf("/repos/%s/%s/git/refs", encodeSegment(owner), encodeSegment(repo)))
	if err != nil {
		return wrapRequestErr(err, op)
	}
	if resp.IsErrorState() {
		return classify(resp, op, true)
	}

	return nil
}
