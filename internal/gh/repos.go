package gh

import (
	"context"
	"fmt"
)

const reposPageSize = 100

// AuthenticatedUser returns the login of the token's user.
func (c *Client) AuthenticatedUser(ctx context.Context) (string, error) {
	const op = "get authenticated user"

	var user struct {
		Login string `json:"login"`
	}
	resp, err := c.http.R().
		SetContext(ctx).
		SetSuccessResult(&user).
		Get("/user")
	if err != nil {
		return "", wrapRequestErr(err, op)
	}
	if resp.IsErrorState() {
		return "", classify(resp, op, false)
	}

	return user.Login, nil
}

// ListUserRepos returns the repositories visible to the authenticated
// user, most recently updated first.
func (c *Client) ListUserRepos(ctx context.Context) ([]Repository, error) {
	const op = "list user repos"

	var repos []Repository
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("per_page", fmt.Sprint(reposPageSize)).
		SetQueryParam("sort", "updated").
		SetSuccessResult(&repos).
		Get("/user/repos")
	if err != nil {
		return nil, wrapRequestErr(err, op)
	}
	if resp.IsErrorState() {
		return nil, classify(resp, op, false)
	}

	return repos, nil
}

// CheckRepository reports whether owner/repo exists and is visible
// with the current credential. Only transport failures return an
// error; a 404 is a clean false.
func (c *Client) CheckRepository(ctx context.Context, owner, repo string) (bool, error) {
	const op = "check repository"

	resp, err := c.http.R().
		SetContext(ctx).
		Get(fmt.Sprintf("/repos/%s/%s", encodeSegment(owner), encodeSegment(repo)))
	if err != nil {
		return false, wrapRequestErr(err, op)
	}

	return resp.IsSuccessState(), nil
}
