package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gitnexus/gitnexus/internal/gh"
)

// ReposHandler exposes repository discovery for the registration UI.
type ReposHandler struct {
	gh *gh.Client
}

func NewReposHandler(client *gh.Client) *ReposHandler {
	return &ReposHandler{gh: client}
}

// List returns the authenticated user's repositories, most recently
// updated first.
func (h *ReposHandler) List(c *gin.Context) {
	repos, err := h.gh.ListUserRepos(c.Request.Context())
	if err != nil {
		AbortClassified(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"repositories": repos})
}

// Branches returns the branches of owner/repo.
func (h *ReposHandler) Branches(c *gin.Context) {
	owner := c.Query("owner")
	repo := c.Query("repo")
	if owner == "" || repo == "" {
		AbortWithError(c, http.StatusBadRequest, ErrCodeBadRequest, errors.New("owner and repo are required"))
		return
	}

	branches, err := h.gh.ListBranches(c.Request.Context(), owner, repo)
	if err != nil {
		AbortClassified(c, err)
		return
	}

	names := make([]string, 0, len(branches))
	for _, b := range branches {
		names = append(names, b.Name)
	}
	c.JSON(http.StatusOK, gin.H{"branches": names})
}
