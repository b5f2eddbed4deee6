package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gitnexus/gitnexus/internal/sync"
	"github.com/gitnexus/gitnexus/internal/version"
)

// StatusHandler reports daemon health and a folder status summary.
type StatusHandler struct {
	store   *sync.FolderStore
	started time.Time
}

func NewStatusHandler(store *sync.FolderStore) *StatusHandler {
	return &StatusHandler{store: store, started: time.Now()}
}

type StatusResponse struct {
	Version string         `json:"version"`
	Uptime  string         `json:"uptime"`
	Folders map[string]int `json:"folders"`
}

// Status returns version, uptime and folder counts per status.
func (h *StatusHandler) Status(c *gin.Context) {
	counts := map[string]int{}
	folders, err := h.store.List()
	if err != nil {
		AbortClassified(c, err)
		return
	}
	for _, folder := range folders {
		counts[string(folder.Status)]++
	}

	c.JSON(http.StatusOK, StatusResponse{
		Version: version.Short(),
		Uptime:  time.Since(h.started).Round(time.Second).String(),
		Folders: counts,
	})
}
