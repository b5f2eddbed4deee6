package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/gitnexus/gitnexus/internal/sync"
)

// LogsHandler exposes the bounded sync log window.
type LogsHandler struct {
	logs *sync.LogStore
}

func NewLogsHandler(logs *sync.LogStore) *LogsHandler {
	return &LogsHandler{logs: logs}
}

// Recent returns sync log entries, newest first.
func (h *LogsHandler) Recent(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	entries, err := h.logs.Recent(limit)
	if err != nil {
		AbortClassified(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}
