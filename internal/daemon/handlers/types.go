package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gitnexus/gitnexus/internal/gh"
	"github.com/gitnexus/gitnexus/internal/sync"
)

const (
	CodeOk                    string = "OK"
	ErrCodeBadRequest         string = "ERR_BAD_REQUEST"
	ErrCodeUnknownError       string = "ERR_UNKNOWN_ERROR"
	ErrCodeFolderNotFound     string = "ERR_FOLDER_NOT_FOUND"
	ErrCodeRepoNotFound       string = "ERR_REPO_NOT_FOUND"
	ErrCodeWriteDenied        string = "ERR_WRITE_DENIED"
	ErrCodeConflict           string = "ERR_CONFLICT"
	ErrCodePermissionRequired string = "ERR_PERMISSION_REQUIRED"
	ErrCodeSyncRunning        string = "ERR_SYNC_RUNNING"
	ErrCodeChatUnavailable    string = "ERR_CHAT_UNAVAILABLE"
)

type ControlPlaneResponse struct {
	Code string `json:"code"`
}

type ControlPlaneError struct {
	ErrorCode string `json:"code"`
	Error     string `json:"error"`
}

func AbortWithError(c *gin.Context, status int, code string, err error) {
	c.Abort()
	c.Error(err)
	c.PureJSON(status, ControlPlaneError{
		ErrorCode: code,
		Error:     err.Error(),
	})
}

// AbortClassified maps engine/gateway errors onto HTTP codes so the
// UI can show the right badge or guide.
func AbortClassified(c *gin.Context, err error) {
	switch {
	case errors.Is(err, sync.ErrFolderNotFound):
		AbortWithError(c, http.StatusNotFound, ErrCodeFolderNotFound, err)
	case errors.Is(err, sync.ErrCycleRunning):
		AbortWithError(c, http.StatusConflict, ErrCodeSyncRunning, err)
	case errors.Is(err, sync.ErrPermissionRequired):
		AbortWithError(c, http.StatusPreconditionFailed, ErrCodePermissionRequired, err)
	case errors.Is(err, sync.ErrRepoNotVisible), gh.IsKind(err, gh.KindNotFound):
		AbortWithError(c, http.StatusNotFound, ErrCodeRepoNotFound, err)
	case gh.IsKind(err, gh.KindWriteDenied):
		AbortWithError(c, http.StatusForbidden, ErrCodeWriteDenied, err)
	case gh.IsKind(err, gh.KindConflict):
		AbortWithError(c, http.StatusConflict, ErrCodeConflict, err)
	default:
		AbortWithError(c, http.StatusInternalServerError, ErrCodeUnknownError, err)
	}
}
