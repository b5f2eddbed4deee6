package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func authRouter(token string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(TokenAuth(TokenAuthConfig{Token: token}))
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
	return r
}

func get(r *gin.Engine, path string, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestTokenAuthDisabled(t *testing.T) {
	r := authRouter("")
	w := get(r, "/ping", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestTokenAuthBearer(t *testing.T) {
	r := authRouter("secret")

	w := get(r, "/ping", "Bearer secret")
	assert.Equal(t, http.StatusOK, w.Code)

	w = get(r, "/ping", "Bearer wrong")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = get(r, "/ping", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTokenAuthQueryFallback(t *testing.T) {
	r := authRouter("secret")

	w := get(r, "/ping?token=secret", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = get(r, "/ping?token=wrong", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
