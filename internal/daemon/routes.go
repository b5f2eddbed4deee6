package daemon

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"github.com/gitnexus/gitnexus/internal/daemon/handlers"
	"github.com/gitnexus/gitnexus/internal/daemon/middleware"
	"github.com/gitnexus/gitnexus/internal/version"
)

func (d *Daemon) setupRoutes() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	rateLimitStore := memory.NewStore()
	rateLimiter := limiter.New(rateLimitStore, limiter.Rate{
		Period: 1 * time.Second,
		Limit:  20,
	})

	foldersH := handlers.NewFoldersHandler(d.folders, d.scheduler, d.registrar, d.executor, d.rearmWatcher)
	reposH := handlers.NewReposHandler(d.gh)
	logsH := handlers.NewLogsHandler(d.logs)
	statusH := handlers.NewStatusHandler(d.folders)
	chatH := handlers.NewChatHandler(d.chat)

	r.Use(gin.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.Gzip())
	r.Use(mgin.NewMiddleware(rateLimiter))

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"name": version.AppName, "version": version.Short()})
	})

	v1 := r.Group("/v1")
	v1.Use(middleware.TokenAuth(middleware.TokenAuthConfig{Token: d.cfg.HTTPToken}))
	{
		v1.GET("/status", statusH.Status)

		v1Folders := v1.Group("/folders")
		{
			v1Folders.GET("", foldersH.List)
			v1Folders.POST("", foldersH.Register)
			v1Folders.POST("/draft", foldersH.Draft)
			v1Folders.PATCH("/:id", foldersH.Update)
			v1Folders.DELETE("/:id", foldersH.Delete)
			v1Folders.POST("/:id/sync", foldersH.Sync)
		}

		v1Repos := v1.Group("/repos")
		{
			v1Repos.GET("", reposH.List)
			v1Repos.GET("/branches", reposH.Branches)
		}

		v1.GET("/logs", logsH.Recent)
		v1.POST("/push", foldersH.Push)
		v1.POST("/chat", chatH.Generate)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "method not allowed"})
	})

	return r
}
