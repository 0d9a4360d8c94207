package http

import (
	stdhttp "net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/pairchat-server/internal/config"
	"github.com/vovakirdan/pairchat-server/internal/core"
)

// NewServer builds the HTTP server: health and stats endpoints, the
// websocket upgrade route, and (when configured) the static chat page.
func NewServer(hub *core.Hub, cfg config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(LoggerMiddleware(logger), gin.Recovery())

	router.GET("/health", healthHandler)
	router.GET("/stats", statsHandler(hub))
	router.GET("/ws", gin.WrapH(NewWSHandler(hub, cfg.EventRateLimit, logger)))

	if cfg.StaticDir != "" {
		router.StaticFile("/", filepath.Join(cfg.StaticDir, "index.html"))
		router.Static("/static", filepath.Join(cfg.StaticDir, "static"))
	}

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}

func statsHandler(hub *core.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := hub.Stats(c.Request.Context())
		if err != nil {
			c.JSON(stdhttp.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		c.JSON(stdhttp.StatusOK, stats)
	}
}
