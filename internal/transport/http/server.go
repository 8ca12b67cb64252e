package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/craftbridge/relay-server/internal/config"
	"github.com/craftbridge/relay-server/internal/core"
)

// NewServer builds the HTTP server fronting the relay: health and stats
// endpoints plus the WebSocket upgrade route.
func NewServer(relay *core.Relay, cfg config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(LoggerMiddleware(logger), gin.Recovery(), CORSMiddleware(cfg.CORSOrigin))

	router.GET("/health", healthHandler)
	router.GET("/stats", statsHandler(relay))
	router.GET("/ws", gin.WrapH(NewWSHandler(relay, cfg.CORSOrigin, logger)))

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}

func statsHandler(relay *core.Relay) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(stdhttp.StatusOK, relay.Stats())
	}
}
