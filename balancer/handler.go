package balancer

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/skillsenselab/registry/logger"
	"github.com/skillsenselab/registry/server"
)

// Handler is the balancer's HTTP front door: a reset endpoint that rebuilds
// the target list, and a catch-all that proxies everything else.
type Handler struct {
	proxy *Proxy
	log   *logger.Logger
}

// NewHandler creates a Handler over the given proxy.
func NewHandler(proxy *Proxy, log *logger.Logger) *Handler {
	return &Handler{proxy: proxy, log: log.WithComponent("balancer.handler")}
}

// RegisterRoutes attaches the balancer routes to the engine. Every method and
// path other than /reset is proxied.
func (h *Handler) RegisterRoutes(engine *gin.Engine) {
	engine.GET("/reset", h.reset)
	engine.NoRoute(h.route)
}

func (h *Handler) reset(c *gin.Context) {
	targets, err := h.proxy.Refresh(c.Request.Context())
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	if targets == nil {
		targets = []string{}
	}
	c.JSON(http.StatusOK, targets)
}

func (h *Handler) route(c *gin.Context) {
	if err := h.proxy.Route(c.Writer, c.Request); err != nil {
		server.RespondWithError(c, err)
	}
}
