package registry

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/skillsenselab/registry/auth"
	"github.com/skillsenselab/registry/errors"
	"github.com/skillsenselab/registry/logger"
	"github.com/skillsenselab/registry/server"
	"github.com/skillsenselab/registry/server/middleware"
)

// Handler exposes the directory over HTTP.
type Handler struct {
	authn       *auth.Service
	directory   *Directory
	serviceName string
	log         *logger.Logger
}

// NewHandler creates the registry HTTP handler.
func NewHandler(authn *auth.Service, directory *Directory, serviceName string, log *logger.Logger) *Handler {
	return &Handler{
		authn:       authn,
		directory:   directory,
		serviceName: serviceName,
		log:         log.WithComponent("handler"),
	}
}

// RegisterRoutes mounts all registry routes on the engine. Listing and health
// are open; mutations sit behind the bearer-token middleware.
func (h *Handler) RegisterRoutes(e *gin.Engine) {
	e.POST("/login", h.login)
	e.GET("/services", h.listServices)
	e.GET("/health", h.health)

	protected := e.Group("/", middleware.RequireAuth(h.authn.Verify))
	protected.POST("/services", h.registerService)
	protected.DELETE("/services", h.deregisterService)
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.RespondWithError(c, bindingError(err))
		return
	}

	token, err := h.authn.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (h *Handler) listServices(c *gin.Context) {
	records, err := h.directory.List(c.Request.Context())
	if err != nil {
		server.RespondWithError(c, err)
		return
	}
	if records == nil {
		records = []ServiceRecord{}
	}
	c.JSON(http.StatusOK, records)
}

type registerRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	URL         string `json:"url" binding:"required,url"`
}

func (h *Handler) registerService(c *gin.Context) {
	caller, ok := middleware.CallerIdentity(c)
	if !ok {
		server.RespondWithError(c, errors.Unauthorized(""))
		return
	}

	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.RespondWithError(c, bindingError(err))
		return
	}

	reg, err := h.directory.Register(c.Request.Context(), caller, req.Name, req.Description, req.URL)
	if err != nil {
		server.RespondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":  "Service added successfully",
		"UUID":     reg.ID,
		"password": reg.Password,
	})
}

type deregisterRequest struct {
	ID string `json:"id" binding:"required"`
}

func (h *Handler) deregisterService(c *gin.Context) {
	caller, ok := middleware.CallerIdentity(c)
	if !ok {
		server.RespondWithError(c, errors.Unauthorized(""))
		return
	}

	var req deregisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		server.RespondWithError(c, bindingError(err))
		return
	}

	if err := h.directory.Deregister(c.Request.Context(), caller, req.ID); err != nil {
		server.RespondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Service removed successfully"})
}

// health satisfies the contract every monitored service honors, so registry
// replicas themselves can sit behind the balancer and the monitor.
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": h.serviceName,
	})
}

// bindingError translates gin/validator binding failures into the 400-level
// error taxonomy.
func bindingError(err error) error {
	var verrs validator.ValidationErrors
	if stderrors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		if fe.Tag() == "required" {
			return errors.MissingField(fe.Field())
		}
		return errors.Validation("Invalid value for field: " + fe.Field()).
			WithDetail("field", fe.Field()).
			WithDetail("rule", fe.Tag())
	}
	return errors.Validation("Invalid request body.").WithCause(err)
}
