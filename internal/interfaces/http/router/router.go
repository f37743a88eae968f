package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/identity"
	"github.com/storefront/backend/internal/infrastructure/auth"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
)

// RouteRegistrar registers a handler's routes on a group
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// RegistrarFunc adapts a function to RouteRegistrar
type RegistrarFunc func(rg *gin.RouterGroup)

// RegisterRoutes implements RouteRegistrar
func (f RegistrarFunc) RegisterRoutes(rg *gin.RouterGroup) { f(rg) }

// Router assembles the HTTP routing tree. Routes fall into three
// groups: public, authenticated, and admin-only.
type Router struct {
	engine     *gin.Engine
	jwtService *auth.JWTService
	logger     *zap.Logger
	apiVersion string

	public    []RouteRegistrar
	protected []RouteRegistrar
	admin     []RouteRegistrar
}

// Option customizes the router
type Option func(*Router)

// WithAPIVersion overrides the API version segment (default "v1")
func WithAPIVersion(version string) Option {
	return func(r *Router) {
		r.apiVersion = version
	}
}

// New creates a router bound to the given engine
func New(engine *gin.Engine, jwtService *auth.JWTService, logger *zap.Logger, opts ...Option) *Router {
	r := &Router{
		engine:     engine,
		jwtService: jwtService,
		logger:     logger,
		apiVersion: "v1",
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Public registers handlers reachable without authentication
func (r *Router) Public(registrars ...RouteRegistrar) *Router {
	r.public = append(r.public, registrars...)
	return r
}

// Protected registers handlers behind JWT authentication
func (r *Router) Protected(registrars ...RouteRegistrar) *Router {
	r.protected = append(r.protected, registrars...)
	return r
}

// Admin registers handlers behind JWT authentication plus the admin role
func (r *Router) Admin(registrars ...RouteRegistrar) *Router {
	r.admin = append(r.admin, registrars...)
	return r
}

// Setup wires middleware and all registered routes
func (r *Router) Setup() {
	r.engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.engine.Group("/api/" + r.apiVersion)
	for _, reg := range r.public {
		reg.RegisterRoutes(api)
	}

	authed := api.Group("")
	authed.Use(middleware.JWTAuth(r.jwtService, r.logger))
	for _, reg := range r.protected {
		reg.RegisterRoutes(authed)
	}

	admin := api.Group("")
	admin.Use(middleware.JWTAuth(r.jwtService, r.logger), middleware.RequireRole(string(identity.RoleAdmin)))
	for _, reg := range r.admin {
		reg.RegisterRoutes(admin)
	}
}
