package router

import (
	"github.com/gin-gonic/gin"
)

// RouteRegistrar registers routes on a gin router group.
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Router mounts route registrars under a versioned API prefix.
type Router struct {
	engine      *gin.Engine
	apiVersion  string
	middlewares []gin.HandlerFunc
	registrars  []RouteRegistrar
}

// RouterOption is a functional option for Router configuration.
type RouterOption func(*Router)

// WithAPIVersion sets the API version prefix (e.g. "v1", "v2").
func WithAPIVersion(version string) RouterOption {
	return func(r *Router) {
		r.apiVersion = version
	}
}

// NewRouter creates a Router on the given engine.
func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{
		engine:     engine,
		apiVersion: "v1",
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Use adds middleware applied to the versioned API group only. Global
// concerns belong on the engine itself.
func (r *Router) Use(middleware ...gin.HandlerFunc) *Router {
	r.middlewares = append(r.middlewares, middleware...)
	return r
}

// Register queues a registrar for Setup.
func (r *Router) Register(registrar RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrar)
	return r
}

// Setup mounts every registered group under /api/<version>.
func (r *Router) Setup() {
	api := r.engine.Group("/api/" + r.apiVersion)
	if len(r.middlewares) > 0 {
		api.Use(r.middlewares...)
	}
	for _, registrar := range r.registrars {
		registrar.RegisterRoutes(api)
	}
}

// ResourceGroup collects the routes of one resource under a shared
// prefix before they are mounted.
type ResourceGroup struct {
	prefix     string
	middleware []gin.HandlerFunc
	routes     []routeDefinition
}

type routeDefinition struct {
	method   string
	path     string
	handlers []gin.HandlerFunc
}

// NewResourceGroup creates a route group for one resource prefix.
func NewResourceGroup(prefix string) *ResourceGroup {
	return &ResourceGroup{prefix: prefix}
}

// Use adds middleware scoped to this group.
func (g *ResourceGroup) Use(middleware ...gin.HandlerFunc) *ResourceGroup {
	g.middleware = append(g.middleware, middleware...)
	return g
}

// GET registers a GET route relative to the group prefix.
func (g *ResourceGroup) GET(path string, handlers ...gin.HandlerFunc) *ResourceGroup {
	return g.handle("GET", path, handlers)
}

// POST registers a POST route relative to the group prefix.
func (g *ResourceGroup) POST(path string, handlers ...gin.HandlerFunc) *ResourceGroup {
	return g.handle("POST", path, handlers)
}

// PUT registers a PUT route relative to the group prefix.
func (g *ResourceGroup) PUT(path string, handlers ...gin.HandlerFunc) *ResourceGroup {
	return g.handle("PUT", path, handlers)
}

// DELETE registers a DELETE route relative to the group prefix.
func (g *ResourceGroup) DELETE(path string, handlers ...gin.HandlerFunc) *ResourceGroup {
	return g.handle("DELETE", path, handlers)
}

func (g *ResourceGroup) handle(method, path string, handlers []gin.HandlerFunc) *ResourceGroup {
	g.routes = append(g.routes, routeDefinition{
		method:   method,
		path:     path,
		handlers: handlers,
	})
	return g
}

// RegisterRoutes implements RouteRegistrar.
func (g *ResourceGroup) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group(g.prefix)
	if len(g.middleware) > 0 {
		group.Use(g.middleware...)
	}
	for _, route := range g.routes {
		group.Handle(route.method, route.path, route.handlers...)
	}
}
