// Package router assembles the DealerDesk HTTP routes. Each domain builds a
// DomainGroup; Mount places them under the versioned API prefix.
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Route is one mounted method and full path
type Route struct {
	Method string
	Path   string
}

// API is the versioned prefix and the middleware shared by every domain group
type API struct {
	Version    string
	Middleware []gin.HandlerFunc
}

// Mount registers groups under /api/<version> and returns the routes it added
func (a API) Mount(engine *gin.Engine, groups ...*DomainGroup) []Route {
	version := a.Version
	if version == "" {
		version = "v1"
	}
	api := engine.Group("/api/"+version, a.Middleware...)

	var mounted []Route
	for _, g := range groups {
		mounted = append(mounted, g.mount(api)...)
	}
	return mounted
}

// DomainGroup collects the routes of one domain before they are mounted
type DomainGroup struct {
	name       string
	prefix     string
	middleware []gin.HandlerFunc
	routes     []groupRoute
}

type groupRoute struct {
	Route
	handlers []gin.HandlerFunc
}

func NewDomainGroup(name, prefix string) *DomainGroup {
	return &DomainGroup{name: name, prefix: prefix}
}

func (g *DomainGroup) Name() string   { return g.name }
func (g *DomainGroup) Prefix() string { return g.prefix }

// Use adds middleware run before every route of the group
func (g *DomainGroup) Use(mw ...gin.HandlerFunc) *DomainGroup {
	g.middleware = append(g.middleware, mw...)
	return g
}

func (g *DomainGroup) GET(path string, h ...gin.HandlerFunc) *DomainGroup {
	return g.add(http.MethodGet, path, h)
}

func (g *DomainGroup) POST(path string, h ...gin.HandlerFunc) *DomainGroup {
	return g.add(http.MethodPost, path, h)
}

func (g *DomainGroup) PUT(path string, h ...gin.HandlerFunc) *DomainGroup {
	return g.add(http.MethodPut, path, h)
}

func (g *DomainGroup) DELETE(path string, h ...gin.HandlerFunc) *DomainGroup {
	return g.add(http.MethodDelete, path, h)
}

func (g *DomainGroup) add(method, path string, h []gin.HandlerFunc) *DomainGroup {
	g.routes = append(g.routes, groupRoute{Route: Route{Method: method, Path: path}, handlers: h})
	return g
}

func (g *DomainGroup) mount(parent *gin.RouterGroup) []Route {
	rg := parent.Group(g.prefix, g.middleware...)
	mounted := make([]Route, 0, len(g.routes))
	for _, r := range g.routes {
		rg.Handle(r.Method, r.Path, r.handlers...)
		mounted = append(mounted, Route{Method: r.Method, Path: rg.BasePath() + r.Path})
	}
	return mounted
}
