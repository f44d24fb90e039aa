package ginsrv

import "github.com/gin-gonic/gin"

type Route struct {
	Method  string
	Path    string
	Handler gin.HandlerFunc
}

// SetupRouter builds an engine serving routes. The first middleware is the
// outermost one.
func SetupRouter(routes []Route, middlewares ...gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(middlewares...)

	for _, route := range routes {
		router.Handle(route.Method, route.Path, route.Handler)
	}

	return router
}
