package main

import (
	"net/http"

	_ "github.com/jeamon/bookstore-api/docs"
	"github.com/julienschmidt/httprouter"
	httpswagger "github.com/swaggo/http-swagger/v2"
)

// MiddlewareMap contains middlwares chain to
// use for public-facing and ops requests.
type MiddlewareMap struct {
	public MiddlewareFunc
	ops    MiddlewareFunc
}

// SetupRoutes injects book and ops related endpoints if required. Unknown
// routes and wrong methods on known routes go through the public chain
// to the RouteNotFound handler.
func (api *APIHandler) SetupRoutes(router *httprouter.Router, m *MiddlewareMap) *httprouter.Router {
	router.RedirectTrailingSlash = true
	router.HandleMethodNotAllowed = false
	router.HandleOPTIONS = true
	router.NotFound = api.wrapHandle(m.public(api.RouteNotFound))
	router.GlobalOPTIONS = api.wrapHandle(m.public(api.Preflight))
	api.SetupBookRoutes(router, m)
	if api.config.OpsEndpointsEnable {
		api.SetupOpsRoutes(router, m)
	}
	router.GET("/swagger/*any", m.ops(api.OpsHandlerWrapper(httpswagger.WrapHandler)))
	return router
}

// wrapHandle converts a httprouter.Handle into a http.Handler.
func (api *APIHandler) wrapHandle(h httprouter.Handle) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h(w, r, nil)
	})
}
