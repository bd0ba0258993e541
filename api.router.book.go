package main

import (
	"github.com/julienschmidt/httprouter"
)

// SetupBookRoutes injects the catalog and status api endpoints.
func (api *APIHandler) SetupBookRoutes(router *httprouter.Router, m *MiddlewareMap) *httprouter.Router {
	router.GET("/", m.public(api.Index))
	router.GET("/health", m.public(api.Health))
	router.GET("/metrics", m.public(api.Metrics))

	router.GET("/api/books", m.public(api.GetAllBooks))
	router.POST("/api/books", m.public(api.CreateBook))
	router.GET("/api/books/:id", m.public(api.GetOneBook))
	router.PUT("/api/books/:id", m.public(api.UpdateBook))
	router.DELETE("/api/books/:id", m.public(api.DeleteOneBook))
	router.POST("/api/books/:id/purchase", m.public(api.PurchaseBook))
	return router
}
