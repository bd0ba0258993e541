// Package docs holds the swagger description of the Bookstore API.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Bookstore API",
        "description": "In-memory bookstore catalog with search, stock and purchase operations.",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": ["http"],
    "paths": {
        "/api/books": {
            "get": {
                "tags": ["books"],
                "summary": "List books",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "genre", "in": "query"},
                    {"type": "string", "name": "author", "in": "query"},
                    {"type": "string", "name": "search", "in": "query"},
                    {"type": "integer", "default": 10, "name": "limit", "in": "query"},
                    {"type": "integer", "default": 0, "name": "offset", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/BookListResponse"}},
                    "400": {"description": "Bad Request"}
                }
            },
            "post": {
                "tags": ["books"],
                "summary": "Create a book",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"name": "book", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateBookRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/Book"}},
                    "400": {"description": "Bad Request"},
                    "409": {"description": "Conflict"}
                }
            }
        },
        "/api/books/{id}": {
            "get": {
                "tags": ["books"],
                "summary": "Get a book",
                "produces": ["application/json"],
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Book"}},
                    "404": {"description": "Not Found"}
                }
            },
            "put": {
                "tags": ["books"],
                "summary": "Update a book",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"name": "book", "in": "body", "required": false, "schema": {"$ref": "#/definitions/CreateBookRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Book"}},
                    "400": {"description": "Bad Request"},
                    "404": {"description": "Not Found"}
                }
            },
            "delete": {
                "tags": ["books"],
                "summary": "Delete a book",
                "produces": ["application/json"],
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/api/books/{id}/purchase": {
            "post": {
                "tags": ["books"],
                "summary": "Purchase copies of a book",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"name": "purchase", "in": "body", "schema": {"$ref": "#/definitions/PurchaseRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Bad Request"},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/health": {
            "get": {"tags": ["status"], "summary": "Service health", "responses": {"200": {"description": "OK"}}}
        },
        "/metrics": {
            "get": {"tags": ["status"], "summary": "Catalog metrics", "responses": {"200": {"description": "OK"}}}
        }
    },
    "definitions": {
        "Book": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "title": {"type": "string"},
                "author": {"type": "string"},
                "isbn": {"type": "string"},
                "publishedYear": {"type": "integer"},
                "genre": {"type": "string"},
                "description": {"type": "string"},
                "price": {"type": "number"},
                "stock": {"type": "integer"},
                "createdAt": {"type": "string"},
                "updatedAt": {"type": "string"}
            }
        },
        "BookListResponse": {
            "type": "object",
            "properties": {
                "books": {"type": "array", "items": {"$ref": "#/definitions/Book"}},
                "pagination": {
                    "type": "object",
                    "properties": {
                        "total": {"type": "integer"},
                        "limit": {"type": "integer"},
                        "offset": {"type": "integer"},
                        "hasMore": {"type": "boolean"}
                    }
                }
            }
        },
        "CreateBookRequest": {
            "type": "object",
            "required": ["title", "author", "isbn", "price"],
            "properties": {
                "title": {"type": "string"},
                "author": {"type": "string"},
                "isbn": {"type": "string"},
                "publishedYear": {"type": "integer"},
                "genre": {"type": "string"},
                "description": {"type": "string"},
                "price": {"type": "number"},
                "stock": {"type": "integer"}
            }
        },
        "PurchaseRequest": {
            "type": "object",
            "properties": {
                "quantity": {"type": "integer", "default": 1}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "Bookstore API",
	Description:      "In-memory bookstore catalog with search, stock and purchase operations.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
