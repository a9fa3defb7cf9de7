// Package docs holds the Swagger document served at /swagger/.
// Regenerate with: swag init -g cmd/api/main.go
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "API Support",
            "email": "support@example.com"
        },
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/places": {
            "get": {
                "produces": ["application/json"],
                "tags": ["places"],
                "summary": "List places",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/place.PlacesResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/httputil.ErrorResponse"}}
                }
            },
            "post": {
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["places"],
                "summary": "Create a place",
                "parameters": [
                    {"type": "string", "description": "Title", "name": "title", "in": "formData", "required": true},
                    {"type": "string", "description": "Description (min 5 characters)", "name": "description", "in": "formData", "required": true},
                    {"type": "string", "description": "Address", "name": "address", "in": "formData", "required": true},
                    {"type": "string", "description": "Creator user ID", "name": "creator", "in": "formData", "required": true},
                    {"type": "number", "description": "Latitude", "name": "lat", "in": "formData"},
                    {"type": "number", "description": "Longitude", "name": "lng", "in": "formData"},
                    {"type": "file", "description": "PNG or JPEG image", "name": "image", "in": "formData", "required": true}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/place.PlaceResponse"}},
                    "404": {"description": "Creator not found", "schema": {"$ref": "#/definitions/httputil.ErrorResponse"}},
                    "422": {"description": "Invalid inputs", "schema": {"$ref": "#/definitions/httputil.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/httputil.ErrorResponse"}}
                }
            }
        },
        "/places/user/{uid}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["places"],
                "summary": "List the places of a user",
                "parameters": [
                    {"type": "string", "description": "User ID", "name": "uid", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/place.PlacesResponse"}},
                    "404": {"description": "User has no places", "schema": {"$ref": "#/definitions/httputil.ErrorResponse"}}
                }
            }
        },
        "/places/{pid}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["places"],
                "summary": "Get a place",
                "parameters": [
                    {"type": "string", "description": "Place ID", "name": "pid", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/place.PlaceResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httputil.ErrorResponse"}}
                }
            },
            "patch": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["places"],
                "summary": "Update a place",
                "parameters": [
                    {"type": "string", "description": "Place ID", "name": "pid", "in": "path", "required": true},
                    {
                        "description": "New title and description",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "type": "object",
                            "properties": {
                                "title": {"type": "string"},
                                "description": {"type": "string"}
                            }
                        }
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/place.PlaceResponse"}},
                    "401": {"description": "Not the creator", "schema": {"$ref": "#/definitions/httputil.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httputil.ErrorResponse"}},
                    "422": {"description": "Invalid inputs", "schema": {"$ref": "#/definitions/httputil.ErrorResponse"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["places"],
                "summary": "Delete a place",
                "parameters": [
                    {"type": "string", "description": "Place ID", "name": "pid", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/httputil.MessageResponse"}},
                    "401": {"description": "Not the creator", "schema": {"$ref": "#/definitions/httputil.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httputil.ErrorResponse"}}
                }
            }
        },
        "/users": {
            "get": {
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "List users",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/user.UsersResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/httputil.ErrorResponse"}}
                }
            }
        },
        "/users/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Log in",
                "parameters": [
                    {
                        "description": "Credentials",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "type": "object",
                            "properties": {
                                "email": {"type": "string"},
                                "password": {"type": "string"}
                            }
                        }
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/user.AuthResult"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/httputil.ErrorResponse"}}
                }
            }
        },
        "/users/signup": {
            "post": {
                "description": "Create an account and receive a session token.",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Sign up",
                "parameters": [
                    {"type": "string", "description": "Name", "name": "name", "in": "formData", "required": true},
                    {"type": "string", "description": "Email", "name": "email", "in": "formData", "required": true},
                    {"type": "string", "description": "Password (min 6 characters)", "name": "password", "in": "formData", "required": true},
                    {"type": "file", "description": "PNG or JPEG avatar", "name": "image", "in": "formData"}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/user.AuthResult"}},
                    "422": {"description": "Invalid inputs or email taken", "schema": {"$ref": "#/definitions/httputil.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/httputil.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "httputil.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "fields": {"type": "object", "additionalProperties": {"type": "array", "items": {"type": "string"}}},
                "message": {"type": "string"}
            }
        },
        "httputil.MessageResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"}
            }
        },
        "store.Location": {
            "type": "object",
            "properties": {
                "lat": {"type": "number"},
                "lng": {"type": "number"}
            }
        },
        "store.Place": {
            "type": "object",
            "properties": {
                "address": {"type": "string"},
                "created_at": {"type": "string"},
                "creator": {"type": "string"},
                "description": {"type": "string"},
                "id": {"type": "string"},
                "image": {"type": "string"},
                "location": {"$ref": "#/definitions/store.Location"},
                "title": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "store.User": {
            "type": "object",
            "properties": {
                "created_at": {"type": "string"},
                "email": {"type": "string"},
                "id": {"type": "string"},
                "image": {"type": "string"},
                "name": {"type": "string"},
                "places": {"type": "array", "items": {"type": "string"}},
                "updated_at": {"type": "string"}
            }
        },
        "place.PlaceResponse": {
            "type": "object",
            "properties": {
                "place": {"$ref": "#/definitions/store.Place"}
            }
        },
        "place.PlacesResponse": {
            "type": "object",
            "properties": {
                "places": {"type": "array", "items": {"$ref": "#/definitions/store.Place"}}
            }
        },
        "user.AuthResult": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "token": {"type": "string"},
                "userId": {"type": "string"}
            }
        },
        "user.UsersResponse": {
            "type": "object",
            "properties": {
                "users": {"type": "array", "items": {"$ref": "#/definitions/store.User"}}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and the session token.",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:5000",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "Places API",
	Description:      "Share places with other users: accounts, session tokens and user-owned places with images.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
