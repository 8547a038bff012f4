// Package docs registers the Swagger document served under /swagger. Keep it in
// step with the swag annotations on the handlers.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "API index",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.IndexResponse"}}
                }
            }
        },
        "/auth/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Login with email and password",
                "parameters": [
                    {
                        "description": "Login credentials",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/handler.LoginRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.LoginResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/auth/me": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Get current user data",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.PublicUser"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/auth/verify": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Verify JWT token",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.VerifyResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.HealthResponse"}}
                }
            }
        },
        "/health/live": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Liveness check",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.HealthResponse"}}
                }
            }
        },
        "/health/ready": {
            "get": {
                "description": "Ready once the user store can be read. The cache is reported but never blocks readiness.",
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.HealthResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/handler.HealthResponse"}}
                }
            }
        },
        "/users": {
            "get": {
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Get all users",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/model.PublicUser"}}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Create a new user",
                "parameters": [
                    {
                        "description": "User payload",
                        "name": "user",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/handler.CreateUserRequest"}
                    }
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/model.PublicUser"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/users/validate/user": {
            "get": {
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Validate user from X-User-Id header",
                "parameters": [
                    {"type": "string", "description": "User ID", "name": "X-User-Id", "in": "header", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.ValidateUserResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/users/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Get user by ID",
                "parameters": [
                    {"type": "string", "description": "User ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/model.PublicUser"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "errors.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "error": {"type": "string"}
            }
        },
        "handler.CreateUserRequest": {
            "type": "object",
            "required": ["name"],
            "properties": {
                "email": {"type": "string"},
                "id": {"type": "string"},
                "name": {"type": "string"},
                "password": {"type": "string"},
                "role": {"type": "string"}
            }
        },
        "handler.Endpoint": {
            "type": "object",
            "properties": {
                "description": {"type": "string"},
                "method": {"type": "string"},
                "path": {"type": "string"}
            }
        },
        "handler.HealthResponse": {
            "type": "object",
            "properties": {
                "checks": {"type": "object", "additionalProperties": {"type": "string"}},
                "service": {"type": "string"},
                "status": {"type": "string"}
            }
        },
        "handler.IndexResponse": {
            "type": "object",
            "properties": {
                "endpoints": {"type": "array", "items": {"$ref": "#/definitions/handler.Endpoint"}},
                "service": {"type": "string"}
            }
        },
        "handler.LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "handler.LoginResponse": {
            "type": "object",
            "properties": {
                "token": {"type": "string"},
                "user": {"$ref": "#/definitions/model.PublicUser"}
            }
        },
        "handler.ValidateUserResponse": {
            "type": "object",
            "properties": {
                "user": {"$ref": "#/definitions/model.PublicUser"},
                "valid": {"type": "boolean"}
            }
        },
        "handler.VerifyResponse": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "name": {"type": "string"},
                "role": {"type": "string"},
                "userId": {"type": "string"}
            }
        },
        "model.PublicUser": {
            "type": "object",
            "properties": {
                "createdAt": {"type": "string"},
                "email": {"type": "string"},
                "id": {"type": "string"},
                "name": {"type": "string"},
                "role": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Type \"Bearer\" followed by a space and JWT token.",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:3003",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "User Service API",
	Description:      "User records, password login and JWT verification.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
