// Package docs is generated by swaggo/swag from the annotations in
// cmd/embedd and internal/httpapi. Regenerate with
// `swag init -g cmd/embedd/docs.go -o docs --parseInternal`.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "embedd maintainers"
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
        "/": {
            "get": {
                "produces": ["application/json"],
                "tags": ["meta"],
                "summary": "Service information",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.InfoResponse"}}
                }
            }
        },
        "/health": {
            "get": {
                "description": "Reports whether the model is resident. Never loads it and never delays its eviction.",
                "produces": ["application/json"],
                "tags": ["meta"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.HealthResponse"}}
                }
            }
        },
        "/status": {
            "get": {
                "produces": ["application/json"],
                "tags": ["meta"],
                "summary": "Model lifecycle status",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.StatusResponse"}}
                }
            }
        },
        "/embed": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Prefixes each text with its task type, encodes in batches, applies layer normalization, truncates to the requested dimensionality and optionally L2-normalizes.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["embeddings"],
                "summary": "Embed texts",
                "parameters": [
                    {
                        "description": "Texts and options",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/types.EmbeddingRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.EmbeddingResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "415": {"description": "Unsupported Media Type", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/v1/embeddings": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Accepts the OpenAI embeddings request shape. The task type comes from the X-Task-Type header (default search_document); vectors are always L2-normalized.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["embeddings"],
                "summary": "OpenAI-compatible embeddings",
                "parameters": [
                    {
                        "type": "string",
                        "description": "search_document, search_query, clustering or classification",
                        "name": "X-Task-Type",
                        "in": "header"
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/admin/unload": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Releases the resident model; the next embedding request reloads it.",
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Unload the model now",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.UnloadResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "types.EmbeddingRequest": {
            "type": "object",
            "properties": {
                "texts": {"type": "array", "items": {"type": "string"}, "example": ["The cat sat on the mat.", "Dogs are loyal companions."]},
                "task_type": {"type": "string", "enum": ["search_document", "search_query", "clustering", "classification"], "example": "search_query"},
                "dimensionality": {"type": "integer", "enum": [64, 128, 256, 512, 768], "example": 256},
                "normalize": {"type": "boolean", "example": true},
                "batch_size": {"type": "integer", "example": 16}
            }
        },
        "types.EmbeddingResponse": {
            "type": "object",
            "properties": {
                "embeddings": {"type": "array", "items": {"type": "array", "items": {"type": "number"}}},
                "model": {"type": "string", "example": "nomic-ai/nomic-embed-text-v1.5"},
                "task_type": {"type": "string", "example": "search_query"},
                "dimensionality": {"type": "integer", "example": 256},
                "num_texts": {"type": "integer", "example": 2}
            }
        },
        "types.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string", "example": "invalid JSON body"},
                "code": {"type": "integer", "example": 400}
            }
        },
        "types.HealthResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "example": "healthy"},
                "model_loaded": {"type": "boolean", "example": true},
                "device": {"type": "string", "example": "cpu"},
                "max_batch_size": {"type": "integer", "example": 100}
            }
        },
        "types.InfoResponse": {
            "type": "object",
            "properties": {
                "name": {"type": "string", "example": "embedd"},
                "version": {"type": "string", "example": "1.0.0"},
                "model": {"type": "string", "example": "nomic-ai/nomic-embed-text-v1.5"},
                "device": {"type": "string", "example": "cpu"},
                "backend": {"type": "string", "example": "onnx"},
                "max_batch_size": {"type": "integer", "example": 100},
                "default_batch_size": {"type": "integer", "example": 32},
                "authentication": {"type": "string", "example": "required"},
                "auto_unload_timeout_seconds": {"type": "string", "example": "3600"},
                "task_types": {"type": "array", "items": {"type": "string"}},
                "dimensions": {"type": "array", "items": {"type": "integer"}}
            }
        },
        "types.StatusResponse": {
            "type": "object",
            "properties": {
                "state": {"type": "string", "example": "ready"},
                "model_loaded": {"type": "boolean", "example": true},
                "instance_id": {"type": "string", "example": "3f1c2a0e-8d1b-4c6e-9d43-6b1f0d2b7a55"},
                "last_error": {"type": "string"},
                "loaded_at_unix": {"type": "integer", "example": 1700000000},
                "last_used_unix": {"type": "integer", "example": 1700000100},
                "idle_seconds": {"type": "integer", "example": 42},
                "unload_in_seconds": {"type": "integer", "example": 3558},
                "idle_timeout_seconds": {"type": "integer", "example": 3600},
                "check_interval_seconds": {"type": "integer", "example": 60},
                "loads_total": {"type": "integer", "example": 3},
                "load_failures_total": {"type": "integer", "example": 0},
                "evictions_total": {"type": "integer", "example": 2},
                "uptime_seconds": {"type": "integer", "example": 3600},
                "server_time_unix": {"type": "integer", "example": 1700000000}
            }
        },
        "types.UnloadResponse": {
            "type": "object",
            "properties": {
                "unloaded": {"type": "boolean", "example": true}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "embedd API",
	Description:      "HTTP API that turns texts into nomic-embed-text-v1.5 embeddings with an idle-evicted in-memory model.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
