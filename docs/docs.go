// Package docs registers the OpenAPI document served at /swagger/*any.
// Regenerate with `swag init -g cmd/server/main.go` after changing handler
// annotations.
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
        "/api/me/access-status": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Access"],
                "summary": "Athlete access status",
                "operationId": "getAccessStatus",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.SuccessResponse"}},
                    "401": {"description": "Authentication required", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/api/me/membership-applications": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Membership"],
                "summary": "Apply for club membership",
                "operationId": "applyForMembership",
                "parameters": [
                    {"type": "string", "description": "UUID or 8-128 chars of [A-Za-z0-9_-]", "name": "Idempotency-Key", "in": "header"},
                    {"description": "Application", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.ApplyRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handlers.SuccessResponse"}},
                    "400": {"description": "Missing fields or invalid key", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "409": {"description": "Already pending/member, membership changed, or request in progress", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/api/athlete/check-in": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Athlete"],
                "summary": "Check in to a training session",
                "operationId": "checkIn",
                "parameters": [
                    {"type": "string", "description": "UUID or 8-128 chars of [A-Za-z0-9_-]", "name": "Idempotency-Key", "in": "header"},
                    {"description": "Session", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.CheckInRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handlers.SuccessResponse"}},
                    "403": {"description": "Membership required", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "409": {"description": "Already checked in, or request in progress", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/api/athlete/leave-request": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Athlete"],
                "summary": "Request leave from a training session",
                "operationId": "requestLeave",
                "parameters": [
                    {"type": "string", "description": "UUID or 8-128 chars of [A-Za-z0-9_-]", "name": "Idempotency-Key", "in": "header"},
                    {"description": "Leave request", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.LeaveRequestBody"}}
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {"$ref": "#/definitions/handlers.SuccessResponse"},
                        "headers": {
                            "X-Idempotency-Cached": {"type": "string", "description": "true on replay"},
                            "X-Original-Timestamp": {"type": "string", "description": "RFC 3339 time of the first request, on replay"}
                        }
                    },
                    "403": {"description": "Membership required", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "409": {"description": "Request in progress", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/api/coach/applications": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Membership"],
                "summary": "List membership applications (paginated)",
                "operationId": "listApplications",
                "parameters": [
                    {"type": "string", "default": "pending", "description": "pending | approved | rejected | all", "name": "status", "in": "query"},
                    {"minimum": 1, "type": "integer", "default": 1, "description": "Page number", "name": "page", "in": "query"},
                    {"maximum": 100, "minimum": 1, "type": "integer", "default": 20, "description": "Items per page", "name": "page_size", "in": "query"},
                    {"type": "string", "description": "Return 304 if ETag matches", "name": "If-None-Match", "in": "header"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.SuccessResponse"}, "headers": {"ETag": {"type": "string"}}},
                    "304": {"description": "Not Modified"}
                }
            }
        },
        "/api/coach/applications/{id}/approve": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Membership"],
                "summary": "Approve a pending application",
                "operationId": "approveApplication",
                "parameters": [
                    {"type": "string", "description": "Application ID", "name": "id", "in": "path", "required": true},
                    {"type": "string", "description": "UUID or 8-128 chars of [A-Za-z0-9_-]", "name": "Idempotency-Key", "in": "header"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.SuccessResponse"}},
                    "404": {"description": "Not found or already reviewed", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "409": {"description": "Athlete no longer pending, or request in progress", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/api/coach/applications/{id}/reject": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Membership"],
                "summary": "Reject a pending application",
                "operationId": "rejectApplication",
                "parameters": [
                    {"type": "string", "description": "Application ID", "name": "id", "in": "path", "required": true},
                    {"type": "string", "description": "UUID or 8-128 chars of [A-Za-z0-9_-]", "name": "Idempotency-Key", "in": "header"},
                    {"description": "Rejection reason", "name": "body", "in": "body", "schema": {"$ref": "#/definitions/handlers.RejectRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.SuccessResponse"}},
                    "404": {"description": "Not found or already reviewed", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "409": {"description": "Athlete no longer pending", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/api/coach/sessions": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Coach"],
                "summary": "Schedule a training session",
                "operationId": "createSession",
                "parameters": [
                    {"type": "string", "description": "UUID or 8-128 chars of [A-Za-z0-9_-]", "name": "Idempotency-Key", "in": "header"},
                    {"description": "Session", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.CreateSessionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handlers.SuccessResponse"}},
                    "404": {"description": "Club not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/api/admin/users/{id}/role": {
            "put": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Admin"],
                "summary": "Change a user's role",
                "operationId": "setUserRole",
                "parameters": [
                    {"type": "string", "description": "User ID", "name": "id", "in": "path", "required": true},
                    {"description": "Role", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.SetRoleRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.SuccessResponse"}},
                    "400": {"description": "Unknown role", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/api/admin/users/{id}/suspend": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Admin"],
                "summary": "Suspend an athlete's membership",
                "operationId": "suspendUser",
                "parameters": [
                    {"type": "string", "description": "User ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.SuccessResponse"}},
                    "404": {"description": "User not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "handlers.ApplyRequest": {
            "type": "object",
            "required": ["clubId"],
            "properties": {
                "clubId": {"type": "string", "example": "7c9e6679-7425-40de-944b-e07fc1f90ae7"},
                "message": {"type": "string", "maxLength": 4000, "example": "U14 goalkeeper, two seasons at Northside"}
            }
        },
        "handlers.CheckInRequest": {
            "type": "object",
            "required": ["sessionId"],
            "properties": {
                "sessionId": {"type": "string", "example": "3f0e2c1a-5d2b-4c7e-9a51-0f6c1d2b3a4e"}
            }
        },
        "handlers.CreateSessionRequest": {
            "type": "object",
            "required": ["clubId", "startsAt", "title"],
            "properties": {
                "clubId": {"type": "string"},
                "startsAt": {"type": "string", "example": "2026-05-04T18:00:00Z"},
                "title": {"type": "string", "maxLength": 255, "example": "U14 evening drills"}
            }
        },
        "handlers.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "string", "example": "NOT_FOUND"},
                "message": {"type": "string", "example": "resource not found"},
                "request_id": {"type": "string"},
                "success": {"type": "boolean", "example": false}
            }
        },
        "handlers.LeaveRequestBody": {
            "type": "object",
            "required": ["reason", "sessionId"],
            "properties": {
                "reason": {"type": "string", "example": "School exam"},
                "sessionId": {"type": "string"}
            }
        },
        "handlers.Metadata": {
            "type": "object",
            "properties": {
                "cached": {"type": "boolean", "example": false},
                "originalRequestId": {"type": "string"},
                "originalTimestamp": {"type": "string"},
                "requestId": {"type": "string"}
            }
        },
        "handlers.RejectRequest": {
            "type": "object",
            "properties": {
                "reason": {"type": "string", "maxLength": 4000, "example": "Squad is full for this season"}
            }
        },
        "handlers.SetRoleRequest": {
            "type": "object",
            "required": ["role"],
            "properties": {
                "role": {"type": "string", "example": "coach"}
            }
        },
        "handlers.SuccessResponse": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "metadata": {"$ref": "#/definitions/handlers.Metadata"},
                "success": {"type": "boolean", "example": true}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Club Portal API",
	Description:      "Membership, training and access endpoints of the sports club portal.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
