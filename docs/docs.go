// Package docs registers the OpenAPI document served under /swagger.
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
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Liveness probe",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/api/auth/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Exchange organizer credentials for a bearer token",
                "parameters": [
                    {"description": "Credentials", "name": "input", "in": "body", "required": true, "schema": {"$ref": "#/definitions/services.LoginInput"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/services.LoginResult"}},
                    "400": {"description": "Bad Request"},
                    "401": {"description": "Unauthorized"}
                }
            }
        },
        "/api/tournaments": {
            "get": {
                "produces": ["application/json"],
                "tags": ["tournaments"],
                "summary": "List tournaments, newest first",
                "parameters": [
                    {"enum": ["draft", "open", "locked", "in_progress", "completed"], "type": "string", "description": "Filter by status", "name": "status", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["tournaments"],
                "summary": "Create a tournament",
                "parameters": [
                    {"description": "Tournament", "name": "input", "in": "body", "required": true, "schema": {"$ref": "#/definitions/services.CreateTournamentInput"}}
                ],
                "responses": {
                    "201": {"description": "Created"},
                    "400": {"description": "Bad Request"},
                    "401": {"description": "Unauthorized"},
                    "422": {"description": "Unprocessable Entity"}
                }
            }
        },
        "/api/tournaments/{tournamentID}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["tournaments"],
                "summary": "Get a tournament with its members and matches",
                "parameters": [{"type": "string", "description": "Tournament ID", "name": "tournamentID", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/api/tournaments/{tournamentID}/open": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["tournaments"],
                "summary": "Open registration (draft to open)",
                "parameters": [{"type": "string", "description": "Tournament ID", "name": "tournamentID", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "404": {"description": "Not Found"}, "409": {"description": "Conflict"}}
            }
        },
        "/api/tournaments/{tournamentID}/extend": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "tags": ["tournaments"],
                "summary": "Move the join deadline later",
                "parameters": [
                    {"type": "string", "description": "Tournament ID", "name": "tournamentID", "in": "path", "required": true},
                    {"description": "New deadline", "name": "input", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.extendDeadlineInput"}}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "404": {"description": "Not Found"}}
            }
        },
        "/api/tournaments/{tournamentID}/lock": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["tournaments"],
                "summary": "Close registration (open to locked)",
                "parameters": [{"type": "string", "description": "Tournament ID", "name": "tournamentID", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "404": {"description": "Not Found"}}
            }
        },
        "/api/tournaments/{tournamentID}/draw": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["tournaments"],
                "summary": "Draw the bracket",
                "description": "Generates every match and starts the tournament. Allowed from locked, or from open when full.",
                "parameters": [{"type": "string", "description": "Tournament ID", "name": "tournamentID", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "404": {"description": "Not Found"}, "409": {"description": "Conflict"}}
            }
        },
        "/api/tournaments/{tournamentID}/join": {
            "post": {
                "consumes": ["application/json"],
                "tags": ["members"],
                "summary": "Register a walker",
                "parameters": [
                    {"type": "string", "description": "Tournament ID", "name": "tournamentID", "in": "path", "required": true},
                    {"description": "Walker", "name": "input", "in": "body", "required": true, "schema": {"$ref": "#/definitions/services.JoinTournamentInput"}}
                ],
                "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}, "404": {"description": "Not Found"}, "409": {"description": "Conflict"}, "422": {"description": "Unprocessable Entity"}}
            }
        },
        "/api/tournaments/{tournamentID}/members/{walkerID}": {
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["members"],
                "summary": "Remove a registered walker before the draw",
                "parameters": [
                    {"type": "string", "description": "Tournament ID", "name": "tournamentID", "in": "path", "required": true},
                    {"type": "integer", "description": "Walker ID", "name": "walkerID", "in": "path", "required": true}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "404": {"description": "Not Found"}}
            }
        },
        "/api/tournaments/{tournamentID}/image": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["multipart/form-data"],
                "tags": ["tournaments"],
                "summary": "Upload the tournament image",
                "parameters": [
                    {"type": "string", "description": "Tournament ID", "name": "tournamentID", "in": "path", "required": true},
                    {"type": "file", "description": "Image file", "name": "image", "in": "formData", "required": true}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "404": {"description": "Not Found"}, "503": {"description": "Service Unavailable"}}
            }
        },
        "/api/matches/{matchID}/winner": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "tags": ["matches"],
                "summary": "Record a match winner",
                "parameters": [
                    {"type": "string", "description": "Match ID", "name": "matchID", "in": "path", "required": true},
                    {"description": "Winner member ID", "name": "input", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.setWinnerInput"}}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "404": {"description": "Not Found"}, "409": {"description": "Conflict"}}
            }
        }
    },
    "definitions": {
        "handlers.extendDeadlineInput": {
            "type": "object",
            "properties": {"join_deadline": {"type": "string", "format": "date-time"}}
        },
        "handlers.setWinnerInput": {
            "type": "object",
            "properties": {"winner_id": {"type": "string", "format": "uuid"}}
        },
        "services.LoginInput": {
            "type": "object",
            "properties": {"email": {"type": "string"}, "password": {"type": "string"}}
        },
        "services.LoginResult": {
            "type": "object",
            "properties": {"token": {"type": "string"}, "expires_at": {"type": "string", "format": "date-time"}}
        },
        "services.CreateTournamentInput": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "description": {"type": "string"},
                "join_deadline": {"type": "string", "format": "date-time"},
                "xp_per_win": {"type": "integer"},
                "max_participants": {"type": "integer"},
                "image_url": {"type": "string"}
            }
        },
        "services.JoinTournamentInput": {
            "type": "object",
            "properties": {
                "walker_id": {"type": "integer"},
                "walker_name": {"type": "string"},
                "email": {"type": "string"}
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
	Title:            "Walker Tournament API",
	Description:      "Single-elimination walker tournaments: registration, bracket draw and match advancement.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
