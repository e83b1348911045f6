package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Study Plan API",
        "description": "Exams, study sessions and heuristic study plan suggestions",
        "version": "0.1.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [{"BearerAuth": []}],
    "tags": [
        {"name": "Exams", "description": "Deadlines study time is planned against"},
        {"name": "Sessions", "description": "Persisted study sessions"},
        {"name": "Preferences", "description": "Per-user planner settings"},
        {"name": "Plan", "description": "Suggestion preview, acceptance and export"}
    ],
    "paths": {
        "/exams": {
            "get": {
                "tags": ["Exams"],
                "summary": "List active exams",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Exams"],
                "summary": "Create exam",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateExamRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exams/{id}": {
            "get": {
                "tags": ["Exams"],
                "summary": "Get exam",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "patch": {
                "tags": ["Exams"],
                "summary": "Update exam",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "delete": {
                "tags": ["Exams"],
                "summary": "Delete exam and its study sessions",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/sessions": {
            "get": {
                "tags": ["Sessions"],
                "summary": "List study sessions",
                "parameters": [
                    {"name": "exam_id", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Sessions"],
                "summary": "Schedule a study session manually",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/sessions/{id}": {
            "patch": {
                "tags": ["Sessions"],
                "summary": "Record progress on a study session",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"type": "object"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "delete": {
                "tags": ["Sessions"],
                "summary": "Delete a study session",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"204": {"description": "Deleted"}}
            }
        },
        "/preferences": {
            "get": {
                "tags": ["Preferences"],
                "summary": "Get planner preferences",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "put": {
                "tags": ["Preferences"],
                "summary": "Replace planner preferences",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/PlannerPreferences"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "No session can be placed with these settings", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/plan/preview": {
            "post": {
                "tags": ["Plan"],
                "summary": "Suggest study sessions",
                "description": "Nothing is persisted until the returned proposal is accepted.",
                "parameters": [{"name": "payload", "in": "body", "required": false, "schema": {"$ref": "#/definitions/PlanPreviewRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Invalid planner configuration", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "429": {"description": "Rate limited", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/plan/accept": {
            "post": {
                "tags": ["Plan"],
                "summary": "Persist suggested sessions",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AcceptPlanRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Proposal expired", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Overlaps an existing session", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/plan/proposals/{id}": {
            "get": {
                "tags": ["Plan"],
                "summary": "Fetch a pending proposal",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/plan/proposals/{id}/export": {
            "get": {
                "tags": ["Plan"],
                "summary": "Download a proposal as CSV or PDF",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"], "default": "csv"}
                ],
                "responses": {"200": {"description": "File", "schema": {"type": "file"}}}
            }
        }
    },
    "definitions": {
        "CreateExamRequest": {
            "type": "object",
            "required": ["title", "subject", "due_date", "priority", "difficulty", "estimated_hours"],
            "properties": {
                "title": {"type": "string"},
                "subject": {"type": "string"},
                "description": {"type": "string"},
                "due_date": {"type": "string", "format": "date-time"},
                "priority": {"type": "integer", "minimum": 1, "maximum": 5},
                "difficulty": {"type": "integer", "minimum": 1, "maximum": 5},
                "estimated_hours": {"type": "number"},
                "google_calendar_id": {"type": "string"}
            }
        },
        "PreferredSlot": {
            "type": "object",
            "properties": {
                "startHour": {"type": "integer"},
                "endHour": {"type": "integer"},
                "days": {"type": "array", "items": {"type": "integer"}},
                "label": {"type": "string"}
            }
        },
        "PlannerPreferences": {
            "type": "object",
            "properties": {
                "preferred_slots": {"type": "array", "items": {"$ref": "#/definitions/PreferredSlot"}},
                "intervals": {"type": "array", "items": {"type": "integer"}},
                "session_duration_hours": {"type": "number"},
                "source": {"type": "string", "enum": ["stored", "default"]}
            }
        },
        "PlanPreviewRequest": {
            "type": "object",
            "properties": {
                "exam_ids": {"type": "array", "items": {"type": "string"}},
                "preferred_slots": {"type": "array", "items": {"$ref": "#/definitions/PreferredSlot"}},
                "intervals": {"type": "array", "items": {"type": "integer"}},
                "session_duration_hours": {"type": "number"},
                "max_sessions_per_deadline": {"type": "integer"},
                "timezone": {"type": "string"},
                "subject_overrides": {"type": "object"}
            }
        },
        "AcceptPlanRequest": {
            "type": "object",
            "required": ["proposal_id"],
            "properties": {
                "proposal_id": {"type": "string"},
                "session_ids": {"type": "array", "items": {"type": "string"}}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
