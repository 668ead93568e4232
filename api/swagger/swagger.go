package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Clinic Scheduling API",
        "description": "Scheduling coordination service for clinic operations",
        "version": "0.1.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Schedule", "description": "Day grid and block lifecycle"},
        {"name": "Interrupts", "description": "Borrow-a-slice workflow"},
        {"name": "Directory", "description": "Patients and clinicians"},
        {"name": "Pairing", "description": "Arm/couple handshake"},
        {"name": "Events", "description": "Live event stream"}
    ],
    "paths": {
        "/schedule": {
            "get": {
                "tags": ["Schedule"],
                "summary": "List blocks for a date",
                "parameters": [
                    {"name": "date", "in": "query", "type": "string", "description": "Date (YYYY-MM-DD), defaults to today"}
                ],
                "responses": {
                    "200": {"description": "Blocks", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Bad date", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedule/blocks": {
            "post": {
                "tags": ["Schedule"],
                "summary": "Propose a new block",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateBlockRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Conflict with full rejection details", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedule/blocks/{id}": {
            "patch": {
                "tags": ["Schedule"],
                "summary": "Move, resize, or restatus a block",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateBlockRequest"}}
                ],
                "responses": {
                    "200": {"description": "Updated", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Schedule"],
                "summary": "Cancel a block",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Canceled", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedule/export": {
            "get": {
                "tags": ["Schedule"],
                "summary": "Export a day's schedule as CSV or PDF",
                "parameters": [
                    {"name": "date", "in": "query", "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "File download"}
                }
            }
        },
        "/interrupts": {
            "get": {
                "tags": ["Interrupts"],
                "summary": "List interrupt requests",
                "parameters": [
                    {"name": "primaryId", "in": "query", "type": "string"},
                    {"name": "date", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string", "enum": ["pending", "applied", "denied"]}
                ],
                "responses": {
                    "200": {"description": "Requests", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Interrupts"],
                "summary": "Submit an interrupt request",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateInterruptRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/interrupts/{id}/approve": {
            "post": {
                "tags": ["Interrupts"],
                "summary": "Approve a request and split the covering block",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Applied", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "No covering block or not pending", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/interrupts/{id}/deny": {
            "post": {
                "tags": ["Interrupts"],
                "summary": "Deny a request",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Denied", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "Not pending", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/patients": {
            "get": {
                "tags": ["Directory"],
                "summary": "List patients",
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Patients", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/clinicians": {
            "get": {
                "tags": ["Directory"],
                "summary": "List clinicians with booked-hours usage",
                "parameters": [
                    {"name": "role", "in": "query", "type": "string"},
                    {"name": "dateFrom", "in": "query", "type": "string"},
                    {"name": "dateTo", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Clinicians", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/pairing/session": {
            "post": {
                "tags": ["Pairing"],
                "summary": "Open a pairing session",
                "responses": {
                    "201": {"description": "Session", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/pairing/{id}/state": {
            "get": {
                "tags": ["Pairing"],
                "summary": "Read a session's armed slot",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Session", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Unknown session", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/pairing/{id}/arm": {
            "post": {
                "tags": ["Pairing"],
                "summary": "Stage a provider on the session (last arm wins)",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ArmRequest"}}
                ],
                "responses": {
                    "200": {"description": "Armed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/pairing/{id}/couple": {
            "post": {
                "tags": ["Pairing"],
                "summary": "Couple the armed provider with a patient into a block",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CoupleRequest"}}
                ],
                "responses": {
                    "201": {"description": "Block created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Proposal rejected", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "Session not armed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/events": {
            "get": {
                "tags": ["Events"],
                "summary": "Subscribe to schedule, interrupt, and pairing events (SSE)",
                "produces": ["text/event-stream"],
                "responses": {
                    "200": {"description": "Event stream"}
                }
            }
        }
    },
    "definitions": {
        "CreateBlockRequest": {
            "type": "object",
            "required": ["date", "start", "end", "provider_role", "provider_id", "patient_id"],
            "properties": {
                "date": {"type": "string", "example": "2026-03-02"},
                "start": {"type": "string", "example": "09:00"},
                "end": {"type": "string", "example": "10:00"},
                "provider_role": {"type": "string", "example": "RBT"},
                "provider_id": {"type": "string"},
                "patient_id": {"type": "string"},
                "room_id": {"type": "string"},
                "status": {"type": "string"}
            }
        },
        "UpdateBlockRequest": {
            "type": "object",
            "properties": {
                "date": {"type": "string"},
                "start": {"type": "string"},
                "end": {"type": "string"},
                "provider_role": {"type": "string"},
                "provider_id": {"type": "string"},
                "patient_id": {"type": "string"},
                "room_id": {"type": "string"},
                "status": {"type": "string"}
            }
        },
        "CreateInterruptRequest": {
            "type": "object",
            "required": ["patient_id", "primary_provider_id", "requester_role", "requester_id", "date", "start", "duration_minutes"],
            "properties": {
                "patient_id": {"type": "string"},
                "primary_provider_id": {"type": "string"},
                "requester_role": {"type": "string", "example": "SLP"},
                "requester_id": {"type": "string"},
                "date": {"type": "string", "example": "2026-03-02"},
                "start": {"type": "string", "example": "10:00"},
                "duration_minutes": {"type": "integer", "example": 30}
            }
        },
        "ArmRequest": {
            "type": "object",
            "required": ["role", "provider_id"],
            "properties": {
                "role": {"type": "string"},
                "provider_id": {"type": "string"}
            }
        },
        "CoupleRequest": {
            "type": "object",
            "required": ["patient_id", "date", "start", "end"],
            "properties": {
                "patient_id": {"type": "string"},
                "date": {"type": "string"},
                "start": {"type": "string"},
                "end": {"type": "string"},
                "room_id": {"type": "string"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"},
                "details": {"type": "object"}
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
