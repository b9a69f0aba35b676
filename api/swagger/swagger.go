package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Doctorate Administration API",
        "description": "Enrollment campaigns, enrollment requests and thesis-defense workflows",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Campaigns", "description": "Enrollment submission windows"},
        {"name": "Enrollments", "description": "Doctoral enrollment requests"},
        {"name": "Defenses", "description": "Thesis defense requests"},
        {"name": "Documents", "description": "Uploaded supporting files"}
    ],
    "paths": {
        "/campaigns": {
            "get": {
                "tags": ["Campaigns"],
                "summary": "List campaigns",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Campaigns"],
                "summary": "Create campaign",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateCampaignRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/campaigns/{id}/open": {
            "put": {
                "tags": ["Campaigns"],
                "summary": "Open campaign for submissions",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Campaign window already closed"}
                }
            }
        },
        "/campaigns/{id}/close": {
            "put": {
                "tags": ["Campaigns"],
                "summary": "Close campaign",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/enrollments": {
            "get": {
                "tags": ["Enrollments"],
                "summary": "List enrollment requests",
                "parameters": [
                    {"name": "candidateId", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "type", "in": "query", "type": "string"},
                    {"name": "academicYear", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Enrollments"],
                "summary": "Submit first enrollment",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateEnrollmentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "No open campaign"}
                }
            }
        },
        "/enrollments/renewals": {
            "post": {
                "tags": ["Enrollments"],
                "summary": "Submit renewal",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RenewalRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "No open campaign"}
                }
            }
        },
        "/enrollments/{id}": {
            "get": {
                "tags": ["Enrollments"],
                "summary": "Get enrollment with documents",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "patch": {
                "tags": ["Enrollments"],
                "summary": "Update enrollment",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateEnrollmentRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Enrollments"],
                "summary": "Delete enrollment and documents",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/enrollments/{id}/status": {
            "get": {
                "tags": ["Enrollments"],
                "summary": "Candidate-facing status projection",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/enrollments/{id}/supervisor-decision": {
            "put": {
                "tags": ["Enrollments"],
                "summary": "Record supervisor decision",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/DecisionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Not awaiting supervisor decision"}
                }
            }
        },
        "/enrollments/{id}/admin-decision": {
            "put": {
                "tags": ["Enrollments"],
                "summary": "Record administrative decision",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/DecisionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Not awaiting administrative decision"}
                }
            }
        },
        "/enrollments/{id}/documents": {
            "get": {
                "tags": ["Documents"],
                "summary": "List enrollment documents",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Documents"],
                "summary": "Upload enrollment document",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "kind", "in": "formData", "required": true, "type": "string"},
                    {"name": "file", "in": "formData", "required": true, "type": "file"}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/documents/{id}": {
            "get": {
                "tags": ["Documents"],
                "summary": "Download document payload",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            },
            "delete": {
                "tags": ["Documents"],
                "summary": "Delete document",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/defenses": {
            "get": {
                "tags": ["Defenses"],
                "summary": "List defense requests",
                "parameters": [
                    {"name": "candidateId", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Defenses"],
                "summary": "Initiate defense request",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/InitiateDefenseRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Prerequisites not met"}
                }
            }
        },
        "/defenses/{id}": {
            "get": {
                "tags": ["Defenses"],
                "summary": "Get defense with jury and documents",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/defenses/{id}/documents": {
            "post": {
                "tags": ["Defenses"],
                "summary": "Attach supporting document",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "kind", "in": "formData", "required": true, "type": "string"},
                    {"name": "file", "in": "formData", "required": true, "type": "file"}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/defenses/{id}/admin-decision": {
            "put": {
                "tags": ["Defenses"],
                "summary": "Record prerequisite decision",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/DecisionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/defenses/{id}/jury": {
            "put": {
                "tags": ["Defenses"],
                "summary": "Propose jury",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ProposeJuryRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Defense not validated by admin"}
                }
            }
        },
        "/defenses/{id}/schedule": {
            "put": {
                "tags": ["Defenses"],
                "summary": "Schedule defense",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ScheduleDefenseRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Jury not proposed yet"}
                }
            }
        },
        "/defenses/{id}/convocation": {
            "get": {
                "tags": ["Defenses"],
                "summary": "Download convocation PDF",
                "produces": ["application/pdf"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "409": {"description": "Defense not scheduled"}
                }
            }
        }
    },
    "definitions": {
        "CreateCampaignRequest": {
            "type": "object",
            "properties": {
                "academicYear": {"type": "string"},
                "type": {"type": "string", "enum": ["INITIAL", "RENEWAL"]},
                "startsAt": {"type": "string", "format": "date-time"},
                "endsAt": {"type": "string", "format": "date-time"}
            },
            "required": ["academicYear", "type", "startsAt", "endsAt"]
        },
        "CreateEnrollmentRequest": {
            "type": "object",
            "properties": {
                "candidateId": {"type": "string"},
                "supervisorId": {"type": "string"},
                "coSupervisorId": {"type": "string"},
                "thesisSubject": {"type": "string"},
                "lab": {"type": "string"},
                "specialty": {"type": "string"}
            },
            "required": ["candidateId", "supervisorId", "thesisSubject", "lab", "specialty"]
        },
        "UpdateEnrollmentRequest": {
            "type": "object",
            "properties": {
                "thesisSubject": {"type": "string"},
                "lab": {"type": "string"},
                "specialty": {"type": "string"},
                "coSupervisorId": {"type": "string"}
            }
        },
        "RenewalRequest": {
            "type": "object",
            "properties": {
                "previousId": {"type": "string"},
                "thesisSubject": {"type": "string"}
            },
            "required": ["previousId"]
        },
        "DecisionRequest": {
            "type": "object",
            "properties": {
                "approved": {"type": "boolean"},
                "comment": {"type": "string"}
            },
            "required": ["approved"]
        },
        "InitiateDefenseRequest": {
            "type": "object",
            "properties": {
                "candidateId": {"type": "string"},
                "enrollmentId": {"type": "string"},
                "articleCountQ1Q2": {"type": "integer"},
                "conferenceCount": {"type": "integer"},
                "trainingCreditHours": {"type": "integer"}
            },
            "required": ["candidateId", "enrollmentId"]
        },
        "ProposeJuryRequest": {
            "type": "object",
            "properties": {
                "members": {
                    "type": "array",
                    "items": {"$ref": "#/definitions/JuryMemberInput"}
                }
            },
            "required": ["members"]
        },
        "JuryMemberInput": {
            "type": "object",
            "properties": {
                "fullName": {"type": "string"},
                "email": {"type": "string"},
                "institution": {"type": "string"},
                "role": {"type": "string", "enum": ["PRESIDENT", "REVIEWER", "EXAMINER", "SUPERVISOR"]}
            },
            "required": ["fullName", "email", "institution", "role"]
        },
        "ScheduleDefenseRequest": {
            "type": "object",
            "properties": {
                "when": {"type": "string", "format": "date-time"},
                "venue": {"type": "string"}
            },
            "required": ["when", "venue"]
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "pageSize": {"type": "integer"},
                "totalCount": {"type": "integer"}
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
