package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// DocsHandler serves the OpenAPI document and a small viewer page. The
// document is built by hand: the API surface is seven routes and callers
// (GPT-style agents in particular) only need an accurate machine-readable
// description of them.
type DocsHandler struct {
	baseURL string
}

// NewDocsHandler creates the documentation handler.
func NewDocsHandler(baseURL string) *DocsHandler {
	return &DocsHandler{baseURL: baseURL}
}

// RegisterRoutes registers the documentation routes.
func (h *DocsHandler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/openapi.json", h.OpenAPI)
	r.GET("/documentation", h.Documentation)
}

// Documentation serves a minimal Swagger UI page backed by /openapi.json.
func (h *DocsHandler) Documentation(c *gin.Context) {
	const page = `<!DOCTYPE html>
<html>
<head>
  <title>Fitbit Meal Bridge API</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    SwaggerUIBundle({url: "/openapi.json", dom_id: "#swagger-ui", docExpansion: "list"});
  </script>
</body>
</html>`
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(page))
}

// OpenAPI serves the OpenAPI 3 document for the bridge.
func (h *DocsHandler) OpenAPI(c *gin.Context) {
	apiKeySecurity := []gin.H{{"apiKey": []string{}}}

	errorResponse := func(description string) gin.H {
		return gin.H{
			"description": description,
			"content": gin.H{"application/json": gin.H{"schema": gin.H{
				"type": "object",
				"properties": gin.H{
					"error":   gin.H{"type": "string"},
					"message": gin.H{"type": "string"},
				},
			}}},
		}
	}

	foodBodyProperties := gin.H{
		"canonicalName": gin.H{"type": "string"},
		"displayName":   gin.H{"type": "string"},
		"defaultUnitId": gin.H{"type": "integer"},
		"defaultAmount": gin.H{"type": "number"},
		"calories":      gin.H{"type": "number"},
		"protein_g":     gin.H{"type": "number", "nullable": true},
		"carbs_g":       gin.H{"type": "number", "nullable": true},
		"fat_g":         gin.H{"type": "number", "nullable": true},
	}
	registerBodyProperties := gin.H{"fitbitFoodId": gin.H{"type": "integer"}}
	for k, v := range foodBodyProperties {
		registerBodyProperties[k] = v
	}

	foodResponseSchema := gin.H{
		"type": "object",
		"properties": gin.H{
			"canonicalName": gin.H{"type": "string"},
			"fitbitFoodId":  gin.H{"type": "integer"},
			"defaultUnitId": gin.H{"type": "integer"},
			"defaultAmount": gin.H{"type": "number"},
		},
	}

	overwriteParam := gin.H{
		"name":        "overwrite",
		"in":          "query",
		"required":    false,
		"schema":      gin.H{"type": "string", "enum": []string{"true", "false"}},
		"description": "Replace an existing registration for the same canonical name.",
	}

	doc := gin.H{
		"openapi": "3.0.3",
		"info": gin.H{
			"title":       "Fitbit Meal Bridge API",
			"description": "Registers foods and logs meals against a single Fitbit account.",
			"version":     "1.0.0",
		},
		"servers": []gin.H{{"url": h.baseURL}},
		"components": gin.H{
			"securitySchemes": gin.H{
				"apiKey": gin.H{"type": "apiKey", "name": "X-API-Key", "in": "header"},
			},
		},
		"paths": gin.H{
			"/health": gin.H{"get": gin.H{
				"summary": "Health check",
				"responses": gin.H{"200": gin.H{
					"description": "Service is up",
					"content": gin.H{"application/json": gin.H{"schema": gin.H{
						"type":       "object",
						"properties": gin.H{"status": gin.H{"type": "string"}},
					}}},
				}},
			}},
			"/auth/start": gin.H{"get": gin.H{
				"summary":   "Redirect to the Fitbit consent screen",
				"responses": gin.H{"302": gin.H{"description": "Redirect to Fitbit"}},
			}},
			"/auth/callback": gin.H{"get": gin.H{
				"summary": "Complete the authorization-code exchange",
				"parameters": []gin.H{{
					"name": "code", "in": "query", "required": true,
					"schema": gin.H{"type": "string"},
				}},
				"responses": gin.H{
					"200": gin.H{"description": "Tokens saved"},
					"400": errorResponse("Missing code parameter"),
					"500": errorResponse("Token exchange failed"),
				},
			}},
			"/foods": gin.H{
				"get": gin.H{
					"summary":  "List registered foods",
					"security": apiKeySecurity,
					"responses": gin.H{"200": gin.H{
						"description": "Registered foods",
						"content":     gin.H{"application/json": gin.H{"schema": gin.H{"type": "array", "items": gin.H{"type": "object"}}}},
					}},
				},
				"post": gin.H{
					"summary":    "Create a food upstream and register it",
					"security":   apiKeySecurity,
					"parameters": []gin.H{overwriteParam},
					"requestBody": gin.H{"required": true, "content": gin.H{"application/json": gin.H{"schema": gin.H{
						"type":       "object",
						"required":   []string{"canonicalName", "displayName", "defaultUnitId", "defaultAmount", "calories"},
						"properties": foodBodyProperties,
					}}}},
					"responses": gin.H{
						"200": gin.H{"description": "Food registered", "content": gin.H{"application/json": gin.H{"schema": foodResponseSchema}}},
						"400": errorResponse("Validation failure"),
						"409": errorResponse("Canonical name already registered"),
						"502": errorResponse("Upstream rejection"),
					},
				},
			},
			"/foods/register": gin.H{"post": gin.H{
				"summary":    "Register a food with a known Fitbit food id",
				"security":   apiKeySecurity,
				"parameters": []gin.H{overwriteParam},
				"requestBody": gin.H{"required": true, "content": gin.H{"application/json": gin.H{"schema": gin.H{
					"type":       "object",
					"required":   []string{"canonicalName", "displayName", "fitbitFoodId", "defaultUnitId", "defaultAmount", "calories"},
					"properties": registerBodyProperties,
				}}}},
				"responses": gin.H{
					"200": gin.H{"description": "Food registered", "content": gin.H{"application/json": gin.H{"schema": foodResponseSchema}}},
					"400": errorResponse("Validation failure"),
					"409": errorResponse("Canonical name already registered"),
				},
			}},
			"/meals/log": gin.H{"post": gin.H{
				"summary":  "Log a meal",
				"security": apiKeySecurity,
				"parameters": []gin.H{{
					"name": "Idempotency-Key", "in": "header", "required": false,
					"schema":      gin.H{"type": "string"},
					"description": "Opaque client-chosen key making retries safe.",
				}},
				"requestBody": gin.H{"required": true, "content": gin.H{"application/json": gin.H{"schema": gin.H{
					"type":     "object",
					"required": []string{"date", "mealTypeId", "items"},
					"properties": gin.H{
						"date":       gin.H{"type": "string", "pattern": `^\d{4}-\d{2}-\d{2}$`},
						"mealTypeId": gin.H{"type": "integer"},
						"items": gin.H{
							"type":     "array",
							"minItems": 1,
							"items": gin.H{
								"type":     "object",
								"required": []string{"amount", "unitId"},
								"properties": gin.H{
									"canonicalName": gin.H{"type": "string"},
									"foodId":        gin.H{"type": "integer"},
									"amount":        gin.H{"type": "number"},
									"unitId":        gin.H{"type": "integer"},
									"note":          gin.H{"type": "string"},
								},
							},
						},
					},
				}}}},
				"responses": gin.H{
					"200": gin.H{
						"description": "Meal logged",
						"content": gin.H{"application/json": gin.H{"schema": gin.H{
							"type": "object",
							"properties": gin.H{
								"success": gin.H{"type": "boolean"},
								"logged":  gin.H{"type": "array", "items": gin.H{"type": "object"}},
							},
						}}},
					},
					"400": errorResponse("Validation failure or unresolved canonical names"),
					"409": errorResponse("Idempotency key conflict"),
					"502": errorResponse("Upstream rejection"),
				},
			}},
			"/units": gin.H{"get": gin.H{
				"summary":  "List Fitbit unit definitions",
				"security": apiKeySecurity,
				"responses": gin.H{
					"200": gin.H{"description": "Unit definitions", "content": gin.H{"application/json": gin.H{"schema": gin.H{"type": "array", "items": gin.H{"type": "object"}}}}},
					"502": errorResponse("Upstream rejection"),
				},
			}},
		},
	}

	c.JSON(http.StatusOK, doc)
}
