package controller

import (
	_ "embed"
	"encoding/json"
	"net/http"

	"github.com/microcosm-cc/gamecatalog/models"
)

// OpenAPIPath serves the API reference
const OpenAPIPath = "/api/openapi.json"

//go:embed openapi.json
var openAPIDocument []byte

// OpenAPIHandler is a web handler that returns the OpenAPI 3 document
// describing every route
func OpenAPIHandler(w http.ResponseWriter, r *http.Request) {
	c := models.MakeContext(r, w)

	switch c.GetHTTPMethod() {
	case http.MethodOptions:
		c.RespondWithOptions([]string{"OPTIONS", "GET", "HEAD"})
		return
	case http.MethodGet, http.MethodHead:
		c.RespondWithData(json.RawMessage(openAPIDocument))
		return
	default:
		c.RespondWithMethodNotAllowed([]string{"OPTIONS", "GET", "HEAD"})
		return
	}
}
