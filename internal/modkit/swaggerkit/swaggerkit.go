// Package swaggerkit serves the OpenAPI document and Swagger UI under /api/docs
package swaggerkit

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"insightboard/internal/core/version"
	phttp "insightboard/internal/platform/net/http"

	httpSwagger "github.com/swaggo/http-swagger"
	"github.com/swaggo/swag/v2"
)

// InstanceName is the swag registry key generated docs must use
const InstanceName = "api"

// skeleton is served until `swag init` output is linked in
const skeleton = `{"openapi":"3.0.3","info":{"title":"{{.Title}}","description":"{{.Description}}","version":"{{.Version}}"},"servers":[{"url":"{{.BasePath}}"}],"paths":{}}`

// Fallback is registered when no generated docs claimed InstanceName
var Fallback = &swag.Spec{
	Version:          version.Info().Version,
	BasePath:         "/api/v1",
	Title:            "Insightboard API",
	Description:      "Dashboard sessions, filters and derived views",
	InfoInstanceName: InstanceName,
	SwaggerTemplate:  skeleton,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

// Options controls Mount
type Options struct {
	Enabled bool
	// TitleSuffix is appended to info.title, handy to tell environments apart
	TitleSuffix string
	// Mutators run in order on every served document
	Mutators []func(map[string]any)
}

var registerOnce sync.Once

func ensureRegistered() {
	registerOnce.Do(func() {
		if _, err := swag.ReadDoc(InstanceName); err != nil {
			swag.Register(InstanceName, Fallback)
		}
	})
}

// Mount serves /api/docs when enabled
func Mount(r phttp.Router, o Options) {
	if !o.Enabled {
		return
	}
	ensureRegistered()
	r.Get("/api/docs", func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, "/api/docs/", http.StatusPermanentRedirect)
	})
	r.Get("/api/docs/doc.json", docJSON(o))
	r.Handle("/api/docs/*", httpSwagger.Handler(
		httpSwagger.InstanceName(InstanceName),
		httpSwagger.URL("/api/docs/doc.json"),
	))
}

func docJSON(o Options) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		raw, err := swag.ReadDoc(InstanceName)
		var doc map[string]any
		if err == nil {
			err = json.Unmarshal([]byte(raw), &doc)
		}
		if err != nil {
			http.Error(w, "openapi document unavailable", http.StatusInternalServerError)
			return
		}
		Normalize(doc, "/api/v1")
		if o.TitleSuffix != "" {
			if info, ok := doc["info"].(map[string]any); ok {
				if title, ok := info["title"].(string); ok {
					info["title"] = title + " " + o.TitleSuffix
				}
			}
		}
		for _, m := range o.Mutators {
			m(doc)
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		_ = json.NewEncoder(w).Encode(doc)
	}
}

// Normalize pins the document to OAS 3.0.3, which the bundled UI renders,
// sets a server url when none is declared and documents the error envelope on every operation
func Normalize(doc map[string]any, server string) {
	delete(doc, "swagger")
	if v, _ := doc["openapi"].(string); !strings.HasPrefix(v, "3.0") {
		doc["openapi"] = "3.0.3"
	}
	if _, ok := doc["servers"]; !ok {
		doc["servers"] = []any{map[string]any{"url": server}}
	}

	schemas := child(child(doc, "components"), "schemas")
	if _, ok := schemas["Envelope"]; !ok {
		schemas["Envelope"] = envelopeSchema
	}

	paths, _ := doc["paths"].(map[string]any)
	for _, p := range paths {
		ops, _ := p.(map[string]any)
		for _, op := range ops {
			o, ok := op.(map[string]any)
			if !ok {
				continue
			}
			responses := child(o, "responses")
			for code, desc := range defaultResponses {
				if _, ok := responses[code]; !ok {
					responses[code] = errorResponse(desc)
				}
			}
		}
	}
}

var defaultResponses = map[string]string{
	"400": "Bad Request",
	"500": "Internal Server Error",
}

var envelopeSchema = map[string]any{
	"type":        "object",
	"description": "Response envelope; error responses carry code and error",
	"properties": map[string]any{
		"status_code": map[string]any{"type": "integer", "format": "int32"},
		"status":      map[string]any{"type": "string"},
		"code":        map[string]any{"type": "integer", "format": "int32"},
		"error":       map[string]any{"type": "string"},
		"field":       map[string]any{"type": "string"},
		"request_id":  map[string]any{"type": "string"},
		"data":        map[string]any{},
		"page": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"total":     map[string]any{"type": "integer"},
				"page":      map[string]any{"type": "integer"},
				"page_size": map[string]any{"type": "integer"},
				"cursor":    map[string]any{"type": "string"},
			},
		},
	},
	"required": []any{"status_code", "status"},
}

func errorResponse(desc string) map[string]any {
	return map[string]any{
		"description": desc,
		"content": map[string]any{
			"application/json": map[string]any{
				"schema": map[string]any{"$ref": "#/components/schemas/Envelope"},
			},
		},
	}
}

// child returns m[key] as a map, creating it when missing
func child(m map[string]any, key string) map[string]any {
	c, ok := m[key].(map[string]any)
	if !ok {
		c = map[string]any{}
		m[key] = c
	}
	return c
}
