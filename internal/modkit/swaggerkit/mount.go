// Package swaggerkit serves the API document and the Swagger UI
package swaggerkit

import (
	_ "embed"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	phttp "peacekeeper/internal/platform/net/http"
)

//go:embed openapi.json
var doc []byte

// DocPath is where the raw document is served
const DocPath = "/swagger/doc.json"

// Doc returns the embedded API document
func Doc() []byte { return doc }

// Mount serves the UI under /swagger when enabled
func Mount(r phttp.Router, enabled bool) {
	if !enabled {
		return
	}
	r.Get("/swagger", func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, "/swagger/index.html", http.StatusPermanentRedirect)
	})
	r.Get(DocPath, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		_, _ = w.Write(doc)
	})
	r.Handle("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL(DocPath),
		httpSwagger.DocExpansion("list"),
	))
}
