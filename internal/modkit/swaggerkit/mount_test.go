package swaggerkit

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	phttp "peacekeeper/internal/platform/net/http"
)

func TestDocIsValidJSON(t *testing.T) {
	var v struct {
		Swagger string         `json:"swagger"`
		Paths   map[string]any `json:"paths"`
	}
	if err := json.Unmarshal(Doc(), &v); err != nil {
		t.Fatalf("doc: %v", err)
	}
	for _, p := range []string{"/messages", "/channels/{channelID}/check", "/score", "/analyze"} {
		if _, ok := v.Paths[p]; !ok {
			t.Errorf("missing path %s", p)
		}
	}
}

func TestMount(t *testing.T) {
	r := phttp.AdaptChi(chi.NewRouter())
	Mount(r, true)

	rec := httptest.NewRecorder()
	r.Mux().ServeHTTP(rec, httptest.NewRequest("GET", DocPath, nil))
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") == "" {
		t.Fatalf("doc status=%d", rec.Code)
	}

	rec = httptest.NewRecorder()
	r.Mux().ServeHTTP(rec, httptest.NewRequest("GET", "/swagger", nil))
	if rec.Code != http.StatusPermanentRedirect {
		t.Fatalf("redirect status=%d", rec.Code)
	}
}

func TestMount_Disabled(t *testing.T) {
	r := phttp.AdaptChi(chi.NewRouter())
	Mount(r, false)

	rec := httptest.NewRecorder()
	r.Mux().ServeHTTP(rec, httptest.NewRequest("GET", DocPath, nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("want 404, got %d", rec.Code)
	}
}
