package http

import (
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"peacekeeper/internal/core/conflict"
	phttp "peacekeeper/internal/platform/net/http"
)

func post(t *testing.T, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	r := phttp.AdaptChi(chi.NewRouter())
	Register(r, conflict.Ultra)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.Mux().ServeHTTP(rec, req)

	var env phttp.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	data, _ := env.Data.(map[string]any)
	return rec, data
}

func TestScore(t *testing.T) {
	rec, data := post(t, "/score", `{"text":"What are you talking about???!!!"}`)
	require.Equal(t, stdhttp.StatusOK, rec.Code)
	assert.InDelta(t, 0.2, data["punctuation"], 1e-9)
	assert.GreaterOrEqual(t, data["total"], 0.2)

	rec, data = post(t, "/score", `{"text":""}`)
	require.Equal(t, stdhttp.StatusOK, rec.Code)
	assert.InDelta(t, 0.0, data["total"], 1e-9)
}

func TestAnalyze_SortsAndFlags(t *testing.T) {
	body := `{
		"messages": [
			{"author_id":"bob","content":"you're an asshole","timestamp":106},
			{"author_id":"alice","content":"fuck you","timestamp":100},
			{"author_id":"bob","content":"this is fucking stupid","timestamp":102},
			{"author_id":"alice","content":"you're full of shit","timestamp":104}
		],
		"pair": ["alice","bob"]
	}`
	rec, data := post(t, "/analyze", body)
	require.Equal(t, stdhttp.StatusOK, rec.Code)

	assert.Equal(t, true, data["is_conflict"])
	assert.Contains(t, data["reasons"], string(conflict.HostileLanguage))
	assert.Equal(t, []any{"alice", "bob"}, data["participants"], "window is sorted oldest first")
	assert.InDelta(t, 0.3, data["threshold"], 1e-9)
	assert.Len(t, data["scores"], 4)
	assert.Contains(t, data, "pair_in_conflict")
}

func TestAnalyze_EmptyWindow(t *testing.T) {
	rec, data := post(t, "/analyze", `{"messages":[],"sensitivity":"low"}`)
	require.Equal(t, stdhttp.StatusOK, rec.Code)
	assert.Equal(t, false, data["is_conflict"])
	assert.InDelta(t, 0.0, data["confidence"], 1e-9)
	assert.InDelta(t, 0.7, data["threshold"], 1e-9)
	assert.NotContains(t, data, "pair_in_conflict")
}

func TestAnalyze_Validation(t *testing.T) {
	cases := map[string]string{
		"unknown tier":   `{"messages":[],"sensitivity":"extreme"}`,
		"missing author": `{"messages":[{"content":"hi","timestamp":1}]}`,
		"short pair":     `{"messages":[],"pair":["alice"]}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec, _ := post(t, "/analyze", body)
			assert.Equal(t, stdhttp.StatusBadRequest, rec.Code)
		})
	}
}
