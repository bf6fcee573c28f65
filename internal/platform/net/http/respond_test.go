package http_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	perr "peacekeeper/internal/platform/errors"
	pnet "peacekeeper/internal/platform/net"
	phttp "peacekeeper/internal/platform/net/http"
)

func reqWithReqID(method, path, rid string) *http.Request {
	req := httptest.NewRequest(method, path, nil)
	return req.WithContext(pnet.WithRequest(req.Context(), rid, ""))
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) phttp.Envelope {
	t.Helper()
	var env phttp.Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return env
}

func TestJSON_SetsStatusAndContentType(t *testing.T) {
	rec := httptest.NewRecorder()
	phttp.JSON(rec, http.StatusTeapot, map[string]any{"k": "v"})
	if rec.Code != http.StatusTeapot {
		t.Fatalf("expected 418, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct == "" {
		t.Fatal("expected content-type set")
	}
}

func TestHandle_SuccessStatuses(t *testing.T) {
	cases := []struct {
		name string
		resp phttp.Response
		want int
	}{
		{"ok", phttp.OK(map[string]int{"n": 1}), http.StatusOK},
		{"created", phttp.Created("x"), http.StatusCreated},
		{"accepted", phttp.Accepted("x"), http.StatusAccepted},
		{"zero status", phttp.Response{Body: "x"}, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			phttp.Handle(func(*http.Request) phttp.Response { return tc.resp })(rec, reqWithReqID("GET", "/", "rid-1"))
			if rec.Code != tc.want {
				t.Fatalf("expected %d got %d", tc.want, rec.Code)
			}
			env := decode(t, rec)
			if env.StatusCode != tc.want || env.RequestID != "rid-1" || env.Data == nil {
				t.Fatalf("bad envelope: %+v", env)
			}
		})
	}
}

func TestHandle_NoContentHasNoBody(t *testing.T) {
	rec := httptest.NewRecorder()
	phttp.Handle(func(*http.Request) phttp.Response { return phttp.NoContent() })(rec, reqWithReqID("DELETE", "/", "rid"))
	if rec.Code != http.StatusNoContent || rec.Body.Len() != 0 {
		t.Fatalf("expected empty 204, got %d %q", rec.Code, rec.Body.String())
	}
}

func TestHandle_ErrorMapsCode(t *testing.T) {
	rec := httptest.NewRecorder()
	h := phttp.Handle(func(*http.Request) phttp.Response {
		return phttp.Error(perr.NotFoundf("channel %s", "c1"))
	})
	h(rec, reqWithReqID("GET", "/", "rid-err"))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}
	env := decode(t, rec)
	if env.Code != perr.ErrorCodeNotFound || env.Error == "" || env.RequestID != "rid-err" {
		t.Fatalf("bad error envelope: %+v", env)
	}
	if env.Retryable {
		t.Fatal("not found must not be retryable")
	}
}

func TestHandle_UnavailableIsRetryable(t *testing.T) {
	rec := httptest.NewRecorder()
	h := phttp.Handle(func(*http.Request) phttp.Response {
		return phttp.Error(perr.Unavailablef("store down"))
	})
	h(rec, reqWithReqID("GET", "/", ""))
	env := decode(t, rec)
	if !env.Retryable {
		t.Fatalf("expected retryable envelope: %+v", env)
	}
}

func TestHandle_HeadersAndPlainError(t *testing.T) {
	rec := httptest.NewRecorder()
	h := phttp.Handle(func(*http.Request) phttp.Response {
		resp := phttp.Error(errors.New("plain"))
		resp.Header = http.Header{"X-Test": {"a", "b"}}
		return resp
	})
	h(rec, reqWithReqID("GET", "/", ""))
	if rec.Code < 400 {
		t.Fatalf("expected error status got %d", rec.Code)
	}
	if got := rec.Header().Values("X-Test"); len(got) != 2 {
		t.Fatalf("expected two header values got %v", got)
	}
}
