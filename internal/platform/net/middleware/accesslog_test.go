package middleware_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	pnet "peacekeeper/internal/platform/net"
	"peacekeeper/internal/platform/net/middleware"

	chimw "github.com/go-chi/chi/v5/middleware"
)

func TestAccessLog_PassThroughStatusAndBody(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, "ok")
	})

	rr := httptest.NewRecorder()
	middleware.AccessLog(middleware.AccessLogOptions{})(next).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/x", nil))

	if rr.Code != http.StatusCreated || rr.Body.String() != "ok" {
		t.Fatalf("unexpected response %d %q", rr.Code, rr.Body.String())
	}
}

func TestAccessLog_SlowAndErrorDoNotAffectResponse(t *testing.T) {
	cases := []struct {
		name   string
		status int
	}{
		{"slow", http.StatusOK},
		{"server error", http.StatusBadGateway},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				time.Sleep(50 * time.Microsecond)
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte("hi"))
				_, _ = w.Write([]byte("there"))
			})
			rr := httptest.NewRecorder()
			middleware.AccessLog(middleware.AccessLogOptions{Slow: time.Nanosecond})(next).
				ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/slow", nil))
			if rr.Code != tc.status || rr.Body.String() != "hithere" {
				t.Fatalf("unexpected response %d %q", rr.Code, rr.Body.String())
			}
		})
	}
}

func TestScope_CopiesGuildAndRequestID(t *testing.T) {
	var guild, reqID string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		guild = pnet.GuildID(r.Context())
		reqID = pnet.RequestID(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(pnet.GuildHeader, "g-42")
	req.Header.Set(chimw.RequestIDHeader, "rid-7")
	chimw.RequestID(middleware.Scope()(next)).ServeHTTP(httptest.NewRecorder(), req)

	if guild != "g-42" || reqID != "rid-7" {
		t.Fatalf("expected guild g-42 and rid-7 got %q %q", guild, reqID)
	}
}
