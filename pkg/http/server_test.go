package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

type routes func(e *echo.Echo)

func (r routes) RegisterRoutes(e *echo.Echo) { r(e) }

func newTestServer() *Server {
	h := routes(func(e *echo.Echo) {
		e.GET("/missing", func(c echo.Context) error {
			return NotFoundErrorf("report %s not found", "42")
		})
		e.GET("/boom", func(c echo.Context) error {
			panic("boom")
		})
	})
	return NewServer(h, WithRegistry(prometheus.NewRegistry()))
}

func serve(s *Server, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHealthz(t *testing.T) {
	rec := serve(newTestServer(), "/healthz")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != http.StatusOK {
		t.Fatalf("unexpected envelope %+v", body)
	}
}

func TestAppErrorRendered(t *testing.T) {
	rec := serve(newTestServer(), "/missing")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "ERR_NOT_FOUND") {
		t.Fatalf("unexpected body %s", rec.Body)
	}
}

func TestUnknownRouteUsesEnvelope(t *testing.T) {
	rec := serve(newTestServer(), "/nope")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	var body APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body.Status != http.StatusNotFound {
		t.Fatalf("unexpected body %s", rec.Body)
	}
}

func TestPanicRecovered(t *testing.T) {
	rec := serve(newTestServer(), "/boom")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer()
	serve(s, "/healthz")
	rec := serve(s, "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `http_requests_total{method="GET",route="/healthz",status="200"} 1`) {
		t.Fatalf("request counter missing:\n%s", rec.Body)
	}
}
