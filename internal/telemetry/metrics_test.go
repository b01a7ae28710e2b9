package telemetry

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
)

func TestMetricsEndpointExposesCounters(t *testing.T) {
	RecordCacheLookup("weather", true)
	RecordCacheLookup("weather", false)
	RecordProviderCall("weather", time.Now(), errors.New("timeout"))
	RecordPersistenceFailure("movies")

	app := fiber.New()
	app.Use(Middleware())
	app.Get("/metrics", Handler())
	app.Get("/location", func(c *fiber.Ctx) error { return c.SendString("ok") })

	if _, err := app.Test(httptest.NewRequest(http.MethodGet, "/location", nil)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	for _, want := range []string{
		`city_explorer_cache_lookups_total{resource="weather",result="hit"}`,
		`city_explorer_cache_lookups_total{resource="weather",result="miss"}`,
		`city_explorer_provider_calls_total{outcome="error",resource="weather"}`,
		`city_explorer_persistence_failures_total{resource="movies"}`,
		`city_explorer_http_requests_total{method="GET",path="/location",status="200"}`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics output missing %s", want)
		}
	}
}

func TestInitTracerWithoutEndpoint(t *testing.T) {
	shutdown, err := InitTracer(context.Background(), "city-explorer", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("noop shutdown failed: %v", err)
	}

	_, span := StartSpan(context.Background(), "test")
	span.End()
}
