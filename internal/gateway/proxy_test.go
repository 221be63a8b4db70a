package gateway

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestServiceProxy_ForwardRequest(t *testing.T) {
	t.Run("forwards a seller report read", func(t *testing.T) {
		analytics := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				t.Errorf("expected GET, got %s", r.Method)
			}
			if r.URL.Path != "/analytics/seller/s-42/inventory/aging" {
				t.Errorf("expected aging path, got %s", r.URL.Path)
			}
			if r.URL.RawQuery != "" {
				t.Errorf("expected no query, got %q", r.URL.RawQuery)
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`[]`))
		}))
		defer analytics.Close()

		proxy := NewServiceProxy(analytics.URL, analytics.Client())
		req := httptest.NewRequest(http.MethodGet, "/api/v1/analytics/seller/s-42/inventory/aging", nil)
		resp, err := proxy.ForwardRequest(context.Background(), req, "/analytics/seller/s-42/inventory/aging")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode != http.StatusOK {
			t.Errorf("expected status 200, got %d", resp.StatusCode)
		}
		body, _ := io.ReadAll(resp.Body)
		if string(body) != `[]` {
			t.Errorf("unexpected body: %s", body)
		}
	})

	t.Run("forwards campaign body and content type", func(t *testing.T) {
		const payload = `{"segmentId":"atRisk","discountPercent":15,"durationDays":7}`
		analytics := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				t.Errorf("expected POST, got %s", r.Method)
			}
			if r.Header.Get("Content-Type") != "application/json" {
				t.Errorf("expected Content-Type application/json, got %s", r.Header.Get("Content-Type"))
			}
			body, _ := io.ReadAll(r.Body)
			if string(body) != payload {
				t.Errorf("unexpected body: %s", body)
			}
			w.WriteHeader(http.StatusCreated)
		}))
		defer analytics.Close()

		proxy := NewServiceProxy(analytics.URL, analytics.Client())
		req := httptest.NewRequest(http.MethodPost, "/api/v1/analytics/seller/s-42/campaigns", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		resp, err := proxy.ForwardRequest(context.Background(), req, "/analytics/seller/s-42/campaigns")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode != http.StatusCreated {
			t.Errorf("expected status 201, got %d", resp.StatusCode)
		}
	})

	t.Run("forwards query string and accept header", func(t *testing.T) {
		analytics := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.RawQuery != "limit=3" {
				t.Errorf("expected limit=3, got %q", r.URL.RawQuery)
			}
			if r.Header.Get("Accept") != "application/json" {
				t.Errorf("expected Accept application/json, got %s", r.Header.Get("Accept"))
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer analytics.Close()

		proxy := NewServiceProxy(analytics.URL, analytics.Client())
		req := httptest.NewRequest(http.MethodGet, "/api/v1/analytics/seller/s-42/top-products?limit=3", nil)
		req.Header.Set("Accept", "application/json")
		resp, err := proxy.ForwardRequest(context.Background(), req, "/analytics/seller/s-42/top-products")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode != http.StatusOK {
			t.Errorf("expected status 200, got %d", resp.StatusCode)
		}
	})

	t.Run("drops headers the analytics service does not use", func(t *testing.T) {
		analytics := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Cookie") != "" {
				t.Errorf("expected no cookie, got %s", r.Header.Get("Cookie"))
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer analytics.Close()

		proxy := NewServiceProxy(analytics.URL, analytics.Client())
		req := httptest.NewRequest(http.MethodGet, "/api/v1/analytics/seller/s-42/profitability", nil)
		req.Header.Set("Cookie", "session=abc")
		resp, err := proxy.ForwardRequest(context.Background(), req, "/analytics/seller/s-42/profitability")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		_ = resp.Body.Close()
	})

	t.Run("gives up when the caller is gone", func(t *testing.T) {
		analytics := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		defer analytics.Close()

		proxy := NewServiceProxy(analytics.URL, analytics.Client())
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		req := httptest.NewRequest(http.MethodGet, "/api/v1/analytics/seller/s-42/buyers/cohorts", nil)
		_, err := proxy.ForwardRequest(ctx, req, "/analytics/seller/s-42/buyers/cohorts")
		if err == nil {
			t.Error("expected error for cancelled context")
		}
	})
}
