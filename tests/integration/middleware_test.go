//go:build integration

package integration

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"testing"
	"time"
)

func send(t *testing.T, method, path string, header map[string]string) *http.Response {
	t.Helper()

	req, err := http.NewRequestWithContext(context.Background(), method, baseURL+path, nil)
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func TestRequestID_EchoedOnCart(t *testing.T) {
	user := uniqueUser(t)
	resp := send(t, http.MethodGet, "/api/cart/"+user, map[string]string{"X-Request-ID": "cart-" + user})
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusOK)

	if got := resp.Header.Get("X-Request-ID"); got != "cart-"+user {
		t.Errorf("X-Request-ID: got %q, want %q", got, "cart-"+user)
	}
}

func TestRequestID_GeneratedOnErrors(t *testing.T) {
	resp := doGet(t, "/api/items/no-such-item")
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusNotFound)

	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header not present on error response")
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want application/json", ct)
	}
}

func TestRoutes_UnknownPathIsJSON(t *testing.T) {
	resp := doGet(t, "/api/warehouses")
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusNotFound)

	e := decodeJSON[errorResponse](t, resp)
	if e.Code != http.StatusNotFound || e.Error != "NOT_FOUND" {
		t.Errorf("got %+v, want code 404 and NOT_FOUND", e)
	}
}

func TestRoutes_WrongMethodIsJSON(t *testing.T) {
	resp := do(t, http.MethodDelete, "/api/orders/checkout", nil)
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusMethodNotAllowed)

	e := decodeJSON[errorResponse](t, resp)
	if e.Code != http.StatusMethodNotAllowed || e.Error != "METHOD_NOT_ALLOWED" {
		t.Errorf("got %+v, want code 405 and METHOD_NOT_ALLOWED", e)
	}
}

func TestCORS_CheckoutPreflight(t *testing.T) {
	resp := send(t, http.MethodOptions, "/api/orders/checkout", map[string]string{
		"Origin":                         "http://shop.example.com",
		"Access-Control-Request-Method":  "POST",
		"Access-Control-Request-Headers": "Content-Type",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin: got %q, want *", got)
	}
	if got := resp.Header.Get("Access-Control-Allow-Methods"); !strings.Contains(got, "POST") {
		t.Errorf("Access-Control-Allow-Methods %q does not allow POST", got)
	}
	if got := resp.Header.Get("Access-Control-Allow-Headers"); !strings.Contains(got, "X-Request-ID") {
		t.Errorf("Access-Control-Allow-Headers %q does not allow X-Request-ID", got)
	}
	if got := resp.Header.Get("Access-Control-Max-Age"); got != "86400" {
		t.Errorf("Access-Control-Max-Age: got %q, want 86400", got)
	}
}

func TestCORS_ExposesRetryAfter(t *testing.T) {
	resp := send(t, http.MethodGet, "/api/items", map[string]string{"Origin": "http://shop.example.com"})
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusOK)

	exposed := resp.Header.Get("Access-Control-Expose-Headers")
	for _, h := range []string{"X-Request-ID", "Retry-After"} {
		if !strings.Contains(exposed, h) {
			t.Errorf("Access-Control-Expose-Headers %q missing %s", exposed, h)
		}
	}
}

func TestRateLimit_CountsPerClient(t *testing.T) {
	client := map[string]string{"X-Forwarded-For": fmt.Sprintf("203.0.113.%d", time.Now().UnixNano()%250+1)}

	first := send(t, http.MethodGet, "/api/items", client)
	first.Body.Close()
	second := send(t, http.MethodGet, "/api/items", client)
	second.Body.Close()

	limit, err := strconv.Atoi(first.Header.Get("X-RateLimit-Limit"))
	if err != nil {
		t.Fatalf("X-RateLimit-Limit: %v", err)
	}
	r1, _ := strconv.Atoi(first.Header.Get("X-RateLimit-Remaining"))
	r2, _ := strconv.Atoi(second.Header.Get("X-RateLimit-Remaining"))
	if r1 >= limit || r2 != r1-1 {
		t.Errorf("remaining went %d -> %d with limit %d", r1, r2, limit)
	}
	if first.Header.Get("X-RateLimit-Reset") == "" {
		t.Error("X-RateLimit-Reset header not present")
	}
}

func TestRateLimit_HealthEndpointsExempt(t *testing.T) {
	for _, path := range []string{"/livez", "/readyz"} {
		resp := doGet(t, path)
		resp.Body.Close()

		if got := resp.Header.Get("X-RateLimit-Limit"); got != "" {
			t.Errorf("%s: X-RateLimit-Limit %q, want none", path, got)
		}
	}
}
