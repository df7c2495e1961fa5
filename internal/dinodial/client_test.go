package dinodial

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient(t *testing.T, server *httptest.Server, cfg Config) *Client {
	t.Helper()
	cfg.BaseURL = server.URL
	if cfg.Token == "" && cfg.AdminToken == "" {
		cfg.Token = "patient-token"
	}
	client, err := New(cfg)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestNewDefaultsAndValidation(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatalf("expected credential validation error")
	}
	client, err := New(Config{Token: "tok"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if client.baseURL != defaultBaseURL {
		t.Fatalf("expected default base url, got %s", client.baseURL)
	}
	if client.httpClient == nil || client.httpClient.Timeout != 30*time.Second {
		t.Fatalf("expected default timeout")
	}
	if client.vadEngine != defaultVADEngine {
		t.Fatalf("expected default vad engine, got %s", client.vadEngine)
	}
}

func TestInitiateCall(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/proxy/make-call/" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer patient-token" {
			t.Fatalf("unexpected auth header %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"success","data":{"id":742,"message":"Call initiated"}}`))
	}))
	defer server.Close()

	client := newTestClient(t, server, Config{})
	handle, err := client.InitiateCall(context.Background(), CallRequest{Prompt: "remind the patient"})
	if err != nil {
		t.Fatalf("initiate call: %v", err)
	}
	if handle.ID != 742 {
		t.Fatalf("unexpected call id %d", handle.ID)
	}
}

func TestInitiateCallRequiresPrompt(t *testing.T) {
	client, err := New(Config{Token: "tok"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if _, err := client.InitiateCall(context.Background(), CallRequest{}); err == nil {
		t.Fatalf("expected prompt validation error")
	}
}

func TestInitiateCallRefreshesRejectedToken(t *testing.T) {
	var callAttempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/proxy/make-call/":
			if callAttempts.Add(1) == 1 {
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"status":"error","detail":"Token is not valid"}`))
				return
			}
			if got := r.Header.Get("Authorization"); got != "Bearer fresh-token" {
				t.Fatalf("retry used stale token %q", got)
			}
			w.Write([]byte(`{"status":"success","data":{"id":9,"message":"Call initiated"}}`))
		case "/api/proxy/token/generate/":
			if got := r.Header.Get("Authorization"); got != "Bearer admin-token" {
				t.Fatalf("token generation must use admin credential, got %q", got)
			}
			w.Write([]byte(`{"status":"success","data":{"token":"fresh-token"}}`))
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	client := newTestClient(t, server, Config{
		Token:       "stale-token",
		AdminToken:  "admin-token",
		PhoneNumber: "+919970208412",
	})
	handle, err := client.InitiateCall(context.Background(), CallRequest{Prompt: "book"})
	if err != nil {
		t.Fatalf("expected refreshed call to succeed, got %v", err)
	}
	if handle.ID != 9 {
		t.Fatalf("unexpected call id %d", handle.ID)
	}
	if callAttempts.Load() != 2 {
		t.Fatalf("expected exactly one retry, saw %d attempts", callAttempts.Load())
	}
	if client.Token() != "fresh-token" {
		t.Fatalf("expected token swap, got %q", client.Token())
	}
}

func TestInitiateCallSurfacesOriginalRejectionWhenRefreshImpossible(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/proxy/make-call/" {
			t.Fatalf("refresh must not be attempted without admin credential, hit %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"status":"error","detail":"Token is not valid"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server, Config{Token: "stale-token"})
	_, err := client.InitiateCall(context.Background(), CallRequest{Prompt: "book"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected original APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected original status code, got %d", apiErr.StatusCode)
	}
}

func TestInitiateCallSurfacesOriginalRejectionWhenRefreshFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/proxy/make-call/":
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"status":"error","detail":"Token is not valid"}`))
		case "/api/proxy/token/generate/":
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"status":"error","detail":"admin credential rejected"}`))
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	client := newTestClient(t, server, Config{
		Token:       "stale-token",
		AdminToken:  "admin-token",
		PhoneNumber: "+919970208412",
	})
	_, err := client.InitiateCall(context.Background(), CallRequest{Prompt: "book"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected original APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected original 401, got %d", apiErr.StatusCode)
	}
	if client.Token() != "stale-token" {
		t.Fatalf("token must be untouched after failed refresh, got %q", client.Token())
	}
}

func TestInitiateCallRateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The proxy reports throttling in the error text with a 200 status.
		w.Write([]byte(`{"error":"Rate limit exceeded. Try again in a minute."}`))
	}))
	defer server.Close()

	client := newTestClient(t, server, Config{})
	_, err := client.InitiateCall(context.Background(), CallRequest{Prompt: "remind"})
	if !IsRateLimited(err) {
		t.Fatalf("expected rate-limit classification, got %v", err)
	}
}

func TestGetCallDetailPassesErrorsThrough(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"status":"error","detail":"call not found"}`))
	}))
	defer server.Close()

	client := newTestClient(t, server, Config{})
	if _, err := client.GetCallDetail(context.Background(), 12); err == nil {
		t.Fatalf("expected error")
	}
	if attempts.Load() != 1 {
		t.Fatalf("detail fetch must not retry, saw %d attempts", attempts.Load())
	}
}

func TestGetCallDetail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/proxy/call/detail/88/" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"status":"success","data":{"status":"completed","duration":95,"recording_url":"https://cdn/rec.mp3","phone_number":"+919970208412","evaluation_result":{"booked":true}}}`))
	}))
	defer server.Close()

	client := newTestClient(t, server, Config{})
	detail, err := client.GetCallDetail(context.Background(), 88)
	if err != nil {
		t.Fatalf("get call detail: %v", err)
	}
	if detail.Status != "completed" || detail.Duration != 95 {
		t.Fatalf("unexpected detail %+v", detail)
	}
	if len(detail.EvaluationResult) == 0 {
		t.Fatalf("expected evaluation payload")
	}
}

func TestIsTransient(t *testing.T) {
	if !IsTransient(context.DeadlineExceeded) {
		t.Fatalf("deadline exceeded should be transient")
	}
	if !IsTransient(&APIError{StatusCode: 503}) {
		t.Fatalf("5xx should be transient")
	}
	if IsTransient(&APIError{StatusCode: 404}) {
		t.Fatalf("4xx should not be transient")
	}
	if IsTransient(nil) {
		t.Fatalf("nil is not transient")
	}
}

func TestGenerateTokenRequiresAdminCredential(t *testing.T) {
	client, err := New(Config{Token: "tok"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if _, err := client.GenerateToken(context.Background(), "+911234567890"); err == nil {
		t.Fatalf("expected admin credential error")
	}
}
