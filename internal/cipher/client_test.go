package cipher

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/HoganMacAdam/trust-vault-stars/internal/domain"
)

func newClientForServer(t *testing.T, handler http.Handler) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewHTTPClient(srv.URL, "test-key", 2*time.Second, log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatalf("create http client: %v", err)
	}
	return client
}

func TestHTTPClientRequestShape(t *testing.T) {
	var gotPath, gotKey string
	var gotBody map[string]interface{}

	client := newClientForServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("X-API-Key")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]string{"handle": "h-1"})
	}))

	handle, err := client.Encrypt(context.Background(), 4, "alice")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if handle != domain.Handle("h-1") {
		t.Fatalf("handle = %s, want h-1", handle)
	}
	if gotPath != "/v1/encrypt" {
		t.Fatalf("path = %s, want /v1/encrypt", gotPath)
	}
	if gotKey != "test-key" {
		t.Fatalf("api key header = %q", gotKey)
	}
	if gotBody["value"].(float64) != 4 || gotBody["recipient"].(string) != "alice" {
		t.Fatalf("unexpected payload: %v", gotBody)
	}
}

func TestHTTPClientStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"forbidden maps to permission denied", http.StatusForbidden, ErrPermissionDenied},
		{"not found maps to unknown handle", http.StatusNotFound, ErrUnknownHandle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newClientForServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "nope", tt.status)
			}))

			_, err := client.Decrypt(context.Background(), "h-x", "mallory")
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestHTTPClientGrantNoContent(t *testing.T) {
	client := newClientForServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/grant" {
			t.Errorf("path = %s, want /v1/grant", r.URL.Path)
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	if err := client.Grant(context.Background(), "h-1", "bob"); err != nil {
		t.Fatalf("grant: %v", err)
	}
}

func TestHTTPClientUnexpectedStatus(t *testing.T) {
	client := newClientForServer(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))

	if _, err := client.Add(context.Background(), "a", "b"); err == nil {
		t.Fatalf("expected error on 502")
	}
}

// TestHTTPClientSmoke runs against a live cipher-mock when CIPHER_URL is
// set, to make sure client and service agree on the wire format.
func TestHTTPClientSmoke(t *testing.T) {
	baseURL := envOrSkip(t, "CIPHER_URL")
	client, err := NewHTTPClient(baseURL, "", 3*time.Second, log.New(io.Discard, "", 0))
	if err != nil {
		t.Fatalf("create http client: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	a, err := client.Encrypt(ctx, 2, "smoke-a")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	b, err := client.Encrypt(ctx, 3, "smoke-b")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	sum, err := client.Add(ctx, a, b)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := client.Grant(ctx, sum, "smoke-a"); err != nil {
		t.Fatalf("grant: %v", err)
	}
	value, err := client.Decrypt(ctx, sum, "smoke-a")
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if value != 5 {
		t.Fatalf("decrypt = %d, want 5", value)
	}
}

func envOrSkip(t *testing.T, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not provided", key)
	}
	return value
}
