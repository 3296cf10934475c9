package callback

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
)

// setTestEnv sets the GAME_API_KEY env var and returns a cleanup function.
func setTestEnv(t *testing.T) {
	t.Helper()
	if err := os.Setenv("GAME_API_KEY", "test-key"); err != nil {
		t.Fatalf("failed to set env: %v", err)
	}
	t.Cleanup(func() {
		_ = os.Unsetenv("GAME_API_KEY")
	})
}

func TestNewNotifier_MissingBaseURL(t *testing.T) {
	setTestEnv(t)

	_, err := NewNotifier("")
	if err == nil {
		t.Error("expected error for missing base URL")
	}
}

func TestNewNotifier_MissingAPIKey(t *testing.T) {
	// Ensure API key is not set
	_ = os.Unsetenv("GAME_API_KEY")

	_, err := NewNotifier("https://game-api.virtuals.io/requests")
	if err == nil {
		t.Error("expected error for missing API key")
	}
}

func TestNewNotifier_WithAPIKeyOption(t *testing.T) {
	// Ensure environment API key is NOT set
	_ = os.Unsetenv("GAME_API_KEY")

	notifier, err := NewNotifier("https://game-api.virtuals.io/requests", WithAPIKey("explicit-key"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if notifier.apiKey != "explicit-key" {
		t.Errorf("expected apiKey to be 'explicit-key', got '%s'", notifier.apiKey)
	}
}

func TestNotify_Success(t *testing.T) {
	setTestEnv(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Verify request
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/req-123/callback" {
			t.Errorf("expected /req-123/callback, got %s", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("expected x-api-key test-key, got %s", r.Header.Get("x-api-key"))
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("expected application/json, got %s", r.Header.Get("Content-Type"))
		}

		// Verify payload
		var payload Payload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("failed to decode payload: %v", err)
		}
		if payload.Data.Status != StatusCompleted {
			t.Errorf("expected COMPLETED, got %s", payload.Data.Status)
		}
		if !payload.Data.AddToInventory {
			t.Error("expected addToInventory true")
		}
		if payload.Data.Output == nil || payload.Data.Output.URL != "https://cdn/x.mp4" {
			t.Errorf("unexpected output: %+v", payload.Data.Output)
		}

		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	notifier, _ := NewNotifier(server.URL)

	err := notifier.Notify(context.Background(), "req-123", NewSuccess("https://cdn/x.mp4"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNotify_FailurePayload(t *testing.T) {
	setTestEnv(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload Payload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("failed to decode payload: %v", err)
		}
		if payload.Data.Status != StatusFailed {
			t.Errorf("expected FAILED, got %s", payload.Data.Status)
		}
		if payload.Data.AddToInventory {
			t.Error("expected addToInventory false")
		}
		if payload.Data.Output != nil {
			t.Errorf("expected null output, got %+v", payload.Data.Output)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	notifier, _ := NewNotifier(server.URL)

	err := notifier.Notify(context.Background(), "req-123", NewFailure())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNotify_EmptyRequestID(t *testing.T) {
	setTestEnv(t)

	notifier, _ := NewNotifier("https://game-api.virtuals.io/requests")

	err := notifier.Notify(context.Background(), "", NewFailure())
	if !errors.Is(err, ErrRequestIDRequired) {
		t.Errorf("expected ErrRequestIDRequired, got %v", err)
	}
}

func TestNotify_EndpointRejects(t *testing.T) {
	setTestEnv(t)

	var attempts int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("upstream error"))
	}))
	defer server.Close()

	notifier, _ := NewNotifier(server.URL)

	err := notifier.Notify(context.Background(), "req-123", NewFailure())
	if !errors.Is(err, ErrDeliveryFailed) {
		t.Errorf("expected ErrDeliveryFailed, got %v", err)
	}
	// Delivery is single-attempt, never retried
	if atomic.LoadInt32(&attempts) != 1 {
		t.Errorf("expected 1 attempt, got %d", attempts)
	}
}

func TestNotify_NetworkError(t *testing.T) {
	setTestEnv(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // Close immediately to force a connection error

	notifier, _ := NewNotifier(server.URL)

	err := notifier.Notify(context.Background(), "req-123", NewFailure())
	if !errors.Is(err, ErrDeliveryFailed) {
		t.Errorf("expected ErrDeliveryFailed, got %v", err)
	}
}
