package weather

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Boston", "Boston"},
		{"New York!!", "New York"},
		{"  São_Paulo  ", "S o Paulo"},
		{"san-francisco", "san francisco"},
		{"Tokyo, Japan", "Tokyo Japan"},
		{"***", ""},
		{"", ""},
		{"a    b", "a b"},
		{"Denver2", "Denver2"},
	}

	for _, tc := range tests {
		if got := Sanitize(tc.input); got != tc.expected {
			t.Errorf("Sanitize(%q) = %q, want %q", tc.input, got, tc.expected)
		}
	}
}

func TestCurrent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/Boston" {
			t.Errorf("Expected path '/Boston', got '%s'", r.URL.Path)
		}
		if r.URL.RawQuery != "format=%C+%t" {
			t.Errorf("Expected query 'format=%%C+%%t', got '%s'", r.URL.RawQuery)
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Sunny +21°C"))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)

	text, err := client.Current(context.Background(), "Boston")
	if err != nil {
		t.Fatalf("Current() failed: %v", err)
	}
	if text != "Sunny +21°C" {
		t.Errorf("Expected 'Sunny +21°C', got '%s'", text)
	}
}

func TestCurrent_UpstreamRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)

	_, err := client.Current(context.Background(), "Boston")
	if err == nil {
		t.Fatal("Expected error for 503 response")
	}

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("Expected *StatusError, got %T: %v", err, err)
	}
	if statusErr.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("Expected status code 503, got %d", statusErr.StatusCode)
	}
}

func TestCurrent_TransportFailure(t *testing.T) {
	// Point at a closed server so the dial fails
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	serverURL := server.URL
	server.Close()

	client := NewClient(serverURL, 1*time.Second)

	_, err := client.Current(context.Background(), "Boston")
	if err == nil {
		t.Fatal("Expected error for unreachable server")
	}

	// Transport failures are not StatusErrors
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		t.Errorf("Expected transport error, got StatusError %v", statusErr)
	}
}

func TestCurrent_EscapesLocationPath(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		w.Write([]byte("Cloudy +10°C"))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)

	if _, err := client.Current(context.Background(), "New York"); err != nil {
		t.Fatalf("Current() failed: %v", err)
	}
	if gotPath != "/New%20York" {
		t.Errorf("Expected escaped path '/New%%20York', got '%s'", gotPath)
	}
}

func TestNewClient_DefaultBaseURL(t *testing.T) {
	client := NewClient("", 5*time.Second)
	if client.baseURL != DefaultBaseURL {
		t.Errorf("Expected default base URL '%s', got '%s'", DefaultBaseURL, client.baseURL)
	}
}
