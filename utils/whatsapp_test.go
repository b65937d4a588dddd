package utils

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
)

func TestSendWhatsAppMessage(t *testing.T) {
	var gotAuth, gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	os.Setenv("WATI_API_URL", server.URL)
	os.Setenv("WATI_API_TOKEN", "test-token")
	defer os.Unsetenv("WATI_API_URL")
	defer os.Unsetenv("WATI_API_TOKEN")

	if err := SendWhatsAppMessage("447700900001", "Your delivery DEL123 is on its way"); err != nil {
		t.Fatal(err)
	}
	if gotAuth != "Bearer test-token" {
		t.Errorf("expected bearer token header, got %q", gotAuth)
	}
	if gotPath != "/api/v1/sendSessionMessage/447700900001" {
		t.Errorf("unexpected path %q", gotPath)
	}
}

func TestSendWhatsAppMessageGatewayError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	os.Setenv("WATI_API_URL", server.URL)
	os.Setenv("WATI_API_TOKEN", "test-token")
	defer os.Unsetenv("WATI_API_URL")
	defer os.Unsetenv("WATI_API_TOKEN")

	if err := SendWhatsAppMessage("447700900001", "hello"); err == nil {
		t.Error("expected error for gateway failure")
	}
}

func TestSendWhatsAppMessageNotConfigured(t *testing.T) {
	os.Unsetenv("WATI_API_URL")
	os.Unsetenv("WATI_API_TOKEN")
	if err := SendWhatsAppMessage("447700900001", "hello"); err == nil {
		t.Error("expected error when gateway is not configured")
	}
}
