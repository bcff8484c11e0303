package mail

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// マジックリンク送信が正しいリクエストを構築することを検証
func TestClient_SendMagicLink(t *testing.T) {
	var gotAuth string
	var gotBody sendRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("failed to decode request body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"id":"email-1"}`))
	}))
	defer server.Close()

	client := NewClient(server.Client(), newTestLogger(), "re_test_key", "Abroadly <login@abroadly.app>")
	client.endpoint = server.URL

	err := client.SendMagicLink(context.Background(), "alice@vanderbilt.edu", "https://app.example.com/auth/callback?token=abc")
	if err != nil {
		t.Fatalf("SendMagicLink() error = %v", err)
	}

	if gotAuth != "Bearer re_test_key" {
		t.Errorf("Authorization = %q, want Bearer token", gotAuth)
	}
	if len(gotBody.To) != 1 || gotBody.To[0] != "alice@vanderbilt.edu" {
		t.Errorf("To = %v, want recipient", gotBody.To)
	}
	if gotBody.From != "Abroadly <login@abroadly.app>" {
		t.Errorf("From = %q", gotBody.From)
	}
	if !strings.Contains(gotBody.HTML, "token=abc") || !strings.Contains(gotBody.Text, "token=abc") {
		t.Error("magic link missing from email body")
	}
}

// APIがエラーステータスを返した場合にエラーになることを検証
func TestClient_SendMagicLink_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"message":"invalid from address"}`))
	}))
	defer server.Close()

	client := NewClient(server.Client(), newTestLogger(), "re_test_key", "bad-from")
	client.endpoint = server.URL

	err := client.SendMagicLink(context.Background(), "alice@vanderbilt.edu", "https://app.example.com/auth/callback?token=abc")
	if err == nil {
		t.Fatal("expected error for non-200 response")
	}
}
