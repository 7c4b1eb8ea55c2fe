package line

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

func TestVerifySignature(t *testing.T) {
	t.Parallel()

	secret := "channel-secret"
	body := []byte(`{"events":[]}`)

	tests := []struct {
		name      string
		secret    string
		body      []byte
		signature string
		want      bool
	}{
		{name: "valid signature", secret: secret, body: body, signature: Sign(secret, body), want: true},
		{name: "wrong secret", secret: "other", body: body, signature: Sign(secret, body), want: false},
		{name: "tampered body", secret: secret, body: []byte(`{"events":[{}]}`), signature: Sign(secret, body), want: false},
		{name: "empty signature", secret: secret, body: body, signature: "", want: false},
		{name: "not base64", secret: secret, body: body, signature: "%%%", want: false},
		{name: "empty secret", secret: "", body: body, signature: Sign(secret, body), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := VerifySignature(tt.secret, tt.body, tt.signature); got != tt.want {
				t.Errorf("VerifySignature() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClientMessages(t *testing.T) {
	t.Parallel()

	t.Run("reply carries token and quick replies", func(t *testing.T) {
		t.Parallel()

		var captured map[string]any
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/v2/bot/message/reply" {
				t.Errorf("path = %q", r.URL.Path)
			}
			if r.Header.Get("Authorization") != "Bearer test-token" {
				t.Errorf("authorization = %q", r.Header.Get("Authorization"))
			}
			if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
				t.Errorf("decode: %v", err)
			}
			w.WriteHeader(http.StatusOK)
		}))
		t.Cleanup(server.Close)

		client := NewClient(StaticTokenSource("test-token"), zap.NewNop())
		client.apiBase = server.URL

		err := client.Reply(context.Background(), "reply-token-1", "どうぞ",
			QuickReply{Label: "1", Text: "1"},
			QuickReply{Label: "2", Text: "2"},
			QuickReply{Label: "3", Text: "3"},
			QuickReply{Label: "再提案", Text: "おすすめ"},
			QuickReply{Label: "overflow", Text: "overflow"},
		)
		if err != nil {
			t.Fatalf("Reply() error: %v", err)
		}

		if captured["replyToken"] != "reply-token-1" {
			t.Errorf("replyToken = %v", captured["replyToken"])
		}
		messages := captured["messages"].([]any)
		msg := messages[0].(map[string]any)
		items := msg["quickReply"].(map[string]any)["items"].([]any)
		if len(items) != MaxQuickReplies {
			t.Errorf("quick replies = %d, want %d", len(items), MaxQuickReplies)
		}
	})

	t.Run("push targets user id", func(t *testing.T) {
		t.Parallel()

		var captured map[string]any
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/v2/bot/message/push" {
				t.Errorf("path = %q", r.URL.Path)
			}
			_ = json.NewDecoder(r.Body).Decode(&captured)
			w.WriteHeader(http.StatusOK)
		}))
		t.Cleanup(server.Close)

		client := NewClient(StaticTokenSource("test-token"), zap.NewNop())
		client.apiBase = server.URL

		if err := client.Push(context.Background(), "U123", "本日のおすすめ"); err != nil {
			t.Fatalf("Push() error: %v", err)
		}
		if captured["to"] != "U123" {
			t.Errorf("to = %v", captured["to"])
		}
		msg := captured["messages"].([]any)[0].(map[string]any)
		if _, hasQR := msg["quickReply"]; hasQR {
			t.Error("quickReply should be omitted when none given")
		}
	})

	t.Run("non-OK status is an error", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
		}))
		t.Cleanup(server.Close)

		client := NewClient(StaticTokenSource("test-token"), zap.NewNop())
		client.apiBase = server.URL

		if err := client.Push(context.Background(), "U123", "x"); err == nil {
			t.Error("expected error for rejected delivery")
		}
	})

	t.Run("token source failure surfaces", func(t *testing.T) {
		t.Parallel()

		client := NewClient(failingTokenSource{}, zap.NewNop())
		if err := client.Push(context.Background(), "U123", "x"); err == nil {
			t.Error("expected error when token source fails")
		}
	})
}

type failingTokenSource struct{}

func (failingTokenSource) Token() (*oauth2.Token, error) {
	return nil, context.DeadlineExceeded
}
