package ai

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestSanitizePrompt(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		fullLog  bool
		validate func(t *testing.T, got string)
	}{
		{
			name:    "empty input",
			input:   "",
			fullLog: false,
			validate: func(t *testing.T, got string) {
				if got != "" {
					t.Errorf("expected empty string, got %q", got)
				}
			},
		},
		{
			name:    "control characters removed",
			input:   "hello\x00world\x1b[31m",
			fullLog: false,
			validate: func(t *testing.T, got string) {
				if strings.ContainsRune(got, '\x00') || strings.ContainsRune(got, '\x1b') {
					t.Errorf("control characters not removed: %q", got)
				}
			},
		},
		{
			name:    "preview truncated",
			input:   strings.Repeat("a", MaxPreviewLength+100),
			fullLog: false,
			validate: func(t *testing.T, got string) {
				if !strings.HasSuffix(got, "...") {
					t.Errorf("expected truncation suffix, got %q", got[len(got)-10:])
				}
				if len(got) > MaxPreviewLength+3 {
					t.Errorf("expected at most %d chars, got %d", MaxPreviewLength+3, len(got))
				}
			},
		},
		{
			name:    "full log keeps long content",
			input:   strings.Repeat("b", MaxPreviewLength+100),
			fullLog: true,
			validate: func(t *testing.T, got string) {
				if strings.HasSuffix(got, "...") {
					t.Errorf("did not expect truncation in full log mode")
				}
			},
		},
		{
			name:    "japanese text preserved",
			input:   "今日の晩ごはんを提案して",
			fullLog: false,
			validate: func(t *testing.T, got string) {
				if got != "今日の晩ごはんを提案して" {
					t.Errorf("japanese text altered: %q", got)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tt.validate(t, SanitizePrompt(tt.input, tt.fullLog))
		})
	}
}

func TestSanitizeAPIKey(t *testing.T) {
	t.Parallel()

	if got := SanitizeAPIKey(""); got != "" {
		t.Errorf("expected empty, got %q", got)
	}
	if got := SanitizeAPIKey("short"); got != RedactedValue {
		t.Errorf("expected full redaction for short key, got %q", got)
	}
	got := SanitizeAPIKey("sk-abcdefghijklmnop")
	if !strings.HasPrefix(got, "sk-a") || !strings.HasSuffix(got, "mnop") {
		t.Errorf("expected partial redaction, got %q", got)
	}
	if strings.Contains(got, "efghijkl") {
		t.Errorf("middle of key leaked: %q", got)
	}
}

func TestHashUserID(t *testing.T) {
	t.Parallel()

	if got := HashUserID(""); got != "" {
		t.Errorf("expected empty hash for empty id, got %q", got)
	}

	a := HashUserID("U1234567890abcdef")
	if len(a) != 16 {
		t.Errorf("expected 16-char hash, got %q", a)
	}
	if strings.Contains(a, "U1234567890abcdef") {
		t.Error("raw id leaked into hash")
	}
	if a != HashUserID("U1234567890abcdef") {
		t.Error("expected hash to be deterministic")
	}
	if a == HashUserID("Uother") {
		t.Error("expected different ids to hash differently")
	}
}

func TestUserIDContext(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	if got := ExtractUserID(ctx); got != "" {
		t.Errorf("expected empty user ID, got %q", got)
	}

	ctx = WithUserID(ctx, "U1234567890abcdef")
	if got := ExtractUserID(ctx); got != "U1234567890abcdef" {
		t.Errorf("expected user ID round trip, got %q", got)
	}
}

func TestIsRateLimitError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil error", err: nil, want: false},
		{name: "plain error", err: errors.New("connection refused"), want: false},
		{name: "429 in message", err: errors.New("status 429 too many requests"), want: true},
		{
			name: "api error rate limit",
			err:  &APIError{StatusCode: 429, Type: "rate_limit_error"},
			want: true,
		},
		{
			name: "api error quota is permanent",
			err:  &APIError{StatusCode: 429, IsPermanent: true},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := IsRateLimitError(tt.err); got != tt.want {
				t.Errorf("IsRateLimitError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetRetryDelay(t *testing.T) {
	t.Parallel()

	rateLimited := &APIError{StatusCode: 429, Type: "rate_limit_error"}
	if d := GetRetryDelay(rateLimited, 0); d < 60*time.Second {
		t.Errorf("rate limit retry too short: %v", d)
	}

	quota := &APIError{StatusCode: 429, Code: "insufficient_quota", IsPermanent: true}
	if d := GetRetryDelay(quota, 0); d < time.Hour {
		t.Errorf("quota retry too short: %v", d)
	}
	if d := GetRetryDelay(quota, 100); d > 24*time.Hour {
		t.Errorf("quota retry not capped: %v", d)
	}

	if d := GetRetryDelay(errors.New("boom"), 0); d != 5*time.Second {
		t.Errorf("default retry = %v, want 5s", d)
	}
}
