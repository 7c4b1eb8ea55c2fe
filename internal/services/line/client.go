package line

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const (
	// DefaultAPIBase is the messaging API origin
	DefaultAPIBase = "https://api.line.me"
	// DefaultTimeout bounds one outbound message delivery
	DefaultTimeout = 10 * time.Second

	// MaxQuickReplies is the platform's quick-reply button limit we use
	MaxQuickReplies = 4
)

// QuickReply is one tappable shortcut attached to an outgoing message.
type QuickReply struct {
	Label string
	Text  string
}

// Client delivers text messages through the messaging platform. It is the
// only component that talks to the platform; callers hand it pure text plus
// optional quick replies.
type Client struct {
	apiBase    string
	tokens     oauth2.TokenSource
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a messaging client over a channel access token source.
func NewClient(tokens oauth2.TokenSource, logger *zap.Logger) *Client {
	return &Client{
		apiBase:    DefaultAPIBase,
		tokens:     tokens,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     logger,
	}
}

type textMessage struct {
	Type       string          `json:"type"`
	Text       string          `json:"text"`
	QuickReply *quickReplyWrap `json:"quickReply,omitempty"`
}

type quickReplyWrap struct {
	Items []quickReplyItem `json:"items"`
}

type quickReplyItem struct {
	Type   string           `json:"type"`
	Action quickReplyAction `json:"action"`
}

type quickReplyAction struct {
	Type  string `json:"type"`
	Label string `json:"label"`
	Text  string `json:"text"`
}

// Reply answers an inbound event using its reply token. Reply tokens are
// single-use and short-lived; use Push for anything asynchronous.
func (c *Client) Reply(ctx context.Context, replyToken, text string, quickReplies ...QuickReply) error {
	payload := map[string]any{
		"replyToken": replyToken,
		"messages":   []textMessage{newTextMessage(text, quickReplies)},
	}
	return c.post(ctx, "/v2/bot/message/reply", payload)
}

// Push sends a message to a user outside a reply window.
func (c *Client) Push(ctx context.Context, userID, text string, quickReplies ...QuickReply) error {
	payload := map[string]any{
		"to":       userID,
		"messages": []textMessage{newTextMessage(text, quickReplies)},
	}
	return c.post(ctx, "/v2/bot/message/push", payload)
}

func newTextMessage(text string, quickReplies []QuickReply) textMessage {
	msg := textMessage{Type: "text", Text: text}
	if len(quickReplies) == 0 {
		return msg
	}
	if len(quickReplies) > MaxQuickReplies {
		quickReplies = quickReplies[:MaxQuickReplies]
	}
	items := make([]quickReplyItem, 0, len(quickReplies))
	for _, qr := range quickReplies {
		items = append(items, quickReplyItem{
			Type: "action",
			Action: quickReplyAction{
				Type:  "message",
				Label: qr.Label,
				Text:  qr.Text,
			},
		})
	}
	msg.QuickReply = &quickReplyWrap{Items: items}
	return msg
}

func (c *Client) post(ctx context.Context, path string, payload any) error {
	token, err := c.tokens.Token()
	if err != nil {
		return fmt.Errorf("failed to get channel access token: %w", err)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiBase+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build message request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("message delivery failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Warn("message delivery rejected",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("detail", detail))
		return fmt.Errorf("message delivery returned status %d", resp.StatusCode)
	}
	return nil
}
