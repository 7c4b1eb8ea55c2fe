package line

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"golang.org/x/oauth2"
)

const (
	// TokenEndpoint issues short-lived channel access tokens (v2.1)
	TokenEndpoint = "https://api.line.me/oauth2/v2.1/token"

	tokenAudience      = "https://api.line.me/"
	assertionType      = "urn:ietf:params:oauth:client-assertion-type:jwt-bearer"
	assertionLifetime  = 25 * time.Minute
	requestedTokenTTL  = 24 * 60 * 60 // seconds, sent as token_exp
	tokenClientTimeout = 10 * time.Second
)

// StaticTokenSource wraps a long-lived channel access token.
func StaticTokenSource(token string) oauth2.TokenSource {
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
}

// AssertionTokenSource issues channel access tokens by signing a JWT
// assertion with the channel's private key (token endpoint v2.1). Wrap the
// result in oauth2.ReuseTokenSource so tokens are only re-issued on expiry.
type AssertionTokenSource struct {
	channelID  string
	keyID      string
	privateKey jwk.Key
	endpoint   string
	httpClient *http.Client
}

// NewAssertionTokenSource parses the channel private key (JWK JSON) and
// returns a reusable token source.
func NewAssertionTokenSource(channelID, keyID, privateKeyJWK string) (oauth2.TokenSource, error) {
	key, err := jwk.ParseKey([]byte(privateKeyJWK))
	if err != nil {
		return nil, fmt.Errorf("failed to parse channel private key: %w", err)
	}

	source := &AssertionTokenSource{
		channelID:  channelID,
		keyID:      keyID,
		privateKey: key,
		endpoint:   TokenEndpoint,
		httpClient: &http.Client{Timeout: tokenClientTimeout},
	}
	return oauth2.ReuseTokenSource(nil, source), nil
}

// Token signs a fresh assertion and exchanges it for a channel access token.
func (s *AssertionTokenSource) Token() (*oauth2.Token, error) {
	assertion, err := s.signAssertion()
	if err != nil {
		return nil, err
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_assertion_type", assertionType)
	form.Set("client_assertion", assertion)

	ctx, cancel := context.WithTimeout(context.Background(), tokenClientTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("token endpoint returned status %d: %s", resp.StatusCode, body)
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse token response: %w", err)
	}
	if payload.AccessToken == "" {
		return nil, fmt.Errorf("token endpoint returned empty access token")
	}

	return &oauth2.Token{
		AccessToken: payload.AccessToken,
		TokenType:   payload.TokenType,
		Expiry:      time.Now().Add(time.Duration(payload.ExpiresIn) * time.Second),
	}, nil
}

func (s *AssertionTokenSource) signAssertion() (string, error) {
	now := time.Now()
	tok, err := jwt.NewBuilder().
		Issuer(s.channelID).
		Subject(s.channelID).
		Audience([]string{tokenAudience}).
		Expiration(now.Add(assertionLifetime)).
		Claim("token_exp", requestedTokenTTL).
		Build()
	if err != nil {
		return "", fmt.Errorf("failed to build assertion: %w", err)
	}

	headers := jws.NewHeaders()
	if err := headers.Set(jws.KeyIDKey, s.keyID); err != nil {
		return "", fmt.Errorf("failed to set key id: %w", err)
	}
	if err := headers.Set(jws.TypeKey, "JWT"); err != nil {
		return "", fmt.Errorf("failed to set token type: %w", err)
	}

	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.RS256, s.privateKey, jws.WithProtectedHeaders(headers)))
	if err != nil {
		return "", fmt.Errorf("failed to sign assertion: %w", err)
	}
	return string(signed), nil
}
