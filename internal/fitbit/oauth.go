package fitbit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const (
	// DefaultAPIBase is the Fitbit REST and token endpoint host.
	DefaultAPIBase = "https://api.fitbit.com"
	// DefaultAuthBase is the Fitbit consent screen host.
	DefaultAuthBase = "https://www.fitbit.com"

	// Scopes requested during authorization.
	oauthScopes = "nutrition profile"
)

// TokenResponse is the token endpoint's reply for both grant types.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// OAuth talks to the Fitbit OAuth2 token and authorization endpoints using
// HTTP Basic client authentication.
type OAuth struct {
	clientID     string
	clientSecret string
	redirectURI  string
	apiBase      string
	authBase     string
	http         *http.Client
}

// OAuthConfig carries the application credentials for NewOAuth. APIBase and
// AuthBase default to the real Fitbit hosts when empty.
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	APIBase      string
	AuthBase     string
	HTTPClient   *http.Client
}

// NewOAuth creates an OAuth client for the configured Fitbit application.
func NewOAuth(cfg OAuthConfig) *OAuth {
	o := &OAuth{
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		redirectURI:  cfg.RedirectURI,
		apiBase:      cfg.APIBase,
		authBase:     cfg.AuthBase,
		http:         cfg.HTTPClient,
	}
	if o.apiBase == "" {
		o.apiBase = DefaultAPIBase
	}
	if o.authBase == "" {
		o.authBase = DefaultAuthBase
	}
	if o.http == nil {
		o.http = http.DefaultClient
	}
	return o
}

// AuthorizationURL builds the consent screen redirect target. Pure; no
// network calls.
func (o *OAuth) AuthorizationURL() string {
	params := url.Values{
		"client_id":     {o.clientID},
		"response_type": {"code"},
		"scope":         {oauthScopes},
		"redirect_uri":  {o.redirectURI},
	}
	return o.authBase + "/oauth2/authorize?" + params.Encode()
}

// ExchangeCode performs the one-time authorization_code grant.
func (o *OAuth) ExchangeCode(ctx context.Context, code string) (*TokenResponse, error) {
	return o.token(ctx, url.Values{
		"grant_type":   {"authorization_code"},
		"code":         {code},
		"redirect_uri": {o.redirectURI},
	})
}

// Refresh exchanges a refresh token for a new token pair. Fitbit rotates
// the refresh token on every exchange.
func (o *OAuth) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	return o.token(ctx, url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	})
}

func (o *OAuth) token(ctx context.Context, form url.Values) (*TokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.apiBase+"/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build token request: %w", err)
	}
	req.SetBasicAuth(o.clientID, o.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := o.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read token response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &UpstreamError{Status: resp.StatusCode, Body: string(body)}
	}

	var tokens TokenResponse
	if err := json.Unmarshal(body, &tokens); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}
	return &tokens, nil
}
