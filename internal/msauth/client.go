package msauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/microsoft"

	"github.com/dmitrymomot/flipperbot/pkg/logger"
)

// Placeholder identity used when neither the ID token nor the profile
// endpoint yields usable account information.
const (
	fallbackDisplayName = "Unknown User"
	fallbackEmail       = "No email available"
)

const defaultProfileURL = "https://graph.microsoft.com/v1.0/me"

// defaultScopes is the ordered scope set requested during authorization.
// Order is part of the authorization URL contract and must be stable.
var defaultScopes = []string{"XboxLive.signin", "openid", "profile", "email"}

// Config holds the identity provider credentials, loaded from the environment.
type Config struct {
	ClientID     string `env:"MS_CLIENT_ID,required"`
	ClientSecret string `env:"MS_CLIENT_SECRET,required"`
	TenantID     string `env:"MS_TENANT_ID" envDefault:"consumers"`
	RedirectURL  string `env:"REDIRECT_URL" envDefault:"http://localhost:8000/callback"`
}

// ResolvedIdentity is the account information produced by a successful
// code exchange. DisplayName and Email are always populated, falling back
// to placeholder values when the provider returns nothing usable.
type ResolvedIdentity struct {
	DisplayName  string
	Email        string
	AccessToken  string
	RefreshToken string
}

// Client exchanges authorization codes with the Microsoft identity platform.
type Client struct {
	oauth      *oauth2.Config
	httpClient *http.Client
	profileURL string
	log        *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for token and profile requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithEndpoint overrides the provider's OAuth2 endpoints.
func WithEndpoint(ep oauth2.Endpoint) Option {
	return func(c *Client) { c.oauth.Endpoint = ep }
}

// WithProfileURL overrides the profile lookup endpoint.
func WithProfileURL(u string) Option {
	return func(c *Client) { c.profileURL = u }
}

// WithLogger sets the logger. The client logs at debug level only and never
// logs raw tokens.
func WithLogger(log *slog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// New creates a client for the given credentials. It fails fast when the
// client ID or secret is missing so a misconfigured deployment is caught at
// startup rather than on the first verification attempt.
func New(cfg Config, opts ...Option) (*Client, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, ErrMissingCredentials
	}

	tenant := cfg.TenantID
	if tenant == "" {
		tenant = "consumers"
	}

	c := &Client{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       defaultScopes,
			Endpoint:     microsoft.AzureADEndpoint(tenant),
		},
		httpClient: &http.Client{Timeout: 15 * time.Second},
		profileURL: defaultProfileURL,
		log:        logger.NewDiscard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Param is an extra query parameter for the authorization URL, such as
// login_hint or prompt.
type Param struct {
	Key   string
	Value string
}

// AuthCodeURL returns the authorization URL for the given state token,
// with any extra parameters appended. The call is pure: no network
// traffic and no stored side effects.
func (c *Client) AuthCodeURL(state string, extra ...Param) string {
	opts := make([]oauth2.AuthCodeOption, 0, len(extra))
	for _, p := range extra {
		opts = append(opts, oauth2.SetAuthURLParam(p.Key, p.Value))
	}
	return c.oauth.AuthCodeURL(state, opts...)
}

// ExchangeCode redeems an authorization code for tokens and resolves the
// account identity behind them.
func (c *Client) ExchangeCode(ctx context.Context, code string) (ResolvedIdentity, error) {
	if code == "" {
		return ResolvedIdentity{}, ErrEmptyCode
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	token, err := c.oauth.Exchange(ctx, code)
	if err != nil {
		return ResolvedIdentity{}, classifyExchangeError(err)
	}

	identity := ResolvedIdentity{
		DisplayName:  fallbackDisplayName,
		Email:        fallbackEmail,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
	}

	name, email := c.identityFromIDToken(token)
	if name == "" || email == "" {
		profileName, profileEmail := c.identityFromProfile(ctx, token.AccessToken)
		if name == "" {
			name = profileName
		}
		if email == "" {
			email = profileEmail
		}
	}
	if name != "" {
		identity.DisplayName = name
	}
	if email != "" {
		identity.Email = email
	}

	c.log.DebugContext(ctx, "authorization code exchanged",
		logger.Redacted("access_token", token.AccessToken),
		slog.String("display_name", identity.DisplayName),
	)

	return identity, nil
}

func classifyExchangeError(err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return errors.Join(ErrProviderRejected, err)
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) || errors.Is(err, context.DeadlineExceeded) ||
		strings.Contains(err.Error(), "cannot fetch token") {
		return errors.Join(ErrNetwork, err)
	}
	return errors.Join(ErrMalformedResponse, err)
}

// identityFromIDToken decodes the id_token claims without signature
// verification. The token arrived over TLS directly from the provider, so
// it is trusted as transport metadata rather than as a credential.
func (c *Client) identityFromIDToken(token *oauth2.Token) (name, email string) {
	raw, ok := token.Extra("id_token").(string)
	if !ok || raw == "" {
		return "", ""
	}

	parser := jwt.NewParser(jwt.WithoutClaimsValidation(), jwt.WithPaddingAllowed())
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(raw, claims); err != nil {
		c.log.Debug("failed to decode id_token claims", logger.Error(err))
		return "", ""
	}

	name, _ = claims["name"].(string)
	email, _ = claims["email"].(string)
	if email == "" {
		email, _ = claims["preferred_username"].(string)
	}
	return name, email
}

// identityFromProfile queries the Graph profile endpoint. Failures are not
// fatal; the caller falls back to placeholder values.
func (c *Client) identityFromProfile(ctx context.Context, accessToken string) (name, email string) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.profileURL, nil)
	if err != nil {
		return "", ""
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Debug("profile lookup failed", logger.Error(err))
		return "", ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.log.Debug("profile lookup rejected", slog.Int("status", resp.StatusCode))
		return "", ""
	}

	var profile struct {
		DisplayName       string `json:"displayName"`
		Mail              string `json:"mail"`
		UserPrincipalName string `json:"userPrincipalName"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&profile); err != nil {
		c.log.Debug("profile response undecodable", logger.Error(err))
		return "", ""
	}

	email = profile.Mail
	if email == "" {
		email = profile.UserPrincipalName
	}
	return profile.DisplayName, email
}

// Scopes returns the ordered scope set the client requests.
func (c *Client) Scopes() []string {
	out := make([]string, len(c.oauth.Scopes))
	copy(out, c.oauth.Scopes)
	return out
}

// String implements fmt.Stringer without exposing the client secret.
func (c *Client) String() string {
	return fmt.Sprintf("msauth.Client(client_id=%s, redirect=%s)", c.oauth.ClientID, c.oauth.RedirectURL)
}
