// Package idp talks to the identity provider that logs callers in.
package idp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aboundTechOlogy/ghl-mcp/internal/bridge/domain"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

const (
	// DefaultHTTPTimeout bounds each GitHub round-trip.
	DefaultHTTPTimeout = 30 * time.Second

	// DefaultAPIURL is the GitHub REST API root.
	DefaultAPIURL = "https://api.github.com"

	// LoginScopes is what the bridge asks GitHub for.
	LoginScopes = "read:user user:email"

	provider = "github"
)

// GitHubUser is the subset of /user the bridge logs for audit.
type GitHubUser struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
	Email string `json:"email,omitempty"`
}

type githubTokenResponse struct {
	AccessToken      string `json:"access_token"`
	TokenType        string `json:"token_type"`
	Scope            string `json:"scope"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// GitHub drives the GitHub side of the caller login.
type GitHub struct {
	oauth      *oauth2.Config
	apiURL     string
	httpClient *http.Client
	logger     *slog.Logger
}

// GitHubOption configures a GitHub client.
type GitHubOption func(*GitHub)

// WithEndpoints overrides the GitHub web and API roots.
func WithEndpoints(authURL, tokenURL, apiURL string) GitHubOption {
	return func(g *GitHub) {
		g.oauth.Endpoint.AuthURL = authURL
		g.oauth.Endpoint.TokenURL = tokenURL
		g.apiURL = strings.TrimSuffix(apiURL, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) GitHubOption {
	return func(g *GitHub) {
		g.httpClient = httpClient
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) GitHubOption {
	return func(g *GitHub) {
		g.logger = logger
	}
}

// NewGitHub creates a client for the given GitHub OAuth app. redirectURI is
// the bridge's /oauth/callback.
func NewGitHub(clientID, clientSecret, redirectURI string, opts ...GitHubOption) *GitHub {
	g := &GitHub{
		oauth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURI,
			Endpoint:     github.Endpoint,
			Scopes:       []string{LoginScopes},
		},
		apiURL:     DefaultAPIURL,
		httpClient: &http.Client{Timeout: DefaultHTTPTimeout},
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// AuthCodeURL returns the GitHub login URL carrying state.
func (g *GitHub) AuthCodeURL(state string) string {
	return g.oauth.AuthCodeURL(state)
}

// Exchange trades a GitHub code for a GitHub access token. GitHub reports
// failures as a 200 with an error field, so both shapes are checked.
func (g *GitHub) Exchange(ctx context.Context, code string) (string, error) {
	payload, err := json.Marshal(map[string]string{
		"client_id":     g.oauth.ClientID,
		"client_secret": g.oauth.ClientSecret,
		"code":          code,
		"redirect_uri":  g.oauth.RedirectURL,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode token request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.oauth.Endpoint.TokenURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("github token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &domain.UpstreamAuthError{Provider: provider, StatusCode: resp.StatusCode, Body: string(body)}
	}

	var tok githubTokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return "", fmt.Errorf("failed to parse token response: %w", err)
	}
	if tok.Error != "" {
		msg := tok.ErrorDescription
		if msg == "" {
			msg = tok.Error
		}
		return "", &domain.UpstreamAuthError{Provider: provider, Body: msg}
	}
	if tok.AccessToken == "" {
		return "", &domain.UpstreamAuthError{Provider: provider, Body: "response missing access_token"}
	}

	return tok.AccessToken, nil
}

// User fetches the authenticated GitHub user.
func (g *GitHub) User(ctx context.Context, accessToken string) (GitHubUser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.apiURL+"/user", nil)
	if err != nil {
		return GitHubUser{}, fmt.Errorf("failed to create user request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return GitHubUser{}, fmt.Errorf("github user request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return GitHubUser{}, &domain.UpstreamAuthError{Provider: provider, StatusCode: resp.StatusCode, Body: string(body)}
	}

	var user GitHubUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return GitHubUser{}, fmt.Errorf("failed to parse user response: %w", err)
	}
	return user, nil
}
