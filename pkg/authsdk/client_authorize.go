package authsdk

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/aboundTechOlogy/ghl-mcp/pkg/cryptox"
)

// PKCEChallenge holds the PKCE verifier and challenge pair.
// The verifier is kept secret by the client, and the challenge is sent to the authorization endpoint.
type PKCEChallenge struct {
	// Verifier is the high-entropy cryptographic random string (kept secret)
	Verifier string

	// Challenge is the base64url-encoded SHA256 hash of the verifier (sent to server)
	Challenge string

	// Method is always "S256" for SHA256
	Method string
}

// GeneratePKCEChallenge creates a new PKCE code verifier and challenge pair.
// The verifier carries 256 bits of entropy; the challenge is its RFC 7636 S256 hash.
func GeneratePKCEChallenge() (*PKCEChallenge, error) {
	verifier, err := cryptox.NewToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate PKCE verifier: %w", err)
	}

	return &PKCEChallenge{
		Verifier:  verifier,
		Challenge: cryptox.S256Challenge(verifier),
		Method:    "S256",
	}, nil
}

// BuildAuthorizeURL constructs the bridge's /oauth/authorize URL. The bridge
// requires a PKCE challenge, so pkce should only be nil in negative tests.
func (c *SDKClient) BuildAuthorizeURL(
	clientID, redirectURI, state string,
	scopes []string,
	pkce *PKCEChallenge,
) string {
	params := url.Values{}
	params.Set("response_type", "code")
	params.Set("client_id", clientID)
	params.Set("redirect_uri", redirectURI)

	if state != "" {
		params.Set("state", state)
	}

	if len(scopes) > 0 {
		params.Set("scope", strings.Join(scopes, " "))
	}

	if pkce != nil {
		params.Set("code_challenge", pkce.Challenge)
		params.Set("code_challenge_method", pkce.Method)
	}

	return fmt.Sprintf("%s/oauth/authorize?%s", c.BaseURL, params.Encode())
}

// StartAuthorization hits /oauth/authorize without following the redirect
// and returns the identity provider URL the browser would be sent to.
func (c *SDKClient) StartAuthorization(
	ctx context.Context,
	clientID, redirectURI, state string,
	scopes []string,
	pkce *PKCEChallenge,
) (*url.URL, error) {
	authURL := c.BuildAuthorizeURL(clientID, redirectURI, state, scopes, pkce)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, authURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.noRedirect().Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusFound {
		bodyBytes, _ := io.ReadAll(resp.Body)
		if err := parseErrorResponse(resp, bodyBytes); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("authorize request returned status %d", resp.StatusCode)
	}

	location := resp.Header.Get("Location")
	if location == "" {
		return nil, fmt.Errorf("redirect response missing Location header")
	}

	target, err := url.Parse(location)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redirect URL: %w", err)
	}

	// Errors after redirect_uri validation come back on the caller's URI.
	if errorCode := target.Query().Get("error"); errorCode != "" {
		return nil, NewOAuth2Error(http.StatusBadRequest, errorCode, target.Query().Get("error_description"))
	}

	return target, nil
}

// ParseAuthorizationCallback parses the callback URL from an authorization redirect.
// This extracts the authorization code and state from the redirect URL query parameters.
//
// Returns the authorization code and state, or an error if the callback contains an error response.
func ParseAuthorizationCallback(callbackURL string) (code, state string, err error) {
	u, err := url.Parse(callbackURL)
	if err != nil {
		return "", "", fmt.Errorf("failed to parse callback URL: %w", err)
	}

	query := u.Query()

	if errorCode := query.Get("error"); errorCode != "" {
		errorDesc := query.Get("error_description")
		return "", "", fmt.Errorf("authorization error: %s - %s", errorCode, errorDesc)
	}

	code = query.Get("code")
	if code == "" {
		return "", "", fmt.Errorf("callback missing authorization code")
	}

	state = query.Get("state")

	return code, state, nil
}
