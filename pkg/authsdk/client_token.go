package authsdk

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// ExchangeAuthorizationCode exchanges an authorization code for an access token.
//
// Parameters:
//   - clientID: The OAuth2 client ID
//   - clientSecret: The client secret (only for confidential clients, use empty string for public clients)
//   - code: The authorization code received on the redirect URI
//   - redirectURI: Must match the redirect_uri used in the authorization request
//   - codeVerifier: The PKCE verifier from the original PKCEChallenge
func (c *SDKClient) ExchangeAuthorizationCode(
	ctx context.Context,
	clientID, clientSecret, code, redirectURI, codeVerifier string,
) (*TokenResponse, error) {
	data := url.Values{
		"grant_type":   {"authorization_code"},
		"client_id":    {clientID},
		"code":         {code},
		"redirect_uri": {redirectURI},
	}

	if clientSecret != "" {
		data.Set("client_secret", clientSecret)
	}

	if codeVerifier != "" {
		data.Set("code_verifier", codeVerifier)
	}

	return c.requestToken(ctx, data)
}

// RefreshGrant requests new tokens using a refresh token. The bridge does not
// issue refresh tokens, so this always yields unsupported_grant_type; it
// exists so hosts that try anyway get a typed error.
func (c *SDKClient) RefreshGrant(
	ctx context.Context,
	clientID, clientSecret, refreshToken string,
) (*TokenResponse, error) {
	data := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
		"client_id":     {clientID},
	}
	if clientSecret != "" {
		data.Set("client_secret", clientSecret)
	}

	return c.requestToken(ctx, data)
}

// RevokeToken revokes an access token (RFC 7009).
func (c *SDKClient) RevokeToken(ctx context.Context, clientID, clientSecret, token string) error {
	data := url.Values{
		"token":     {token},
		"client_id": {clientID},
	}
	if clientSecret != "" {
		data.Set("client_secret", clientSecret)
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/oauth/revoke",
		strings.NewReader(data.Encode()),
		map[string]string{"Content-Type": "application/x-www-form-urlencoded"},
	)
	if err != nil {
		return err
	}

	var ignored map[string]any
	return decodeJSON(resp, &ignored, http.StatusOK)
}

func (c *SDKClient) requestToken(ctx context.Context, data url.Values) (*TokenResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/oauth/token",
		strings.NewReader(data.Encode()),
		map[string]string{"Content-Type": "application/x-www-form-urlencoded"},
	)
	if err != nil {
		return nil, err
	}

	var tokenResp TokenResponse
	if err := decodeJSON(resp, &tokenResp, http.StatusOK); err != nil {
		return nil, fmt.Errorf("token request: %w", err)
	}

	return &tokenResp, nil
}
