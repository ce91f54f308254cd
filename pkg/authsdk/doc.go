/*
Package authsdk provides a client SDK for the GHL MCP bridge's OAuth 2.1
authorization server and health endpoints, plus the OAuth2Error type the
server uses to write RFC 6749 error responses.

# Overview

An MCP host authorizes against the bridge in four steps:

	client := authsdk.NewSDKClient("https://bridge.example.com")

	// 1. Register (RFC 7591)
	reg, err := client.Register(ctx, authsdk.RegistrationRequest{
		RedirectURIs: []string{"https://host.example.com/callback"},
		ClientName:   "my-agent",
	})

	// 2. Send the user's browser to the authorize URL (GitHub login follows)
	pkce, _ := authsdk.GeneratePKCEChallenge()
	url := client.BuildAuthorizeURL(reg.ClientID, redirectURI, state, nil, pkce)

	// 3. Pull the code off the redirect
	code, returnedState, err := authsdk.ParseAuthorizationCallback(callbackURL)

	// 4. Exchange it
	tokens, err := client.ExchangeAuthorizationCode(ctx, reg.ClientID, reg.ClientSecret, code, redirectURI, pkce.Verifier)

The access token is then presented as "Authorization: Bearer <token>" on
POST /mcp. Tokens live for one hour and are not refreshable; re-run the flow.

# Error Handling

Every non-success response is returned as *OAuth2Error:

	var oauthErr *authsdk.OAuth2Error
	if errors.As(err, &oauthErr) && oauthErr.Code == authsdk.ErrorCodeInvalidGrant {
		// code was already used or has expired
	}
*/
package authsdk
