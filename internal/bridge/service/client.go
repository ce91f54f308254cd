package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/aboundTechOlogy/ghl-mcp/internal/bridge/domain"
	"github.com/aboundTechOlogy/ghl-mcp/internal/bridge/store"
	"github.com/aboundTechOlogy/ghl-mcp/pkg/cryptox"
	"github.com/aboundTechOlogy/ghl-mcp/pkg/idx"
	"github.com/aboundTechOlogy/ghl-mcp/pkg/slogx"
)

var (
	ErrInvalidRedirectURI    = errors.New("invalid_redirect_uri")
	ErrInvalidClientMetadata = errors.New("invalid_client_metadata")
)

// RegistrationRequest is the validated input to dynamic client registration.
type RegistrationRequest struct {
	RedirectURIs            []string
	ClientName              string
	GrantTypes              []string
	ResponseTypes           []string
	TokenEndpointAuthMethod string
	Scope                   string
}

// ClientService handles dynamic client registration (RFC 7591) and client
// authentication at the token endpoint.
type ClientService struct {
	Store store.Store
}

// Register validates and stores a new client. For confidential clients the
// plaintext secret is returned once and only its argon2id hash is kept.
func (s *ClientService) Register(ctx context.Context, req RegistrationRequest) (domain.Client, string, error) {
	l := slogx.FromContext(ctx)

	if len(req.RedirectURIs) == 0 {
		return domain.Client{}, "", fmt.Errorf("%w: redirect_uris is required", ErrInvalidRedirectURI)
	}
	for _, uri := range req.RedirectURIs {
		if err := validateRedirectURI(uri); err != nil {
			return domain.Client{}, "", err
		}
	}

	method := strings.TrimSpace(req.TokenEndpointAuthMethod)
	if method == "" {
		method = domain.AuthMethodSecretPost
	}
	if method != domain.AuthMethodNone && method != domain.AuthMethodSecretPost {
		return domain.Client{}, "", fmt.Errorf("%w: unsupported token_endpoint_auth_method %q", ErrInvalidClientMetadata, method)
	}

	grantTypes := req.GrantTypes
	if len(grantTypes) == 0 {
		grantTypes = []string{"authorization_code", "refresh_token"}
	}
	if !slices.Contains(grantTypes, "authorization_code") {
		return domain.Client{}, "", fmt.Errorf("%w: grant_types must include authorization_code", ErrInvalidClientMetadata)
	}

	responseTypes := req.ResponseTypes
	if len(responseTypes) == 0 {
		responseTypes = []string{"code"}
	}
	if !slices.Equal(responseTypes, []string{"code"}) {
		return domain.Client{}, "", fmt.Errorf("%w: response_types must be [code]", ErrInvalidClientMetadata)
	}

	client := domain.Client{
		ID:                      idx.New(),
		RedirectURIs:            slices.Clone(req.RedirectURIs),
		Name:                    strings.TrimSpace(req.ClientName),
		GrantTypes:              grantTypes,
		ResponseTypes:           responseTypes,
		TokenEndpointAuthMethod: method,
		Scope:                   strings.TrimSpace(req.Scope),
		CreatedAt:               time.Now().UTC(),
	}

	var plaintextSecret string
	if method == domain.AuthMethodSecretPost {
		secret, err := cryptox.NewToken()
		if err != nil {
			l.Error("failed to generate client secret", "error", err)
			return domain.Client{}, "", err
		}
		hash, err := cryptox.HashSecret(secret)
		if err != nil {
			l.Error("failed to hash client secret", "error", err)
			return domain.Client{}, "", err
		}
		plaintextSecret = secret
		client.SecretHash = hash
	}

	if err := s.Store.Clients().UpsertClient(ctx, client); err != nil {
		l.Error("failed to store client", "error", err)
		return domain.Client{}, "", err
	}

	l.Info("client registered", "client_id", client.ID, "name", client.Name, "auth_method", method)
	return client, plaintextSecret, nil
}

// GetClient loads a registered client. Unknown ids map to ErrInvalidClient.
func (s *ClientService) GetClient(ctx context.Context, clientID string) (domain.Client, error) {
	if strings.TrimSpace(clientID) == "" {
		return domain.Client{}, domain.ErrInvalidClient
	}
	client, err := s.Store.Clients().GetClient(ctx, clientID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Client{}, domain.ErrInvalidClient
		}
		return domain.Client{}, err
	}
	return client, nil
}

// Authenticate loads the client and, for confidential clients, checks the
// presented secret.
func (s *ClientService) Authenticate(ctx context.Context, clientID, secret string) (domain.Client, error) {
	client, err := s.GetClient(ctx, clientID)
	if err != nil {
		return domain.Client{}, err
	}

	if client.IsPublic() {
		return client, nil
	}

	if secret == "" || cryptox.VerifySecret(secret, client.SecretHash) != nil {
		slogx.FromContext(ctx).Info("client authentication failed", "client_id", clientID)
		return domain.Client{}, domain.ErrInvalidClient
	}
	if !client.SecretExpiresAt.IsZero() && time.Now().After(client.SecretExpiresAt) {
		return domain.Client{}, domain.ErrInvalidClient
	}
	return client, nil
}

// validateRedirectURI accepts absolute https URIs, and http only for
// loopback hosts used by native clients.
func validateRedirectURI(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("%w: %q is not an absolute URI", ErrInvalidRedirectURI, raw)
	}
	if u.Fragment != "" {
		return fmt.Errorf("%w: %q must not contain a fragment", ErrInvalidRedirectURI, raw)
	}

	switch u.Scheme {
	case "https":
		return nil
	case "http":
		host := u.Hostname()
		if host == "localhost" {
			return nil
		}
		if ip := net.ParseIP(host); ip != nil && ip.IsLoopback() {
			return nil
		}
		return fmt.Errorf("%w: %q must use https", ErrInvalidRedirectURI, raw)
	default:
		return fmt.Errorf("%w: unsupported scheme %q", ErrInvalidRedirectURI, u.Scheme)
	}
}
