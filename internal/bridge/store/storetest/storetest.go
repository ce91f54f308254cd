// Package storetest holds the behaviour every store driver must share.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/aboundTechOlogy/ghl-mcp/internal/bridge/domain"
	"github.com/aboundTechOlogy/ghl-mcp/internal/bridge/store"
	"github.com/aboundTechOlogy/ghl-mcp/pkg/cryptox"
	"github.com/aboundTechOlogy/ghl-mcp/pkg/idx"
	"github.com/stretchr/testify/require"
)

func newToken(t *testing.T) string {
	t.Helper()
	token, err := cryptox.NewToken()
	require.NoError(t, err)
	return token
}

// Factory returns a fresh, migrated store for one subtest.
type Factory func(t *testing.T) store.Store

// Run exercises clients, codes and tokens against the driver built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("clients", func(t *testing.T) { testClients(t, newStore(t)) })
	t.Run("authorization codes", func(t *testing.T) { testAuthorizationCodes(t, newStore(t)) })
	t.Run("issued tokens", func(t *testing.T) { testIssuedTokens(t, newStore(t)) })
	t.Run("transactions", func(t *testing.T) { testWithTx(t, newStore(t)) })
}

func testClients(t *testing.T, s store.Store) {
	ctx := context.Background()

	_, err := s.Clients().GetClient(ctx, "missing")
	require.ErrorIs(t, err, store.ErrNotFound)

	c := domain.Client{
		ID:                      idx.New(),
		RedirectURIs:            []string{"https://app.example/cb"},
		Name:                    "agent",
		GrantTypes:              []string{"authorization_code"},
		ResponseTypes:           []string{"code"},
		TokenEndpointAuthMethod: domain.AuthMethodNone,
		CreatedAt:               time.Now().UTC().Truncate(time.Millisecond),
	}
	require.NoError(t, s.Clients().UpsertClient(ctx, c))

	got, err := s.Clients().GetClient(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, c.RedirectURIs, got.RedirectURIs)
	require.Equal(t, "agent", got.Name)
	require.True(t, got.CreatedAt.Equal(c.CreatedAt))

	// Upsert replaces wholesale
	c.Name = ""
	c.RedirectURIs = []string{"https://other.example/cb"}
	require.NoError(t, s.Clients().UpsertClient(ctx, c))

	got, err = s.Clients().GetClient(ctx, c.ID)
	require.NoError(t, err)
	require.Empty(t, got.Name)
	require.Equal(t, []string{"https://other.example/cb"}, got.RedirectURIs)
}

func testAuthorizationCodes(t *testing.T, s store.Store) {
	ctx := context.Background()
	now := time.Now()
	repo := s.AuthorizationCodes()

	code := domain.AuthorizationCode{
		Code:                newToken(t),
		ClientID:            "client-a",
		RedirectURI:         "https://app.example/cb",
		Scopes:              []string{"mcp:tools", "mcp:read"},
		Resource:            "https://bridge.example/mcp",
		State:               "caller-state",
		CodeChallenge:       "challenge",
		CodeChallengeMethod: "S256",
		CreatedAt:           now,
		ExpiresAt:           now.Add(10 * time.Minute),
	}
	require.NoError(t, repo.SaveAuthorizationCode(ctx, code))

	got, err := repo.GetAuthorizationCode(ctx, code.Code, now)
	require.NoError(t, err)
	require.Equal(t, code.Code, got.Code)
	require.Equal(t, "client-a", got.ClientID)
	require.Equal(t, []string{"mcp:tools", "mcp:read"}, got.Scopes)
	require.Equal(t, "https://bridge.example/mcp", got.Resource)
	require.Equal(t, "caller-state", got.State)
	require.Equal(t, "challenge", got.CodeChallenge)
	require.Equal(t, "S256", got.CodeChallengeMethod)
	require.WithinDuration(t, code.ExpiresAt, got.ExpiresAt, time.Millisecond)

	t.Run("expired codes are invisible before any sweep", func(t *testing.T) {
		_, err := repo.GetAuthorizationCode(ctx, code.Code, now.Add(11*time.Minute))
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("unknown code", func(t *testing.T) {
		_, err := repo.GetAuthorizationCode(ctx, "nope", now)
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("delete is single use", func(t *testing.T) {
		require.NoError(t, repo.DeleteAuthorizationCode(ctx, code.Code))
		require.ErrorIs(t, repo.DeleteAuthorizationCode(ctx, code.Code), store.ErrNotFound)

		_, err := repo.GetAuthorizationCode(ctx, code.Code, now)
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}

func testIssuedTokens(t *testing.T, s store.Store) {
	ctx := context.Background()
	now := time.Now()
	repo := s.IssuedTokens()

	tok := domain.IssuedToken{
		Token:     newToken(t),
		ClientID:  "client-a",
		Scopes:    []string{"mcp:tools"},
		CreatedAt: now,
		ExpiresAt: now.Add(time.Hour),
	}
	require.NoError(t, repo.SaveIssuedToken(ctx, tok))

	got, err := repo.GetIssuedToken(ctx, tok.Token, now)
	require.NoError(t, err)
	require.Equal(t, tok.Token, got.Token)
	require.Equal(t, "client-a", got.ClientID)
	require.Equal(t, []string{"mcp:tools"}, got.Scopes)
	require.Empty(t, got.Resource)

	_, err = repo.GetIssuedToken(ctx, tok.Token, now.Add(time.Hour))
	require.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, repo.DeleteIssuedToken(ctx, tok.Token))
	require.ErrorIs(t, repo.DeleteIssuedToken(ctx, tok.Token), store.ErrNotFound)
}

func testWithTx(t *testing.T, s store.Store) {
	ctx := context.Background()
	now := time.Now()

	code := domain.AuthorizationCode{
		Code:        "tx-code",
		ClientID:    "client-a",
		RedirectURI: "https://app.example/cb",
		CreatedAt:   now,
		ExpiresAt:   now.Add(time.Minute),
	}
	require.NoError(t, s.AuthorizationCodes().SaveAuthorizationCode(ctx, code))

	err := s.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.AuthorizationCodes().DeleteAuthorizationCode(ctx, code.Code); err != nil {
			return err
		}
		return tx.IssuedTokens().SaveIssuedToken(ctx, domain.IssuedToken{
			Token:     "tx-token",
			ClientID:  "client-a",
			CreatedAt: now,
			ExpiresAt: now.Add(time.Hour),
		})
	})
	require.NoError(t, err)

	_, err = s.AuthorizationCodes().GetAuthorizationCode(ctx, code.Code, now)
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.IssuedTokens().GetIssuedToken(ctx, "tx-token", now)
	require.NoError(t, err)
}
