package store

import (
	"context"
	"errors"
	"time"

	"github.com/aboundTechOlogy/ghl-mcp/internal/bridge/domain"
)

var ErrNotFound = errors.New("store: not found")

// Store is the root data access interface for caller-side OAuth state.
// Concrete drivers (sqlite, redis) implement this. Repositories are exposed
// as methods so a Tx-scoped Store hands out Tx-scoped repos.
type Store interface {
	Clients() Clients
	AuthorizationCodes() AuthorizationCodes
	IssuedTokens() IssuedTokens

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the backend connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Clients interface {
	// GetClient fetches a registered client by id.
	GetClient(ctx context.Context, id string) (domain.Client, error)

	// UpsertClient replaces the registration wholesale.
	UpsertClient(ctx context.Context, c domain.Client) error
}

// AuthorizationCodes persists single-use codes. Raw code values are
// fingerprinted by the driver; callers always pass and receive raw values.
type AuthorizationCodes interface {
	// SaveAuthorizationCode inserts or replaces a code.
	SaveAuthorizationCode(ctx context.Context, code domain.AuthorizationCode) error

	// GetAuthorizationCode returns the code only while now < expires_at.
	GetAuthorizationCode(ctx context.Context, code string, now time.Time) (domain.AuthorizationCode, error)

	// DeleteAuthorizationCode removes a code. Returns ErrNotFound if it was
	// already gone, which makes it the single-use guard.
	DeleteAuthorizationCode(ctx context.Context, code string) error

	// DeleteExpiredAuthorizationCodes is housekeeping. Returns rows removed.
	DeleteExpiredAuthorizationCodes(ctx context.Context, now time.Time) (int64, error)
}

// IssuedTokens persists caller-facing access tokens.
type IssuedTokens interface {
	SaveIssuedToken(ctx context.Context, t domain.IssuedToken) error

	// GetIssuedToken returns the token only while now < expires_at.
	GetIssuedToken(ctx context.Context, token string, now time.Time) (domain.IssuedToken, error)

	// DeleteIssuedToken returns ErrNotFound if the token was already gone.
	DeleteIssuedToken(ctx context.Context, token string) error

	DeleteExpiredIssuedTokens(ctx context.Context, now time.Time) (int64, error)
}
