package sqlite

import (
	"context"
	"strings"
	"time"

	"github.com/aboundTechOlogy/ghl-mcp/internal/bridge/domain"
	"github.com/aboundTechOlogy/ghl-mcp/internal/bridge/store/drivers/sqlite/gen"
	"github.com/aboundTechOlogy/ghl-mcp/pkg/cryptox"
)

type issuedTokensRepo struct {
	q *gen.Queries
}

func (r *issuedTokensRepo) SaveIssuedToken(ctx context.Context, t domain.IssuedToken) error {
	return r.q.SaveIssuedToken(ctx, gen.SaveIssuedTokenParams{
		TokenHash: cryptox.FingerprintToken(t.Token),
		ClientID:  t.ClientID,
		Scopes:    strings.Join(t.Scopes, " "),
		Resource:  mapStringNull(t.Resource),
		CreatedAt: toMillis(t.CreatedAt),
		ExpiresAt: toMillis(t.ExpiresAt),
	})
}

func (r *issuedTokensRepo) GetIssuedToken(ctx context.Context, token string, now time.Time) (domain.IssuedToken, error) {
	row, err := r.q.GetIssuedToken(ctx, gen.GetIssuedTokenParams{
		TokenHash: cryptox.FingerprintToken(token),
		ExpiresAt: toMillis(now),
	})
	if err != nil {
		return domain.IssuedToken{}, mapNotFound(err)
	}
	return domain.IssuedToken{
		Token:     token,
		ClientID:  row.ClientID,
		Scopes:    splitAndFilter(row.Scopes),
		Resource:  mapNullString(row.Resource),
		CreatedAt: fromMillis(row.CreatedAt),
		ExpiresAt: fromMillis(row.ExpiresAt),
	}, nil
}

func (r *issuedTokensRepo) DeleteIssuedToken(ctx context.Context, token string) error {
	return mapDeleted(r.q.DeleteIssuedToken(ctx, cryptox.FingerprintToken(token)))
}

func (r *issuedTokensRepo) DeleteExpiredIssuedTokens(ctx context.Context, now time.Time) (int64, error) {
	return r.q.DeleteExpiredIssuedTokens(ctx, toMillis(now))
}
