package sqlite

import (
	"context"
	"strings"
	"time"

	"github.com/aboundTechOlogy/ghl-mcp/internal/bridge/domain"
	"github.com/aboundTechOlogy/ghl-mcp/internal/bridge/store/drivers/sqlite/gen"
	"github.com/aboundTechOlogy/ghl-mcp/pkg/cryptox"
)

type authorizationCodesRepo struct {
	q *gen.Queries
}

func (r *authorizationCodesRepo) SaveAuthorizationCode(ctx context.Context, code domain.AuthorizationCode) error {
	return r.q.SaveAuthorizationCode(ctx, gen.SaveAuthorizationCodeParams{
		CodeHash:            cryptox.FingerprintToken(code.Code),
		ClientID:            code.ClientID,
		RedirectUri:         code.RedirectURI,
		Scopes:              strings.Join(code.Scopes, " "),
		Resource:            mapStringNull(code.Resource),
		State:               mapStringNull(code.State),
		CodeChallenge:       code.CodeChallenge,
		CodeChallengeMethod: code.CodeChallengeMethod,
		CreatedAt:           toMillis(code.CreatedAt),
		ExpiresAt:           toMillis(code.ExpiresAt),
	})
}

func (r *authorizationCodesRepo) GetAuthorizationCode(ctx context.Context, code string, now time.Time) (domain.AuthorizationCode, error) {
	row, err := r.q.GetAuthorizationCode(ctx, gen.GetAuthorizationCodeParams{
		CodeHash:  cryptox.FingerprintToken(code),
		ExpiresAt: toMillis(now),
	})
	if err != nil {
		return domain.AuthorizationCode{}, mapNotFound(err)
	}
	return mapAuthorizationCode(code, row), nil
}

func (r *authorizationCodesRepo) DeleteAuthorizationCode(ctx context.Context, code string) error {
	return mapDeleted(r.q.DeleteAuthorizationCode(ctx, cryptox.FingerprintToken(code)))
}

func (r *authorizationCodesRepo) DeleteExpiredAuthorizationCodes(ctx context.Context, now time.Time) (int64, error) {
	return r.q.DeleteExpiredAuthorizationCodes(ctx, toMillis(now))
}

func mapAuthorizationCode(raw string, row gen.OauthCode) domain.AuthorizationCode {
	return domain.AuthorizationCode{
		Code:                raw,
		ClientID:            row.ClientID,
		RedirectURI:         row.RedirectUri,
		Scopes:              splitAndFilter(row.Scopes),
		Resource:            mapNullString(row.Resource),
		State:               mapNullString(row.State),
		CodeChallenge:       row.CodeChallenge,
		CodeChallengeMethod: row.CodeChallengeMethod,
		CreatedAt:           fromMillis(row.CreatedAt),
		ExpiresAt:           fromMillis(row.ExpiresAt),
	}
}
