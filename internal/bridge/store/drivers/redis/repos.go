package redis

import (
	"context"
	"time"

	"github.com/aboundTechOlogy/ghl-mcp/internal/bridge/domain"
	"github.com/aboundTechOlogy/ghl-mcp/internal/bridge/store"
)

type clientsRepo struct{ s *Store }

func (r *clientsRepo) GetClient(ctx context.Context, id string) (domain.Client, error) {
	var c domain.Client
	if err := r.s.getJSON(ctx, r.s.clientKey(id), &c); err != nil {
		return domain.Client{}, err
	}
	return c, nil
}

func (r *clientsRepo) UpsertClient(ctx context.Context, c domain.Client) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	return r.s.setJSON(ctx, r.s.clientKey(c.ID), c, time.Time{})
}

// storedCode omits the raw code; the key carries its fingerprint.
type storedCode struct {
	ClientID            string    `json:"client_id"`
	RedirectURI         string    `json:"redirect_uri"`
	Scopes              []string  `json:"scopes,omitempty"`
	Resource            string    `json:"resource,omitempty"`
	State               string    `json:"state,omitempty"`
	CodeChallenge       string    `json:"code_challenge,omitempty"`
	CodeChallengeMethod string    `json:"code_challenge_method,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
	ExpiresAt           time.Time `json:"expires_at"`
}

type authorizationCodesRepo struct{ s *Store }

func (r *authorizationCodesRepo) SaveAuthorizationCode(ctx context.Context, code domain.AuthorizationCode) error {
	return r.s.setJSON(ctx, r.s.codeKey(code.Code), storedCode{
		ClientID:            code.ClientID,
		RedirectURI:         code.RedirectURI,
		Scopes:              code.Scopes,
		Resource:            code.Resource,
		State:               code.State,
		CodeChallenge:       code.CodeChallenge,
		CodeChallengeMethod: code.CodeChallengeMethod,
		CreatedAt:           code.CreatedAt,
		ExpiresAt:           code.ExpiresAt,
	}, code.ExpiresAt)
}

func (r *authorizationCodesRepo) GetAuthorizationCode(ctx context.Context, code string, now time.Time) (domain.AuthorizationCode, error) {
	var sc storedCode
	if err := r.s.getJSON(ctx, r.s.codeKey(code), &sc); err != nil {
		return domain.AuthorizationCode{}, err
	}
	if !now.Before(sc.ExpiresAt) {
		return domain.AuthorizationCode{}, store.ErrNotFound
	}
	return domain.AuthorizationCode{
		Code:                code,
		ClientID:            sc.ClientID,
		RedirectURI:         sc.RedirectURI,
		Scopes:              sc.Scopes,
		Resource:            sc.Resource,
		State:               sc.State,
		CodeChallenge:       sc.CodeChallenge,
		CodeChallengeMethod: sc.CodeChallengeMethod,
		CreatedAt:           sc.CreatedAt,
		ExpiresAt:           sc.ExpiresAt,
	}, nil
}

func (r *authorizationCodesRepo) DeleteAuthorizationCode(ctx context.Context, code string) error {
	return r.s.del(ctx, r.s.codeKey(code))
}

// DeleteExpiredAuthorizationCodes is a no-op, Redis expires keys itself.
func (r *authorizationCodesRepo) DeleteExpiredAuthorizationCodes(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}

type storedToken struct {
	ClientID  string    `json:"client_id"`
	Scopes    []string  `json:"scopes,omitempty"`
	Resource  string    `json:"resource,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

type issuedTokensRepo struct{ s *Store }

func (r *issuedTokensRepo) SaveIssuedToken(ctx context.Context, t domain.IssuedToken) error {
	return r.s.setJSON(ctx, r.s.tokenKey(t.Token), storedToken{
		ClientID:  t.ClientID,
		Scopes:    t.Scopes,
		Resource:  t.Resource,
		CreatedAt: t.CreatedAt,
		ExpiresAt: t.ExpiresAt,
	}, t.ExpiresAt)
}

func (r *issuedTokensRepo) GetIssuedToken(ctx context.Context, token string, now time.Time) (domain.IssuedToken, error) {
	var st storedToken
	if err := r.s.getJSON(ctx, r.s.tokenKey(token), &st); err != nil {
		return domain.IssuedToken{}, err
	}
	if !now.Before(st.ExpiresAt) {
		return domain.IssuedToken{}, store.ErrNotFound
	}
	return domain.IssuedToken{
		Token:     token,
		ClientID:  st.ClientID,
		Scopes:    st.Scopes,
		Resource:  st.Resource,
		CreatedAt: st.CreatedAt,
		ExpiresAt: st.ExpiresAt,
	}, nil
}

func (r *issuedTokensRepo) DeleteIssuedToken(ctx context.Context, token string) error {
	return r.s.del(ctx, r.s.tokenKey(token))
}

func (r *issuedTokensRepo) DeleteExpiredIssuedTokens(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}
