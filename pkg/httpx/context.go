package httpx

import "context"

type ctxKey string

const (
	CtxKeyPrincipal ctxKey = "principal"
	CtxKeyClientID  ctxKey = "client_id"
	CtxKeyScopes    ctxKey = "scopes"
)

// Principal is the authenticated caller attached to a request context.
type Principal struct {
	// Credential is the raw bearer value the caller presented.
	Credential string
	ClientID   string
	Scopes     []string

	// Static is true when the caller authenticated with the shared static
	// token rather than an issued OAuth token.
	Static bool
}

// ContextWithPrincipal stores p on ctx along with its client id and scopes.
func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	ctx = context.WithValue(ctx, CtxKeyPrincipal, p)
	ctx = context.WithValue(ctx, CtxKeyClientID, p.ClientID)
	ctx = context.WithValue(ctx, CtxKeyScopes, p.Scopes)
	return ctx
}

// PrincipalFromContext returns the principal set by ContextWithPrincipal.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(CtxKeyPrincipal).(Principal)
	return p, ok
}
