// README: Request-scoped bearer token plumbing for outgoing backend calls.
package backend

import "context"

type tokenCtxKey struct{}

// WithToken attaches the caller's backend bearer token to the context so the
// client forwards it on outgoing requests. Auth middleware sets this once per
// request; nothing else holds token state.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenCtxKey{}, token)
}

// ContextToken is the TokenFunc reading the request-scoped token. An absent
// token is not an error: unauthenticated calls (login) simply go out bare.
func ContextToken(ctx context.Context) (string, error) {
	tok, _ := ctx.Value(tokenCtxKey{}).(string)
	return tok, nil
}
