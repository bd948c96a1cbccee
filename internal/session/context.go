package session

import (
	"context"
	"fmt"
)

type contextKey struct{}

// WithID returns a copy of ctx carrying the session id.
func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

func IDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(contextKey{}).(string)
	return id
}

// Lookuper resolves a session id.
type Lookuper interface {
	Lookup(ctx context.Context, id string) (*Data, error)
}

// TokenProvider hands out the Graph token of the session found in the
// request context. It satisfies graph.TokenProvider.
type TokenProvider struct {
	sessions Lookuper
}

func NewTokenProvider(sessions Lookuper) *TokenProvider {
	return &TokenProvider{sessions: sessions}
}

func (p *TokenProvider) Token(ctx context.Context, audience string) (string, error) {
	id := IDFromContext(ctx)
	if id == "" {
		return "", fmt.Errorf("no session in context")
	}

	data, err := p.sessions.Lookup(ctx, id)
	if err != nil {
		return "", err
	}

	token := data.Tokens[audience]
	if token == "" {
		return "", fmt.Errorf("session has no token for %s", audience)
	}
	return token, nil
}
