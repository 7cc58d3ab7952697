package database

import "context"

type contextKey string

// ScopeKey is the context key for the request-scoped database connection.
const ScopeKey contextKey = "dbScope"

// GetScope retrieves the request-scoped connection from context.
// Returns nil and false if not present.
func GetScope(ctx context.Context) (*Scope, bool) {
	scope, ok := ctx.Value(ScopeKey).(*Scope)
	return scope, ok && scope != nil
}

// SetScope stores a request-scoped connection in context.
func SetScope(ctx context.Context, scope *Scope) context.Context {
	return context.WithValue(ctx, ScopeKey, scope)
}

// WithScope acquires a connection, runs fn with it in context and releases it.
// A nil db runs fn with ctx unchanged.
func (db *DB) WithScope(ctx context.Context, fn func(ctx context.Context) error) error {
	if db == nil {
		return fn(ctx)
	}
	scope, err := db.Acquire(ctx)
	if err != nil {
		return err
	}
	defer scope.Close()
	return fn(SetScope(ctx, scope))
}
