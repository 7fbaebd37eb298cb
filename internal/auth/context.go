package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

type contextKey string

const ownerIDKey contextKey = "ownerID"

// OwnerHeader carries the authenticated owner (tenant) set by the upstream gateway.
const OwnerHeader = "X-Owner-ID"

// ContextWithOwnerID returns a new context that carries the authenticated owner scope.
func ContextWithOwnerID(ctx context.Context, id uuid.UUID) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ownerIDKey, id)
}

// OwnerIDFromContext retrieves the authenticated owner scope from the context, if any.
func OwnerIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	if ctx == nil {
		return uuid.Nil, false
	}
	value := ctx.Value(ownerIDKey)
	if value == nil {
		return uuid.Nil, false
	}
	id, ok := value.(uuid.UUID)
	if !ok {
		return uuid.Nil, false
	}
	if id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

// EnforceOwnerScope ensures the provided owner matches the authenticated scope when present.
func EnforceOwnerScope(ctx context.Context, ownerID uuid.UUID) error {
	if ownerID == uuid.Nil {
		return fmt.Errorf("ownerId is required")
	}
	scopedID, ok := OwnerIDFromContext(ctx)
	if !ok {
		return nil
	}
	if scopedID != ownerID {
		return fmt.Errorf("ownerId %s does not match authenticated scope", ownerID)
	}
	return nil
}

// ResolveOwner picks the owner for a request: the authenticated scope when present,
// otherwise the explicit value, which must then parse as a UUID.
func ResolveOwner(ctx context.Context, explicit string) (uuid.UUID, error) {
	explicit = strings.TrimSpace(explicit)
	if explicit == "" {
		if scoped, ok := OwnerIDFromContext(ctx); ok {
			return scoped, nil
		}
		return uuid.Nil, fmt.Errorf("ownerId is required")
	}
	id, err := uuid.Parse(explicit)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid owner id: %w", err)
	}
	if err := EnforceOwnerScope(ctx, id); err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

// OwnerScopeMiddleware reads OwnerHeader into the request context. Requests with a
// malformed header are rejected; requests without one pass through unscoped.
func OwnerScopeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimSpace(r.Header.Get(OwnerHeader))
		if raw == "" {
			next.ServeHTTP(w, r)
			return
		}
		id, err := uuid.Parse(raw)
		if err != nil || id == uuid.Nil {
			http.Error(w, "invalid "+OwnerHeader+" header", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithOwnerID(r.Context(), id)))
	})
}
