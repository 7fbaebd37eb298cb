package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveOwner(t *testing.T) {
	owner := uuid.New()
	scoped := ContextWithOwnerID(context.Background(), owner)

	got, err := ResolveOwner(scoped, "")
	require.NoError(t, err)
	assert.Equal(t, owner, got)

	got, err = ResolveOwner(scoped, owner.String())
	require.NoError(t, err)
	assert.Equal(t, owner, got)

	_, err = ResolveOwner(scoped, uuid.NewString())
	assert.Error(t, err)

	_, err = ResolveOwner(context.Background(), "")
	assert.Error(t, err)

	_, err = ResolveOwner(context.Background(), "not-a-uuid")
	assert.Error(t, err)
}

func TestOwnerScopeMiddleware(t *testing.T) {
	owner := uuid.New()
	var seen uuid.UUID
	var scoped bool
	handler := OwnerScopeMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, scoped = OwnerIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(OwnerHeader, owner.String())
	handler.ServeHTTP(httptest.NewRecorder(), req)
	assert.True(t, scoped)
	assert.Equal(t, owner, seen)

	scoped = false
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.False(t, scoped)

	bad := httptest.NewRequest(http.MethodGet, "/", nil)
	bad.Header.Set(OwnerHeader, "nope")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, bad)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
