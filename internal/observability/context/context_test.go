package context

import (
	"context"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestScopedValues(t *testing.T) {
	ctx := WithRequestID(context.Background(), " req-1 ")
	ctx = WithOrgID(ctx, "42")
	ctx = WithActor(ctx, ActorTypeUser, "7")

	assert.Equal(t, "req-1", RequestIDFromContext(ctx))
	assert.Equal(t, "42", OrgIDFromContext(ctx))
	actorType, actorID := ActorFromContext(ctx)
	assert.Equal(t, ActorTypeUser, actorType)
	assert.Equal(t, "7", actorID)
}

func TestEnsureCorrelationIDIsStable(t *testing.T) {
	ctx, first := EnsureCorrelationID(context.Background())
	_, err := ulid.Parse(first)
	require.NoError(t, err)

	_, second := EnsureCorrelationID(ctx)
	assert.Equal(t, first, second)
}

func TestEmptyContext(t *testing.T) {
	ctx := WithRequestID(context.Background(), "  ")
	assert.Empty(t, RequestIDFromContext(ctx))
	actorType, actorID := ActorFromContext(ctx)
	assert.Empty(t, actorType)
	assert.Empty(t, actorID)
}
