package audit

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLatestNewestFirst(t *testing.T) {
	var m Memory
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, m.Record(ctx, Entry{Actor: "mod", Action: ActionCreate, Entity: "groups", EntityID: 1, At: base}))
	require.NoError(t, m.Record(ctx, Entry{Actor: "mod", Action: ActionDelete, Entity: "posts", EntityID: 2, At: base.Add(time.Hour)}))
	require.NoError(t, m.Record(ctx, Entry{Actor: "mod", Action: ActionUpdate, Entity: "posts", EntityID: 3}))

	latest, err := m.Latest(ctx, 2)
	require.NoError(t, err)
	require.Len(t, latest, 2)
	assert.Equal(t, uint(3), latest[0].EntityID)
	assert.Equal(t, uint(2), latest[1].EntityID)
}

func TestMongoRoundTrip(t *testing.T) {
	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		t.Skip("Skipping test - no MongoDB connection configured")
	}
	ctx := context.Background()
	m, err := ConnectMongo(ctx, uri, "yatube_test", slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = m.coll.Drop(ctx)
		_ = m.Disconnect(ctx)
	})

	require.NoError(t, m.Record(ctx, Entry{Actor: "mod", Action: ActionDelete, Entity: "posts", EntityID: 9,
		Details: map[string]any{"text": "spam"}}))

	latest, err := m.Latest(ctx, 10)
	require.NoError(t, err)
	require.NotEmpty(t, latest)
	assert.Equal(t, "mod", latest[0].Actor)
	assert.Equal(t, uint(9), latest[0].EntityID)
}
