package storage

import (
	"context"
	"testing"
	"time"

	"github.com/InQaaaaGit/supportgen/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testRecord(id, sessionID string, created time.Time) models.AgentRecord {
	return models.AgentRecord{
		ID:          id,
		SessionID:   sessionID,
		URLs:        []string{"https://docs.example.com"},
		RawPhone:    "+14155552671",
		PhoneNumber: "+1 415 555 2671",
		CreatedAt:   created,
	}
}

func TestMemoryStorage_SaveAgent(t *testing.T) {
	storage := NewMemoryStorage(zap.NewNop())
	ctx := context.Background()

	err := storage.SaveAgent(ctx, testRecord("a1", "s1", time.Now()))
	assert.NoError(t, err)

	// Повтор ID
	err = storage.SaveAgent(ctx, testRecord("a1", "s1", time.Now()))
	assert.ErrorIs(t, err, ErrAgentConflict)
}

func TestMemoryStorage_GetSessionAgents(t *testing.T) {
	storage := NewMemoryStorage(zap.NewNop())
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, storage.SaveAgent(ctx, testRecord("a2", "s1", base.Add(time.Minute))))
	require.NoError(t, storage.SaveAgent(ctx, testRecord("a1", "s1", base)))
	require.NoError(t, storage.SaveAgent(ctx, testRecord("b1", "s2", base)))

	agents, err := storage.GetSessionAgents(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, agents, 2)
	assert.Equal(t, "a1", agents[0].ID)
	assert.Equal(t, "a2", agents[1].ID)

	agents, err = storage.GetSessionAgents(ctx, "unknown")
	require.NoError(t, err)
	assert.NotNil(t, agents)
	assert.Empty(t, agents)
}

func TestMemoryStorage_ReturnsCopies(t *testing.T) {
	storage := NewMemoryStorage(zap.NewNop())
	ctx := context.Background()

	record := testRecord("a1", "s1", time.Now())
	require.NoError(t, storage.SaveAgent(ctx, record))
	record.URLs[0] = "changed"

	agents, err := storage.GetSessionAgents(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "https://docs.example.com", agents[0].URLs[0])
}

func TestMemoryStorage_CheckConnection(t *testing.T) {
	storage := NewMemoryStorage(zap.NewNop())
	assert.NoError(t, storage.CheckConnection(context.Background()))
}
