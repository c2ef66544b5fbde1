// ABOUTME: Tests for the SQLite storage backend
// ABOUTME: Verifies empty reads, write/read round trips, replacement, and deletion

package state

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state.db")
	s, err := NewSQLiteStorage(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStorage_ReadMissingKeyReturnsEmptyMap(t *testing.T) {
	s := createTestStorage(t)

	fields, err := s.Read(context.Background(), "conversation/none")
	require.NoError(t, err)
	assert.NotNil(t, fields)
	assert.Empty(t, fields)
}

func TestSQLiteStorage_WriteReadRoundTrip(t *testing.T) {
	s := createTestStorage(t)
	ctx := context.Background()

	in := map[string]json.RawMessage{
		"history":   json.RawMessage(`[{"role":"user","content":"hi"}]`),
		"lights_on": json.RawMessage(`true`),
	}
	require.NoError(t, s.Write(ctx, "conversation/c1", in))

	out, err := s.Read(ctx, "conversation/c1")
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestSQLiteStorage_WriteReplacesFields(t *testing.T) {
	s := createTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.Write(ctx, "user/u1", map[string]json.RawMessage{
		"old": json.RawMessage(`1`),
	}))
	require.NoError(t, s.Write(ctx, "user/u1", map[string]json.RawMessage{
		"new": json.RawMessage(`2`),
	}))

	out, err := s.Read(ctx, "user/u1")
	require.NoError(t, err)
	assert.NotContains(t, out, "old")
	assert.Equal(t, json.RawMessage(`2`), out["new"])
}

func TestSQLiteStorage_Delete(t *testing.T) {
	s := createTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.Write(ctx, "temp/c1", map[string]json.RawMessage{
		"x": json.RawMessage(`"y"`),
	}))
	require.NoError(t, s.Delete(ctx, "temp/c1"))

	out, err := s.Read(ctx, "temp/c1")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestSQLiteStorage_BacksTurnState(t *testing.T) {
	s := createTestStorage(t)
	ctx := context.Background()

	st, err := Load(ctx, s, "c1", "u1")
	require.NoError(t, err)
	st.Conversation.LightsOn = true
	require.NoError(t, st.Save(ctx, s))

	loaded, err := Load(ctx, s, "c1", "u1")
	require.NoError(t, err)
	assert.True(t, loaded.Conversation.LightsOn)
}
