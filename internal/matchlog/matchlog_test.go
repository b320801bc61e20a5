package matchlog

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elestrals-showdown/game-server/internal/dice"
	"github.com/elestrals-showdown/game-server/internal/game"
)

func TestWriteAndReadBack(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	w, err := NewWriter(dir, log.New(io.Discard))
	require.NoError(t, err)

	rec := Record{
		Room:           "room-a",
		Players:        []string{"p1", "p2"},
		DiceRolls:      []dice.Result{{Player: "p1", Roll: 17}, {Player: "p2", Roll: 4}},
		StartingPlayer: "p1",
		Winner:         "p2",
		Turns:          9,
		FinishedAt:     time.UnixMilli(1700000000000),
	}
	require.NoError(t, w.Write(rec))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	data, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	require.NoError(t, err)

	var got Record
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, rec.Winner, got.Winner)
	assert.Equal(t, rec.Players, got.Players)
	assert.Equal(t, rec.Turns, got.Turns)
}

func TestWriteLeavesNoTempFiles(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	w, err := NewWriter(dir, log.New(io.Discard))
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		rec := Record{Room: "room", FinishedAt: time.Now().Add(time.Duration(i) * time.Millisecond)}
		require.NoError(t, w.Write(rec))
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.Equal(t, ".json", filepath.Ext(e.Name()), "unexpected file %s", e.Name())
	}
}

func TestSanitizedRoomNames(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	w, err := NewWriter(dir, log.New(io.Discard))
	require.NoError(t, err)

	rec := Record{Room: "../evil room", FinishedAt: time.Now()}
	require.NoError(t, w.Write(rec))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.NotContains(t, entries[0].Name(), "..")
	assert.NotContains(t, entries[0].Name(), " ")
}

func TestFromResult(t *testing.T) {
	t.Parallel()

	rec := FromResult(game.RoundResult{
		Room:           "r",
		Players:        []game.PlayerID{"a", "b"},
		StartingPlayer: "b",
		Winner:         "a",
		Turns:          3,
	})
	assert.Equal(t, []string{"a", "b"}, rec.Players)
	assert.Equal(t, "b", rec.StartingPlayer)
	assert.Equal(t, "a", rec.Winner)
	assert.False(t, rec.FinishedAt.IsZero())
}
