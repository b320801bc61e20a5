// Package matchlog persists round summaries to disk as JSON, one file per
// finished round. Files appear atomically: a reader scanning the log
// directory sees either nothing or a complete record.
package matchlog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/elestrals-showdown/game-server/internal/dice"
	"github.com/elestrals-showdown/game-server/internal/game"
)

// Record is the on-disk summary of one round.
type Record struct {
	Room           string        `json:"room"`
	Players        []string      `json:"players"`
	DiceRolls      []dice.Result `json:"diceRolls"`
	StartingPlayer string        `json:"startingPlayer"`
	Winner         string        `json:"winner,omitempty"`
	Turns          int           `json:"turns"`
	FinishedAt     time.Time     `json:"finishedAt"`
}

// FromResult converts a session's round result into a record stamped with
// the current time.
func FromResult(res game.RoundResult) Record {
	players := make([]string, len(res.Players))
	for i, p := range res.Players {
		players[i] = string(p)
	}
	return Record{
		Room:           res.Room,
		Players:        players,
		DiceRolls:      res.DiceResults,
		StartingPlayer: string(res.StartingPlayer),
		Winner:         string(res.Winner),
		Turns:          res.Turns,
		FinishedAt:     time.Now(),
	}
}

// Writer writes records into a directory.
type Writer struct {
	dir    string
	logger *log.Logger
}

// NewWriter creates a writer, making the directory if needed.
func NewWriter(dir string, logger *log.Logger) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create match log dir: %w", err)
	}
	return &Writer{dir: dir, logger: logger.WithPrefix("matchlog")}, nil
}

// Write persists one record. The filename combines the room and finish
// time so repeated rounds in a reused room never collide.
func (w *Writer) Write(rec Record) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	name := fmt.Sprintf("%s-%d.json", sanitize(rec.Room), rec.FinishedAt.UnixMilli())
	path := filepath.Join(w.dir, name)
	if err := writeFileAtomic(path, data, 0o644); err != nil {
		return err
	}
	w.logger.Debug("round recorded", "path", path)
	return nil
}

// sanitize keeps room names filesystem-safe.
func sanitize(room string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, room)
}

// writeFileAtomic writes via a temp file in the same directory followed
// by a rename, so readers never observe a partial record.
func writeFileAtomic(filename string, data []byte, perm os.FileMode) error {
	dir, base := filepath.Split(filename)

	tmp, err := os.CreateTemp(dir, base+".tmp.*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if tmp != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	tmp = nil

	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("set permissions: %w", err)
	}
	if err := os.Rename(tmpPath, filename); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
