package store

import (
	"cmp"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
)

// MaxLeaderboard is the number of entries kept.
const MaxLeaderboard = 5

// Entry is one leaderboard row.
type Entry struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// LeaderboardRepository keeps the top scores as a JSON array under the
// leaderboard settings key.
type LeaderboardRepository struct {
	db *sql.DB
}

// Leaderboard returns the leaderboard repository for this store.
func (s *Store) Leaderboard() *LeaderboardRepository {
	return &LeaderboardRepository{db: s.db}
}

// List returns the leaderboard, highest score first. A missing or
// unreadable value is treated as an empty board.
func (r *LeaderboardRepository) List() ([]Entry, error) {
	return readBoard(r.db)
}

// Submit inserts e and returns the updated board.
func (r *LeaderboardRepository) Submit(e Entry) ([]Entry, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	board, err := readBoard(tx)
	if err != nil {
		return nil, err
	}
	board = Insert(board, e)

	data, err := json.Marshal(board)
	if err != nil {
		return nil, err
	}
	if err := setSetting(tx, KeyLeaderboard, string(data)); err != nil {
		return nil, fmt.Errorf("failed to write leaderboard: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return board, nil
}

// Reset empties the leaderboard.
func (r *LeaderboardRepository) Reset() error {
	_, err := r.db.Exec(`DELETE FROM settings WHERE key = ?`, KeyLeaderboard)
	return err
}

// Insert adds e to board, sorts by score descending (ties keep insertion
// order) and truncates to MaxLeaderboard. board is not modified.
func Insert(board []Entry, e Entry) []Entry {
	e.Name = strings.TrimSpace(e.Name)
	if e.Name == "" {
		e.Name = "Player"
	}

	out := make([]Entry, 0, len(board)+1)
	out = append(out, board...)
	out = append(out, e)
	slices.SortStableFunc(out, func(a, b Entry) int {
		return cmp.Compare(b.Score, a.Score)
	})
	if len(out) > MaxLeaderboard {
		out = out[:MaxLeaderboard]
	}
	return out
}

func readBoard(q queryer) ([]Entry, error) {
	raw, err := getSetting(q, KeyLeaderboard)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return []Entry{}, nil
		}
		return nil, err
	}

	var board []Entry
	if err := json.Unmarshal([]byte(raw), &board); err != nil {
		return []Entry{}, nil
	}
	slices.SortStableFunc(board, func(a, b Entry) int {
		return cmp.Compare(b.Score, a.Score)
	})
	if len(board) > MaxLeaderboard {
		board = board[:MaxLeaderboard]
	}
	return board, nil
}
