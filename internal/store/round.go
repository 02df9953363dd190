package store

import (
	"database/sql"
	"time"
)

// Round is one finished game.
type Round struct {
	ID          int64
	Player      string
	Mode        string
	Score       int
	WordsCaught int
	PlayedAt    time.Time
}

// RoundRepository records finished rounds.
type RoundRepository struct {
	db *sql.DB
}

// Rounds returns the round repository for this store.
func (s *Store) Rounds() *RoundRepository {
	return &RoundRepository{db: s.db}
}

// Record inserts round and sets its ID and PlayedAt.
func (r *RoundRepository) Record(round *Round) error {
	if round.PlayedAt.IsZero() {
		round.PlayedAt = time.Now()
	}
	res, err := r.db.Exec(
		`INSERT INTO rounds (player, mode, score, words_caught, played_at)
		 VALUES (?, ?, ?, ?, ?)`,
		round.Player, round.Mode, round.Score, round.WordsCaught, round.PlayedAt,
	)
	if err != nil {
		return err
	}
	round.ID, err = res.LastInsertId()
	return err
}

// Recent returns up to limit rounds, newest first.
func (r *RoundRepository) Recent(limit int) ([]Round, error) {
	rows, err := r.db.Query(
		`SELECT id, player, mode, score, words_caught, played_at
		 FROM rounds ORDER BY played_at DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rounds []Round
	for rows.Next() {
		var rd Round
		if err := rows.Scan(&rd.ID, &rd.Player, &rd.Mode, &rd.Score, &rd.WordsCaught, &rd.PlayedAt); err != nil {
			return nil, err
		}
		rounds = append(rounds, rd)
	}
	return rounds, rows.Err()
}

// Best returns the highest score recorded for player, or ErrNotFound.
func (r *RoundRepository) Best(player string) (int, error) {
	var best sql.NullInt64
	err := r.db.QueryRow(`SELECT MAX(score) FROM rounds WHERE player = ?`, player).Scan(&best)
	if err != nil {
		return 0, err
	}
	if !best.Valid {
		return 0, ErrNotFound
	}
	return int(best.Int64), nil
}
