package indexer

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Store is the sqlite-backed game history.
type Store struct {
	db *sql.DB
}

// GameRecord is one settled game.
type GameRecord struct {
	TxID     string `json:"tx_id"`
	Seq      uint64 `json:"seq"`
	Round    uint64 `json:"round"`
	Player   string `json:"player"`
	Score    uint64 `json:"score"`
	Paid     bool   `json:"paid"`
	PlayedAt int64  `json:"played_at"`
}

// RoundRecord summarises a finished round.
type RoundRecord struct {
	Number        uint64 `json:"number"`
	GamesPlayed   uint64 `json:"games_played"`
	BestPlayer    string `json:"best_player"`
	HighestScore  uint64 `json:"highest_score"`
	Pot           uint64 `json:"pot"`
	FailedPayouts int    `json:"failed_payouts"`
	Seq           uint64 `json:"seq"`
}

// PayoutRecord is one prize transfer attempt.
type PayoutRecord struct {
	ID     string `json:"id"`
	Round  uint64 `json:"round"`
	Role   string `json:"role"`
	To     string `json:"to"`
	Amount uint64 `json:"amount"`
	Paid   bool   `json:"paid"`
	Error  string `json:"error,omitempty"`
}

// LeaderboardEntry ranks a player within a round.
type LeaderboardEntry struct {
	Player    string `json:"player"`
	BestScore uint64 `json:"best_score"`
	Games     uint64 `json:"games"`
}

// OpenStore opens (or creates) the sqlite database at path and migrates it.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	// sqlite allows one writer; serialise through a single connection.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	s := &Store{db: db}
	if err := s.Migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates the schema. Every statement is idempotent.
func (s *Store) Migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS games (
			tx_id TEXT PRIMARY KEY,
			seq INTEGER NOT NULL,
			round INTEGER NOT NULL,
			player TEXT NOT NULL,
			score INTEGER NOT NULL,
			paid INTEGER NOT NULL DEFAULT 0,
			played_at INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS rounds (
			number INTEGER PRIMARY KEY,
			games_played INTEGER NOT NULL,
			best_player TEXT NOT NULL DEFAULT '',
			highest_score INTEGER NOT NULL DEFAULT 0,
			pot INTEGER NOT NULL DEFAULT 0,
			failed_payouts INTEGER NOT NULL DEFAULT 0,
			seq INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS payouts (
			id TEXT PRIMARY KEY,
			round INTEGER NOT NULL,
			role TEXT NOT NULL,
			beneficiary TEXT NOT NULL,
			amount INTEGER NOT NULL,
			paid INTEGER NOT NULL,
			error TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_games_round_score ON games(round, score DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_games_player ON games(player, seq DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_payouts_round ON payouts(round)`,
	}
	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// InsertGame stores g. Re-inserting the same transaction is a no-op.
func (s *Store) InsertGame(ctx context.Context, g GameRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO games (tx_id, seq, round, player, score, paid, played_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		g.TxID, int64(g.Seq), int64(g.Round), g.Player, int64(g.Score), g.Paid, g.PlayedAt)
	return err
}

// UpsertRound stores r, replacing an earlier record of the same round.
func (s *Store) UpsertRound(ctx context.Context, r RoundRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO rounds (number, games_played, best_player, highest_score, pot, failed_payouts, seq)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		int64(r.Number), int64(r.GamesPlayed), r.BestPlayer, int64(r.HighestScore), int64(r.Pot), r.FailedPayouts, int64(r.Seq))
	return err
}

// InsertPayout stores p, assigning an id when p has none.
func (s *Store) InsertPayout(ctx context.Context, p PayoutRecord) (string, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO payouts (id, round, role, beneficiary, amount, paid, error) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, int64(p.Round), p.Role, p.To, int64(p.Amount), p.Paid, p.Error)
	if err != nil {
		return "", err
	}
	return p.ID, nil
}

// Leaderboard ranks the players of round by best paid-game score.
func (s *Store) Leaderboard(ctx context.Context, round uint64, limit int) ([]LeaderboardEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT player, MAX(score) AS best, COUNT(*) FROM games
		 WHERE round = ? AND paid = 1
		 GROUP BY player ORDER BY best DESC, MIN(seq) ASC LIMIT ?`,
		int64(round), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []LeaderboardEntry
	for rows.Next() {
		var e LeaderboardEntry
		var best, games int64
		if err := rows.Scan(&e.Player, &best, &games); err != nil {
			return nil, err
		}
		e.BestScore, e.Games = uint64(best), uint64(games)
		out = append(out, e)
	}
	return out, rows.Err()
}

// PlayerGames returns the most recent games of player, newest first.
func (s *Store) PlayerGames(ctx context.Context, player string, limit int) ([]GameRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT tx_id, seq, round, player, score, paid, played_at FROM games
		 WHERE player = ? ORDER BY seq DESC LIMIT ?`,
		player, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []GameRecord
	for rows.Next() {
		var g GameRecord
		var seq, round, score int64
		if err := rows.Scan(&g.TxID, &seq, &round, &g.Player, &score, &g.Paid, &g.PlayedAt); err != nil {
			return nil, err
		}
		g.Seq, g.Round, g.Score = uint64(seq), uint64(round), uint64(score)
		out = append(out, g)
	}
	return out, rows.Err()
}

// Round returns the archived summary of round n, or sql.ErrNoRows.
func (s *Store) Round(ctx context.Context, n uint64) (*RoundRecord, error) {
	var r RoundRecord
	var number, games, score, pot, seq int64
	err := s.db.QueryRowContext(ctx,
		`SELECT number, games_played, best_player, highest_score, pot, failed_payouts, seq
		 FROM rounds WHERE number = ?`, int64(n)).
		Scan(&number, &games, &r.BestPlayer, &score, &pot, &r.FailedPayouts, &seq)
	if err != nil {
		return nil, err
	}
	r.Number, r.GamesPlayed, r.HighestScore, r.Pot, r.Seq =
		uint64(number), uint64(games), uint64(score), uint64(pot), uint64(seq)
	return &r, nil
}

// RoundPayouts returns every payout attempt of round.
func (s *Store) RoundPayouts(ctx context.Context, round uint64) ([]PayoutRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, round, role, beneficiary, amount, paid, error FROM payouts
		 WHERE round = ? ORDER BY role`, int64(round))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []PayoutRecord
	for rows.Next() {
		var p PayoutRecord
		var r, amount int64
		if err := rows.Scan(&p.ID, &r, &p.Role, &p.To, &amount, &p.Paid, &p.Error); err != nil {
			return nil, err
		}
		p.Round, p.Amount = uint64(r), uint64(amount)
		out = append(out, p)
	}
	return out, rows.Err()
}
