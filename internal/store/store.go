// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/verte-zerg/tapixo/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// DefaultLimit caps history and leaderboard queries when no limit is given.
const DefaultLimit = 50

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Fixed-width timestamps keep text ordering equal to time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store wraps SQLite access for users, results and bests.
type Store struct {
	db *sql.DB
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One connection keeps pragmas in effect and serializes writers.
	db.SetMaxOpenConns(1)
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`PRAGMA busy_timeout = 5000;`,
		`PRAGMA foreign_keys = ON;`,
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			created_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS results (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL REFERENCES users(id),
			wpm INTEGER NOT NULL,
			accuracy INTEGER NOT NULL,
			error_count INTEGER NOT NULL,
			duration_sec INTEGER NOT NULL,
			difficulty TEXT NOT NULL,
			mode TEXT NOT NULL,
			category TEXT NOT NULL,
			language TEXT NOT NULL,
			cheat_score REAL NOT NULL,
			rejected INTEGER NOT NULL,
			created_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS bests (
			user_id TEXT NOT NULL REFERENCES users(id),
			difficulty TEXT NOT NULL,
			wpm INTEGER NOT NULL,
			accuracy INTEGER NOT NULL,
			date TEXT NOT NULL,
			PRIMARY KEY (user_id, difficulty)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_results_user_created ON results(user_id, created_at);`,
		`CREATE INDEX IF NOT EXISTS idx_bests_difficulty_wpm ON bests(difficulty, wpm);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// EnsureUser returns the user named name, creating it when missing.
func (s *Store) EnsureUser(ctx context.Context, name string) (model.User, error) {
	if name == "" {
		return model.User{}, fmt.Errorf("username is required")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, username, created_at) VALUES (?, ?, ?)
		 ON CONFLICT(username) DO NOTHING`,
		uuid.New().String(), name, formatTime(time.Now()))
	if err != nil {
		return model.User{}, fmt.Errorf("insert user: %w", err)
	}
	return s.GetUserByName(ctx, name)
}

// GetUserByName looks a user up by name. It returns ErrNotFound when absent.
func (s *Store) GetUserByName(ctx context.Context, name string) (model.User, error) {
	var user model.User
	var created string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, username, created_at FROM users WHERE username = ?`, name).
		Scan(&user.ID, &user.Username, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, fmt.Errorf("user %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return model.User{}, fmt.Errorf("query user: %w", err)
	}
	if user.CreatedAt, err = parseTime(created); err != nil {
		return model.User{}, err
	}
	return user, nil
}

// InsertResult stores a trial result. Missing ID and CreatedAt are filled in.
func (s *Store) InsertResult(ctx context.Context, result model.Result) (model.Result, error) {
	return insertResult(ctx, s.db, result)
}

// UpsertBest stores best for the user's bucket when it beats the stored one.
// It reports whether the stored best changed.
func (s *Store) UpsertBest(ctx context.Context, userID string, difficulty model.Difficulty, best model.Best) (bool, error) {
	return upsertBest(ctx, s.db, userID, difficulty, best)
}

// RecordResult inserts result and, when best is non-nil, raises the stored best
// in one transaction.
func (s *Store) RecordResult(ctx context.Context, result model.Result, best *model.Best) (stored model.Result, raised bool, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Result{}, false, fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stored, err = insertResult(ctx, tx, result)
	if err != nil {
		return model.Result{}, false, err
	}
	if best != nil {
		raised, err = upsertBest(ctx, tx, result.UserID, result.Difficulty, *best)
		if err != nil {
			return model.Result{}, false, err
		}
	}
	if err = tx.Commit(); err != nil {
		return model.Result{}, false, fmt.Errorf("commit: %w", err)
	}
	return stored, raised, nil
}

func insertResult(ctx context.Context, db execer, result model.Result) (model.Result, error) {
	if result.ID == "" {
		result.ID = ulid.Make().String()
	}
	if result.CreatedAt.IsZero() {
		result.CreatedAt = time.Now()
	}
	_, err := db.ExecContext(ctx,
		`INSERT INTO results (id, user_id, wpm, accuracy, error_count, duration_sec, difficulty, mode, category, language, cheat_score, rejected, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		result.ID,
		result.UserID,
		result.WPM,
		result.Accuracy,
		result.ErrorCount,
		result.DurationSec,
		string(result.Difficulty),
		string(result.Mode),
		string(result.Category),
		string(result.Language),
		result.CheatScore,
		result.Rejected,
		formatTime(result.CreatedAt),
	)
	if err != nil {
		return model.Result{}, fmt.Errorf("insert result: %w", err)
	}
	return result, nil
}

func upsertBest(ctx context.Context, db execer, userID string, difficulty model.Difficulty, best model.Best) (bool, error) {
	if best.Date.IsZero() {
		best.Date = time.Now()
	}
	res, err := db.ExecContext(ctx,
		`INSERT INTO bests (user_id, difficulty, wpm, accuracy, date) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(user_id, difficulty) DO UPDATE SET
			wpm = excluded.wpm, accuracy = excluded.accuracy, date = excluded.date
		 WHERE excluded.wpm > bests.wpm`,
		userID, string(difficulty), best.WPM, best.Accuracy, formatTime(best.Date))
	if err != nil {
		return false, fmt.Errorf("upsert best: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("upsert best: %w", err)
	}
	return n > 0, nil
}

// LoadBests returns the user's personal bests keyed by bucket.
func (s *Store) LoadBests(ctx context.Context, userID string) (model.Bests, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT difficulty, wpm, accuracy, date FROM bests WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("query bests: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	bests := model.Bests{}
	for rows.Next() {
		var difficulty, date string
		best := &model.Best{}
		if err := rows.Scan(&difficulty, &best.WPM, &best.Accuracy, &date); err != nil {
			return nil, err
		}
		if best.Date, err = parseTime(date); err != nil {
			return nil, err
		}
		bests[model.Difficulty(difficulty)] = best
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return bests, nil
}

const resultColumns = `id, user_id, wpm, accuracy, error_count, duration_sec, difficulty, mode, category, language, cheat_score, rejected, created_at`

// ListHistory returns the user's latest results, newest first.
func (s *Store) ListHistory(ctx context.Context, userID string, limit int) ([]model.Result, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return s.queryResults(ctx,
		`SELECT `+resultColumns+` FROM results WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`,
		userID, limit)
}

// ListAllResults returns every result for the user, oldest first.
func (s *Store) ListAllResults(ctx context.Context, userID string) ([]model.Result, error) {
	return s.queryResults(ctx,
		`SELECT `+resultColumns+` FROM results WHERE user_id = ? ORDER BY created_at ASC, id ASC`,
		userID)
}

// CountResults returns how many results the user has, rejected ones included.
func (s *Store) CountResults(ctx context.Context, userID string) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM results WHERE user_id = ?`, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count results: %w", err)
	}
	return n, nil
}

func (s *Store) queryResults(ctx context.Context, query string, args ...any) ([]model.Result, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var results []model.Result
	for rows.Next() {
		var r model.Result
		var difficulty, mode, category, language, created string
		if err := rows.Scan(&r.ID, &r.UserID, &r.WPM, &r.Accuracy, &r.ErrorCount, &r.DurationSec,
			&difficulty, &mode, &category, &language, &r.CheatScore, &r.Rejected, &created); err != nil {
			return nil, err
		}
		r.Difficulty = model.Difficulty(difficulty)
		r.Mode = model.Mode(mode)
		r.Category = model.Category(category)
		r.Language = model.Language(language)
		if r.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

const rankedOrder = `ORDER BY b.wpm DESC, b.accuracy DESC, b.date ASC`

// Leaderboard returns the top ranked bests.
func (s *Store) Leaderboard(ctx context.Context, limit int) ([]model.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT b.user_id, u.username, b.wpm, b.accuracy, b.date
		 FROM bests b JOIN users u ON u.id = b.user_id
		 WHERE b.difficulty = ? `+rankedOrder+` LIMIT ?`,
		string(model.DifficultyRanked), limit)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var entries []model.LeaderboardEntry
	for rows.Next() {
		var e model.LeaderboardEntry
		var date string
		if err := rows.Scan(&e.UserID, &e.Username, &e.WPM, &e.Accuracy, &date); err != nil {
			return nil, err
		}
		if e.Date, err = parseTime(date); err != nil {
			return nil, err
		}
		e.Rank = len(entries) + 1
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// RankOf returns the user's 1-based position on the ranked leaderboard, or 0
// when the user has no ranked best.
func (s *Store) RankOf(ctx context.Context, userID string) (int, error) {
	var rank int
	err := s.db.QueryRowContext(ctx,
		`SELECT rank FROM (
			SELECT b.user_id, ROW_NUMBER() OVER (`+rankedOrder+`) AS rank
			FROM bests b WHERE b.difficulty = ?
		) WHERE user_id = ?`,
		string(model.DifficultyRanked), userID).Scan(&rank)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("query rank: %w", err)
	}
	return rank, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, nil
}
