// Package database persists emitted signals and their reported outcomes
// in PostgreSQL. The scanner works fine without it; history is an
// optional add-on enabled by configuration.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/Alias1177/Signaler/models"
)

// DB represents a database connection
type DB struct {
	*sql.DB
}

// ConnectionParams holds PostgreSQL connection parameters
type ConnectionParams struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// New creates a new database connection
func New(params ConnectionParams) (*DB, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		params.Host, params.Port, params.User, params.Password, params.DBName, params.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	// Check connection
	if err := db.Ping(); err != nil {
		return nil, err
	}

	if err := createTables(db); err != nil {
		return nil, err
	}

	return &DB{db}, nil
}

// createTables creates the necessary tables if they don't exist
func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS signals (
			id BIGSERIAL PRIMARY KEY,
			instrument TEXT NOT NULL,
			direction TEXT NOT NULL,
			confidence DOUBLE PRECISION NOT NULL,
			emitted_at TIMESTAMPTZ NOT NULL,
			outcome TEXT NOT NULL DEFAULT 'pending',
			decided_at TIMESTAMPTZ
		)
	`)
	return err
}

// RecordSignal inserts an emitted signal and fills in its storage id.
func (db *DB) RecordSignal(ctx context.Context, sig *models.Signal) error {
	return db.QueryRowContext(ctx, `
		INSERT INTO signals (instrument, direction, confidence, emitted_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, sig.Instrument, sig.Direction.String(), sig.Confidence, sig.At).Scan(&sig.ID)
}

// RecordOutcome stores the reported result for an emitted signal.
func (db *DB) RecordOutcome(ctx context.Context, id int64, outcome models.Outcome) error {
	res, err := db.ExecContext(ctx, `
		UPDATE signals SET outcome = $1, decided_at = $2 WHERE id = $3
	`, outcome.String(), time.Now().UTC(), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errors.New("signal not found")
	}
	return nil
}

// DailyStats returns win/loss counts for the UTC day containing t.
func (db *DB) DailyStats(ctx context.Context, t time.Time) (wins, losses int, err error) {
	day := t.UTC().Truncate(24 * time.Hour)
	err = db.QueryRowContext(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE outcome = 'win'),
			COUNT(*) FILTER (WHERE outcome = 'loss')
		FROM signals
		WHERE emitted_at >= $1 AND emitted_at < $2
	`, day, day.Add(24*time.Hour)).Scan(&wins, &losses)
	return wins, losses, err
}

// RecentSignals returns the latest emitted signals, newest first.
func (db *DB) RecentSignals(ctx context.Context, limit int) ([]models.Signal, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, instrument, direction, confidence, emitted_at
		FROM signals
		ORDER BY emitted_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Signal
	for rows.Next() {
		var sig models.Signal
		var direction string
		if err := rows.Scan(&sig.ID, &sig.Instrument, &direction, &sig.Confidence, &sig.At); err != nil {
			return nil, err
		}
		switch direction {
		case "BUY":
			sig.Direction = models.Buy
		case "SELL":
			sig.Direction = models.Sell
		}
		out = append(out, sig)
	}
	return out, rows.Err()
}
