// This file implements a PostgreSQL-backed scheduling store.
package sched

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	_ "github.com/lib/pq"

	"github.com/treinafit/luka/internal/models"
	"github.com/treinafit/luka/internal/util"
)

// Database connection pool configuration constants.
const (
	// DefaultMaxOpenConns is the default maximum number of open connections to the database.
	DefaultMaxOpenConns = 25
	// DefaultMaxIdleConns is the default maximum number of idle connections in the pool.
	DefaultMaxIdleConns = 25
	// DefaultConnMaxLifetime is the default maximum amount of time a connection may be reused.
	DefaultConnMaxLifetime = 5 * time.Minute
)

//go:embed migrations_postgres.sql
var postgresMigrations string

type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new Postgres scheduling store based on provided options.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("PostgresStore.NewPostgresStore: creating Postgres store", "DSN_set", cfg.DSN != "")
	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		slog.Error("Failed to open Postgres connection", "error", err)
		return nil, err
	}

	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	if err := db.Ping(); err != nil {
		slog.Error("Postgres ping failed", "error", err)
		return nil, err
	}
	slog.Debug("Running Postgres migrations")
	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("Postgres migrations applied successfully")
	return &PostgresStore{db: db}, nil
}

// SeedSlots upserts the two-day catalog relative to now.
func (s *PostgresStore) SeedSlots(ctx context.Context, now time.Time) error {
	for _, slot := range GenerateCatalog(now) {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO slots (id, venue, activity, date, time, capacity) VALUES ($1, $2, $3, $4, $5, $6)
			 ON CONFLICT (id) DO NOTHING`,
			slot.ID, slot.Venue, slot.Activity, slot.Date, slot.Time, slot.Capacity)
		if err != nil {
			slog.Error("PostgresStore SeedSlots failed", "error", err, "slotID", slot.ID)
			return fmt.Errorf("failed to seed slot %s: %w", slot.ID, err)
		}
	}
	slog.Debug("PostgresStore SeedSlots succeeded")
	return nil
}

func (s *PostgresStore) ListSlots(ctx context.Context, venue, activity, isoDate string) ([]models.Slot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, venue, activity, date, time, capacity FROM slots WHERE venue = $1 AND activity = $2 AND date = $3`,
		venue, activity, isoDate)
	if err != nil {
		slog.Error("PostgresStore ListSlots query failed", "error", err, "venue", venue, "activity", activity, "date", isoDate)
		return nil, fmt.Errorf("failed to query slots: %w", err)
	}
	defer rows.Close()
	return scanSlots(rows)
}

func (s *PostgresStore) CreateBooking(ctx context.Context, sessionID, slotID string) (string, error) {
	if sessionID == "" {
		return "", models.ErrEmptySessionID
	}
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM slots WHERE id = $1`, slotID).Scan(&exists)
	if err != nil {
		slog.Error("PostgresStore CreateBooking slot lookup failed", "error", err, "slotID", slotID)
		return "", fmt.Errorf("failed to look up slot %s: %w", slotID, err)
	}
	if exists == 0 {
		return "", models.ErrSlotNotFound
	}
	id := util.GenerateBookingID()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO bookings (id, session_id, slot_id, status) VALUES ($1, $2, $3, $4)`,
		id, sessionID, slotID, models.BookingConfirmed)
	if err != nil {
		slog.Error("PostgresStore CreateBooking failed", "error", err, "sessionID", sessionID, "slotID", slotID)
		return "", fmt.Errorf("failed to insert booking: %w", err)
	}
	slog.Debug("PostgresStore CreateBooking succeeded", "sessionID", sessionID, "slotID", slotID, "bookingID", id)
	return id, nil
}

func (s *PostgresStore) ListBookings(ctx context.Context, sessionID string) ([]models.Booking, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, slot_id, status FROM bookings WHERE session_id = $1 ORDER BY created_at`, sessionID)
	if err != nil {
		slog.Error("PostgresStore ListBookings query failed", "error", err, "sessionID", sessionID)
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer rows.Close()
	return scanBookings(rows)
}

func (s *PostgresStore) CancelBooking(ctx context.Context, sessionID, bookingID string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE bookings SET status = $1 WHERE id = $2 AND session_id = $3 AND status = $4`,
		models.BookingCancelled, bookingID, sessionID, models.BookingConfirmed)
	if err != nil {
		slog.Error("PostgresStore CancelBooking failed", "error", err, "sessionID", sessionID, "bookingID", bookingID)
		return false, fmt.Errorf("failed to cancel booking %s: %w", bookingID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read cancel result: %w", err)
	}
	return affected > 0, nil
}

func (s *PostgresStore) GetSlot(ctx context.Context, slotID string) (*models.Slot, error) {
	var slot models.Slot
	err := s.db.QueryRowContext(ctx,
		`SELECT id, venue, activity, date, time, capacity FROM slots WHERE id = $1`, slotID).
		Scan(&slot.ID, &slot.Venue, &slot.Activity, &slot.Date, &slot.Time, &slot.Capacity)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.Error("PostgresStore GetSlot failed", "error", err, "slotID", slotID)
		return nil, fmt.Errorf("failed to get slot %s: %w", slotID, err)
	}
	return &slot, nil
}

// Close releases the underlying database handle.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
