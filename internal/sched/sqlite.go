// This file implements an SQLite-backed scheduling store.
package sched

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "embed"

	_ "github.com/mattn/go-sqlite3"

	"github.com/treinafit/luka/internal/models"
	"github.com/treinafit/luka/internal/util"
)

// DefaultDirPermissions defines the default permissions for database directories.
const DefaultDirPermissions = 0755

//go:embed migrations_sqlite.sql
var sqliteMigrations string

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite scheduling store. The DSN is a file
// path to the database; its directory is created if missing.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewSQLiteStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("Failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		return nil, err
	}
	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		return nil, err
	}

	slog.Debug("Running SQLite migrations")
	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("SQLite migrations applied successfully")

	return &SQLiteStore{db: db}, nil
}

// SeedSlots upserts the two-day catalog relative to now, so restarted
// instances always expose bookable classes for today and tomorrow.
func (s *SQLiteStore) SeedSlots(ctx context.Context, now time.Time) error {
	for _, slot := range GenerateCatalog(now) {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO slots (id, venue, activity, date, time, capacity) VALUES (?, ?, ?, ?, ?, ?)
			 ON CONFLICT(id) DO NOTHING`,
			slot.ID, slot.Venue, slot.Activity, slot.Date, slot.Time, slot.Capacity)
		if err != nil {
			slog.Error("SQLiteStore SeedSlots failed", "error", err, "slotID", slot.ID)
			return fmt.Errorf("failed to seed slot %s: %w", slot.ID, err)
		}
	}
	slog.Debug("SQLiteStore SeedSlots succeeded")
	return nil
}

func (s *SQLiteStore) ListSlots(ctx context.Context, venue, activity, isoDate string) ([]models.Slot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, venue, activity, date, time, capacity FROM slots WHERE venue = ? AND activity = ? AND date = ?`,
		venue, activity, isoDate)
	if err != nil {
		slog.Error("SQLiteStore ListSlots query failed", "error", err, "venue", venue, "activity", activity, "date", isoDate)
		return nil, fmt.Errorf("failed to query slots: %w", err)
	}
	defer rows.Close()
	return scanSlots(rows)
}

func (s *SQLiteStore) CreateBooking(ctx context.Context, sessionID, slotID string) (string, error) {
	if sessionID == "" {
		return "", models.ErrEmptySessionID
	}
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM slots WHERE id = ?`, slotID).Scan(&exists)
	if err != nil {
		slog.Error("SQLiteStore CreateBooking slot lookup failed", "error", err, "slotID", slotID)
		return "", fmt.Errorf("failed to look up slot %s: %w", slotID, err)
	}
	if exists == 0 {
		return "", models.ErrSlotNotFound
	}
	id := util.GenerateBookingID()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO bookings (id, session_id, slot_id, status) VALUES (?, ?, ?, ?)`,
		id, sessionID, slotID, models.BookingConfirmed)
	if err != nil {
		slog.Error("SQLiteStore CreateBooking failed", "error", err, "sessionID", sessionID, "slotID", slotID)
		return "", fmt.Errorf("failed to insert booking: %w", err)
	}
	slog.Debug("SQLiteStore CreateBooking succeeded", "sessionID", sessionID, "slotID", slotID, "bookingID", id)
	return id, nil
}

func (s *SQLiteStore) ListBookings(ctx context.Context, sessionID string) ([]models.Booking, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, slot_id, status FROM bookings WHERE session_id = ? ORDER BY created_at`, sessionID)
	if err != nil {
		slog.Error("SQLiteStore ListBookings query failed", "error", err, "sessionID", sessionID)
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer rows.Close()
	return scanBookings(rows)
}

func (s *SQLiteStore) CancelBooking(ctx context.Context, sessionID, bookingID string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE bookings SET status = ? WHERE id = ? AND session_id = ? AND status = ?`,
		models.BookingCancelled, bookingID, sessionID, models.BookingConfirmed)
	if err != nil {
		slog.Error("SQLiteStore CancelBooking failed", "error", err, "sessionID", sessionID, "bookingID", bookingID)
		return false, fmt.Errorf("failed to cancel booking %s: %w", bookingID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read cancel result: %w", err)
	}
	return affected > 0, nil
}

func (s *SQLiteStore) GetSlot(ctx context.Context, slotID string) (*models.Slot, error) {
	var slot models.Slot
	err := s.db.QueryRowContext(ctx,
		`SELECT id, venue, activity, date, time, capacity FROM slots WHERE id = ?`, slotID).
		Scan(&slot.ID, &slot.Venue, &slot.Activity, &slot.Date, &slot.Time, &slot.Capacity)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore GetSlot failed", "error", err, "slotID", slotID)
		return nil, fmt.Errorf("failed to get slot %s: %w", slotID, err)
	}
	return &slot, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
