package sched

import (
	"database/sql"
	"fmt"

	"github.com/treinafit/luka/internal/models"
)

// scanSlots scans slot rows.
func scanSlots(rows *sql.Rows) ([]models.Slot, error) {
	var out []models.Slot
	for rows.Next() {
		var s models.Slot
		if err := rows.Scan(&s.ID, &s.Venue, &s.Activity, &s.Date, &s.Time, &s.Capacity); err != nil {
			return nil, fmt.Errorf("scan slot failed: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate slot rows failed: %w", err)
	}
	return out, nil
}

// scanBookings scans booking rows.
func scanBookings(rows *sql.Rows) ([]models.Booking, error) {
	var out []models.Booking
	for rows.Next() {
		var b models.Booking
		if err := rows.Scan(&b.ID, &b.SlotID, &b.Status); err != nil {
			return nil, fmt.Errorf("scan booking failed: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate booking rows failed: %w", err)
	}
	return out, nil
}
