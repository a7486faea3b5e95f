// Package sched provides storage backends for the class scheduling store.
//
// The conversation core depends on this package only through the Store
// interface: list available slots, create and cancel bookings, resolve slot
// ids. Backends exist for in-memory use (demos and tests), SQLite, and
// PostgreSQL.
package sched

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/treinafit/luka/internal/models"
)

// Store defines the call contract the conversation core has with the
// scheduling service.
type Store interface {
	// ListSlots returns the slots for a venue, activity and ISO date.
	ListSlots(ctx context.Context, venue, activity, isoDate string) ([]models.Slot, error)

	// CreateBooking books a slot for a session and returns the booking id.
	CreateBooking(ctx context.Context, sessionID, slotID string) (string, error)

	// ListBookings returns all bookings, confirmed and cancelled, for a session.
	ListBookings(ctx context.Context, sessionID string) ([]models.Booking, error)

	// CancelBooking cancels a booking. It returns true iff a confirmed
	// booking with that id existed for the session and is now cancelled;
	// false covers both unknown ids and already-cancelled bookings.
	CancelBooking(ctx context.Context, sessionID, bookingID string) (bool, error)

	// GetSlot resolves a slot id, or (nil, nil) when unknown.
	GetSlot(ctx context.Context, slotID string) (*models.Slot, error)
}

// Opts holds configuration options for the database-backed stores.
type Opts struct {
	DSN string
}

// Option defines a configuration option for a sched store.
type Option func(*Opts)

// WithDSN sets the database DSN.
func WithDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// DetectDSNType classifies a DSN as "postgres" or "sqlite". PostgreSQL DSNs
// use URL or key=value form; anything else is treated as a SQLite file path.
func DetectDSNType(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") || strings.Contains(dsn, "host=") {
		return "postgres"
	}
	return "sqlite"
}

// Fixed catalog of the two gym venues and their activities.
var venues = []string{"Donado 2244", "La Pampa 4309"}
var activities = []string{"Funcional", "Cross", "Yoga"}

// Venues returns the configured venue names, in menu order.
func Venues() []string {
	out := make([]string, len(venues))
	copy(out, venues)
	return out
}

// Activities returns the configured activity names.
func Activities() []string {
	out := make([]string, len(activities))
	copy(out, activities)
	return out
}

// classTimes is the daily schedule shared by every venue and activity.
var classTimes = []string{"19:00", "20:00"}

// DefaultCapacity is the per-slot capacity used when generating the catalog.
const DefaultCapacity = 5

// SlotID builds the deterministic slot identifier used across backends:
// venue initial, activity prefix, month+day, and the time without the colon.
func SlotID(venue, activity, isoDate, classTime string) string {
	day, err := time.Parse("2006-01-02", isoDate)
	if err != nil {
		return ""
	}
	actPrefix := activity
	if len(actPrefix) > 2 {
		actPrefix = actPrefix[:2]
	}
	hhmm := classTime[:2] + classTime[3:]
	return fmt.Sprintf("%s-%s-%s-%s", venue[:1], actPrefix, day.Format("0102"), hhmm)
}

// GenerateCatalog builds the two-day slot catalog (today and tomorrow
// relative to now) for every venue, activity and class time.
func GenerateCatalog(now time.Time) []models.Slot {
	days := []string{
		now.Format("2006-01-02"),
		now.AddDate(0, 0, 1).Format("2006-01-02"),
	}
	var slots []models.Slot
	for _, venue := range venues {
		for _, activity := range activities {
			for _, day := range days {
				for _, classTime := range classTimes {
					slots = append(slots, models.Slot{
						ID:       SlotID(venue, activity, day, classTime),
						Venue:    venue,
						Activity: activity,
						Date:     day,
						Time:     classTime,
						Capacity: DefaultCapacity,
					})
				}
			}
		}
	}
	return slots
}
