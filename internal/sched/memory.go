// This file implements the in-memory scheduling store used by demos and tests.
package sched

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/treinafit/luka/internal/models"
	"github.com/treinafit/luka/internal/util"
)

// MemoryStore keeps the slot catalog and per-session bookings in memory.
type MemoryStore struct {
	mu       sync.RWMutex
	slots    []models.Slot
	bookings map[string][]models.Booking // session id -> bookings, insertion order
	newID    func() string
}

// NewMemoryStore creates a memory store pre-populated with the two-day
// catalog relative to now.
func NewMemoryStore(now time.Time) *MemoryStore {
	return &MemoryStore{
		slots:    GenerateCatalog(now),
		bookings: make(map[string][]models.Booking),
		newID:    util.GenerateBookingID,
	}
}

func (s *MemoryStore) ListSlots(ctx context.Context, venue, activity, isoDate string) ([]models.Slot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Slot
	for _, slot := range s.slots {
		if slot.Venue == venue && slot.Activity == activity && slot.Date == isoDate {
			out = append(out, slot)
		}
	}
	return out, nil
}

func (s *MemoryStore) CreateBooking(ctx context.Context, sessionID, slotID string) (string, error) {
	if sessionID == "" {
		return "", models.ErrEmptySessionID
	}
	if slotID == "" {
		return "", models.ErrEmptySlotID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	found := false
	for _, slot := range s.slots {
		if slot.ID == slotID {
			found = true
			break
		}
	}
	if !found {
		return "", models.ErrSlotNotFound
	}
	id := s.newID()
	s.bookings[sessionID] = append(s.bookings[sessionID], models.Booking{
		ID:     id,
		SlotID: slotID,
		Status: models.BookingConfirmed,
	})
	slog.Debug("MemoryStore CreateBooking succeeded", "sessionID", sessionID, "slotID", slotID, "bookingID", id)
	return id, nil
}

func (s *MemoryStore) ListBookings(ctx context.Context, sessionID string) ([]models.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bookings := s.bookings[sessionID]
	out := make([]models.Booking, len(bookings))
	copy(out, bookings)
	return out, nil
}

func (s *MemoryStore) CancelBooking(ctx context.Context, sessionID, bookingID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	bookings := s.bookings[sessionID]
	for i := range bookings {
		if bookings[i].ID == bookingID && bookings[i].Status == models.BookingConfirmed {
			bookings[i].Status = models.BookingCancelled
			slog.Debug("MemoryStore CancelBooking succeeded", "sessionID", sessionID, "bookingID", bookingID)
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStore) GetSlot(ctx context.Context, slotID string) (*models.Slot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, slot := range s.slots {
		if slot.ID == slotID {
			copied := slot
			return &copied, nil
		}
	}
	return nil, nil
}
