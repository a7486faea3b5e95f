// Package util provides small helpers shared across Luka components.
package util

import (
	"strings"

	"github.com/google/uuid"
)

// BookingIDLength is the length of the opaque booking tokens shown to users.
const BookingIDLength = 8

// GenerateBookingID generates a short opaque booking token: the first eight
// characters of a UUID, upper-cased so the token is case-insensitive-safe
// when users type it back.
func GenerateBookingID() string {
	return strings.ToUpper(uuid.NewString()[:BookingIDLength])
}

// GenerateSessionID generates an opaque session identifier for the transport
// layer's cookie.
func GenerateSessionID() string {
	return uuid.NewString()
}
