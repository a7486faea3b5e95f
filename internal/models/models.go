// Package models defines the core data structures for Luka.
//
// It includes the scheduling entities (slots and bookings) exchanged with the
// external booking store, the chat transcript types, and the JSON response
// envelope shared by the API handlers.
package models

import "errors"

// BookingStatus represents the lifecycle status of a booking.
type BookingStatus string

const (
	// BookingConfirmed indicates an active reservation.
	BookingConfirmed BookingStatus = "confirmado"
	// BookingCancelled indicates a reservation that was cancelled.
	BookingCancelled BookingStatus = "cancelado"
)

// IsValidBookingStatus checks if the given booking status is supported.
func IsValidBookingStatus(s BookingStatus) bool {
	switch s {
	case BookingConfirmed, BookingCancelled:
		return true
	default:
		return false
	}
}

// Error variables shared across store backends and handlers.
var (
	ErrEmptySessionID = errors.New("session id cannot be empty")
	ErrEmptySlotID    = errors.New("slot id cannot be empty")
	ErrSlotNotFound   = errors.New("slot not found")
)

// Slot is a bookable (venue, activity, date, time) unit with finite capacity,
// owned by the external scheduling store and referenced by opaque id.
type Slot struct {
	ID       string `json:"id"`
	Venue    string `json:"venue"`
	Activity string `json:"activity"`
	Date     string `json:"date"` // ISO date, YYYY-MM-DD
	Time     string `json:"time"` // HH:MM
	Capacity int    `json:"capacity"`
}

// Booking is a confirmed or cancelled reservation of a slot for a session.
type Booking struct {
	ID     string        `json:"id"`
	SlotID string        `json:"slot_id"`
	Status BookingStatus `json:"status"`
}

// Transcript roles.
const (
	RoleUser = "user"
	RoleBot  = "bot"
)

// ChatMessage is one entry of a session's transcript.
type ChatMessage struct {
	Role string `json:"role"` // "user" or "bot"
	Text string `json:"text"`
	Time int64  `json:"time"`
}

// ChatRequest is the payload of the JSON chat endpoint.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatReply is the result payload returned for a processed turn.
type ChatReply struct {
	Reply string `json:"reply"`
}

// APIStatus represents the status of an API response.
type APIStatus string

const (
	// APIStatusOK indicates an API request completed successfully.
	APIStatusOK APIStatus = "ok"
	// APIStatusError indicates an API request failed with an error.
	APIStatusError APIStatus = "error"
)

// APIResponse is the standard JSON envelope returned by every handler.
type APIResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Result  interface{} `json:"result,omitempty"`
}

// Success creates a successful API response with optional result data.
func Success(result interface{}) APIResponse {
	return APIResponse{Status: string(APIStatusOK), Result: result}
}

// Error creates an error API response with a message.
func Error(message string) APIResponse {
	return APIResponse{Status: string(APIStatusError), Message: message}
}
