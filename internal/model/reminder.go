package model

import (
	"errors"
	"time"
)

// DefaultNote is used when a reminder request omits the note text.
const DefaultNote = "This is your reminder."

// Reminder represents a scheduled voice reminder held in process memory.
type Reminder struct {
	ID        uint
	Note      string
	Hour      int
	Minute    int
	RunAt     time.Time // zero for daily reminders
	Daily     bool
	JobID     string
	CreatedAt time.Time
}

// Client-input and state-precondition errors surfaced by the service and
// adapters. Handlers map these to HTTP statuses with errors.Is.
var (
	ErrInvalidTimeFormat     = errors.New("invalid time format")
	ErrMissingDate           = errors.New("date is required for one-time reminder")
	ErrInvalidDateTimeFormat = errors.New("invalid date/time format")
	ErrDuplicateReminder     = errors.New("a reminder already exists at that date and time")
	ErrNoImage               = errors.New("no image provided")
	ErrImageDecode           = errors.New("could not decode image")
)
