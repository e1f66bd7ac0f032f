package booking

import (
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	StatusPending        AppointmentStatus = "pending"
	StatusPendingPayment AppointmentStatus = "pending_payment"
	StatusConfirmed      AppointmentStatus = "confirmed"
	StatusCancelled      AppointmentStatus = "cancelled"
	StatusCompleted      AppointmentStatus = "completed"
)

// Occupies reports whether an appointment in this status holds its slot
// against new bookings.
func (s AppointmentStatus) Occupies() bool {
	switch s {
	case StatusPending, StatusPendingPayment, StatusConfirmed:
		return true
	}
	return false
}

type ConsultationMode string

const (
	ModeOnline  ConsultationMode = "online"
	ModeOffline ConsultationMode = "offline"
)

type ConsultationType string

const (
	TypeRegular ConsultationType = "regular"
	TypeWelfare ConsultationType = "welfare"
)

// ScheduleSlotRule is one entry of the recurring weekly template: a
// bookable time of day on a given weekday. Rules are deactivated, never
// deleted.
type ScheduleSlotRule struct {
	ID             int64
	Weekday        time.Weekday
	TimeOfDay      string // "HH:MM"
	OnlineAllowed  bool
	OfflineAllowed bool
	Active         bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// BlockedDate closes an entire calendar date to booking regardless of the
// weekly template.
type BlockedDate struct {
	ID           int64
	CalendarDate time.Time
	Reason       *string
	CreatedAt    time.Time
}

type Appointment struct {
	ID               uuid.UUID
	CalendarDate     time.Time
	TimeOfDay        string // "HH:MM"
	ConsultationType ConsultationType
	ConsultationMode ConsultationMode
	Status           AppointmentStatus
	ClientName       string
	ContactEmail     string
	ContactPhone     *string
	Topic            *string
	Note             *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// SlotAvailability is one bookable time on a concrete date, with per mode
// availability after accounting for existing bookings.
type SlotAvailability struct {
	Time             string `json:"time"`
	OnlineAvailable  bool   `json:"online_available"`
	OfflineAvailable bool   `json:"offline_available"`
	Booked           bool   `json:"is_booked"`
}

type DayAvailability struct {
	Date    string             `json:"date"`
	Blocked bool               `json:"is_blocked"`
	Slots   []SlotAvailability `json:"slots"`
}

type EventLog struct {
	ID            int64
	EventType     string
	AppointmentID *uuid.UUID
	Payload       []byte
	CreatedAt     time.Time
}

var clockRe = regexp.MustCompile(`^(\d{1,2}):(\d{2})(?::\d{2})?$`)

// NormalizeClock canonicalizes a time-of-day string to zero-padded "HH:MM".
// Seconds, if present, are truncated; every stored and compared clock value
// goes through this.
func NormalizeClock(s string) (string, error) {
	m := clockRe.FindStringSubmatch(s)
	if m == nil {
		return "", fmt.Errorf("invalid time of day %q", s)
	}
	var hh, mm int
	fmt.Sscanf(m[1], "%d", &hh)
	fmt.Sscanf(m[2], "%d", &mm)
	if hh > 23 || mm > 59 {
		return "", fmt.Errorf("invalid time of day %q", s)
	}
	return fmt.Sprintf("%02d:%02d", hh, mm), nil
}

// DateOnly pins t's civil date to midnight in the given location. The
// year/month/day are taken as t carries them, so a date parsed in UTC does
// not shift when the business timezone is behind UTC.
func DateOnly(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
