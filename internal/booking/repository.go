package booking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrRuleNotFound        = errors.New("schedule rule not found")
	ErrBlockedDateNotFound = errors.New("blocked date not found")
	ErrDuplicateRule       = errors.New("a rule for that weekday and time already exists")
	ErrDateAlreadyBlocked  = errors.New("date is already blocked")
	ErrSlotConflict        = errors.New("slot uniqueness violated")
)

// AppointmentFilter narrows admin appointment listings.
type AppointmentFilter struct {
	Date   *time.Time
	Status *AppointmentStatus
	Email  *string
	Limit  int
	Offset int
}

// Repository contains all DB interactions needed by the resolver and the
// admin operations.
type Repository interface {
	// Weekly template
	ListRules(ctx context.Context) ([]ScheduleSlotRule, error)
	ListActiveRulesForWeekday(ctx context.Context, wd time.Weekday) ([]ScheduleSlotRule, error)
	GetActiveRule(ctx context.Context, wd time.Weekday, clock string) (*ScheduleSlotRule, error)
	CreateRule(ctx context.Context, r ScheduleSlotRule) (*ScheduleSlotRule, error)
	UpdateRule(ctx context.Context, r ScheduleSlotRule) (*ScheduleSlotRule, error)

	// Blocked dates
	IsDateBlocked(ctx context.Context, date time.Time) (bool, error)
	ListBlockedDates(ctx context.Context, from time.Time) ([]BlockedDate, error)
	CreateBlockedDate(ctx context.Context, date time.Time, reason *string) (*BlockedDate, error)
	DeleteBlockedDate(ctx context.Context, id int64) error

	// Appointments and conflict checks
	ListOccupiedTimes(ctx context.Context, date time.Time) ([]string, error)
	FindLiveAppointment(ctx context.Context, date time.Time, clock string, excludeID uuid.UUID) (*Appointment, error)
	GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	CreateAppointment(ctx context.Context, a Appointment) (*Appointment, error)
	UpdateAppointmentSlot(ctx context.Context, id uuid.UUID, date time.Time, clock string) (*Appointment, error)
	UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error)
	ListAppointments(ctx context.Context, f AppointmentFilter) ([]Appointment, error)

	// Status worker
	CompletePastConfirmed(ctx context.Context, today time.Time, clock string) (int64, error)

	// Event logging
	InsertEvent(ctx context.Context, ev EventLog) error
}
