package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	redisclient "github.com/mindwell/counseling-booking/internal/redis"
)

const (
	EventAppointmentCreated     = "APPOINTMENT_CREATED"
	EventAppointmentRescheduled = "APPOINTMENT_RESCHEDULED"
	EventAppointmentCancelled   = "APPOINTMENT_CANCELLED"
	EventStatusChanged          = "APPOINTMENT_STATUS_CHANGED"
)

var (
	ErrSlotBeingBooked         = errors.New("slot is currently being booked, please retry")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
)

// Actor is how far the resolver looks into the caller's identity: only
// whether the admin bypass applies. Ownership checks happen before the
// service is invoked.
type Actor struct {
	Admin bool
}

type Service struct {
	repo   Repository
	locker redisclient.Locker
	loc    *time.Location
	log    zerolog.Logger
	now    func() time.Time
}

func NewService(repo Repository, locker redisclient.Locker, loc *time.Location, log zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		locker: locker,
		loc:    loc,
		log:    log,
		now:    time.Now,
	}
}

// CreateInput carries the visitor intake form.
type CreateInput struct {
	CalendarDate     time.Time
	TimeOfDay        string // normalized "HH:MM"
	ConsultationType ConsultationType
	ConsultationMode ConsultationMode
	ClientName       string
	ContactEmail     string
	ContactPhone     *string
	Topic            *string
	Note             *string
}

// CreateAppointment books a slot for a visitor. The slot-taken check and
// the insert run under a per slot Redis lock so concurrent requests for the
// same slot cannot both observe it free; the partial unique index in
// Postgres backstops the lock.
func (s *Service) CreateAppointment(ctx context.Context, in CreateInput) (*Appointment, error) {
	day := DateOnly(in.CalendarDate, s.loc)

	var created *Appointment

	err := s.locker.WithSlotLock(ctx, day, in.TimeOfDay, func(lockCtx context.Context) error {
		if err := s.CheckSlot(lockCtx, day, in.TimeOfDay, in.ConsultationMode, uuid.Nil); err != nil {
			return err
		}

		appt, err := s.repo.CreateAppointment(lockCtx, Appointment{
			ID:               uuid.New(),
			CalendarDate:     day,
			TimeOfDay:        in.TimeOfDay,
			ConsultationType: in.ConsultationType,
			ConsultationMode: in.ConsultationMode,
			Status:           StatusPending,
			ClientName:       in.ClientName,
			ContactEmail:     in.ContactEmail,
			ContactPhone:     in.ContactPhone,
			Topic:            in.Topic,
			Note:             in.Note,
		})
		if err != nil {
			if errors.Is(err, ErrSlotConflict) {
				return ErrSlotTaken
			}
			return fmt.Errorf("create appointment: %w", err)
		}

		created = appt

		s.logEvent(lockCtx, appt.ID, EventAppointmentCreated, map[string]any{
			"date": day.Format("2006-01-02"),
			"time": appt.TimeOfDay,
			"mode": appt.ConsultationMode,
		})

		return nil
	})

	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrSlotBeingBooked
		}
		return nil, err
	}

	return created, nil
}

// GetAppointment retrieves one appointment by ID.
func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return appt, nil
}

// Reschedule moves an appointment to a new date and time. Clients are held
// to the modification deadline; administrators bypass it. Moving to the
// same slot is a no-op success.
func (s *Service) Reschedule(ctx context.Context, id uuid.UUID, newDate time.Time, newClock string, actor Actor) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !appt.Status.Occupies() {
		return nil, ErrInvalidStatusTransition
	}

	if !actor.Admin && !s.CanModifyOrCancel(appt, s.now()) {
		return nil, ErrDeadlinePassed
	}

	day := DateOnly(newDate, s.loc)
	if day.Equal(DateOnly(appt.CalendarDate, s.loc)) && newClock == appt.TimeOfDay {
		return appt, nil
	}

	var updated *Appointment

	err = s.locker.WithSlotLock(ctx, day, newClock, func(lockCtx context.Context) error {
		if err := s.CheckSlot(lockCtx, day, newClock, appt.ConsultationMode, appt.ID); err != nil {
			return err
		}

		moved, err := s.repo.UpdateAppointmentSlot(lockCtx, appt.ID, day, newClock)
		if err != nil {
			if errors.Is(err, ErrSlotConflict) {
				return ErrSlotTaken
			}
			return fmt.Errorf("reschedule appointment: %w", err)
		}

		updated = moved

		s.logEvent(lockCtx, appt.ID, EventAppointmentRescheduled, map[string]any{
			"from_date": appt.CalendarDate.Format("2006-01-02"),
			"from_time": appt.TimeOfDay,
			"to_date":   day.Format("2006-01-02"),
			"to_time":   newClock,
		})

		return nil
	})

	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrSlotBeingBooked
		}
		return nil, err
	}

	return updated, nil
}

// Cancel sets the appointment status to cancelled, freeing its slot.
// Clients are held to the modification deadline; administrators bypass it.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, actor Actor) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !appt.Status.Occupies() {
		return nil, ErrInvalidStatusTransition
	}

	if !actor.Admin && !s.CanModifyOrCancel(appt, s.now()) {
		return nil, ErrDeadlinePassed
	}

	updated, err := s.repo.UpdateAppointmentStatus(ctx, appt.ID, appt.Status, StatusCancelled)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			// Status moved under us between the read and the update.
			return nil, ErrInvalidStatusTransition
		}
		return nil, fmt.Errorf("cancel appointment: %w", err)
	}

	s.logEvent(ctx, updated.ID, EventAppointmentCancelled, map[string]any{
		"by_admin": actor.Admin,
	})

	return updated, nil
}

// validTransitions holds the administrator-driven status moves. Cancelled
// and completed are terminal.
var validTransitions = map[AppointmentStatus][]AppointmentStatus{
	StatusPending:        {StatusPendingPayment, StatusConfirmed, StatusCancelled},
	StatusPendingPayment: {StatusConfirmed, StatusCancelled},
	StatusConfirmed:      {StatusCompleted, StatusCancelled},
}

// UpdateStatus performs an administrator status change with transition
// validation.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, to AppointmentStatus) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}

	allowed := false
	for _, next := range validTransitions[appt.Status] {
		if next == to {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, ErrInvalidStatusTransition
	}

	updated, err := s.repo.UpdateAppointmentStatus(ctx, appt.ID, appt.Status, to)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, ErrInvalidStatusTransition
		}
		return nil, fmt.Errorf("update appointment status: %w", err)
	}

	s.logEvent(ctx, updated.ID, EventStatusChanged, map[string]any{
		"from": appt.Status,
		"to":   to,
	})

	return updated, nil
}

// ListAppointments retrieves appointments for the admin dashboard.
func (s *Service) ListAppointments(ctx context.Context, f AppointmentFilter) ([]Appointment, error) {
	if f.Limit <= 0 {
		f.Limit = 50 // default
	}
	if f.Limit > 200 {
		f.Limit = 200 // max
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	appointments, err := s.repo.ListAppointments(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return appointments, nil
}

// CompletePastAppointments is intended to be called by the worker
// periodically. It marks confirmed appointments whose slot has passed as
// completed.
func (s *Service) CompletePastAppointments(ctx context.Context) (int64, error) {
	now := s.now().In(s.loc)
	today := DateOnly(now, s.loc)
	clock := now.Format("15:04")

	n, err := s.repo.CompletePastConfirmed(ctx, today, clock)
	if err != nil {
		return 0, fmt.Errorf("complete past appointments: %w", err)
	}
	return n, nil
}

func (s *Service) logEvent(ctx context.Context, appointmentID uuid.UUID, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.log.Error().Err(err).Str("event", eventType).Msg("marshal event payload")
		data = nil
	}

	apptID := appointmentID

	ev := EventLog{
		EventType:     eventType,
		AppointmentID: &apptID,
		Payload:       data,
		CreatedAt:     time.Now(),
	}

	if err := s.repo.InsertEvent(ctx, ev); err != nil {
		s.log.Error().Err(err).
			Str("event", eventType).
			Stringer("appointment_id", appointmentID).
			Msg("insert event log")
	}
}
