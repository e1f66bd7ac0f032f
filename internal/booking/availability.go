package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	ErrDateBlocked       = errors.New("date is closed for booking")
	ErrSlotNotConfigured = errors.New("no active slot at that weekday and time")
	ErrModeNotSupported  = errors.New("slot does not allow the requested consultation mode")
	ErrSlotTaken         = errors.New("slot already has a live appointment")
	ErrDeadlinePassed    = errors.New("modification deadline has passed")
)

// deadlineHour is the local hour on the day before the appointment after
// which clients can no longer modify or cancel.
const deadlineHour = 22

// IsDateBookable reports whether the date is open for booking at all, i.e.
// not administratively blocked.
func (s *Service) IsDateBookable(ctx context.Context, date time.Time) (bool, error) {
	blocked, err := s.repo.IsDateBlocked(ctx, DateOnly(date, s.loc))
	if err != nil {
		return false, fmt.Errorf("check blocked date: %w", err)
	}
	return !blocked, nil
}

// SlotsForDate computes per slot availability for one calendar date,
// optionally filtered to a single consultation mode. Mode "" means
// unfiltered. Slots come back ordered by time of day ascending.
func (s *Service) SlotsForDate(ctx context.Context, date time.Time, mode ConsultationMode) (DayAvailability, error) {
	day := DateOnly(date, s.loc)
	out := DayAvailability{Date: day.Format("2006-01-02"), Slots: []SlotAvailability{}}

	bookable, err := s.IsDateBookable(ctx, day)
	if err != nil {
		return out, err
	}
	if !bookable {
		out.Blocked = true
		return out, nil
	}

	rules, err := s.repo.ListActiveRulesForWeekday(ctx, day.Weekday())
	if err != nil {
		return out, fmt.Errorf("list slot rules: %w", err)
	}

	occupiedTimes, err := s.repo.ListOccupiedTimes(ctx, day)
	if err != nil {
		return out, fmt.Errorf("list occupied times: %w", err)
	}
	occupied := make(map[string]bool, len(occupiedTimes))
	for _, clock := range occupiedTimes {
		occupied[clock] = true
	}

	for _, rule := range rules {
		switch mode {
		case ModeOnline:
			if !rule.OnlineAllowed {
				continue
			}
		case ModeOffline:
			if !rule.OfflineAllowed {
				continue
			}
		default:
			if !rule.OnlineAllowed && !rule.OfflineAllowed {
				continue
			}
		}

		taken := occupied[rule.TimeOfDay]
		out.Slots = append(out.Slots, SlotAvailability{
			Time:             rule.TimeOfDay,
			OnlineAvailable:  rule.OnlineAllowed && !taken,
			OfflineAvailable: rule.OfflineAllowed && !taken,
			Booked:           taken,
		})
	}

	return out, nil
}

// CheckSlot runs the booking conflict chain for one concrete slot:
// blocked date, missing rule, mode mismatch, then live-appointment clash.
// excludeID skips one appointment in the clash check, for reschedules;
// pass uuid.Nil for creations.
func (s *Service) CheckSlot(ctx context.Context, date time.Time, clock string, mode ConsultationMode, excludeID uuid.UUID) error {
	day := DateOnly(date, s.loc)

	bookable, err := s.IsDateBookable(ctx, day)
	if err != nil {
		return err
	}
	if !bookable {
		return ErrDateBlocked
	}

	rule, err := s.repo.GetActiveRule(ctx, day.Weekday(), clock)
	if err != nil {
		if errors.Is(err, ErrRuleNotFound) {
			return ErrSlotNotConfigured
		}
		return fmt.Errorf("load slot rule: %w", err)
	}

	switch mode {
	case ModeOnline:
		if !rule.OnlineAllowed {
			return ErrModeNotSupported
		}
	case ModeOffline:
		if !rule.OfflineAllowed {
			return ErrModeNotSupported
		}
	}

	existing, err := s.repo.FindLiveAppointment(ctx, day, clock, excludeID)
	if err != nil && !errors.Is(err, ErrAppointmentNotFound) {
		return fmt.Errorf("check live appointment: %w", err)
	}
	if existing != nil {
		return ErrSlotTaken
	}

	return nil
}

// ModificationDeadline is 22:00 local time on the day before the
// appointment date.
func (s *Service) ModificationDeadline(a *Appointment) time.Time {
	day := DateOnly(a.CalendarDate, s.loc)
	return day.AddDate(0, 0, -1).Add(deadlineHour * time.Hour)
}

// CanModifyOrCancel reports whether a client may still change or cancel the
// appointment at instant now. The boundary is inclusive: exactly at the
// deadline is still allowed.
func (s *Service) CanModifyOrCancel(a *Appointment, now time.Time) bool {
	return !now.After(s.ModificationDeadline(a))
}
