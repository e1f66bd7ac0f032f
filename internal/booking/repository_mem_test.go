package booking

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
)

// memRepository is an in-memory Repository used by the unit tests. It
// mirrors the store-level guarantees of the Postgres schema, including the
// partial unique index over live appointments.
type memRepository struct {
	rules      []ScheduleSlotRule
	nextRuleID int64

	blocked       map[string]BlockedDate
	nextBlockedID int64

	appts  map[uuid.UUID]Appointment
	events []EventLog
}

func newMemRepository() *memRepository {
	return &memRepository{
		blocked: make(map[string]BlockedDate),
		appts:   make(map[uuid.UUID]Appointment),
	}
}

func dateKey(t time.Time) string { return t.Format("2006-01-02") }

func (m *memRepository) ListRules(_ context.Context) ([]ScheduleSlotRule, error) {
	out := append([]ScheduleSlotRule(nil), m.rules...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Weekday != out[j].Weekday {
			return out[i].Weekday < out[j].Weekday
		}
		return out[i].TimeOfDay < out[j].TimeOfDay
	})
	return out, nil
}

func (m *memRepository) ListActiveRulesForWeekday(_ context.Context, wd time.Weekday) ([]ScheduleSlotRule, error) {
	var out []ScheduleSlotRule
	for _, r := range m.rules {
		if r.Weekday == wd && r.Active {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TimeOfDay < out[j].TimeOfDay })
	return out, nil
}

func (m *memRepository) GetActiveRule(_ context.Context, wd time.Weekday, clock string) (*ScheduleSlotRule, error) {
	for _, r := range m.rules {
		if r.Weekday == wd && r.TimeOfDay == clock && r.Active {
			rule := r
			return &rule, nil
		}
	}
	return nil, ErrRuleNotFound
}

func (m *memRepository) CreateRule(_ context.Context, r ScheduleSlotRule) (*ScheduleSlotRule, error) {
	for _, existing := range m.rules {
		if existing.Weekday == r.Weekday && existing.TimeOfDay == r.TimeOfDay {
			return nil, ErrDuplicateRule
		}
	}
	m.nextRuleID++
	r.ID = m.nextRuleID
	m.rules = append(m.rules, r)
	rule := r
	return &rule, nil
}

func (m *memRepository) UpdateRule(_ context.Context, r ScheduleSlotRule) (*ScheduleSlotRule, error) {
	for i, existing := range m.rules {
		if existing.ID == r.ID {
			m.rules[i].OnlineAllowed = r.OnlineAllowed
			m.rules[i].OfflineAllowed = r.OfflineAllowed
			m.rules[i].Active = r.Active
			rule := m.rules[i]
			return &rule, nil
		}
	}
	return nil, ErrRuleNotFound
}

func (m *memRepository) IsDateBlocked(_ context.Context, date time.Time) (bool, error) {
	_, ok := m.blocked[dateKey(date)]
	return ok, nil
}

func (m *memRepository) ListBlockedDates(_ context.Context, from time.Time) ([]BlockedDate, error) {
	var out []BlockedDate
	for _, b := range m.blocked {
		if !b.CalendarDate.Before(from) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CalendarDate.Before(out[j].CalendarDate) })
	return out, nil
}

func (m *memRepository) CreateBlockedDate(_ context.Context, date time.Time, reason *string) (*BlockedDate, error) {
	key := dateKey(date)
	if _, ok := m.blocked[key]; ok {
		return nil, ErrDateAlreadyBlocked
	}
	m.nextBlockedID++
	b := BlockedDate{ID: m.nextBlockedID, CalendarDate: date, Reason: reason, CreatedAt: time.Now()}
	m.blocked[key] = b
	return &b, nil
}

func (m *memRepository) DeleteBlockedDate(_ context.Context, id int64) error {
	for key, b := range m.blocked {
		if b.ID == id {
			delete(m.blocked, key)
			return nil
		}
	}
	return ErrBlockedDateNotFound
}

func (m *memRepository) ListOccupiedTimes(_ context.Context, date time.Time) ([]string, error) {
	var out []string
	for _, a := range m.appts {
		if dateKey(a.CalendarDate) == dateKey(date) && a.Status.Occupies() {
			out = append(out, a.TimeOfDay)
		}
	}
	return out, nil
}

func (m *memRepository) FindLiveAppointment(_ context.Context, date time.Time, clock string, excludeID uuid.UUID) (*Appointment, error) {
	for _, a := range m.appts {
		if a.ID == excludeID {
			continue
		}
		if dateKey(a.CalendarDate) == dateKey(date) && a.TimeOfDay == clock && a.Status.Occupies() {
			appt := a
			return &appt, nil
		}
	}
	return nil, ErrAppointmentNotFound
}

func (m *memRepository) GetAppointmentByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	a, ok := m.appts[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	appt := a
	return &appt, nil
}

func (m *memRepository) CreateAppointment(ctx context.Context, a Appointment) (*Appointment, error) {
	if a.Status.Occupies() {
		if existing, _ := m.FindLiveAppointment(ctx, a.CalendarDate, a.TimeOfDay, a.ID); existing != nil {
			return nil, ErrSlotConflict
		}
	}
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	m.appts[a.ID] = a
	appt := a
	return &appt, nil
}

func (m *memRepository) UpdateAppointmentSlot(ctx context.Context, id uuid.UUID, date time.Time, clock string) (*Appointment, error) {
	a, ok := m.appts[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	if a.Status.Occupies() {
		if existing, _ := m.FindLiveAppointment(ctx, date, clock, id); existing != nil {
			return nil, ErrSlotConflict
		}
	}
	a.CalendarDate = date
	a.TimeOfDay = clock
	a.UpdatedAt = time.Now()
	m.appts[id] = a
	appt := a
	return &appt, nil
}

func (m *memRepository) UpdateAppointmentStatus(_ context.Context, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error) {
	a, ok := m.appts[id]
	if !ok || a.Status != from {
		return nil, ErrAppointmentNotFound
	}
	a.Status = to
	a.UpdatedAt = time.Now()
	m.appts[id] = a
	appt := a
	return &appt, nil
}

func (m *memRepository) ListAppointments(_ context.Context, f AppointmentFilter) ([]Appointment, error) {
	var out []Appointment
	for _, a := range m.appts {
		if f.Date != nil && dateKey(a.CalendarDate) != dateKey(*f.Date) {
			continue
		}
		if f.Status != nil && a.Status != *f.Status {
			continue
		}
		if f.Email != nil && a.ContactEmail != *f.Email {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CalendarDate.Equal(out[j].CalendarDate) {
			return out[i].CalendarDate.After(out[j].CalendarDate)
		}
		return out[i].TimeOfDay > out[j].TimeOfDay
	})
	return out, nil
}

func (m *memRepository) CompletePastConfirmed(_ context.Context, today time.Time, clock string) (int64, error) {
	var n int64
	for id, a := range m.appts {
		if a.Status != StatusConfirmed {
			continue
		}
		if a.CalendarDate.Before(today) || (dateKey(a.CalendarDate) == dateKey(today) && a.TimeOfDay < clock) {
			a.Status = StatusCompleted
			m.appts[id] = a
			n++
		}
	}
	return n, nil
}

func (m *memRepository) InsertEvent(_ context.Context, ev EventLog) error {
	ev.ID = int64(len(m.events) + 1)
	m.events = append(m.events, ev)
	return nil
}

// noopLocker runs the critical section directly.
type noopLocker struct{}

func (noopLocker) WithSlotLock(ctx context.Context, _ time.Time, _ string, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
