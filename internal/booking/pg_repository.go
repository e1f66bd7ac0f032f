package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgUniqueViolation = "23505"

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Helpers

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == pgUniqueViolation && (constraint == "" || pgErr.ConstraintName == constraint)
}

func scanRule(row pgx.Row) (*ScheduleSlotRule, error) {
	var r ScheduleSlotRule
	var weekday int16

	err := row.Scan(
		&r.ID,
		&weekday,
		&r.TimeOfDay,
		&r.OnlineAllowed,
		&r.OfflineAllowed,
		&r.Active,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRuleNotFound
		}
		return nil, err
	}

	r.Weekday = time.Weekday(weekday)
	return &r, nil
}

func scanBlockedDate(row pgx.Row) (*BlockedDate, error) {
	var b BlockedDate
	var reason *string

	err := row.Scan(
		&b.ID,
		&b.CalendarDate,
		&reason,
		&b.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBlockedDateNotFound
		}
		return nil, err
	}

	b.Reason = reason
	return &b, nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment

	err := row.Scan(
		&a.ID,
		&a.CalendarDate,
		&a.TimeOfDay,
		&a.ConsultationType,
		&a.ConsultationMode,
		&a.Status,
		&a.ClientName,
		&a.ContactEmail,
		&a.ContactPhone,
		&a.Topic,
		&a.Note,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	return &a, nil
}

const appointmentColumns = `id, calendar_date, time_of_day, consultation_type, consultation_mode,
	status, client_name, contact_email, contact_phone, topic, note, created_at, updated_at`

// Weekly template

func (r *PgRepository) ListRules(ctx context.Context) ([]ScheduleSlotRule, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, weekday, time_of_day, online_allowed, offline_allowed, active, created_at, updated_at
		FROM schedule_slot_rules
		ORDER BY weekday, time_of_day
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ScheduleSlotRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *rule)
	}
	return result, rows.Err()
}

func (r *PgRepository) ListActiveRulesForWeekday(ctx context.Context, wd time.Weekday) ([]ScheduleSlotRule, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, weekday, time_of_day, online_allowed, offline_allowed, active, created_at, updated_at
		FROM schedule_slot_rules
		WHERE weekday = $1 AND active
		ORDER BY time_of_day
	`, int16(wd))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ScheduleSlotRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *rule)
	}
	return result, rows.Err()
}

func (r *PgRepository) GetActiveRule(ctx context.Context, wd time.Weekday, clock string) (*ScheduleSlotRule, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, weekday, time_of_day, online_allowed, offline_allowed, active, created_at, updated_at
		FROM schedule_slot_rules
		WHERE weekday = $1 AND time_of_day = $2 AND active
	`, int16(wd), clock)
	return scanRule(row)
}

func (r *PgRepository) CreateRule(ctx context.Context, rule ScheduleSlotRule) (*ScheduleSlotRule, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO schedule_slot_rules (weekday, time_of_day, online_allowed, offline_allowed, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())
		RETURNING id, weekday, time_of_day, online_allowed, offline_allowed, active, created_at, updated_at
	`, int16(rule.Weekday), rule.TimeOfDay, rule.OnlineAllowed, rule.OfflineAllowed, rule.Active)

	created, err := scanRule(row)
	if err != nil {
		if isUniqueViolation(err, "") {
			return nil, ErrDuplicateRule
		}
		return nil, err
	}
	return created, nil
}

func (r *PgRepository) UpdateRule(ctx context.Context, rule ScheduleSlotRule) (*ScheduleSlotRule, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE schedule_slot_rules
		SET online_allowed = $2,
		    offline_allowed = $3,
		    active = $4,
		    updated_at = now()
		WHERE id = $1
		RETURNING id, weekday, time_of_day, online_allowed, offline_allowed, active, created_at, updated_at
	`, rule.ID, rule.OnlineAllowed, rule.OfflineAllowed, rule.Active)
	return scanRule(row)
}

// Blocked dates

func (r *PgRepository) IsDateBlocked(ctx context.Context, date time.Time) (bool, error) {
	var blocked bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM blocked_dates WHERE calendar_date = $1)
	`, date).Scan(&blocked)
	if err != nil {
		return false, err
	}
	return blocked, nil
}

func (r *PgRepository) ListBlockedDates(ctx context.Context, from time.Time) ([]BlockedDate, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, calendar_date, reason, created_at
		FROM blocked_dates
		WHERE calendar_date >= $1
		ORDER BY calendar_date
	`, from)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []BlockedDate
	for rows.Next() {
		b, err := scanBlockedDate(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *b)
	}
	return result, rows.Err()
}

func (r *PgRepository) CreateBlockedDate(ctx context.Context, date time.Time, reason *string) (*BlockedDate, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO blocked_dates (calendar_date, reason, created_at)
		VALUES ($1, $2, now())
		RETURNING id, calendar_date, reason, created_at
	`, date, reason)

	created, err := scanBlockedDate(row)
	if err != nil {
		if isUniqueViolation(err, "") {
			return nil, ErrDateAlreadyBlocked
		}
		return nil, err
	}
	return created, nil
}

func (r *PgRepository) DeleteBlockedDate(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM blocked_dates WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrBlockedDateNotFound
	}
	return nil
}

// Appointments

func (r *PgRepository) ListOccupiedTimes(ctx context.Context, date time.Time) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT time_of_day
		FROM appointments
		WHERE calendar_date = $1
		  AND status IN ('pending', 'pending_payment', 'confirmed')
	`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var clock string
		if err := rows.Scan(&clock); err != nil {
			return nil, err
		}
		result = append(result, clock)
	}
	return result, rows.Err()
}

func (r *PgRepository) FindLiveAppointment(ctx context.Context, date time.Time, clock string, excludeID uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, fmt.Sprintf(`
		SELECT %s
		FROM appointments
		WHERE calendar_date = $1
		  AND time_of_day = $2
		  AND status IN ('pending', 'pending_payment', 'confirmed')
		  AND id <> $3
	`, appointmentColumns), date, clock, excludeID)
	return scanAppointment(row)
}

func (r *PgRepository) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, fmt.Sprintf(`
		SELECT %s FROM appointments WHERE id = $1
	`, appointmentColumns), id)
	return scanAppointment(row)
}

func (r *PgRepository) CreateAppointment(ctx context.Context, a Appointment) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, fmt.Sprintf(`
		INSERT INTO appointments (id, calendar_date, time_of_day, consultation_type, consultation_mode,
			status, client_name, contact_email, contact_phone, topic, note, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now(), now())
		RETURNING %s
	`, appointmentColumns),
		a.ID, a.CalendarDate, a.TimeOfDay, a.ConsultationType, a.ConsultationMode,
		a.Status, a.ClientName, a.ContactEmail, a.ContactPhone, a.Topic, a.Note)

	created, err := scanAppointment(row)
	if err != nil {
		if isUniqueViolation(err, "appointments_slot_live_uniq") {
			return nil, ErrSlotConflict
		}
		return nil, err
	}
	return created, nil
}

func (r *PgRepository) UpdateAppointmentSlot(ctx context.Context, id uuid.UUID, date time.Time, clock string) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, fmt.Sprintf(`
		UPDATE appointments
		SET calendar_date = $2,
		    time_of_day = $3,
		    updated_at = now()
		WHERE id = $1
		RETURNING %s
	`, appointmentColumns), id, date, clock)

	updated, err := scanAppointment(row)
	if err != nil {
		if isUniqueViolation(err, "appointments_slot_live_uniq") {
			return nil, ErrSlotConflict
		}
		return nil, err
	}
	return updated, nil
}

func (r *PgRepository) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, fmt.Sprintf(`
		UPDATE appointments
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		  AND status = $3
		RETURNING %s
	`, appointmentColumns), id, to, from)
	return scanAppointment(row)
}

func (r *PgRepository) ListAppointments(ctx context.Context, f AppointmentFilter) ([]Appointment, error) {
	query := fmt.Sprintf(`SELECT %s FROM appointments WHERE TRUE`, appointmentColumns)
	args := []any{}

	if f.Date != nil {
		args = append(args, *f.Date)
		query += fmt.Sprintf(" AND calendar_date = $%d", len(args))
	}
	if f.Status != nil {
		args = append(args, *f.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if f.Email != nil {
		args = append(args, *f.Email)
		query += fmt.Sprintf(" AND contact_email = $%d", len(args))
	}

	query += " ORDER BY calendar_date DESC, time_of_day DESC"

	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}
	args = append(args, limit, offset)
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	return result, rows.Err()
}

// Status worker

func (r *PgRepository) CompletePastConfirmed(ctx context.Context, today time.Time, clock string) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE appointments
		SET status = 'completed',
		    updated_at = now()
		WHERE status = 'confirmed'
		  AND (calendar_date < $1 OR (calendar_date = $1 AND time_of_day < $2))
	`, today, clock)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// Event logging

func (r *PgRepository) InsertEvent(ctx context.Context, ev EventLog) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO event_logs (event_type, appointment_id, payload, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
	`, ev.EventType, ev.AppointmentID, ev.Payload, nullableTime(ev.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert event log: %w", err)
	}

	return nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
