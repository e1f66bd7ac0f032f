package messaging

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func scanMessage(row pgx.Row) (*Message, error) {
	var m Message

	err := row.Scan(
		&m.ID,
		&m.AppointmentID,
		&m.Sender,
		&m.Body,
		&m.CreatedAt,
		&m.ReadAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMessageNotFound
		}
		return nil, err
	}

	return &m, nil
}

func (r *PgRepository) InsertMessage(ctx context.Context, m Message) (*Message, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO messages (id, appointment_id, sender, body, created_at)
		VALUES ($1, $2, $3, $4, now())
		RETURNING id, appointment_id, sender, body, created_at, read_at
	`, m.ID, m.AppointmentID, m.Sender, m.Body)
	return scanMessage(row)
}

func (r *PgRepository) ListByAppointment(ctx context.Context, appointmentID uuid.UUID) ([]Message, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, appointment_id, sender, body, created_at, read_at
		FROM messages
		WHERE appointment_id = $1
		ORDER BY created_at
	`, appointmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *m)
	}
	return result, rows.Err()
}

func (r *PgRepository) MarkRead(ctx context.Context, appointmentID uuid.UUID, from Sender) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE messages
		SET read_at = now()
		WHERE appointment_id = $1
		  AND sender = $2
		  AND read_at IS NULL
	`, appointmentID, from)
	return err
}

func (r *PgRepository) CountUnread(ctx context.Context, appointmentID uuid.UUID, from Sender) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT count(*)
		FROM messages
		WHERE appointment_id = $1
		  AND sender = $2
		  AND read_at IS NULL
	`, appointmentID, from).Scan(&n)
	if err != nil {
		return 0, err
	}
	return n, nil
}
