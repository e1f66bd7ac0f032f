package announcement

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func scanAnnouncement(row pgx.Row) (*Announcement, error) {
	var a Announcement

	err := row.Scan(
		&a.ID,
		&a.Title,
		&a.Body,
		&a.Published,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &a, nil
}

func (r *PgRepository) Insert(ctx context.Context, a Announcement) (*Announcement, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO announcements (title, body, published, created_at, updated_at)
		VALUES ($1, $2, $3, now(), now())
		RETURNING id, title, body, published, created_at, updated_at
	`, a.Title, a.Body, a.Published)
	return scanAnnouncement(row)
}

func (r *PgRepository) Update(ctx context.Context, a Announcement) (*Announcement, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE announcements
		SET title = $2,
		    body = $3,
		    published = $4,
		    updated_at = now()
		WHERE id = $1
		RETURNING id, title, body, published, created_at, updated_at
	`, a.ID, a.Title, a.Body, a.Published)
	return scanAnnouncement(row)
}

func (r *PgRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM announcements WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PgRepository) GetByID(ctx context.Context, id int64) (*Announcement, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, title, body, published, created_at, updated_at
		FROM announcements
		WHERE id = $1
	`, id)
	return scanAnnouncement(row)
}

func (r *PgRepository) List(ctx context.Context, publishedOnly bool) ([]Announcement, error) {
	query := `
		SELECT id, title, body, published, created_at, updated_at
		FROM announcements
	`
	if publishedOnly {
		query += ` WHERE published`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Announcement
	for rows.Next() {
		a, err := scanAnnouncement(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	return result, rows.Err()
}
