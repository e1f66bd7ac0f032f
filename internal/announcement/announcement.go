package announcement

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrNotFound   = errors.New("announcement not found")
	ErrEmptyTitle = errors.New("announcement title is empty")
)

type Announcement struct {
	ID        int64
	Title     string
	Body      string
	Published bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Repository contains the DB interactions for announcements.
type Repository interface {
	Insert(ctx context.Context, a Announcement) (*Announcement, error)
	Update(ctx context.Context, a Announcement) (*Announcement, error)
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*Announcement, error)
	List(ctx context.Context, publishedOnly bool) ([]Announcement, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ListPublished returns the announcements visible to visitors, newest
// first.
func (s *Service) ListPublished(ctx context.Context) ([]Announcement, error) {
	out, err := s.repo.List(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("list announcements: %w", err)
	}
	return out, nil
}

// ListAll returns every announcement for the admin dashboard.
func (s *Service) ListAll(ctx context.Context) ([]Announcement, error) {
	out, err := s.repo.List(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("list announcements: %w", err)
	}
	return out, nil
}

func (s *Service) Create(ctx context.Context, title, body string, published bool) (*Announcement, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrEmptyTitle
	}

	created, err := s.repo.Insert(ctx, Announcement{Title: title, Body: body, Published: published})
	if err != nil {
		return nil, fmt.Errorf("create announcement: %w", err)
	}
	return created, nil
}

func (s *Service) Update(ctx context.Context, id int64, title, body string, published bool) (*Announcement, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrEmptyTitle
	}

	updated, err := s.repo.Update(ctx, Announcement{ID: id, Title: title, Body: body, Published: published})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}
