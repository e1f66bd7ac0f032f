package announcement

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"
)

type memRepository struct {
	items  map[int64]Announcement
	nextID int64
}

func newMemRepository() *memRepository {
	return &memRepository{items: make(map[int64]Announcement)}
}

func (m *memRepository) Insert(_ context.Context, a Announcement) (*Announcement, error) {
	m.nextID++
	a.ID = m.nextID
	a.CreatedAt = time.Now().Add(time.Duration(m.nextID) * time.Millisecond)
	a.UpdatedAt = a.CreatedAt
	m.items[a.ID] = a
	out := a
	return &out, nil
}

func (m *memRepository) Update(_ context.Context, a Announcement) (*Announcement, error) {
	existing, ok := m.items[a.ID]
	if !ok {
		return nil, ErrNotFound
	}
	existing.Title = a.Title
	existing.Body = a.Body
	existing.Published = a.Published
	existing.UpdatedAt = time.Now()
	m.items[a.ID] = existing
	out := existing
	return &out, nil
}

func (m *memRepository) Delete(_ context.Context, id int64) error {
	if _, ok := m.items[id]; !ok {
		return ErrNotFound
	}
	delete(m.items, id)
	return nil
}

func (m *memRepository) GetByID(_ context.Context, id int64) (*Announcement, error) {
	a, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := a
	return &out, nil
}

func (m *memRepository) List(_ context.Context, publishedOnly bool) ([]Announcement, error) {
	var out []Announcement
	for _, a := range m.items {
		if publishedOnly && !a.Published {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func TestListPublished_FiltersDrafts(t *testing.T) {
	svc := NewService(newMemRepository())
	ctx := context.Background()

	if _, err := svc.Create(ctx, "Opening hours", "We open at 10:00.", true); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(ctx, "Draft notice", "Not ready yet.", false); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(ctx, "Holiday closure", "Closed next Friday.", true); err != nil {
		t.Fatalf("create: %v", err)
	}

	published, err := svc.ListPublished(ctx)
	if err != nil {
		t.Fatalf("list published: %v", err)
	}
	if len(published) != 2 {
		t.Fatalf("published count = %d, want 2", len(published))
	}
	// Newest first.
	if published[0].Title != "Holiday closure" {
		t.Errorf("first published = %q, want newest", published[0].Title)
	}

	all, err := svc.ListAll(ctx)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("all count = %d, want 3", len(all))
	}
}

func TestCreate_RejectsBlankTitle(t *testing.T) {
	svc := NewService(newMemRepository())

	if _, err := svc.Create(context.Background(), "  ", "body", true); !errors.Is(err, ErrEmptyTitle) {
		t.Errorf("blank title: got %v, want ErrEmptyTitle", err)
	}
}

func TestUpdateAndDelete(t *testing.T) {
	svc := NewService(newMemRepository())
	ctx := context.Background()

	created, err := svc.Create(ctx, "Notice", "v1", false)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := svc.Update(ctx, created.ID, "Notice", "v2", true)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Body != "v2" || !updated.Published {
		t.Errorf("update not applied: %+v", updated)
	}

	if err := svc.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.Delete(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("double delete: got %v, want ErrNotFound", err)
	}
}
