package messaging

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrMessageNotFound = errors.New("message not found")

// Repository contains the DB interactions for message threads.
type Repository interface {
	InsertMessage(ctx context.Context, m Message) (*Message, error)
	ListByAppointment(ctx context.Context, appointmentID uuid.UUID) ([]Message, error)
	// MarkRead stamps read_at on the unread messages sent by the given side.
	MarkRead(ctx context.Context, appointmentID uuid.UUID, from Sender) error
	CountUnread(ctx context.Context, appointmentID uuid.UUID, from Sender) (int, error)
}
