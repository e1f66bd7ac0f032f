package messaging

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var ErrEmptyBody = errors.New("message body is empty")

const maxBodyLen = 4000

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Post appends a message to an appointment's thread.
func (s *Service) Post(ctx context.Context, appointmentID uuid.UUID, sender Sender, body string) (*Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, ErrEmptyBody
	}
	if len(body) > maxBodyLen {
		body = body[:maxBodyLen]
	}

	msg, err := s.repo.InsertMessage(ctx, Message{
		ID:            uuid.New(),
		AppointmentID: appointmentID,
		Sender:        sender,
		Body:          body,
	})
	if err != nil {
		return nil, fmt.Errorf("post message: %w", err)
	}
	return msg, nil
}

// Thread returns the full thread for an appointment and marks the other
// side's messages read, since the viewer has now seen them.
func (s *Service) Thread(ctx context.Context, appointmentID uuid.UUID, viewer Sender) ([]Message, error) {
	msgs, err := s.repo.ListByAppointment(ctx, appointmentID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	if err := s.repo.MarkRead(ctx, appointmentID, viewer.Other()); err != nil {
		return nil, fmt.Errorf("mark messages read: %w", err)
	}

	return msgs, nil
}

// UnreadCount reports how many messages from the other side the viewer has
// not seen yet.
func (s *Service) UnreadCount(ctx context.Context, appointmentID uuid.UUID, viewer Sender) (int, error) {
	n, err := s.repo.CountUnread(ctx, appointmentID, viewer.Other())
	if err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return n, nil
}
