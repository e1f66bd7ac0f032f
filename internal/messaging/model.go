package messaging

import (
	"time"

	"github.com/google/uuid"
)

type Sender string

const (
	SenderVisitor   Sender = "visitor"
	SenderCounselor Sender = "counselor"
)

// Other returns the opposite side of the thread.
func (s Sender) Other() Sender {
	if s == SenderVisitor {
		return SenderCounselor
	}
	return SenderVisitor
}

// Message is one entry in the thread attached to an appointment.
type Message struct {
	ID            uuid.UUID
	AppointmentID uuid.UUID
	Sender        Sender
	Body          string
	CreatedAt     time.Time
	ReadAt        *time.Time
}
