package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/mindwell/counseling-booking/internal/announcement"
	"github.com/mindwell/counseling-booking/internal/booking"
	"github.com/mindwell/counseling-booking/internal/messaging"
)

type CreateAppointmentRequest struct {
	Date             string  `json:"date"` // "2006-01-02"
	Time             string  `json:"time"` // "HH:MM"
	ConsultationType string  `json:"consultation_type"`
	ConsultationMode string  `json:"consultation_mode"`
	ClientName       string  `json:"client_name"`
	ContactEmail     string  `json:"contact_email"`
	ContactPhone     *string `json:"contact_phone,omitempty"`
	Topic            *string `json:"topic,omitempty"`
	Note             *string `json:"note,omitempty"`
}

type RescheduleRequest struct {
	NewDate      string `json:"new_date"`
	NewTime      string `json:"new_time"`
	ContactEmail string `json:"contact_email,omitempty"`
}

type CancelRequest struct {
	ContactEmail string `json:"contact_email,omitempty"`
}

type AppointmentResponse struct {
	ID               uuid.UUID `json:"id"`
	Date             string    `json:"date"`
	Time             string    `json:"time"`
	ConsultationType string    `json:"consultation_type"`
	ConsultationMode string    `json:"consultation_mode"`
	Status           string    `json:"status"`
	ClientName       string    `json:"client_name"`
	ContactEmail     string    `json:"contact_email"`
	ContactPhone     *string   `json:"contact_phone,omitempty"`
	Topic            *string   `json:"topic,omitempty"`
	Note             *string   `json:"note,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func toAppointmentResponse(a *booking.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:               a.ID,
		Date:             a.CalendarDate.Format("2006-01-02"),
		Time:             a.TimeOfDay,
		ConsultationType: string(a.ConsultationType),
		ConsultationMode: string(a.ConsultationMode),
		Status:           string(a.Status),
		ClientName:       a.ClientName,
		ContactEmail:     a.ContactEmail,
		ContactPhone:     a.ContactPhone,
		Topic:            a.Topic,
		Note:             a.Note,
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
	}
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

type PostMessageRequest struct {
	Body         string `json:"body"`
	ContactEmail string `json:"contact_email,omitempty"`
}

type MessageResponse struct {
	ID        uuid.UUID  `json:"id"`
	Sender    string     `json:"sender"`
	Body      string     `json:"body"`
	CreatedAt time.Time  `json:"created_at"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
}

func toMessageResponse(m *messaging.Message) MessageResponse {
	return MessageResponse{
		ID:        m.ID,
		Sender:    string(m.Sender),
		Body:      m.Body,
		CreatedAt: m.CreatedAt,
		ReadAt:    m.ReadAt,
	}
}

type SlotRuleRequest struct {
	Weekday        int    `json:"weekday"` // 0=Sunday .. 6=Saturday
	Time           string `json:"time"`
	OnlineAllowed  bool   `json:"online_allowed"`
	OfflineAllowed bool   `json:"offline_allowed"`
	Active         bool   `json:"active"`
}

type SlotRuleResponse struct {
	ID             int64  `json:"id"`
	Weekday        int    `json:"weekday"`
	Time           string `json:"time"`
	OnlineAllowed  bool   `json:"online_allowed"`
	OfflineAllowed bool   `json:"offline_allowed"`
	Active         bool   `json:"active"`
}

func toSlotRuleResponse(r *booking.ScheduleSlotRule) SlotRuleResponse {
	return SlotRuleResponse{
		ID:             r.ID,
		Weekday:        int(r.Weekday),
		Time:           r.TimeOfDay,
		OnlineAllowed:  r.OnlineAllowed,
		OfflineAllowed: r.OfflineAllowed,
		Active:         r.Active,
	}
}

type BlockedDateRequest struct {
	Date   string  `json:"date"`
	Reason *string `json:"reason,omitempty"`
}

type BlockedDateResponse struct {
	ID     int64   `json:"id"`
	Date   string  `json:"date"`
	Reason *string `json:"reason,omitempty"`
}

func toBlockedDateResponse(b *booking.BlockedDate) BlockedDateResponse {
	return BlockedDateResponse{
		ID:     b.ID,
		Date:   b.CalendarDate.Format("2006-01-02"),
		Reason: b.Reason,
	}
}

type AnnouncementRequest struct {
	Title     string `json:"title"`
	Body      string `json:"body"`
	Published bool   `json:"published"`
}

type AnnouncementResponse struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Published bool      `json:"published"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toAnnouncementResponse(a *announcement.Announcement) AnnouncementResponse {
	return AnnouncementResponse{
		ID:        a.ID,
		Title:     a.Title,
		Body:      a.Body,
		Published: a.Published,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
