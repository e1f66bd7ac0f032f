package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/mindwell/counseling-booking/internal/announcement"
	"github.com/mindwell/counseling-booking/internal/auth"
	"github.com/mindwell/counseling-booking/internal/booking"
	"github.com/mindwell/counseling-booking/internal/messaging"
)

// BookingService is the slice of the booking service the handlers use.
type BookingService interface {
	SlotsForDate(ctx context.Context, date time.Time, mode booking.ConsultationMode) (booking.DayAvailability, error)
	CreateAppointment(ctx context.Context, in booking.CreateInput) (*booking.Appointment, error)
	GetAppointment(ctx context.Context, id uuid.UUID) (*booking.Appointment, error)
	Reschedule(ctx context.Context, id uuid.UUID, newDate time.Time, newClock string, actor booking.Actor) (*booking.Appointment, error)
	Cancel(ctx context.Context, id uuid.UUID, actor booking.Actor) (*booking.Appointment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, to booking.AppointmentStatus) (*booking.Appointment, error)
	ListAppointments(ctx context.Context, f booking.AppointmentFilter) ([]booking.Appointment, error)

	ListRules(ctx context.Context) ([]booking.ScheduleSlotRule, error)
	CreateRule(ctx context.Context, weekday time.Weekday, clock string, online, offline bool) (*booking.ScheduleSlotRule, error)
	UpdateRule(ctx context.Context, id int64, online, offline, active bool) (*booking.ScheduleSlotRule, error)
	ListBlockedDates(ctx context.Context) ([]booking.BlockedDate, error)
	BlockDate(ctx context.Context, date time.Time, reason *string) (*booking.BlockedDate, error)
	UnblockDate(ctx context.Context, id int64) error
}

type MessageService interface {
	Post(ctx context.Context, appointmentID uuid.UUID, sender messaging.Sender, body string) (*messaging.Message, error)
	Thread(ctx context.Context, appointmentID uuid.UUID, viewer messaging.Sender) ([]messaging.Message, error)
}

type AnnouncementService interface {
	ListPublished(ctx context.Context) ([]announcement.Announcement, error)
	ListAll(ctx context.Context) ([]announcement.Announcement, error)
	Create(ctx context.Context, title, body string, published bool) (*announcement.Announcement, error)
	Update(ctx context.Context, id int64, title, body string, published bool) (*announcement.Announcement, error)
	Delete(ctx context.Context, id int64) error
}

type RouterConfig struct {
	Booking       BookingService
	Messages      MessageService
	Announcements AnnouncementService
	Auth          *auth.Manager
	PgPool        *pgxpool.Pool
	Redis         *redis.Client
	Log           zerolog.Logger
	Env           string
	Version       string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Apply middleware
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Log))

	// Health endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	r.Route("/api", func(r chi.Router) {
		// Recognize an admin token anywhere so the bypass applies on
		// visitor routes too.
		r.Use(cfg.Auth.Optional)

		r.Get("/announcements", listAnnouncementsHandler(cfg.Announcements))
		r.Get("/schedule/available/{date}", availabilityHandler(cfg.Booking))

		r.Post("/appointments", createAppointmentHandler(cfg.Booking))
		r.Get("/appointments/{id}", getAppointmentHandler(cfg.Booking))
		r.Patch("/appointments/{id}", rescheduleHandler(cfg.Booking))
		r.Post("/appointments/{id}/cancel", cancelHandler(cfg.Booking))

		r.Get("/appointments/{id}/messages", listMessagesHandler(cfg.Booking, cfg.Messages))
		r.Post("/appointments/{id}/messages", postMessageHandler(cfg.Booking, cfg.Messages))

		r.Route("/admin", func(r chi.Router) {
			r.Post("/login", loginHandler(cfg.Auth))

			r.Group(func(r chi.Router) {
				r.Use(cfg.Auth.Require)

				r.Get("/schedule/rules", listRulesHandler(cfg.Booking))
				r.Post("/schedule/rules", createRuleHandler(cfg.Booking))
				r.Put("/schedule/rules/{id}", updateRuleHandler(cfg.Booking))

				r.Get("/schedule/blocked", listBlockedDatesHandler(cfg.Booking))
				r.Post("/schedule/blocked", blockDateHandler(cfg.Booking))
				r.Delete("/schedule/blocked/{id}", unblockDateHandler(cfg.Booking))

				r.Get("/appointments", listAppointmentsHandler(cfg.Booking))
				r.Patch("/appointments/{id}/status", updateStatusHandler(cfg.Booking))

				r.Get("/announcements", listAllAnnouncementsHandler(cfg.Announcements))
				r.Post("/announcements", createAnnouncementHandler(cfg.Announcements))
				r.Put("/announcements/{id}", updateAnnouncementHandler(cfg.Announcements))
				r.Delete("/announcements/{id}", deleteAnnouncementHandler(cfg.Announcements))
			})
		})
	})

	return r
}
