package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mindwell/counseling-booking/internal/auth"
	"github.com/mindwell/counseling-booking/internal/booking"
)

var errNotOwner = errors.New("caller does not own this appointment")

func parseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}

func parseMode(s string) (booking.ConsultationMode, bool) {
	switch s {
	case "":
		return "", true
	case string(booking.ModeOnline):
		return booking.ModeOnline, true
	case string(booking.ModeOffline):
		return booking.ModeOffline, true
	}
	return "", false
}

// callerEmail pulls the visitor's contact email from the request, used for
// the ownership check. A body-provided email wins over the header.
func callerEmail(r *http.Request, bodyEmail string) string {
	if bodyEmail != "" {
		return bodyEmail
	}
	return r.Header.Get("X-Contact-Email")
}

// authorizeOwner enforces the ownership capability before service calls:
// the caller must supply the appointment's contact email, unless the
// request carries a valid admin token.
func authorizeOwner(r *http.Request, appt *booking.Appointment, bodyEmail string) error {
	if auth.IsAdmin(r.Context()) {
		return nil
	}
	email := callerEmail(r, bodyEmail)
	if email == "" || !strings.EqualFold(email, appt.ContactEmail) {
		return errNotOwner
	}
	return nil
}

func actorFrom(r *http.Request) booking.Actor {
	return booking.Actor{Admin: auth.IsAdmin(r.Context())}
}

func availabilityHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date, err := parseDate(chi.URLParam(r, "date"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}

		mode, ok := parseMode(r.URL.Query().Get("mode"))
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_mode", "mode must be online or offline")
			return
		}

		day, err := svc.SlotsForDate(r.Context(), date, mode)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		writeJSON(w, http.StatusOK, day)
	}
}

func createAppointmentHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		date, err := parseDate(req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}

		clock, err := booking.NormalizeClock(req.Time)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_time", "time must be HH:MM")
			return
		}

		mode, ok := parseMode(req.ConsultationMode)
		if !ok || mode == "" {
			writeError(w, http.StatusBadRequest, "invalid_mode", "consultation_mode must be online or offline")
			return
		}

		ctype := booking.ConsultationType(req.ConsultationType)
		if ctype != booking.TypeRegular && ctype != booking.TypeWelfare {
			writeError(w, http.StatusBadRequest, "invalid_type", "consultation_type must be regular or welfare")
			return
		}

		if strings.TrimSpace(req.ClientName) == "" || strings.TrimSpace(req.ContactEmail) == "" {
			writeError(w, http.StatusBadRequest, "missing_fields", "client_name and contact_email are required")
			return
		}

		appt, err := svc.CreateAppointment(r.Context(), booking.CreateInput{
			CalendarDate:     date,
			TimeOfDay:        clock,
			ConsultationType: ctype,
			ConsultationMode: mode,
			ClientName:       req.ClientName,
			ContactEmail:     req.ContactEmail,
			ContactPhone:     req.ContactPhone,
			Topic:            req.Topic,
			Note:             req.Note,
		})
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toAppointmentResponse(appt))
	}
}

func getAppointmentHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		appt, ok := loadOwnedAppointment(w, r, svc, "")
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func rescheduleHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RescheduleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		appt, ok := loadOwnedAppointment(w, r, svc, req.ContactEmail)
		if !ok {
			return
		}

		newDate, err := parseDate(req.NewDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "new_date must be YYYY-MM-DD")
			return
		}

		newClock, err := booking.NormalizeClock(req.NewTime)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_time", "new_time must be HH:MM")
			return
		}

		updated, err := svc.Reschedule(r.Context(), appt.ID, newDate, newClock, actorFrom(r))
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(updated))
	}
}

func cancelHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CancelRequest
		// An empty body is fine for admin cancels.
		_ = json.NewDecoder(r.Body).Decode(&req)

		appt, ok := loadOwnedAppointment(w, r, svc, req.ContactEmail)
		if !ok {
			return
		}

		cancelled, err := svc.Cancel(r.Context(), appt.ID, actorFrom(r))
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(cancelled))
	}
}

// loadOwnedAppointment parses the {id} parameter, loads the appointment,
// and runs the ownership check. On failure it writes the response and
// returns ok=false.
func loadOwnedAppointment(w http.ResponseWriter, r *http.Request, svc BookingService, bodyEmail string) (*booking.Appointment, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
		return nil, false
	}

	appt, err := svc.GetAppointment(r.Context(), id)
	if err != nil {
		handleBookingError(w, err)
		return nil, false
	}

	if err := authorizeOwner(r, appt, bodyEmail); err != nil {
		writeError(w, http.StatusForbidden, "not_owner", "contact email does not match this appointment")
		return nil, false
	}

	return appt, true
}

func handleBookingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, booking.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, booking.ErrDateBlocked):
		writeError(w, http.StatusConflict, "date_blocked", err.Error())
	case errors.Is(err, booking.ErrSlotNotConfigured):
		writeError(w, http.StatusConflict, "slot_not_configured", err.Error())
	case errors.Is(err, booking.ErrModeNotSupported):
		writeError(w, http.StatusConflict, "mode_not_supported", err.Error())
	case errors.Is(err, booking.ErrSlotTaken):
		writeError(w, http.StatusConflict, "slot_taken", err.Error())
	case errors.Is(err, booking.ErrSlotBeingBooked):
		writeError(w, http.StatusConflict, "slot_being_booked", "slot is currently being booked, please retry shortly")
	case errors.Is(err, booking.ErrDeadlinePassed):
		writeError(w, http.StatusConflict, "deadline_passed", err.Error())
	case errors.Is(err, booking.ErrInvalidStatusTransition):
		writeError(w, http.StatusConflict, "invalid_status_transition", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
