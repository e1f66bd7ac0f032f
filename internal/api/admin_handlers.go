package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mindwell/counseling-booking/internal/announcement"
	"github.com/mindwell/counseling-booking/internal/auth"
	"github.com/mindwell/counseling-booking/internal/booking"
)

func loginHandler(mgr *auth.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		token, err := mgr.Login(req.Email, req.Password)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid_credentials", "email or password is incorrect")
			return
		}

		writeJSON(w, http.StatusOK, LoginResponse{Token: token})
	}
}

// Schedule rules

func listRulesHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rules, err := svc.ListRules(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		out := make([]SlotRuleResponse, 0, len(rules))
		for i := range rules {
			out = append(out, toSlotRuleResponse(&rules[i]))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func createRuleHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SlotRuleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		if req.Weekday < 0 || req.Weekday > 6 {
			writeError(w, http.StatusBadRequest, "invalid_weekday", "weekday must be 0 (Sunday) through 6 (Saturday)")
			return
		}

		clock, err := booking.NormalizeClock(req.Time)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_time", "time must be HH:MM")
			return
		}

		rule, err := svc.CreateRule(r.Context(), time.Weekday(req.Weekday), clock, req.OnlineAllowed, req.OfflineAllowed)
		if err != nil {
			if errors.Is(err, booking.ErrDuplicateRule) {
				writeError(w, http.StatusConflict, "duplicate_rule", err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		writeJSON(w, http.StatusCreated, toSlotRuleResponse(rule))
	}
}

func updateRuleHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_rule_id", "id must be an integer")
			return
		}

		var req SlotRuleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		rule, err := svc.UpdateRule(r.Context(), id, req.OnlineAllowed, req.OfflineAllowed, req.Active)
		if err != nil {
			if errors.Is(err, booking.ErrRuleNotFound) {
				writeError(w, http.StatusNotFound, "rule_not_found", err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		writeJSON(w, http.StatusOK, toSlotRuleResponse(rule))
	}
}

// Blocked dates

func listBlockedDatesHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dates, err := svc.ListBlockedDates(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		out := make([]BlockedDateResponse, 0, len(dates))
		for i := range dates {
			out = append(out, toBlockedDateResponse(&dates[i]))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func blockDateHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BlockedDateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		date, err := parseDate(req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}

		blocked, err := svc.BlockDate(r.Context(), date, req.Reason)
		if err != nil {
			if errors.Is(err, booking.ErrDateAlreadyBlocked) {
				writeError(w, http.StatusConflict, "date_already_blocked", err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		writeJSON(w, http.StatusCreated, toBlockedDateResponse(blocked))
	}
}

func unblockDateHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_blocked_date_id", "id must be an integer")
			return
		}

		if err := svc.UnblockDate(r.Context(), id); err != nil {
			if errors.Is(err, booking.ErrBlockedDateNotFound) {
				writeError(w, http.StatusNotFound, "blocked_date_not_found", err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// Appointments

func listAppointmentsHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var f booking.AppointmentFilter

		if s := r.URL.Query().Get("date"); s != "" {
			date, err := parseDate(s)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
				return
			}
			f.Date = &date
		}
		if s := r.URL.Query().Get("status"); s != "" {
			status := booking.AppointmentStatus(s)
			f.Status = &status
		}
		if s := r.URL.Query().Get("email"); s != "" {
			f.Email = &s
		}
		if s := r.URL.Query().Get("limit"); s != "" {
			f.Limit, _ = strconv.Atoi(s)
		}
		if s := r.URL.Query().Get("offset"); s != "" {
			f.Offset, _ = strconv.Atoi(s)
		}

		appts, err := svc.ListAppointments(r.Context(), f)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		out := make([]AppointmentResponse, 0, len(appts))
		for i := range appts {
			out = append(out, toAppointmentResponse(&appts[i]))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func updateStatusHandler(svc BookingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
			return
		}

		var req UpdateStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		to := booking.AppointmentStatus(req.Status)
		switch to {
		case booking.StatusPending, booking.StatusPendingPayment, booking.StatusConfirmed,
			booking.StatusCancelled, booking.StatusCompleted:
		default:
			writeError(w, http.StatusBadRequest, "invalid_status", "unknown appointment status")
			return
		}

		updated, err := svc.UpdateStatus(r.Context(), id, to)
		if err != nil {
			handleBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(updated))
	}
}

// Announcements (admin)

func listAllAnnouncementsHandler(svc AnnouncementService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.ListAll(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, announcementList(items))
	}
}

func createAnnouncementHandler(svc AnnouncementService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AnnouncementRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		created, err := svc.Create(r.Context(), req.Title, req.Body, req.Published)
		if err != nil {
			if errors.Is(err, announcement.ErrEmptyTitle) {
				writeError(w, http.StatusBadRequest, "empty_title", err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		writeJSON(w, http.StatusCreated, toAnnouncementResponse(created))
	}
}

func updateAnnouncementHandler(svc AnnouncementService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_announcement_id", "id must be an integer")
			return
		}

		var req AnnouncementRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		updated, err := svc.Update(r.Context(), id, req.Title, req.Body, req.Published)
		if err != nil {
			switch {
			case errors.Is(err, announcement.ErrNotFound):
				writeError(w, http.StatusNotFound, "announcement_not_found", err.Error())
			case errors.Is(err, announcement.ErrEmptyTitle):
				writeError(w, http.StatusBadRequest, "empty_title", err.Error())
			default:
				writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			}
			return
		}

		writeJSON(w, http.StatusOK, toAnnouncementResponse(updated))
	}
}

func deleteAnnouncementHandler(svc AnnouncementService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_announcement_id", "id must be an integer")
			return
		}

		if err := svc.Delete(r.Context(), id); err != nil {
			if errors.Is(err, announcement.ErrNotFound) {
				writeError(w, http.StatusNotFound, "announcement_not_found", err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
