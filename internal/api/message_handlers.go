package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mindwell/counseling-booking/internal/auth"
	"github.com/mindwell/counseling-booking/internal/messaging"
)

// viewerFrom maps the caller identity onto a thread side: admin tokens
// speak as the counselor, everyone else as the visitor.
func viewerFrom(r *http.Request) messaging.Sender {
	if auth.IsAdmin(r.Context()) {
		return messaging.SenderCounselor
	}
	return messaging.SenderVisitor
}

func listMessagesHandler(bookings BookingService, msgs MessageService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		appt, ok := loadOwnedAppointment(w, r, bookings, "")
		if !ok {
			return
		}

		thread, err := msgs.Thread(r.Context(), appt.ID, viewerFrom(r))
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		out := make([]MessageResponse, 0, len(thread))
		for i := range thread {
			out = append(out, toMessageResponse(&thread[i]))
		}

		writeJSON(w, http.StatusOK, out)
	}
}

func postMessageHandler(bookings BookingService, msgs MessageService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PostMessageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		appt, ok := loadOwnedAppointment(w, r, bookings, req.ContactEmail)
		if !ok {
			return
		}

		msg, err := msgs.Post(r.Context(), appt.ID, viewerFrom(r), req.Body)
		if err != nil {
			if errors.Is(err, messaging.ErrEmptyBody) {
				writeError(w, http.StatusBadRequest, "empty_body", "message body is required")
				return
			}
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		writeJSON(w, http.StatusCreated, toMessageResponse(msg))
	}
}
