package api

import (
	"net/http"

	"github.com/mindwell/counseling-booking/internal/announcement"
)

func listAnnouncementsHandler(svc AnnouncementService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.ListPublished(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, announcementList(items))
	}
}

func announcementList(items []announcement.Announcement) []AnnouncementResponse {
	out := make([]AnnouncementResponse, 0, len(items))
	for i := range items {
		out = append(out, toAnnouncementResponse(&items[i]))
	}
	return out
}
