package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/mindwell/counseling-booking/internal/announcement"
	"github.com/mindwell/counseling-booking/internal/auth"
	"github.com/mindwell/counseling-booking/internal/booking"
	"github.com/mindwell/counseling-booking/internal/messaging"
)

// stubBooking lets each test pin down just the calls it expects.
type stubBooking struct {
	slotsForDate      func(date time.Time, mode booking.ConsultationMode) (booking.DayAvailability, error)
	createAppointment func(in booking.CreateInput) (*booking.Appointment, error)
	getAppointment    func(id uuid.UUID) (*booking.Appointment, error)
	reschedule        func(id uuid.UUID, newDate time.Time, newClock string, actor booking.Actor) (*booking.Appointment, error)
	cancel            func(id uuid.UUID, actor booking.Actor) (*booking.Appointment, error)
}

func (s *stubBooking) SlotsForDate(_ context.Context, date time.Time, mode booking.ConsultationMode) (booking.DayAvailability, error) {
	return s.slotsForDate(date, mode)
}

func (s *stubBooking) CreateAppointment(_ context.Context, in booking.CreateInput) (*booking.Appointment, error) {
	return s.createAppointment(in)
}

func (s *stubBooking) GetAppointment(_ context.Context, id uuid.UUID) (*booking.Appointment, error) {
	return s.getAppointment(id)
}

func (s *stubBooking) Reschedule(_ context.Context, id uuid.UUID, newDate time.Time, newClock string, actor booking.Actor) (*booking.Appointment, error) {
	return s.reschedule(id, newDate, newClock, actor)
}

func (s *stubBooking) Cancel(_ context.Context, id uuid.UUID, actor booking.Actor) (*booking.Appointment, error) {
	return s.cancel(id, actor)
}

func (s *stubBooking) UpdateStatus(context.Context, uuid.UUID, booking.AppointmentStatus) (*booking.Appointment, error) {
	return nil, booking.ErrAppointmentNotFound
}

func (s *stubBooking) ListAppointments(context.Context, booking.AppointmentFilter) ([]booking.Appointment, error) {
	return nil, nil
}

func (s *stubBooking) ListRules(context.Context) ([]booking.ScheduleSlotRule, error) { return nil, nil }

func (s *stubBooking) CreateRule(context.Context, time.Weekday, string, bool, bool) (*booking.ScheduleSlotRule, error) {
	return nil, booking.ErrRuleNotFound
}

func (s *stubBooking) UpdateRule(context.Context, int64, bool, bool, bool) (*booking.ScheduleSlotRule, error) {
	return nil, booking.ErrRuleNotFound
}

func (s *stubBooking) ListBlockedDates(context.Context) ([]booking.BlockedDate, error) {
	return nil, nil
}

func (s *stubBooking) BlockDate(context.Context, time.Time, *string) (*booking.BlockedDate, error) {
	return nil, booking.ErrDateAlreadyBlocked
}

func (s *stubBooking) UnblockDate(context.Context, int64) error { return nil }

type stubMessages struct {
	post   func(appointmentID uuid.UUID, sender messaging.Sender, body string) (*messaging.Message, error)
	thread func(appointmentID uuid.UUID, viewer messaging.Sender) ([]messaging.Message, error)
}

func (s *stubMessages) Post(_ context.Context, appointmentID uuid.UUID, sender messaging.Sender, body string) (*messaging.Message, error) {
	return s.post(appointmentID, sender, body)
}

func (s *stubMessages) Thread(_ context.Context, appointmentID uuid.UUID, viewer messaging.Sender) ([]messaging.Message, error) {
	return s.thread(appointmentID, viewer)
}

type stubAnnouncements struct {
	published []announcement.Announcement
}

func (s *stubAnnouncements) ListPublished(context.Context) ([]announcement.Announcement, error) {
	return s.published, nil
}
func (s *stubAnnouncements) ListAll(context.Context) ([]announcement.Announcement, error) {
	return s.published, nil
}
func (s *stubAnnouncements) Create(context.Context, string, string, bool) (*announcement.Announcement, error) {
	return nil, announcement.ErrEmptyTitle
}
func (s *stubAnnouncements) Update(context.Context, int64, string, string, bool) (*announcement.Announcement, error) {
	return nil, announcement.ErrNotFound
}
func (s *stubAnnouncements) Delete(context.Context, int64) error { return announcement.ErrNotFound }

func newTestAuth(t *testing.T) *auth.Manager {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret-pass"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return auth.NewManager("admin@clinic.test", string(hash), "test-secret", time.Hour)
}

func newTestRouter(t *testing.T, bookings BookingService, msgs MessageService) (http.Handler, *auth.Manager) {
	t.Helper()
	mgr := newTestAuth(t)
	router := NewRouter(RouterConfig{
		Booking:       bookings,
		Messages:      msgs,
		Announcements: &stubAnnouncements{},
		Auth:          mgr,
		Log:           zerolog.Nop(),
		Env:           "test",
		Version:       "test",
	})
	return router, mgr
}

func adminToken(t *testing.T, mgr *auth.Manager) string {
	t.Helper()
	token, err := mgr.Login("admin@clinic.test", "secret-pass")
	if err != nil {
		t.Fatalf("admin login: %v", err)
	}
	return token
}

func testAppointment() *booking.Appointment {
	return &booking.Appointment{
		ID:               uuid.New(),
		CalendarDate:     time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		TimeOfDay:        "10:00",
		ConsultationType: booking.TypeRegular,
		ConsultationMode: booking.ModeOnline,
		Status:           booking.StatusConfirmed,
		ClientName:       "Jamie Park",
		ContactEmail:     "owner@example.com",
	}
}

func TestAvailabilityHandler(t *testing.T) {
	bookings := &stubBooking{
		slotsForDate: func(date time.Time, mode booking.ConsultationMode) (booking.DayAvailability, error) {
			if mode != booking.ModeOnline {
				t.Errorf("mode = %q, want online", mode)
			}
			return booking.DayAvailability{
				Date: date.Format("2006-01-02"),
				Slots: []booking.SlotAvailability{
					{Time: "10:00", OnlineAvailable: true, OfflineAvailable: true},
				},
			}, nil
		},
	}
	router, _ := newTestRouter(t, bookings, &stubMessages{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/schedule/available/2025-03-10?mode=online", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body=%s", rec.Code, rec.Body.String())
	}

	var day booking.DayAvailability
	if err := json.Unmarshal(rec.Body.Bytes(), &day); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if day.Date != "2025-03-10" || len(day.Slots) != 1 || day.Slots[0].Time != "10:00" {
		t.Errorf("unexpected payload: %+v", day)
	}

	// Malformed date.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/schedule/available/tomorrow", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad date: status = %d, want 400", rec.Code)
	}
}

func TestCreateAppointmentHandler(t *testing.T) {
	bookings := &stubBooking{
		createAppointment: func(in booking.CreateInput) (*booking.Appointment, error) {
			if in.TimeOfDay != "10:00" {
				t.Errorf("time not normalized: %q", in.TimeOfDay)
			}
			appt := testAppointment()
			appt.ContactEmail = in.ContactEmail
			return appt, nil
		},
	}
	router, _ := newTestRouter(t, bookings, &stubMessages{})

	body := `{"date":"2025-03-10","time":"10:00:00","consultation_type":"regular","consultation_mode":"online","client_name":"Jamie Park","contact_email":"jamie@example.com"}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/appointments", bytes.NewBufferString(body)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201; body=%s", rec.Code, rec.Body.String())
	}

	// Conflict surfaces as 409 with a typed reason.
	bookings.createAppointment = func(booking.CreateInput) (*booking.Appointment, error) {
		return nil, booking.ErrSlotTaken
	}
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/appointments", bytes.NewBufferString(body)))
	if rec.Code != http.StatusConflict {
		t.Fatalf("conflict status = %d, want 409", rec.Code)
	}
	var errResp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &errResp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if errResp.Error != "slot_taken" {
		t.Errorf("error code = %q, want slot_taken", errResp.Error)
	}

	// Bad mode is rejected before the service is reached.
	rec = httptest.NewRecorder()
	badBody := `{"date":"2025-03-10","time":"10:00","consultation_type":"regular","consultation_mode":"phone","client_name":"J","contact_email":"j@example.com"}`
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/appointments", bytes.NewBufferString(badBody)))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad mode: status = %d, want 400", rec.Code)
	}
}

func TestOwnershipCheck(t *testing.T) {
	appt := testAppointment()
	cancelCalls := 0
	bookings := &stubBooking{
		getAppointment: func(id uuid.UUID) (*booking.Appointment, error) {
			if id != appt.ID {
				return nil, booking.ErrAppointmentNotFound
			}
			return appt, nil
		},
		cancel: func(id uuid.UUID, actor booking.Actor) (*booking.Appointment, error) {
			cancelCalls++
			out := *appt
			out.Status = booking.StatusCancelled
			return &out, nil
		},
	}
	router, mgr := newTestRouter(t, bookings, &stubMessages{})
	url := "/api/appointments/" + appt.ID.String() + "/cancel"

	// Wrong email: forbidden, service never called.
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, url, bytes.NewBufferString(`{"contact_email":"a@x.com"}`)))
	if rec.Code != http.StatusForbidden {
		t.Errorf("wrong email: status = %d, want 403", rec.Code)
	}
	if cancelCalls != 0 {
		t.Error("cancel reached the service despite failed ownership check")
	}

	// Owner email in the header works too.
	req := httptest.NewRequest(http.MethodPost, url, bytes.NewBufferString(`{}`))
	req.Header.Set("X-Contact-Email", "owner@example.com")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("owner cancel: status = %d, want 200; body=%s", rec.Code, rec.Body.String())
	}

	// Admin token bypasses the email check and acts as admin.
	bookings.cancel = func(id uuid.UUID, actor booking.Actor) (*booking.Appointment, error) {
		if !actor.Admin {
			t.Error("admin request did not carry the admin actor")
		}
		out := *appt
		out.Status = booking.StatusCancelled
		return &out, nil
	}
	req = httptest.NewRequest(http.MethodPost, url, bytes.NewBufferString(`{}`))
	req.Header.Set("Authorization", "Bearer "+adminToken(t, mgr))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("admin cancel: status = %d, want 200; body=%s", rec.Code, rec.Body.String())
	}
}

func TestCancelHandler_DeadlinePassed(t *testing.T) {
	appt := testAppointment()
	bookings := &stubBooking{
		getAppointment: func(uuid.UUID) (*booking.Appointment, error) { return appt, nil },
		cancel: func(uuid.UUID, booking.Actor) (*booking.Appointment, error) {
			return nil, booking.ErrDeadlinePassed
		},
	}
	router, _ := newTestRouter(t, bookings, &stubMessages{})

	req := httptest.NewRequest(http.MethodPost, "/api/appointments/"+appt.ID.String()+"/cancel", bytes.NewBufferString(`{}`))
	req.Header.Set("X-Contact-Email", "owner@example.com")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
	var errResp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &errResp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if errResp.Error != "deadline_passed" {
		t.Errorf("error code = %q, want deadline_passed", errResp.Error)
	}
}

func TestAdminRoutesRequireToken(t *testing.T) {
	router, mgr := newTestRouter(t, &stubBooking{}, &stubMessages{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/admin/schedule/rules", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no token: status = %d, want 401", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/admin/schedule/rules", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken(t, mgr))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("with token: status = %d, want 200; body=%s", rec.Code, rec.Body.String())
	}
}

func TestMessagesRouteSenderMapping(t *testing.T) {
	appt := testAppointment()
	bookings := &stubBooking{
		getAppointment: func(uuid.UUID) (*booking.Appointment, error) { return appt, nil },
	}
	msgs := &stubMessages{
		post: func(appointmentID uuid.UUID, sender messaging.Sender, body string) (*messaging.Message, error) {
			return &messaging.Message{
				ID: uuid.New(), AppointmentID: appointmentID, Sender: sender, Body: body, CreatedAt: time.Now(),
			}, nil
		},
	}
	router, mgr := newTestRouter(t, bookings, msgs)
	url := "/api/appointments/" + appt.ID.String() + "/messages"

	// Visitor post.
	req := httptest.NewRequest(http.MethodPost, url, bytes.NewBufferString(`{"body":"hello","contact_email":"owner@example.com"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("visitor post: status = %d, want 201; body=%s", rec.Code, rec.Body.String())
	}
	var msg MessageResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &msg); err != nil {
		t.Fatalf("decode message: %v", err)
	}
	if msg.Sender != "visitor" {
		t.Errorf("sender = %q, want visitor", msg.Sender)
	}

	// Admin post speaks as the counselor.
	req = httptest.NewRequest(http.MethodPost, url, bytes.NewBufferString(`{"body":"hi there"}`))
	req.Header.Set("Authorization", "Bearer "+adminToken(t, mgr))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("admin post: status = %d, want 201; body=%s", rec.Code, rec.Body.String())
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &msg); err != nil {
		t.Fatalf("decode message: %v", err)
	}
	if msg.Sender != "counselor" {
		t.Errorf("sender = %q, want counselor", msg.Sender)
	}
}

func TestLoginHandler(t *testing.T) {
	router, _ := newTestRouter(t, &stubBooking{}, &stubMessages{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/admin/login",
		bytes.NewBufferString(`{"email":"admin@clinic.test","password":"secret-pass"}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("login: status = %d, want 200; body=%s", rec.Code, rec.Body.String())
	}
	var resp LoginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if resp.Token == "" {
		t.Error("empty token")
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/admin/login",
		bytes.NewBufferString(`{"email":"admin@clinic.test","password":"nope"}`)))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("bad login: status = %d, want 401", rec.Code)
	}
}
