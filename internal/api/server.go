// Package api is the HTTP JSON surface over the calendar engine. Handlers
// resolve permissions before any store write is issued, so a caller without
// write level never reaches the store.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/BigPharmacist/wild-kaeee-sub000/internal/access"
	"github.com/BigPharmacist/wild-kaeee-sub000/internal/digest"
	"github.com/BigPharmacist/wild-kaeee-sub000/internal/domain"
	"github.com/BigPharmacist/wild-kaeee-sub000/internal/form"
	"github.com/BigPharmacist/wild-kaeee-sub000/internal/roster"
	"github.com/BigPharmacist/wild-kaeee-sub000/internal/security"
	"github.com/BigPharmacist/wild-kaeee-sub000/internal/store"
)

type Server struct {
	store   store.Store
	roster  *roster.Syncer
	policy  digest.Policy
	auth    security.BearerAuth
	log     *slog.Logger
	now     func() time.Time
	httpSrv *http.Server
}

type Options struct {
	Store        store.Store
	Roster       *roster.Syncer
	DigestPolicy digest.Policy
	Auth         security.BearerAuth
	Logger       *slog.Logger
	Now          func() time.Time
}

func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	s := &Server{
		store:  opts.Store,
		roster: opts.Roster,
		policy: opts.DigestPolicy,
		auth:   opts.Auth,
		log:    logger,
		now:    now,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/v1/calendars", s.handleCalendars)
	mux.HandleFunc("/v1/calendars/create", s.handleCreateCalendar)
	mux.HandleFunc("/v1/calendars/update", s.handleUpdateCalendar)
	mux.HandleFunc("/v1/events", s.handleEvents)
	mux.HandleFunc("/v1/events/create", s.handleCreateEvent)
	mux.HandleFunc("/v1/events/update", s.handleUpdateEvent)
	mux.HandleFunc("/v1/events/delete", s.handleDeleteEvent)
	mux.HandleFunc("/v1/permissions", s.handlePermissions)
	mux.HandleFunc("/v1/permissions/upsert", s.handleUpsertPermission)
	mux.HandleFunc("/v1/permissions/delete", s.handleDeletePermission)
	mux.HandleFunc("/v1/roster/sync", s.handleRosterSync)
	mux.HandleFunc("/v1/digest", s.handleDigest)
	s.httpSrv = &http.Server{Handler: s.wrapAuth(mux), ReadHeaderTimeout: 5 * time.Second}
	return s
}

func (s *Server) ServeTCP(ctx context.Context, bind string) error {
	if bind == "" {
		return errors.New("bind required")
	}
	ln, err := net.Listen("tcp", bind)
	if err != nil {
		return err
	}
	go s.shutdownOnContext(ctx)
	return s.httpSrv.Serve(ln)
}

func (s *Server) ServeUnix(ctx context.Context, path string) error {
	if path == "" {
		return errors.New("socket path required")
	}
	_ = os.Remove(path)
	ln, err := net.Listen("unix", path)
	if err != nil {
		return err
	}
	if err := os.Chmod(path, 0o600); err != nil {
		return err
	}
	go s.shutdownOnContext(ctx)
	return s.httpSrv.Serve(ln)
}

func (s *Server) wrapAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/healthz" && !s.auth.Authorize(r) {
			writeErr(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) shutdownOnContext(ctx context.Context) {
	<-ctx.Done()
	timeout, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_ = s.httpSrv.Shutdown(timeout)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCalendars(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeErr(w, http.StatusBadRequest, "user_id is required")
		return
	}
	items, err := s.store.ListCalendars(r.Context(), userID)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

type calendarRequest struct {
	UserID     string            `json:"user_id"`
	CalendarID string            `json:"calendar_id"`
	Form       form.CalendarForm `json:"form"`
}

// Calendar management is an admin action, matching the original dashboard.
func (s *Server) handleCreateCalendar(w http.ResponseWriter, r *http.Request) {
	var payload calendarRequest
	if !decodePost(w, r, &payload) {
		return
	}
	if err := s.requireAdmin(r.Context(), payload.UserID); err != nil {
		writeDomainErr(w, err)
		return
	}
	cal, err := form.BuildCalendar(payload.Form, payload.UserID)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	created, err := s.store.CreateCalendar(r.Context(), cal)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, created)
}

func (s *Server) handleUpdateCalendar(w http.ResponseWriter, r *http.Request) {
	var payload calendarRequest
	if !decodePost(w, r, &payload) {
		return
	}
	if err := s.requireAdmin(r.Context(), payload.UserID); err != nil {
		writeDomainErr(w, err)
		return
	}
	existing, err := s.store.GetCalendar(r.Context(), payload.CalendarID)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	cal, err := form.BuildCalendar(payload.Form, existing.OwnerID)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	updated, err := s.store.UpdateCalendar(r.Context(), payload.CalendarID, cal)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	q := r.URL.Query()
	userID := q.Get("user_id")
	calendarID := q.Get("calendar_id")
	if calendarID == "" {
		calendarID = domain.AggregateCalendarID
	}
	from, err := parseTimeParam("from", q.Get("from"))
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	to, err := parseTimeParam("to", q.Get("to"))
	if err != nil {
		writeDomainErr(w, err)
		return
	}

	readable, err := s.readableCalendarIDs(r.Context(), userID)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	if calendarID != domain.AggregateCalendarID && !readable[calendarID] {
		writeDomainErr(w, domain.PermissionError{CalendarID: calendarID, UserID: userID, Need: domain.LevelRead})
		return
	}
	items, err := s.store.ListEvents(r.Context(), store.EventFilter{CalendarID: calendarID, From: from, To: to})
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	if calendarID == domain.AggregateCalendarID {
		filtered := items[:0]
		for _, e := range items {
			if readable[e.CalendarID] {
				filtered = append(filtered, e)
			}
		}
		items = filtered
	}
	writeJSON(w, http.StatusOK, items)
}

type eventRequest struct {
	UserID     string         `json:"user_id"`
	CalendarID string         `json:"calendar_id"`
	EventID    string         `json:"event_id"`
	Form       form.EventForm `json:"form"`
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var payload eventRequest
	if !decodePost(w, r, &payload) {
		return
	}
	level, err := s.effectiveLevel(r.Context(), payload.UserID, payload.CalendarID)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	if !access.CanWriteCalendar(payload.CalendarID, level) {
		writeDomainErr(w, domain.PermissionError{CalendarID: payload.CalendarID, UserID: payload.UserID, Need: domain.LevelWrite})
		return
	}
	draft, err := form.BuildPayload(payload.Form, payload.CalendarID, level)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	created, err := s.store.CreateEvent(r.Context(), draft)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, created)
}

func (s *Server) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	var payload eventRequest
	if !decodePost(w, r, &payload) {
		return
	}
	existing, err := s.store.GetEvent(r.Context(), payload.EventID)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	level, err := s.effectiveLevel(r.Context(), payload.UserID, existing.CalendarID)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	if !access.CanWriteCalendar(existing.CalendarID, level) {
		writeDomainErr(w, domain.PermissionError{CalendarID: existing.CalendarID, UserID: payload.UserID, Need: domain.LevelWrite})
		return
	}
	draft, err := form.BuildPayload(payload.Form, existing.CalendarID, level)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	updated, err := s.store.UpdateEvent(r.Context(), payload.EventID, draft)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	var payload eventRequest
	if !decodePost(w, r, &payload) {
		return
	}
	existing, err := s.store.GetEvent(r.Context(), payload.EventID)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	level, err := s.effectiveLevel(r.Context(), payload.UserID, existing.CalendarID)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	if !access.CanWriteCalendar(existing.CalendarID, level) {
		writeDomainErr(w, domain.PermissionError{CalendarID: existing.CalendarID, UserID: payload.UserID, Need: domain.LevelWrite})
		return
	}
	if err := s.store.DeleteEvent(r.Context(), payload.EventID); err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"event_id": payload.EventID})
}

func (s *Server) handlePermissions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	calendarID := r.URL.Query().Get("calendar_id")
	if calendarID == "" {
		writeErr(w, http.StatusBadRequest, "calendar_id is required")
		return
	}
	items, err := s.store.ListPermissions(r.Context(), calendarID)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

type permissionRequest struct {
	RequesterID  string `json:"requester_id"`
	CalendarID   string `json:"calendar_id"`
	UserID       string `json:"user_id"`
	Level        string `json:"level"`
	PermissionID string `json:"permission_id"`
}

func (s *Server) handleUpsertPermission(w http.ResponseWriter, r *http.Request) {
	var payload permissionRequest
	if !decodePost(w, r, &payload) {
		return
	}
	if err := s.requireAdmin(r.Context(), payload.RequesterID); err != nil {
		writeDomainErr(w, err)
		return
	}
	level, err := domain.ParseLevel(payload.Level)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	perm, err := s.store.UpsertPermission(r.Context(), payload.CalendarID, payload.UserID, level)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, perm)
}

func (s *Server) handleDeletePermission(w http.ResponseWriter, r *http.Request) {
	var payload permissionRequest
	if !decodePost(w, r, &payload) {
		return
	}
	if err := s.requireAdmin(r.Context(), payload.RequesterID); err != nil {
		writeDomainErr(w, err)
		return
	}
	if err := s.store.DeletePermission(r.Context(), payload.PermissionID); err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"permission_id": payload.PermissionID})
}

type rosterRequest struct {
	Date      string `json:"date"`
	StaffID   string `json:"staff_id"`
	StaffName string `json:"staff_name"`
}

func (s *Server) handleRosterSync(w http.ResponseWriter, r *http.Request) {
	var payload rosterRequest
	if !decodePost(w, r, &payload) {
		return
	}
	if s.roster == nil {
		writeErr(w, http.StatusNotImplemented, "roster sync not configured")
		return
	}
	if err := s.roster.Apply(r.Context(), payload.Date, payload.StaffID, payload.StaffName); err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"date": payload.Date})
}

func (s *Server) handleDigest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	userID := r.URL.Query().Get("user_id")
	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)
	annotated, err := s.store.ListCalendars(r.Context(), userID)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	readable := make(map[string]bool, len(annotated))
	calendars := make([]domain.Calendar, 0, len(annotated))
	for _, cal := range annotated {
		readable[cal.ID] = true
		calendars = append(calendars, cal.Calendar)
	}
	events, err := s.store.ListEvents(r.Context(), store.EventFilter{CalendarID: domain.AggregateCalendarID, From: today})
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	// The aggregate fetch spans every calendar; scope it to what the
	// caller can read, same as the events listing.
	visible := events[:0]
	for _, e := range events {
		if readable[e.CalendarID] {
			visible = append(visible, e)
		}
	}
	writeJSON(w, http.StatusOK, digest.Build(visible, calendars, today, s.policy))
}

func (s *Server) effectiveLevel(ctx context.Context, userID, calendarID string) (domain.Level, error) {
	if calendarID == domain.AggregateCalendarID {
		return access.AggregateLevel(), nil
	}
	cal, err := s.store.GetCalendar(ctx, calendarID)
	if err != nil {
		return domain.LevelNone, err
	}
	entries, err := s.store.ListPermissions(ctx, calendarID)
	if err != nil {
		return domain.LevelNone, err
	}
	perms := make([]domain.CalendarPermission, 0, len(entries))
	for _, entry := range entries {
		perms = append(perms, entry.Permission)
	}
	return access.EffectiveLevel(cal, userID, perms), nil
}

func (s *Server) readableCalendarIDs(ctx context.Context, userID string) (map[string]bool, error) {
	annotated, err := s.store.ListCalendars(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(annotated))
	for _, cal := range annotated {
		if cal.UserLevel.CanRead() {
			out[cal.ID] = true
		}
	}
	return out, nil
}

func (s *Server) requireAdmin(ctx context.Context, userID string) error {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if !user.IsAdmin {
		return domain.PermissionError{UserID: userID, Need: domain.LevelWrite}
	}
	return nil
}

// parseTimeParam parses an optional RFC3339 query parameter. Absent means
// unbounded; present-but-malformed is a validation error, not an unbounded
// query.
func parseTimeParam(key, raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(time.RFC3339, raw, time.Local)
	if err != nil {
		return time.Time{}, domain.Validation(fmt.Sprintf("invalid %s timestamp %q", key, raw))
	}
	return t, nil
}

func decodePost(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid json")
		return false
	}
	return true
}

func writeDomainErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeErr(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, domain.ErrPermission):
		writeErr(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeErr(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrTransientIO):
		writeErr(w, http.StatusBadGateway, err.Error())
	default:
		writeErr(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
