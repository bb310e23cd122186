package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"jalaliflow/internal/caldate"
	"jalaliflow/internal/config"
	"jalaliflow/internal/flow"
	"jalaliflow/internal/holiday"
	"jalaliflow/internal/ics"
	"jalaliflow/internal/jalali"
	appLog "jalaliflow/internal/log"
	"jalaliflow/internal/model"
	"jalaliflow/internal/schedule"
	"jalaliflow/internal/store"
)

// Server exposes the calendar engine, the holiday registry and the event
// store over HTTP.
type Server struct {
	cfg      *config.Config
	flow     *flow.Flow
	store    store.Store
	gatherer prometheus.Gatherer
	mux      *http.ServeMux

	// Rendered /api/holidays.ics documents by Jalali year. Cleared when a
	// custom holiday is added through the API.
	icsMu    sync.RWMutex
	icsCache map[int]*icsCacheEntry
}

type icsCacheEntry struct {
	body      string
	updatedAt time.Time
}

const icsCacheTTL = 30 * time.Second

// NewServer constructs a Server. st may be nil, in which case the event
// endpoints answer 503. A nil gatherer serves the default registry.
func NewServer(cfg *config.Config, fl *flow.Flow, st store.Store, gatherer prometheus.Gatherer) *Server {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	s := &Server{
		cfg:      cfg,
		flow:     fl,
		store:    st,
		gatherer: gatherer,
		mux:      http.NewServeMux(),
		icsCache: make(map[int]*icsCacheEntry),
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured. An empty
// username or password disables it.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="jalaliflow", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// StartServer serves s on cfg.Listen until ctx is canceled, then shuts
// down gracefully.
func StartServer(ctx context.Context, s *Server) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	appLog.Info("shutting down HTTP server")
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	s.mux.HandleFunc("GET /api/convert/jalali", s.handleToJalali)
	s.mux.HandleFunc("GET /api/convert/gregorian", s.handleToGregorian)
	s.mux.HandleFunc("GET /api/convert/hijri", s.handleToHijri)
	s.mux.HandleFunc("GET /api/diff", s.handleDiff)
	s.mux.HandleFunc("GET /api/working-day", s.handleWorkingDay)

	s.mux.HandleFunc("GET /api/holidays", s.handleHolidays)
	s.mux.HandleFunc("POST /api/holidays", s.handleAddHoliday)
	s.mux.HandleFunc("GET /api/holidays.ics", s.handleHolidaysICS)

	s.mux.HandleFunc("GET /api/events", s.handleListEvents)
	s.mux.HandleFunc("POST /api/events", s.handleCreateEvent)
	s.mux.HandleFunc("GET /api/events.ics", s.handleEventsICS)
	s.mux.HandleFunc("GET /api/events/{id}", s.handleGetEvent)
	s.mux.HandleFunc("DELETE /api/events/{id}", s.handleDeleteEvent)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

type convertResponse struct {
	Input  string `json:"input"`
	Result string `json:"result"`
}

// GET /api/convert/jalali?date=YYYY-MM-DD&format=
func (s *Server) handleToJalali(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	out, err := s.flow.ToJalali(q.Get("date"), q.Get("format"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, convertResponse{Input: q.Get("date"), Result: out})
}

// GET /api/convert/gregorian?date=YYYY/MM/DD
func (s *Server) handleToGregorian(w http.ResponseWriter, r *http.Request) {
	in := r.URL.Query().Get("date")
	out, err := s.flow.ToGregorian(in)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, convertResponse{Input: in, Result: out})
}

// GET /api/convert/hijri?date=YYYY-MM-DD
func (s *Server) handleToHijri(w http.ResponseWriter, r *http.Request) {
	in := r.URL.Query().Get("date")
	out, err := s.flow.ToHijri(in)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, convertResponse{Input: in, Result: out})
}

type diffResponse struct {
	Start string  `json:"start"`
	End   string  `json:"end"`
	Unit  string  `json:"unit"`
	Value float64 `json:"value"`
}

// GET /api/diff?start=&end=&unit=  (unit defaults to day)
func (s *Server) handleDiff(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	unit := q.Get("unit")
	if unit == "" {
		unit = "day"
	}
	v, err := s.flow.Diff(q.Get("start"), q.Get("end"), unit)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, diffResponse{Start: q.Get("start"), End: q.Get("end"), Unit: unit, Value: v})
}

type workingDayResponse struct {
	Date        string `json:"date"`
	WorkingDay  bool   `json:"working_day"`
	Holiday     bool   `json:"holiday"`
	Description string `json:"description,omitempty"`
	Islamic     bool   `json:"islamic_holiday"`
}

// GET /api/working-day?date=YYYY/MM/DD
func (s *Server) handleWorkingDay(w http.ResponseWriter, r *http.Request) {
	in := r.URL.Query().Get("date")
	if _, err := jalali.Parse(in); err != nil {
		writeErr(w, err)
		return
	}
	reg := s.flow.Holidays()
	desc, isHoliday := reg.Describe(in)
	writeJSON(w, http.StatusOK, workingDayResponse{
		Date:        in,
		WorkingDay:  reg.IsWorkingDay(in),
		Holiday:     isHoliday,
		Description: desc,
		Islamic:     reg.IsIslamicHoliday(in),
	})
}

type holidayDTO struct {
	Date        string `json:"date"`
	Gregorian   string `json:"gregorian"`
	Description string `json:"description"`
	Kind        string `json:"kind"`
}

type holidaysResponse struct {
	Year     int          `json:"year"`
	Holidays []holidayDTO `json:"holidays"`
}

// yearParam reads ?year=, defaulting to the current Jalali year.
func (s *Server) yearParam(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("year")
	if raw == "" {
		today, err := s.flow.Today()
		if err != nil {
			return 0, err
		}
		return today.Year, nil
	}
	year, err := strconv.Atoi(caldate.LatinDigits(raw))
	if err != nil || !jalali.Validate(year, 1, 1) {
		return 0, caldate.ErrInvalidDate
	}
	return year, nil
}

// GET /api/holidays?year=1404&islamic=1
func (s *Server) handleHolidays(w http.ResponseWriter, r *http.Request) {
	year, err := s.yearParam(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	entries := s.flow.Holidays().Holidays(year)

	resp := holidaysResponse{Year: year, Holidays: make([]holidayDTO, 0, len(entries))}
	add := func(e holiday.Entry, kind string) {
		g, _ := jalali.ToGregorian(e.Date.Year, e.Date.Month, e.Date.Day)
		resp.Holidays = append(resp.Holidays, holidayDTO{
			Date:        e.Date.JalaliString(),
			Gregorian:   g.GregorianString(),
			Description: e.Description,
			Kind:        kind,
		})
	}
	for _, e := range entries {
		kind := "national"
		if e.Custom {
			kind = "custom"
		}
		add(e, kind)
	}
	if parseBool(r.URL.Query().Get("islamic")) {
		islamic, err := holiday.IslamicHolidays(year)
		if err != nil {
			writeErr(w, err)
			return
		}
		for _, e := range islamic {
			add(e, "islamic")
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

type addHolidayRequest struct {
	Date        string `json:"date"`
	Description string `json:"description"`
}

// POST /api/holidays {"date":"1404/02/24","description":"..."}
func (s *Server) handleAddHoliday(w http.ResponseWriter, r *http.Request) {
	var req addHolidayRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.flow.AddCustomHoliday(req.Date, req.Description); err != nil {
		writeErr(w, err)
		return
	}
	s.icsMu.Lock()
	clear(s.icsCache)
	s.icsMu.Unlock()

	appLog.Info("custom holiday added", "date", req.Date)
	writeJSON(w, http.StatusCreated, req)
}

// GET /api/holidays.ics?year=1404
func (s *Server) handleHolidaysICS(w http.ResponseWriter, r *http.Request) {
	year, err := s.yearParam(r)
	if err != nil {
		writeErr(w, err)
		return
	}

	now := time.Now()
	s.icsMu.RLock()
	c := s.icsCache[year]
	s.icsMu.RUnlock()
	if c != nil && now.Sub(c.updatedAt) < icsCacheTTL {
		writeCalendar(w, c.body)
		return
	}

	body, err := ics.ExportHolidays(year, s.flow.Holidays().Holidays(year), now.UTC())
	if err != nil {
		appLog.Error("holidays ics export failed", err, "year", year)
		writeErr(w, err)
		return
	}
	s.icsMu.Lock()
	s.icsCache[year] = &icsCacheEntry{body: body, updatedAt: now}
	s.icsMu.Unlock()
	writeCalendar(w, body)
}

type eventsResponse struct {
	Events []model.RecurringEvent `json:"events"`
}

func (s *Server) requireStore(w http.ResponseWriter) bool {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "event store not configured")
		return false
	}
	return true
}

// GET /api/events?due=1
func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	var (
		events []model.RecurringEvent
		err    error
	)
	if parseBool(r.URL.Query().Get("due")) {
		var today caldate.Date
		today, err = s.flow.Today()
		if err == nil {
			events, err = s.store.Due(r.Context(), today.JalaliString())
		}
	} else {
		events, err = s.store.List(r.Context())
	}
	if err != nil {
		writeErr(w, err)
		return
	}
	if events == nil {
		events = []model.RecurringEvent{}
	}
	writeJSON(w, http.StatusOK, eventsResponse{Events: events})
}

type createEventRequest struct {
	Name      string       `json:"name"`
	Frequency string       `json:"frequency"`
	StartDate string       `json:"start_date"`
	NextRun   string       `json:"next_run"`
	Action    model.Action `json:"action"`
}

// POST /api/events. next_run defaults to start_date.
func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	var req createEventRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	freq, err := schedule.ParseFrequency(req.Frequency)
	if err != nil {
		writeErr(w, err)
		return
	}
	ev := &model.RecurringEvent{
		Name:      req.Name,
		Frequency: freq,
		StartDate: req.StartDate,
		NextRun:   req.NextRun,
		Action:    req.Action,
	}
	if ev.NextRun == "" {
		ev.NextRun = ev.StartDate
	}
	if err := s.store.Create(r.Context(), ev); err != nil {
		writeErr(w, err)
		return
	}
	appLog.Info("event created", "id", ev.ID, "name", ev.Name, "next_run", ev.NextRun)
	writeJSON(w, http.StatusCreated, ev)
}

func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	ev, err := s.store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	if err := s.store.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/events.ics?count=12
func (s *Server) handleEventsICS(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	count := parseIntDefault(r.URL.Query().Get("count"), 12)
	if count <= 0 || count > 366 {
		count = 12
	}
	events, err := s.store.List(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	body, err := ics.ExportEvents(events, count, time.Now().UTC())
	if err != nil {
		writeErr(w, err)
		return
	}
	writeCalendar(w, body)
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func parseBool(s string) bool {
	b, _ := strconv.ParseBool(s)
	return b
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeCalendar(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}

// writeErr maps engine and store errors to a status code.
func writeErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, caldate.ErrInvalidDate),
		errors.Is(err, caldate.ErrInvalidFrequency),
		errors.Is(err, caldate.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		appLog.Error("request failed", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
