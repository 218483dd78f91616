package web

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"weekview/internal/calendar"
	"weekview/internal/dateutil"
	"weekview/internal/header"
	appLog "weekview/internal/log"
	"weekview/internal/model"
	"weekview/internal/pager"
	"weekview/internal/timeaxis"
)

// session is one mounted calendar. Handlers hold mu for the whole request
// since the calendar itself is single-threaded.
type session struct {
	id      string
	created time.Time

	mu  sync.Mutex
	cal *calendar.Calendar
	rec *recorder
}

// recorder stands in for the client's views. It captures what the
// calendar asked them to do during one request so the response can replay
// it.
type recorder struct {
	jumps  []jumpDTO
	swipes []swipeDTO
	press  *pressDTO

	headerOffset float64
	allDayOffset float64
}

func (r *recorder) reset() {
	r.jumps = nil
	r.swipes = nil
	r.press = nil
}

// JumpToIndex records a non-animated jump after the window grew backward.
func (r *recorder) JumpToIndex(index int, animated bool) {
	r.jumps = append(r.jumps, jumpDTO{Index: index, Animated: animated})
}

// strip is a synced horizontal view whose offset is echoed to the client.
type strip struct {
	offset *float64
}

func (s strip) ScrollToOffset(offset float64, _ bool) {
	*s.offset = offset
}

type jumpDTO struct {
	Index    int  `json:"index"`
	Animated bool `json:"animated"`
}

type swipeDTO struct {
	Direction string    `json:"direction"`
	Anchor    string    `json:"anchor"`
	At        time.Time `json:"at"`
}

type pressDTO struct {
	Long     bool     `json:"long"`
	Event    eventDTO `json:"event"`
	Position *posDTO  `json:"position,omitempty"`
}

type posDTO struct {
	Top    float64 `json:"top"`
	Height float64 `json:"height"`
}

type eventDTO struct {
	ID          string    `json:"id"`
	UID         string    `json:"uid,omitempty"`
	SourceID    string    `json:"source_id,omitempty"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	Color       string    `json:"color,omitempty"`
	AllDay      bool      `json:"all_day"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Position    *posDTO   `json:"position,omitempty"`
}

func toEventDTO(ev model.Event, pos *timeaxis.Position) eventDTO {
	out := eventDTO{
		ID:          ev.ID,
		UID:         ev.UID,
		SourceID:    ev.SourceID,
		Name:        ev.Name,
		Description: ev.Description,
		Location:    ev.Location,
		Color:       ev.Color,
		AllDay:      ev.AllDay,
		Start:       ev.Start,
		End:         ev.End,
	}
	if pos != nil {
		out.Position = &posDTO{Top: pos.Top, Height: pos.Height}
	}
	return out
}

type columnDTO struct {
	Key       string `json:"key"`
	Label     string `json:"label"`
	DayNumber string `json:"day_number,omitempty"`
	Today     bool   `json:"today,omitempty"`
}

func toColumnDTO(c header.Column) columnDTO {
	return columnDTO{Key: c.Key, Label: c.Label, DayNumber: c.DayNumber, Today: c.Today}
}

type dayDTO struct {
	Key    string     `json:"key"`
	Events []eventDTO `json:"events"`
	AllDay []eventDTO `json:"all_day"`
}

type pageDTO struct {
	Index   int         `json:"index"`
	Key     string      `json:"key"`
	Columns []columnDTO `json:"columns"`
	Days    []dayDTO    `json:"days"`
}

func toPageDTO(p calendar.Page) pageDTO {
	out := pageDTO{
		Index:   p.Index,
		Key:     p.Key,
		Columns: make([]columnDTO, 0, len(p.Columns)),
		Days:    make([]dayDTO, 0, len(p.Days)),
	}
	for _, c := range p.Columns {
		out.Columns = append(out.Columns, toColumnDTO(c))
	}
	for _, d := range p.Days {
		day := dayDTO{
			Key:    d.Key,
			Events: make([]eventDTO, 0, len(d.Events)),
			AllDay: make([]eventDTO, 0, len(d.AllDay)),
		}
		for _, pe := range d.Events {
			day.Events = append(day.Events, toEventDTO(pe.Event, &pe.Position))
		}
		for _, ev := range d.AllDay {
			day.AllDay = append(day.AllDay, toEventDTO(ev, nil))
		}
		out.Days = append(out.Days, day)
	}
	return out
}

// sessionResponse describes the window and, for GET, the pages to draw.
type sessionResponse struct {
	ID            string     `json:"id"`
	Keys          []string   `json:"keys"`
	CurrentIndex  int        `json:"current_index"`
	Anchor        string     `json:"anchor"`
	State         string     `json:"state"`
	Pending       bool       `json:"pending"`
	EventsVersion uint64     `json:"events_version"`
	VerticalStart float64    `json:"vertical_start"`
	Title         *columnDTO `json:"title,omitempty"`
	Pages         []pageDTO  `json:"pages,omitempty"`
	Jumps         []jumpDTO  `json:"jumps,omitempty"`
	Swipes        []swipeDTO `json:"swipes,omitempty"`
	HeaderOffset  float64    `json:"header_offset"`
	AllDayOffset  float64    `json:"all_day_offset"`
}

// createSessionRequest overrides the configured view options. Omitted
// fields keep the config value.
type createSessionRequest struct {
	NumberOfDays      *int     `json:"number_of_days"`
	HoursInDisplay    *float64 `json:"hours_in_display"`
	StartHour         *int     `json:"start_hour"`
	Locale            *string  `json:"locale"`
	RightToLeft       *bool    `json:"right_to_left"`
	PrependMostRecent *bool    `json:"prepend_most_recent"`
	FormatDateHeader  *string  `json:"format_date_header"`
	SelectedDate      *string  `json:"selected_date"`
	ContainerHeight   *float64 `json:"container_height"`
}

func (s *Server) sessionOptions(req createSessionRequest) (calendar.Options, error) {
	opts, err := s.cfg.ViewOptions(s.now())
	if err != nil {
		return calendar.Options{}, err
	}
	if req.NumberOfDays != nil {
		opts.NumberOfDays = *req.NumberOfDays
	}
	if req.HoursInDisplay != nil {
		opts.HoursInDisplay = *req.HoursInDisplay
	}
	if req.StartHour != nil {
		opts.StartHour = *req.StartHour
	}
	if req.Locale != nil {
		opts.Locale = *req.Locale
	}
	if req.RightToLeft != nil {
		opts.RightToLeft = *req.RightToLeft
	}
	if req.PrependMostRecent != nil {
		opts.PrependMostRecent = *req.PrependMostRecent
	}
	if req.FormatDateHeader != nil {
		opts.FormatDateHeader = *req.FormatDateHeader
	}
	if req.ContainerHeight != nil {
		opts.ContainerHeight = *req.ContainerHeight
	}
	if req.SelectedDate != nil {
		d, err := dateutil.ParseKey(*req.SelectedDate, opts.SelectedDate.Location())
		if err != nil {
			return calendar.Options{}, err
		}
		opts.SelectedDate = d
	}
	opts.Now = s.now
	return opts, nil
}

// handleCreateSession mounts a calendar.
//
// POST /api/sessions  {"number_of_days": 3, "selected_date": "2021-06-07"}
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	opts, err := s.sessionOptions(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rec := &recorder{}
	opts.OnSwipeNext = func(anchor time.Time) {
		rec.swipes = append(rec.swipes, swipeDTO{Direction: "next", Anchor: dateutil.Key(anchor), At: anchor})
	}
	opts.OnSwipePrevious = func(anchor time.Time) {
		rec.swipes = append(rec.swipes, swipeDTO{Direction: "previous", Anchor: dateutil.Key(anchor), At: anchor})
	}
	opts.OnEventPress = func(ev model.Event) {
		rec.press = &pressDTO{Event: toEventDTO(ev, nil)}
	}
	opts.OnEventLongPress = func(ev model.Event, pos timeaxis.Position) {
		rec.press = &pressDTO{Long: true, Event: toEventDTO(ev, nil), Position: &posDTO{Top: pos.Top, Height: pos.Height}}
	}

	cal, err := calendar.New(opts, rec)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	cal.Mount(strip{&rec.headerOffset}, strip{&rec.allDayOffset})

	sess := &session{
		id:      uuid.NewString(),
		created: time.Now(),
		cal:     cal,
		rec:     rec,
	}

	s.sessionsMu.Lock()
	if len(s.sessions) >= maxSessions {
		s.sessionsMu.Unlock()
		cal.Close()
		writeError(w, http.StatusServiceUnavailable, "too many sessions")
		return
	}
	s.sessions[sess.id] = sess
	count := len(s.sessions)
	s.sessionsMu.Unlock()

	appLog.Info("session mounted",
		"session", sess.id,
		"number_of_days", opts.NumberOfDays,
		"selected_date", dateutil.Key(opts.SelectedDate),
		"sessions", count,
	)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	resp, err := s.describe(sess, true)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// handleGetSession returns the window and its pages.
//
// GET /api/sessions/{id}?page=current
//   - page: "current" limits pages to the committed one (default: all)
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	var (
		resp sessionResponse
		err  error
	)
	if r.URL.Query().Get("page") == "current" {
		resp, err = s.describe(sess, false)
		if err == nil {
			var p calendar.Page
			p, err = sess.cal.CurrentPage()
			resp.Pages = []pageDTO{toPageDTO(p)}
		}
	} else {
		resp, err = s.describe(sess, true)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	s.sessionsMu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.sessionsMu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	sess.mu.Lock()
	sess.cal.Close()
	sess.mu.Unlock()

	appLog.Info("session unmounted", "session", id, "age", time.Since(sess.created).String())
	w.WriteHeader(http.StatusNoContent)
}

type scrollRequest struct {
	Offset float64 `json:"offset"`
}

// handleScroll records one horizontal scroll frame of the grid. The response
// carries the offsets the header and all-day strips were moved to.
//
// POST /api/sessions/{id}/scroll  {"offset": 812.5}
func (s *Server) handleScroll(w http.ResponseWriter, r *http.Request) {
	var req scrollRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.cal.Scroll(req.Offset)
	writeJSON(w, http.StatusOK, struct {
		HeaderOffset float64 `json:"header_offset"`
		AllDayOffset float64 `json:"all_day_offset"`
	}{sess.rec.headerOffset, sess.rec.allDayOffset})
}

type scrollEndRequest struct {
	OffsetX      float64 `json:"offset_x"`
	ContentWidth float64 `json:"content_width"`
	// Settle defaults to true. Clients that report several scroll-ends
	// during one gesture send false and settle with the last report.
	Settle *bool `json:"settle"`
}

// handleScrollEnd feeds a scroll-end report to the pager and, unless told
// otherwise, lets the deferred page step run before answering.
//
// POST /api/sessions/{id}/scroll-end  {"offset_x": 1200, "content_width": 2000}
func (s *Server) handleScrollEnd(w http.ResponseWriter, r *http.Request) {
	var req scrollEndRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.rec.reset()
	sess.cal.ScrollEnd(pager.ScrollEndEvent{OffsetX: req.OffsetX, ContentWidth: req.ContentWidth})
	if req.Settle == nil || *req.Settle {
		sess.cal.Settle()
	}
	s.respondMoved(w, sess)
}

type stepRequest struct {
	Delta int `json:"delta"`
}

// handleStep pages by delta, for clients driven by buttons or keys.
//
// POST /api/sessions/{id}/step  {"delta": -1}
// POST /api/sessions/{id}/step?delta=-1
func (s *Server) handleStep(w http.ResponseWriter, r *http.Request) {
	req := stepRequest{Delta: parseIntDefault(r.URL.Query().Get("delta"), 0)}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.rec.reset()
	sess.cal.Step(req.Delta)
	sess.cal.Settle()
	s.respondMoved(w, sess)
}

type pressRequest struct {
	Day   string `json:"day"`
	Index int    `json:"index"`
	Long  bool   `json:"long"`
}

// handlePress dispatches a tap or long press on the index-th timed event of
// a day and echoes what the callback received.
//
// POST /api/sessions/{id}/press  {"day": "2021-06-07", "index": 0, "long": true}
func (s *Server) handlePress(w http.ResponseWriter, r *http.Request) {
	var req pressRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if err := s.syncEvents(sess); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	sess.rec.reset()
	var err error
	if req.Long {
		err = sess.cal.LongPressEvent(req.Day, req.Index)
	} else {
		err = sess.cal.PressEvent(req.Day, req.Index)
	}
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, sess.rec.press)
}

func (s *Server) respondMoved(w http.ResponseWriter, sess *session) {
	resp, err := s.describe(sess, false)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	resp.Jumps = sess.rec.jumps
	resp.Swipes = sess.rec.swipes
	writeJSON(w, http.StatusOK, resp)
}

// describe reports the session's window. Callers hold sess.mu.
func (s *Server) describe(sess *session, withPages bool) (sessionResponse, error) {
	if err := s.syncEvents(sess); err != nil {
		return sessionResponse{}, err
	}
	cal := sess.cal
	resp := sessionResponse{
		ID:            sess.id,
		Keys:          cal.Keys(),
		CurrentIndex:  cal.CurrentIndex(),
		Anchor:        dateutil.Key(cal.Anchor()),
		State:         cal.State().String(),
		Pending:       cal.Pending(),
		EventsVersion: s.store.Version(),
		VerticalStart: cal.VerticalStart(),
		HeaderOffset:  sess.rec.headerOffset,
		AllDayOffset:  sess.rec.allDayOffset,
	}
	if cal.Options().NumberOfDays == 1 {
		title := toColumnDTO(cal.Title())
		resp.Title = &title
	}
	if withPages {
		pages, err := cal.Pages()
		if err != nil {
			return sessionResponse{}, err
		}
		resp.Pages = make([]pageDTO, 0, len(pages))
		for _, p := range pages {
			resp.Pages = append(resp.Pages, toPageDTO(p))
		}
	}
	return resp, nil
}

// syncEvents hands the store's current list to the calendar. An unchanged
// version is a no-op inside SetEvents.
func (s *Server) syncEvents(sess *session) error {
	events, version := s.store.Snapshot()
	return sess.cal.SetEvents(events, version)
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*session, bool) {
	id := r.PathValue("id")
	if _, err := uuid.Parse(id); err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return nil, false
	}
	s.sessionsMu.Lock()
	sess, ok := s.sessions[id]
	s.sessionsMu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return nil, false
	}
	return sess, true
}

// SessionCount reports how many calendars are mounted.
func (s *Server) SessionCount() int {
	s.sessionsMu.Lock()
	defer s.sessionsMu.Unlock()
	return len(s.sessions)
}

func (s *Server) closeAll() {
	s.sessionsMu.Lock()
	sessions := s.sessions
	s.sessions = make(map[string]*session)
	s.sessionsMu.Unlock()

	for _, sess := range sessions {
		sess.mu.Lock()
		sess.cal.Close()
		sess.mu.Unlock()
	}
	if len(sessions) > 0 {
		appLog.Info("sessions unmounted on shutdown", "count", len(sessions))
	}
}
