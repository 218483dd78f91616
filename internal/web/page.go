package web

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"weekview/internal/calendar"
	"weekview/internal/dateutil"
	appLog "weekview/internal/log"
	"weekview/internal/timeaxis"
)

// PreviewFile is the name of the last snapshot under the cache dir.
const PreviewFile = "preview.png"

const (
	pageTimeWidth       = 56
	pageContainerHeight = 720
)

//go:embed templates/week.html.tmpl
var templatesFS embed.FS

var weekTemplate = template.Must(template.ParseFS(templatesFS, "templates/week.html.tmpl"))

type weekPage struct {
	Locale      string
	RightToLeft bool
	PageKey     string
	TimeWidth   int
	DayHeight   string
	Columns     []columnDTO
	Days        []weekDay
	Times       []weekTime
}

type weekDay struct {
	Key    string
	AllDay []weekEvent
	Events []weekEvent
}

type weekEvent struct {
	Name   string
	Color  string
	Start  string
	Top    string
	Height string
}

type weekTime struct {
	Label string
	Top   string
}

func px(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

// handleWeek renders one page of the grid as static HTML. The root element
// carries data-ready="true" once rendered, which is what the snapshot
// capture waits for.
//
// GET /week?date=2021-06-07&days=7
//   - date: selected date (default: view.selected_date or today)
//   - days: number of days (default: view.number_of_days)
func (s *Server) handleWeek(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := createSessionRequest{}
	if d := q.Get("date"); d != "" {
		req.SelectedDate = &d
	}
	if n := parseIntDefault(q.Get("days"), 0); n != 0 {
		req.NumberOfDays = &n
	}
	height := float64(pageContainerHeight)
	req.ContainerHeight = &height

	opts, err := s.sessionOptions(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	cal, err := calendar.New(opts, nil)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer cal.Close()

	events, version := s.store.Snapshot()
	if err := cal.SetEvents(events, version); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	page, err := cal.CurrentPage()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	labels, err := cal.Times()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	o := cal.Options()
	rowHeight := o.ContainerHeight / timeaxis.TotalLabels
	data := weekPage{
		Locale:      o.Locale,
		RightToLeft: o.RightToLeft,
		PageKey:     page.Key,
		TimeWidth:   pageTimeWidth,
		DayHeight:   px(rowHeight * float64(len(labels))),
		Times:       make([]weekTime, 0, len(labels)),
	}
	if o.NumberOfDays == 1 {
		data.Columns = []columnDTO{toColumnDTO(cal.Title())}
	} else {
		for _, c := range page.Columns {
			data.Columns = append(data.Columns, toColumnDTO(c))
		}
	}
	for i, l := range labels {
		data.Times = append(data.Times, weekTime{Label: l, Top: px(rowHeight * float64(i))})
	}
	for _, d := range page.Days {
		day := weekDay{Key: d.Key}
		for _, ev := range d.AllDay {
			day.AllDay = append(day.AllDay, weekEvent{Name: ev.Name, Color: ev.Color})
		}
		for _, pe := range d.Events {
			day.Events = append(day.Events, weekEvent{
				Name:   pe.Name,
				Color:  pe.Color,
				Start:  pe.Start.Format("15:04"),
				Top:    px(pe.Position.Top),
				Height: px(pe.Position.Height),
			})
		}
		data.Days = append(data.Days, day)
	}

	var buf bytes.Buffer
	if err := weekTemplate.Execute(&buf, data); err != nil {
		appLog.Error("week page render failed", err, "page", page.Key)
		writeError(w, http.StatusInternalServerError, "render failed")
		return
	}
	appLog.Debug("week page rendered", "page", page.Key, "selected_date", dateutil.Key(opts.SelectedDate))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// handlePreview serves the last snapshot written by the capture step.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	path := filepath.Join(s.cfg.CacheDir, PreviewFile)
	if _, err := os.Stat(path); err != nil {
		writeError(w, http.StatusNotFound, "no preview captured yet")
		return
	}
	http.ServeFile(w, r, path)
}
