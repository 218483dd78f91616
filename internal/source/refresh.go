package source

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"weekview/internal/config"
	"weekview/internal/dateutil"
	"weekview/internal/ics"
	appLog "weekview/internal/log"
)

// ErrAllSourcesFailed is returned when every configured feed failed to
// fetch or parse. The store keeps its previous contents in that case.
var ErrAllSourcesFailed = errors.New("source: all ICS sources failed")

const refreshTimeout = 2 * time.Minute

// Loader fetches, parses and expands the configured ICS feeds.
type Loader struct {
	fetcher  *ics.Fetcher
	sources  []ics.Source
	loc      *time.Location
	backfill int
	horizon  int
}

// NewLoader builds a loader from cfg. Sources without an ID fall back to
// their name, then their URL or path.
func NewLoader(cfg *config.Config) (*Loader, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	sources := make([]ics.Source, 0, len(cfg.ICS))
	for _, csrc := range cfg.ICS {
		id := csrc.ID
		if id == "" {
			switch {
			case csrc.Name != "":
				id = csrc.Name
			case csrc.Path != "":
				id = csrc.Path
			default:
				id = csrc.URL
			}
		}
		sources = append(sources, ics.Source{
			ID:    id,
			URL:   csrc.URL,
			Path:  csrc.Path,
			Color: csrc.Color,
		})
	}

	return &Loader{
		fetcher:  ics.NewFetcher(cfg.CacheDir),
		sources:  sources,
		loc:      loc,
		backfill: cfg.BackfillDays,
		horizon:  cfg.HorizonDays,
	}, nil
}

// Sources returns the configured feeds.
func (l *Loader) Sources() []ics.Source { return l.sources }

// Location is the display timezone events are converted to.
func (l *Loader) Location() *time.Location { return l.loc }

// Load expands every feed over [anchor - backfill, anchor + horizon] days.
// Feeds that fail are logged and skipped; only a total failure is an error.
func (l *Loader) Load(ctx context.Context, anchor time.Time) (ics.ExpandResult, error) {
	if len(l.sources) == 0 {
		return ics.ExpandResult{}, nil
	}

	day := dateutil.StartOfDay(anchor.In(l.loc))
	rangeStart := dateutil.AddDays(day, -l.backfill)
	rangeEnd := dateutil.EndOfDay(dateutil.AddDays(day, l.horizon))

	results, fetchErrs := l.fetcher.FetchAll(ctx, l.sources)

	parsed := make([]ics.ParsedEvent, 0)
	parseErrs := 0
	for _, res := range results {
		events, err := ics.ParseICS(res.Source, res.Body)
		if err != nil {
			parseErrs++
			continue
		}
		parsed = append(parsed, events...)
	}

	if len(fetchErrs)+parseErrs == len(l.sources) {
		if joined := errors.Join(fetchErrs...); joined != nil {
			return ics.ExpandResult{}, fmt.Errorf("%w: %w", ErrAllSourcesFailed, joined)
		}
		return ics.ExpandResult{}, ErrAllSourcesFailed
	}

	res, err := ics.ExpandEvents(parsed, ics.ExpandConfig{
		DisplayLocation: l.loc,
		RangeStart:      rangeStart,
		RangeEnd:        rangeEnd,
	})
	if err != nil {
		return ics.ExpandResult{}, fmt.Errorf("source: %w", err)
	}

	appLog.Debug("sources loaded",
		"source_count", len(l.sources),
		"failed", len(fetchErrs)+parseErrs,
		"event_count", len(res.Events),
		"range_start", rangeStart.Format(time.RFC3339),
		"range_end", rangeEnd.Format(time.RFC3339),
	)
	return res, nil
}

// Refresher reloads the store on a cron schedule.
type Refresher struct {
	loader *Loader
	store  *Store
	anchor func() time.Time

	mu   sync.Mutex
	cron *cron.Cron
}

// NewRefresher ties loader to store. anchor supplies the date the expansion
// range is centred on; nil means time.Now.
func NewRefresher(loader *Loader, store *Store, anchor func() time.Time) *Refresher {
	if anchor == nil {
		anchor = time.Now
	}
	return &Refresher{loader: loader, store: store, anchor: anchor}
}

// Refresh runs one load and installs the result.
func (r *Refresher) Refresh(ctx context.Context) error {
	res, err := r.loader.Load(ctx, r.anchor())
	if err != nil {
		appLog.Error("event refresh failed", err)
		return err
	}
	version, changed := r.store.Replace(res.Events, res.TruncatedEvents)
	appLog.Info("event refresh completed",
		"event_count", len(res.Events),
		"version", version,
		"changed", changed,
		"truncated_count", len(res.TruncatedEvents),
	)
	return nil
}

// Start schedules Refresh on spec (standard five-field cron syntax,
// evaluated in the display timezone). Overlapping runs are skipped. The
// schedule stops when ctx is done or Stop is called.
func (r *Refresher) Start(ctx context.Context, spec string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cron != nil {
		return errors.New("source: refresher already started")
	}

	c := cron.New(
		cron.WithLocation(r.loader.Location()),
		cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)),
	)
	if _, err := c.AddFunc(spec, func() {
		runCtx, cancel := context.WithTimeout(ctx, refreshTimeout)
		defer cancel()
		_ = r.Refresh(runCtx)
	}); err != nil {
		return fmt.Errorf("source: refresh schedule %q: %w", spec, err)
	}
	c.Start()
	r.cron = c
	appLog.Info("event refresh scheduled", "refresh", spec, "source_count", len(r.loader.Sources()))

	go func() {
		<-ctx.Done()
		r.Stop()
	}()
	return nil
}

// Stop halts the schedule and waits for a running refresh to finish.
func (r *Refresher) Stop() {
	r.mu.Lock()
	c := r.cron
	r.cron = nil
	r.mu.Unlock()
	if c == nil {
		return
	}
	<-c.Stop().Done()
}
