package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
	// Timezone names must resolve on minimal images without zoneinfo.
	_ "time/tzdata"

	"gopkg.in/yaml.v3"

	"weekview/internal/calendar"
	"weekview/internal/dateutil"
)

// NOTE: This file provides the configuration model and full YAML-based
// load/save behavior, including first-run config creation and 0600
// permissions.

// ErrInvalidSelectedDate is returned when view.selected_date is not a
// YYYY-MM-DD date key.
var ErrInvalidSelectedDate = errors.New("config: selected_date must be YYYY-MM-DD")

// ICSConfig describes a single ICS subscription source.
type ICSConfig struct {
	// URL is the ICS subscription endpoint. Either URL or Path is required.
	URL string `yaml:"url,omitempty" json:"url,omitempty"`
	// Path is a local .ics file, read on every refresh.
	Path string `yaml:"path,omitempty" json:"path,omitempty"`
	// ID is an internal identifier used for de-dup and logging.
	ID string `yaml:"id" json:"id"`
	// Name is a human-friendly label shown in the UI.
	Name string `yaml:"name" json:"name"`
	// Color is applied to every event from this source.
	Color string `yaml:"color,omitempty" json:"color,omitempty"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// ViewConfig holds the week view options.
type ViewConfig struct {
	// NumberOfDays per page: 1, 3, 5 or 7.
	NumberOfDays int `yaml:"number_of_days" json:"number_of_days"`
	// HoursInDisplay is how many hours fit in one screen height.
	HoursInDisplay float64 `yaml:"hours_in_display" json:"hours_in_display"`
	// StartHour is the hour scrolled to on mount.
	StartHour int    `yaml:"start_hour" json:"start_hour"`
	Locale    string `yaml:"locale" json:"locale"`

	RightToLeft bool `yaml:"right_to_left" json:"right_to_left"`
	// PrependMostRecent pages towards the past when swiping forward.
	PrependMostRecent bool `yaml:"prepend_most_recent" json:"prepend_most_recent"`
	// FormatDateHeader is the header label format ("MMM D", "ddd+", ...).
	FormatDateHeader string `yaml:"format_date_header" json:"format_date_header"`
	// SelectedDate is the anchor date (YYYY-MM-DD). Empty means today.
	SelectedDate string `yaml:"selected_date,omitempty" json:"selected_date,omitempty"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA timezone used as canonical display zone (e.g. "Asia/Seoul").
	Timezone string `yaml:"timezone" json:"timezone"`

	// RefreshCron is a cron-style schedule string (e.g. "*/15 * * * *")
	// used for periodic event refresh.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// HorizonDays is how far past the anchor recurring events are expanded.
	HorizonDays int `yaml:"horizon_days" json:"horizon_days"`
	// BackfillDays is how far before the anchor recurring events are expanded.
	BackfillDays int `yaml:"backfill_days" json:"backfill_days"`

	// ShowAllDay toggles the all-day strip.
	ShowAllDay bool `yaml:"show_all_day" json:"show_all_day"`

	View ViewConfig `yaml:"view" json:"view"`

	// ICS is the list of event sources.
	ICS []ICSConfig `yaml:"ics" json:"ics"`

	// CacheDir holds conditional-GET metadata for ICS URLs.
	CacheDir string `yaml:"cache_dir" json:"cache_dir"`

	LogLevel  string `yaml:"log_level" json:"log_level"`
	LogFormat string `yaml:"log_format" json:"log_format"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all endpoints
	// except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:       "127.0.0.1:8080",
		Timezone:     "Asia/Seoul",
		RefreshCron:  "*/15 * * * *",
		HorizonDays:  90,
		BackfillDays: 90,
		ShowAllDay:   true,
		View: ViewConfig{
			NumberOfDays:     7,
			HoursInDisplay:   calendar.DefaultHoursInDisplay,
			StartHour:        8,
			Locale:           "en",
			FormatDateHeader: dateutil.FormatMonthDay,
		},
		ICS:       []ICSConfig{},
		CacheDir:  "./var/ics-cache",
		LogLevel:  "info",
		LogFormat: "console",
		BasicAuth: nil,
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly. It never touches values
// that are set but invalid; Validate reports those.
func (c *Config) Normalize() {
	d := DefaultConfig()
	if c.Listen == "" {
		c.Listen = d.Listen
	}
	if c.Timezone == "" {
		c.Timezone = d.Timezone
	}
	if c.RefreshCron == "" {
		c.RefreshCron = d.RefreshCron
	}
	if c.HorizonDays <= 0 {
		c.HorizonDays = d.HorizonDays
	}
	if c.BackfillDays < 0 {
		c.BackfillDays = 0
	}
	if c.View.NumberOfDays == 0 {
		c.View.NumberOfDays = d.View.NumberOfDays
	}
	if c.View.HoursInDisplay == 0 {
		c.View.HoursInDisplay = d.View.HoursInDisplay
	}
	if c.View.Locale == "" {
		c.View.Locale = d.View.Locale
	}
	if c.View.FormatDateHeader == "" {
		c.View.FormatDateHeader = d.View.FormatDateHeader
	}
	if c.ICS == nil {
		c.ICS = []ICSConfig{}
	}
	if c.CacheDir == "" {
		c.CacheDir = d.CacheDir
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = d.LogFormat
	}
}

// Location resolves Timezone, falling back to time.Local when unset.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("config: timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// SelectedDate resolves View.SelectedDate in the display timezone. An empty
// value means today.
func (c *Config) SelectedDate(now time.Time) (time.Time, error) {
	loc, err := c.Location()
	if err != nil {
		return time.Time{}, err
	}
	if c.View.SelectedDate == "" {
		return dateutil.StartOfDay(now.In(loc)), nil
	}
	d, err := dateutil.ParseKey(c.View.SelectedDate, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrInvalidSelectedDate, err)
	}
	return d, nil
}

// ViewOptions converts the view section into calendar options. Callbacks
// are left for the caller to attach.
func (c *Config) ViewOptions(now time.Time) (calendar.Options, error) {
	selected, err := c.SelectedDate(now)
	if err != nil {
		return calendar.Options{}, err
	}
	return calendar.Options{
		NumberOfDays:      c.View.NumberOfDays,
		HoursInDisplay:    c.View.HoursInDisplay,
		StartHour:         c.View.StartHour,
		Locale:            c.View.Locale,
		RightToLeft:       c.View.RightToLeft,
		PrependMostRecent: c.View.PrependMostRecent,
		FormatDateHeader:  c.View.FormatDateHeader,
		SelectedDate:      selected,
	}, nil
}

// Validate rejects configurations the week view cannot render.
func (c *Config) Validate() error {
	opts, err := c.ViewOptions(time.Now())
	if err != nil {
		return err
	}
	if err := opts.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	for i, src := range c.ICS {
		if src.URL == "" && src.Path == "" {
			return fmt.Errorf("config: ics[%d] needs url or path", i)
		}
	}
	return nil
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults and validate
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".weekview-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// Ensure we clean up temp file on error.
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
