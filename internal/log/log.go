package log

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelError Level = "ERROR"
)

var (
	mu       sync.Mutex
	logger   zerolog.Logger
	initOnce sync.Once
	out      io.Writer = os.Stderr
	format             = "console"
	minLevel           = LevelInfo
)

// initLogger builds the global logger lazily so that packages can log from
// init paths without ordering concerns.
func initLogger() {
	initOnce.Do(func() {
		rebuild()
	})
}

// rebuild must be called with mu held (or from initOnce).
func rebuild() {
	var w io.Writer = out
	if format != "json" {
		w = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339Nano,
			NoColor:    true,
		}
	}
	logger = zerolog.New(w).Level(toZerolog(minLevel)).With().Timestamp().Logger()
}

// SetLevel changes the minimum level that is written.
func SetLevel(l Level) {
	initLogger()
	mu.Lock()
	defer mu.Unlock()
	minLevel = l
	rebuild()
}

// SetFormat switches between "console" (default) and "json" output.
func SetFormat(f string) {
	initLogger()
	mu.Lock()
	defer mu.Unlock()
	format = f
	rebuild()
}

// SetOutput redirects log output. Mostly useful in tests.
func SetOutput(w io.Writer) {
	initLogger()
	mu.Lock()
	defer mu.Unlock()
	out = w
	rebuild()
}

// ParseLevel maps a config string onto a Level, defaulting to INFO.
func ParseLevel(s string) Level {
	switch s {
	case "debug", "DEBUG":
		return LevelDebug
	case "error", "ERROR":
		return LevelError
	default:
		return LevelInfo
	}
}

func Debug(msg string, kv ...any) {
	logWithLevel(LevelDebug, nil, msg, kv...)
}

func Info(msg string, kv ...any) {
	logWithLevel(LevelInfo, nil, msg, kv...)
}

func Error(msg string, err error, kv ...any) {
	logWithLevel(LevelError, err, msg, kv...)
}

func logWithLevel(level Level, err error, msg string, kv ...any) {
	initLogger()
	mu.Lock()
	l := logger
	mu.Unlock()

	var e *zerolog.Event
	switch level {
	case LevelDebug:
		e = l.Debug()
	case LevelError:
		e = l.Error()
	default:
		e = l.Info()
	}
	if e == nil {
		// level disabled
		return
	}
	if err != nil {
		e = e.Err(err)
	}

	// Expect kv as pairs: key, value, key, value, ...
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		e = addField(e, key, kv[i+1])
	}
	// If odd number of args, last one is ignored.
	e.Msg(msg)
}

func addField(e *zerolog.Event, key string, v any) *zerolog.Event {
	switch val := v.(type) {
	case string:
		return e.Str(key, val)
	case int:
		return e.Int(key, val)
	case bool:
		return e.Bool(key, val)
	case float64:
		return e.Float64(key, val)
	case time.Time:
		return e.Time(key, val)
	case error:
		return e.AnErr(key, val)
	case fmt.Stringer:
		return e.Stringer(key, val)
	default:
		return e.Interface(key, val)
	}
}

func toZerolog(l Level) zerolog.Level {
	switch l {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
