package logging

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	EnvLogLevel     = "DAEINIT_LOG_LEVEL"
	EnvLogTimestamp = "DAEINIT_LOG_TIMESTAMP"
	EnvLogNoColor   = "DAEINIT_LOG_NOCOLOR"
)

// Level is an output level of the initialization routines. Larger values
// are more severe; messages below the threshold of a Logger are dropped.
type Level int8

const (
	NotSet   Level = 0
	Debug    Level = 10
	InfoHigh Level = 19
	Info     Level = 20
	InfoLow  Level = 21
	Warning  Level = 30
	Error    Level = 40
	Critical Level = 50
)

func (l Level) String() string {
	switch l {
	case NotSet:
		return "notset"
	case Debug:
		return "debug"
	case InfoHigh:
		return "info_high"
	case Info:
		return "info"
	case InfoLow:
		return "info_low"
	case Warning:
		return "warning"
	case Error:
		return "error"
	case Critical:
		return "critical"
	}
	return fmt.Sprintf("level(%d)", int8(l))
}

// ParseLevel accepts the names produced by Level.String
func ParseLevel(raw string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "notset":
		return NotSet, nil
	case "debug":
		return Debug, nil
	case "info_high":
		return InfoHigh, nil
	case "info":
		return Info, nil
	case "info_low":
		return InfoLow, nil
	case "warn", "warning":
		return Warning, nil
	case "error":
		return Error, nil
	case "critical":
		return Critical, nil
	}
	return NotSet, fmt.Errorf("unknown output level %q", raw)
}

func (l Level) zerolog() zerolog.Level {
	switch {
	case l <= Debug:
		return zerolog.DebugLevel
	case l < Warning:
		return zerolog.InfoLevel
	case l < Error:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}

// Logger filters events by Level before handing them to zerolog
type Logger struct {
	zl        zerolog.Logger
	threshold Level
}

// New tags base with the component and stage names. NotSet thresholds
// inherit Info.
func New(base zerolog.Logger, component, stage string, lvl Level) Logger {
	if lvl == NotSet {
		lvl = Info
	}
	return Logger{
		zl:        base.With().Str("component", component).Str("stage", stage).Logger(),
		threshold: lvl,
	}
}

// InitLogger is the logger for initialization progress messages
func InitLogger(component string, lvl Level) Logger {
	return New(log.Logger, component, "init", lvl)
}

// SolveLogger is the logger solver output is routed to
func SolveLogger(component string, lvl Level) Logger {
	return New(log.Logger, component, "solve", lvl)
}

func (l Logger) Level() Level { return l.threshold }

// Enabled reports whether messages at lvl pass the threshold
func (l Logger) Enabled(lvl Level) bool { return lvl >= l.threshold }

// Zerolog exposes the tagged zerolog logger
func (l Logger) Zerolog() zerolog.Logger { return l.zl }

// Event starts an event at lvl, nil (a no-op event) when filtered
func (l Logger) Event(lvl Level) *zerolog.Event {
	if !l.Enabled(lvl) {
		return nil
	}
	return l.zl.WithLevel(lvl.zerolog()).Str("lvl", lvl.String())
}

func (l Logger) Debug() *zerolog.Event    { return l.Event(Debug) }
func (l Logger) InfoHigh() *zerolog.Event { return l.Event(InfoHigh) }
func (l Logger) Info() *zerolog.Event     { return l.Event(Info) }
func (l Logger) InfoLow() *zerolog.Event  { return l.Event(InfoLow) }
func (l Logger) Warning() *zerolog.Event  { return l.Event(Warning) }
func (l Logger) Error() *zerolog.Event    { return l.Event(Error) }

// SolverTee reports whether solver output should be echoed, which is the
// case when the solve logger passes debug messages
func SolverTee(l Logger) bool { return l.Enabled(Debug) }

type Profile int

const (
	ProfileRuntime Profile = iota
	ProfileTest
)

var configureOnce sync.Once

func ConfigureRuntime() { Configure(ProfileRuntime) }
func ConfigureTests()   { Configure(ProfileTest) }

// Configure installs the global console logger once per process
func Configure(profile Profile) {
	configureOnce.Do(func() {
		log.Logger = NewConsole(os.Stderr, profile)
	})
}

// NewConsole builds a console logger for profile with environment overrides
func NewConsole(w io.Writer, profile Profile) zerolog.Logger {
	level := zerolog.InfoLevel
	timestamp := true
	if profile == ProfileTest {
		level = zerolog.DebugLevel
		timestamp = false
	}
	noColor := false
	if lvl, err := ParseLevel(os.Getenv(EnvLogLevel)); err == nil && lvl != NotSet {
		level = lvl.zerolog()
	}
	if v, ok := parseBool(os.Getenv(EnvLogTimestamp)); ok {
		timestamp = v
	}
	if v, ok := parseBool(os.Getenv(EnvLogNoColor)); ok {
		noColor = v
	}
	output := zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: noColor}
	ctx := zerolog.New(output).Level(level).With()
	if timestamp {
		ctx = ctx.Timestamp()
	}
	return ctx.Logger()
}

func parseBool(raw string) (bool, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
