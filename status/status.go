// Basic leveled logging shared by the jobclean commands.
//
// Messages go to stderr and, if one is installed, to an underlying logger, usually syslog.  Log
// calls never exit or panic; the name of the method is the level only.

package status

import (
	"fmt"
	"io"
	"log/syslog"
	"os"
	"strings"
	"sync"
)

type LogLevel int

// Levels are ordered by increasing severity.  A logger at level l prints messages at l or above.
const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarning
	LogLevelError
	LogLevelCritical
)

var levelNames = map[string]LogLevel{
	"debug":    LogLevelDebug,
	"info":     LogLevelInfo,
	"warning":  LogLevelWarning,
	"error":    LogLevelError,
	"critical": LogLevelCritical,
}

// ParseLevel maps a level name from a config file ("debug", "info", ...) to a LogLevel.

func ParseLevel(s string) (LogLevel, error) {
	if l, found := levelNames[strings.ToLower(strings.TrimSpace(s))]; found {
		return l, nil
	}
	return LogLevelError, fmt.Errorf("Unknown log level %q", s)
}

// Implementations of this must be thread-safe.
type Logger interface {
	SetLevel(l LogLevel)

	// Lower the level at least to l, never raise it.
	LowerLevelTo(l LogLevel)

	Level() LogLevel

	// Print on this stream, nil to silence.
	SetStderr(w io.Writer)

	// Also print on this underlying (simpler) logger.
	SetUnderlying(w UnderlyingLogger)

	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warningf(format string, args ...any)
	Errorf(format string, args ...any)
	Criticalf(format string, args ...any)
}

// log/syslog implements UnderlyingLogger.  An underlying logger must be thread-safe.
type UnderlyingLogger interface {
	Debug(m string) error
	Info(m string) error
	Warning(m string) error
	Err(m string) error
	Crit(m string) error
}

type StandardLogger struct {
	sync.Mutex
	level      LogLevel
	stderr     io.Writer
	underlying UnderlyingLogger
}

func New(level LogLevel, stderr io.Writer) *StandardLogger {
	return &StandardLogger{level: level, stderr: stderr}
}

// MT: Constant after initialization, thread-safe.
var defaultLogger Logger = New(LogLevelWarning, os.Stderr)

func Default() Logger {
	return defaultLogger
}

func (sl *StandardLogger) SetLevel(l LogLevel) {
	sl.Lock()
	defer sl.Unlock()
	sl.level = l
}

func (sl *StandardLogger) LowerLevelTo(l LogLevel) {
	sl.Lock()
	defer sl.Unlock()
	if sl.level > l {
		sl.level = l
	}
}

func (sl *StandardLogger) Level() LogLevel {
	sl.Lock()
	defer sl.Unlock()
	return sl.level
}

func (sl *StandardLogger) SetStderr(stderr io.Writer) {
	sl.Lock()
	defer sl.Unlock()
	sl.stderr = stderr
}

func (sl *StandardLogger) SetUnderlying(underlying UnderlyingLogger) {
	sl.Lock()
	defer sl.Unlock()
	sl.underlying = underlying
}

func (sl *StandardLogger) emit(l LogLevel, format string, args []any) {
	sl.Lock()
	defer sl.Unlock()

	if l < sl.level {
		return
	}
	s := fmt.Sprintf(format, args...)
	if sl.stderr != nil {
		fmt.Fprintln(sl.stderr, s)
	}
	if u := sl.underlying; u != nil {
		switch l {
		case LogLevelDebug:
			u.Debug(s)
		case LogLevelInfo:
			u.Info(s)
		case LogLevelWarning:
			u.Warning(s)
		case LogLevelError:
			u.Err(s)
		default:
			u.Crit(s)
		}
	}
}

func (sl *StandardLogger) Debugf(format string, args ...any) {
	sl.emit(LogLevelDebug, format, args)
}

func (sl *StandardLogger) Infof(format string, args ...any) {
	sl.emit(LogLevelInfo, format, args)
}

func (sl *StandardLogger) Warningf(format string, args ...any) {
	sl.emit(LogLevelWarning, format, args)
}

func (sl *StandardLogger) Errorf(format string, args ...any) {
	sl.emit(LogLevelError, format, args)
}

func (sl *StandardLogger) Criticalf(format string, args ...any) {
	sl.emit(LogLevelCritical, format, args)
}

// Attach the default logger to the Unix syslog daemon under logTag.  The priority is a
// placeholder, it is overridden per message.

func StartSyslog(logTag string) error {
	logger, err := syslog.Dial("", "", syslog.LOG_INFO|syslog.LOG_USER, logTag)
	if err != nil {
		return err
	}
	defaultLogger.SetUnderlying(logger)
	return nil
}

func Fatalf(format string, args ...any) {
	defaultLogger.Criticalf(format, args...)
	os.Exit(1)
}
