// Package logging is a small leveled logger on top of the standard log package.
// The level is process-global and safe to change from any goroutine.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync/atomic"
	"time"
)

// Level represents severity.
type Level int32

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelSilent
)

var levelNames = map[string]Level{
	"debug":   LevelDebug,
	"info":    LevelInfo,
	"warn":    LevelWarn,
	"warning": LevelWarn,
	"error":   LevelError,
	"silent":  LevelSilent,
	"off":     LevelSilent,
}

var currentLevel int32 = int32(LevelInfo)

var base atomic.Pointer[log.Logger]

func init() {
	base.Store(log.New(os.Stderr, "", log.Ldate|log.Ltime))
}

// ParseLevel maps a level name to a Level.
func ParseLevel(s string) (Level, error) {
	l, ok := levelNames[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
	return l, nil
}

// SetLevel parses and sets the global level. Unknown names are ignored.
func SetLevel(s string) {
	l, err := ParseLevel(s)
	if err != nil {
		return
	}
	atomic.StoreInt32(&currentLevel, int32(l))
}

// GetLevel returns the current global level.
func GetLevel() Level { return Level(atomic.LoadInt32(&currentLevel)) }

// SetOutput redirects all log output.
func SetOutput(w io.Writer) {
	base.Store(log.New(w, "", log.Ldate|log.Ltime))
}

// Std returns the underlying *log.Logger.
func Std() *log.Logger { return base.Load() }

func logf(l Level, format string, args ...interface{}) {
	if GetLevel() > l {
		return
	}
	prefix := "INFO"
	switch l {
	case LevelDebug:
		prefix = "DEBUG"
	case LevelWarn:
		prefix = "WARN"
	case LevelError:
		prefix = "ERROR"
	}
	// A format without args is printed verbatim so literal % signs survive.
	if len(args) == 0 {
		base.Load().Printf("[%s] %s", prefix, format)
		return
	}
	base.Load().Printf("[%s] %s", prefix, fmt.Sprintf(format, args...))
}

func Debugf(format string, a ...interface{}) { logf(LevelDebug, format, a...) }
func Infof(format string, a ...interface{})  { logf(LevelInfo, format, a...) }
func Warnf(format string, a ...interface{})  { logf(LevelWarn, format, a...) }
func Errorf(format string, a ...interface{}) { logf(LevelError, format, a...) }

// TimeTrack logs the duration of a phase at debug level.
func TimeTrack(start time.Time, label string) {
	Debugf("%s took %s", label, time.Since(start))
}
