package log

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/term"
)

// Level is the log level
// 0: silent  - do not log
// 1: normal  - show everything except debug and warn
// 2: verbose - show everything except debug
// 3: very verbose - show everything
var Level = 1

// LogJSON routes all output through the structured zap logger.
var LogJSON = false

var mu sync.Mutex
var wr io.Writer
var tty bool
var logger *zap.SugaredLogger

func init() {
	SetOutput(os.Stderr)
}

// SetOutput sets the output of the logger
func SetOutput(w io.Writer) {
	f, ok := w.(*os.File)
	tty = ok && term.IsTerminal(int(f.Fd()))
	wr = w
}

// Output returns the output writer
func Output() io.Writer {
	return wr
}

// Build a zap logger from the default or a custom json config
func Build(c string) error {
	zcfg := zap.NewProductionConfig()
	if c != "" {
		if err := json.Unmarshal([]byte(c), &zcfg); err != nil {
			return err
		}
	}
	// filtering happens through Level, not zap
	zcfg.Level.SetLevel(zap.DebugLevel)
	// the caller is always log.go
	zcfg.DisableCaller = true
	core, err := zcfg.Build()
	if err != nil {
		return err
	}
	defer core.Sync()
	logger = core.Sugar()
	return nil
}

// Set a zap logger
func Set(sl *zap.SugaredLogger) {
	logger = sl
}

// Get a zap logger
func Get() *zap.SugaredLogger {
	return logger
}

// levelInfo carries the gate and dressing for one severity.
type levelInfo struct {
	show  int    // minimum Level for the message to appear
	tag   string // tag written between brackets
	color string // tty color escape
}

var (
	lvlDebug = levelInfo{3, "DEBU", "\x1b[35m"}
	lvlInfo  = levelInfo{1, "INFO", "\x1b[36m"}
	lvlWarn  = levelInfo{2, "WARN", "\x1b[33m"}
	lvlError = levelInfo{1, "ERRO", "\x1b[1m\x1b[31m"}
	lvlFatal = levelInfo{1, "FATA", "\x1b[31m"}
)

func write(li levelInfo, formatted bool, format string, args ...interface{}) {
	if Level < li.show {
		return
	}
	var msg string
	if formatted {
		msg = fmt.Sprintf(format, args...)
	} else {
		msg = fmt.Sprint(args...)
	}
	if LogJSON {
		switch li.tag {
		case "DEBU":
			logger.Debug(msg)
		case "WARN":
			logger.Warn(msg)
		case "ERRO":
			logger.Error(msg)
		case "FATA":
			logger.Fatal(msg)
		default:
			logger.Info(msg)
		}
		return
	}
	s := []byte(time.Now().Format("2006/01/02 15:04:05"))
	s = append(s, ' ')
	if tty {
		s = append(s, li.color...)
	}
	s = append(s, '[')
	s = append(s, li.tag...)
	s = append(s, ']')
	if tty {
		s = append(s, "\x1b[0m"...)
	}
	s = append(s, ' ')
	s = append(s, msg...)
	if s[len(s)-1] != '\n' {
		s = append(s, '\n')
	}
	mu.Lock()
	wr.Write(s)
	mu.Unlock()
}

// emptyFormat is passed as a variable rather than a "" literal so that
// vet's printf check does not treat the unformatted helpers as printf
// wrappers.
var emptyFormat string

// Infof ...
func Infof(format string, args ...interface{}) {
	write(lvlInfo, true, format, args...)
}

// Info ...
func Info(args ...interface{}) {
	write(lvlInfo, false, emptyFormat, args...)
}

// Warnf ...
func Warnf(format string, args ...interface{}) {
	write(lvlWarn, true, format, args...)
}

// Warn ...
func Warn(args ...interface{}) {
	write(lvlWarn, false, emptyFormat, args...)
}

// Errorf ...
func Errorf(format string, args ...interface{}) {
	write(lvlError, true, format, args...)
}

// Error ...
func Error(args ...interface{}) {
	write(lvlError, false, emptyFormat, args...)
}

// Debugf ...
func Debugf(format string, args ...interface{}) {
	write(lvlDebug, true, format, args...)
}

// Debug ...
func Debug(args ...interface{}) {
	write(lvlDebug, false, emptyFormat, args...)
}

// Fatalf ...
func Fatalf(format string, args ...interface{}) {
	write(lvlFatal, true, format, args...)
	os.Exit(1)
}

// Fatal ...
func Fatal(args ...interface{}) {
	write(lvlFatal, false, emptyFormat, args...)
	os.Exit(1)
}
