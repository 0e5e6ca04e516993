package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
)

var (
	diagLog  zerolog.Logger
	diagFile *os.File
	logMu    sync.Mutex
	logReady bool
	pid      int
	dir      string
	level    = zerolog.InfoLevel
)

func ResolveDir(flagPath string) (string, error) {
	// Priority 1: -logpath flag
	if flagPath != "" {
		return absolute(flagPath)
	}

	// Priority 2: OMEGASND_LOG_PATH environment variable
	if envPath := os.Getenv("OMEGASND_LOG_PATH"); envPath != "" {
		return absolute(envPath)
	}

	// Priority 3: Default OS-specific location
	return getDefaultDir()
}

func absolute(p string) (string, error) {
	if filepath.IsAbs(p) {
		return p, nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, p), nil
}

func SetDir(d string) {
	dir = d
}

func Dir() string {
	return dir
}

func EnsureDir() error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	return nil
}

// SetLevel accepts zerolog level names; unknown names keep the current level.
func SetLevel(name string) {
	lvl, err := zerolog.ParseLevel(name)
	if err != nil || name == "" {
		return
	}
	logMu.Lock()
	level = lvl
	if logReady {
		diagLog = diagLog.Level(lvl)
	}
	logMu.Unlock()
}

func Init() error {
	logMu.Lock()
	defer logMu.Unlock()

	if err := EnsureDir(); err != nil {
		return err
	}

	var err error
	diagPath := filepath.Join(dir, "diagnostics_log.txt")
	diagFile, err = os.OpenFile(diagPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	start(diagFile)
	return nil
}

// InitWriter routes diagnostics to w instead of the log directory.
func InitWriter(w io.Writer) {
	logMu.Lock()
	defer logMu.Unlock()
	start(w)
}

func start(w io.Writer) {
	pid = os.Getpid()
	consoleWriter := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    true,
	}
	diagLog = zerolog.New(consoleWriter).Level(level).With().Timestamp().Int("pid", pid).Logger()
	logReady = true
}

func Close() {
	logMu.Lock()
	defer logMu.Unlock()
	if diagFile != nil {
		diagFile.Close()
		diagFile = nil
	}
	logReady = false
}

func Debugf(format string, args ...any) {
	if logReady {
		diagLog.Debug().Msg(fmt.Sprintf(format, args...))
	}
}

func Info(msg string) {
	if logReady {
		diagLog.Info().Msg(msg)
	}
}

func Infof(format string, args ...any) {
	if logReady {
		diagLog.Info().Msg(fmt.Sprintf(format, args...))
	}
}

func Error(msg string) {
	if logReady {
		diagLog.Error().Msg(msg)
	}
}

func Errorf(format string, args ...any) {
	if logReady {
		diagLog.Error().Msg(fmt.Sprintf(format, args...))
	}
}

func Warn(msg string) {
	if logReady {
		diagLog.Warn().Msg(msg)
	}
}

func Warnf(format string, args ...any) {
	if logReady {
		diagLog.Warn().Msg(fmt.Sprintf(format, args...))
	}
}

func SessionStart(backend string, rate, channels, bits int) {
	if !logReady {
		return
	}
	diagLog.Info().
		Str("backend", backend).
		Int("rate", rate).
		Int("channels", channels).
		Int("bits", bits).
		Msg("session_start")
}

func SessionEnd(frames int, soundTime int32) {
	if !logReady {
		return
	}
	diagLog.Info().
		Int("frames", frames).
		Int32("sound_time", soundTime).
		Msg("session_end")
}

// Overflow reports a raw stream written further ahead than its ring holds.
func Overflow(stream int, end, soundTime int32) {
	if !logReady {
		return
	}
	diagLog.Debug().
		Int("stream", stream).
		Int32("end", end).
		Int32("sound_time", soundTime).
		Msg("raw_overflow")
}
