package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Settings selects the level and destination of the global logger.
type Settings struct {
	Level string
	// File receives the logs when set, rotated by size.
	File string
	// Quiet keeps logs off the terminal. Without File they go to
	// DefaultLogFile. The TUI sets it because it owns the terminal.
	Quiet bool
}

// DefaultLogFile is where quiet runs log when no file is configured:
// $HOME/.chit/chit.log, or chit.log in the temp dir without a home.
func DefaultLogFile() string {
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		return filepath.Join(home, ".chit", "chit.log")
	}
	return filepath.Join(os.TempDir(), "chit.log")
}

// InitLogger configures the global zerolog logger and returns a closer for
// the log file, if any.
func InitLogger(s Settings) (io.Closer, error) {
	level := zerolog.InfoLevel
	if strings.TrimSpace(s.Level) != "" {
		l, err := zerolog.ParseLevel(strings.ToLower(s.Level))
		if err != nil {
			return nil, errors.Wrapf(err, "invalid log level %q", s.Level)
		}
		level = l
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339Nano

	var (
		w      io.Writer
		closer io.Closer = nopCloser{}
	)
	file := s.File
	if file == "" && s.Quiet {
		file = DefaultLogFile()
	}

	switch {
	case file != "":
		lj := &lumberjack.Logger{
			Filename:   file,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
		}
		w, closer = lj, lj
	default:
		w = zerolog.ConsoleWriter{
			Out:        os.Stderr,
			NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
			TimeFormat: time.Kitchen,
		}
	}

	logger := zerolog.New(w).With().Timestamp()
	if level <= zerolog.DebugLevel {
		logger = logger.Caller()
	}
	log.Logger = logger.Logger()
	return closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
