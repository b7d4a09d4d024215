// Package log configures the zerolog logger shared by the pipeline commands
// and bridges estimator warnings into it.
package log

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/YuminosukeSato/brainage/pkg/errors"
)

var (
	mu     sync.RWMutex
	logger = zerolog.New(consoleWriter(os.Stderr)).With().Timestamp().Logger()
)

func consoleWriter(w io.Writer) io.Writer {
	return zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
}

// Setup configures the global logger. With json=false a human-readable
// console writer is used, which is what the interactive pipeline runs want.
func Setup(level string, json bool) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return errors.Wrapf(err, "invalid log level %q", level)
	}

	var out io.Writer = os.Stderr
	if !json {
		out = consoleWriter(os.Stderr)
	}

	mu.Lock()
	logger = zerolog.New(out).Level(lvl).With().Timestamp().Logger()
	mu.Unlock()

	WireWarnings()
	return nil
}

// L returns the configured logger.
func L() *zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return &logger
}

// WireWarnings routes pkg/errors warnings (e.g. ConvergenceWarning from the
// SVR and RVM optimizers) into the zerolog logger as warn-level events.
func WireWarnings() {
	errors.SetZerologWarnFunc(func(warning error) {
		ev := L().Warn()
		if obj, ok := warning.(zerolog.LogObjectMarshaler); ok {
			ev.EmbedObject(obj).Msg("warning")
			return
		}
		ev.Err(warning).Msg("warning")
	})
}
