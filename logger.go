package flowengine

import (
	"io"

	"github.com/rs/zerolog"

	"github.com/phenobarbital/ai-parrot-sub006/internal/telemetry"
)

// ConfigureLogging installs the process-wide logger every run's telemetry
// goes through (FSM transitions and node dispatch at debug level; warnings
// from predicate evaluation, the validate action and skipped edges; the
// log action at its configured level). Call once at process startup; w is
// typically os.Stderr or os.Stdout, level one of zerolog's Level consts.
func ConfigureLogging(w io.Writer, level zerolog.Level) {
	telemetry.Configure(w, level)
}

// Logger returns the current process-wide logger, for application code
// that wants to log alongside the engine using the same sink/format.
func Logger() *zerolog.Logger {
	return telemetry.L()
}
