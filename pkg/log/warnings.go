package log

import (
	"io"
	"os"

	"github.com/rs/zerolog"

	statkitErrors "github.com/strucbio/statkit/pkg/errors"
)

// EnableStructuredWarnings routes statkit warnings (ConvergenceWarning,
// UndefinedMetricWarning, ...) to a zerolog logger writing to w. Warning
// types implementing zerolog.LogObjectMarshaler are emitted with their
// structured fields; anything else falls back to the error string.
// Passing nil writes to stderr.
func EnableStructuredWarnings(w io.Writer) {
	if w == nil {
		w = os.Stderr
	}
	logger := zerolog.New(w).With().Timestamp().Logger()

	statkitErrors.SetZerologWarnFunc(func(warning error) {
		ev := logger.Warn()
		if obj, ok := warning.(zerolog.LogObjectMarshaler); ok {
			ev.Object("warning", obj).Msg("statkit warning")
			return
		}
		ev.Err(warning).Msg("statkit warning")
	})
}
