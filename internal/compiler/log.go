package compiler

import (
	"os"

	"github.com/bep/logg"
)

// pipelineLog wraps a bep/logg logger, giving the dispatcher a couple
// of named levels without threading *logg.Logger's full chainable API
// through every call site. Pass a nil *pipelineLog nowhere — newLog
// always returns a usable value.
type pipelineLog struct {
	logger *logg.Logger
}

// newLog builds a logger at Info level, or Debug when the compile
// options ask for it (spec.md §6 `debug_mode`).
func newLog(debug bool) *pipelineLog {
	level := logg.LevelInfo
	if debug {
		level = logg.LevelDebug
	}
	return &pipelineLog{logger: logg.New(logg.Options{
		Level:  level,
		Writer: os.Stderr,
	})}
}

func (l *pipelineLog) infof(format string, args ...any) {
	l.logger.WithLevel(logg.LevelInfo).Logf(format, args...)
}

func (l *pipelineLog) debugf(format string, args ...any) {
	l.logger.WithLevel(logg.LevelDebug).Logf(format, args...)
}
