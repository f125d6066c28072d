// Package logger provides prefixed logrus entries shared by every package.
package logger

import (
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	root   = logrus.New()
	rootMu sync.Mutex
)

// GetLogger returns a logrus entry tagged with the given prefix.
func GetLogger(prefix string) *logrus.Entry {
	return root.WithField("prefix", prefix)
}

// SetVerbosity maps the CLI verbosity level (0-3) onto logrus levels.
// 0 is the normal info output, 1 adds debug logs, 2 and above add raw
// switch output (trace).
func SetVerbosity(level int) {
	rootMu.Lock()
	defer rootMu.Unlock()
	switch level {
	case 0:
		root.SetLevel(logrus.InfoLevel)
	case 1:
		root.SetLevel(logrus.DebugLevel)
	default:
		root.SetLevel(logrus.TraceLevel)
	}
}
