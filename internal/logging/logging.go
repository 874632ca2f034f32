// Package logging configures the logrus logger shared by the CLI and the
// core packages.
package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// New returns a logger writing text to w. verbose, or a non-empty
// AETHER_DEBUG, enables debug output.
func New(w io.Writer, verbose bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(w)
	log.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp:       true,
		DisableLevelTruncation: true,
	})
	log.SetLevel(logrus.InfoLevel)
	if verbose || os.Getenv("AETHER_DEBUG") != "" {
		log.SetLevel(logrus.DebugLevel)
	}
	return log
}
