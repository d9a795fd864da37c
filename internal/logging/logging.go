// Package logging configures the process logger.
package logging

import (
	"io"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// New returns a logger writing to out at level in the given format ("text"
// or "json"). Every entry carries a session id unique to this run.
func New(out io.Writer, level, format string) (*logrus.Entry, error) {
	logger := logrus.New()
	logger.SetOutput(out)

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, errors.Wrap(err, "log level")
	}
	logger.SetLevel(lvl)

	switch strings.ToLower(format) {
	case "", "text":
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, errors.Newf("unknown log format %q", format)
	}

	return logger.WithField("session", uuid.New().String()), nil
}
