package service

import (
	"io"

	"github.com/sirupsen/logrus"
)

// orDiscard lets tests pass a nil logger.
func orDiscard(l *logrus.Logger) *logrus.Logger {
	if l != nil {
		return l
	}
	d := logrus.New()
	d.SetOutput(io.Discard)
	return d
}
