// Package log centralizes logrus configuration so every gofia package logs
// through the same structured entry, matching the teacher's
// ctx.GetLogger()-style per-component logger rather than ad-hoc fmt.Println.
package log

import "github.com/sirupsen/logrus"

var base = logrus.New()

func init() {
	base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}

// For returns a component-scoped entry, e.g. log.For("optimizer").Debug(...).
func For(component string) *logrus.Entry {
	return base.WithField("component", component)
}

// SetLevel adjusts the package-wide log level; callers embedding gofia in a
// larger application can quiet or raise verbosity without reaching into
// logrus directly.
func SetLevel(level logrus.Level) {
	base.SetLevel(level)
}
