package logger

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

const service = "mockmate"

func New() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetFormatter(&logrus.JSONFormatter{})
	l.SetLevel(parseLevel(os.Getenv("LOG_LEVEL")))
	return l
}

// Component returns an entry tagged with the service and component names.
func Component(l *logrus.Logger, name string) *logrus.Entry {
	if l == nil {
		l = logrus.StandardLogger()
	}
	return l.WithFields(logrus.Fields{"service": service, "component": name})
}

func parseLevel(v string) logrus.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "trace":
		return logrus.TraceLevel
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}
