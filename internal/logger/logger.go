package logger

import (
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type Logger struct {
	*logrus.Entry
}

var (
	mu     sync.RWMutex
	level  = os.Getenv("LOG_LEVEL")
	format = os.Getenv("LOG_FORMAT")
)

// Setup overrides the level and format picked up from the environment.
// An empty format means pretty console when ENVIRONMENT is unset or
// "local", JSON otherwise.
func Setup(lvl, fmtName string) {
	mu.Lock()
	defer mu.Unlock()
	level = lvl
	format = fmtName
}

func New() *Logger {
	mu.RLock()
	lvl, fmtName := level, format
	mu.RUnlock()

	base := logrus.New()

	if fmtName == "" {
		env := os.Getenv("ENVIRONMENT")
		if env == "" || env == "local" {
			fmtName = "text"
		} else {
			fmtName = "json"
		}
	}
	if strings.ToLower(fmtName) == "text" {
		base.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339Nano,
			ForceColors:     true,
		})
	} else {
		base.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
		})
	}

	base.SetOutput(os.Stdout)

	switch strings.ToLower(lvl) {
	case "debug":
		base.SetLevel(logrus.DebugLevel)
	case "warn":
		base.SetLevel(logrus.WarnLevel)
	case "error":
		base.SetLevel(logrus.ErrorLevel)
	default:
		base.SetLevel(logrus.InfoLevel)
	}

	return &Logger{Entry: logrus.NewEntry(base)}
}

// RequestID returns the caller-supplied X-Request-ID or a fresh one.
func RequestID(r *http.Request) string {
	if id := r.Header.Get("X-Request-ID"); id != "" {
		return id
	}
	return uuid.New().String()
}

// WithRequest attaches request metadata and returns an entry
func (l *Logger) WithRequest(r *http.Request) *logrus.Entry {
	return l.WithFields(logrus.Fields{
		"req_id":     RequestID(r),
		"method":     r.Method,
		"path":       r.URL.Path,
		"remote_ip":  r.RemoteAddr,
		"user_agent": r.UserAgent(),
	})
}

// WithError standardizes error logging
func (l *Logger) WithError(err error) *logrus.Entry {
	if err == nil {
		return l.Entry
	}
	return l.Entry.WithField("error", err.Error())
}
