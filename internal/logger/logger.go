package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	log  *logrus.Logger
	once sync.Once
)

// Init initializes the logger only once. LOG_LEVEL picks the starting level.
func Init() {
	once.Do(func() {
		l := logrus.New()
		l.SetOutput(os.Stdout)
		l.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})

		level, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
		if err != nil {
			level = logrus.InfoLevel
		}
		l.SetLevel(level)

		log = l
	})
}

// GetLogger returns the singleton logger
func GetLogger() *logrus.Logger {
	Init()
	return log
}

// Configure applies level ("debug", "info", ...) and format ("json" or
// "text") to the singleton. Empty values keep the current setting.
func Configure(level, format string) error {
	l := GetLogger()
	if level != "" {
		lv, err := logrus.ParseLevel(level)
		if err != nil {
			return fmt.Errorf("log level: %w", err)
		}
		l.SetLevel(lv)
	}
	switch strings.ToLower(format) {
	case "":
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02 15:04:05"})
	case "text":
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return fmt.Errorf("log format %q: want json or text", format)
	}
	return nil
}

// SetOutput redirects the singleton, e.g. away from a terminal UI.
func SetOutput(w io.Writer) {
	GetLogger().SetOutput(w)
}

func Info(msg string) {
	GetLogger().Info(msg)
}

func Error(err error, msg string) {
	GetLogger().WithError(err).Error(msg)
}

func Fatal(err error, msg string) {
	GetLogger().WithError(err).Fatal(msg)
}
