package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Log is the process logger. It writes to stderr until InitWithConfig adds the log file.
var Log = logrus.New()

func Init() error {
	return InitWithLevel("info")
}

func InitWithLevel(logLevel string) error {
	return InitWithConfig(logLevel, "bsm.log")
}

// InitWithConfig sets the level and tees output to logFilePath. An empty path keeps stderr only.
func InitWithConfig(logLevel, logFilePath string) error {
	Log.SetLevel(parseLevel(logLevel))
	Log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	if logFilePath == "" {
		Log.SetOutput(os.Stderr)
		return nil
	}

	logFile, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return err
	}
	Log.SetOutput(io.MultiWriter(os.Stderr, logFile))
	return nil
}

// WithComponent tags entries with the subsystem that produced them
func WithComponent(name string) *logrus.Entry {
	return Log.WithField("component", name)
}

// Discard silences the logger, used by tests
func Discard() {
	Log.SetOutput(io.Discard)
}

// parseLevel keeps the "verbose" level name used by older config files
func parseLevel(level string) logrus.Level {
	if level == "verbose" {
		return logrus.TraceLevel
	}
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return logrus.InfoLevel
	}
	return parsed
}
