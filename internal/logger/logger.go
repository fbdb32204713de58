package logger

import (
	"io"
	"os"
	"time"

	"github.com/natefinch/lumberjack"
	"github.com/sirupsen/logrus"
)

// Options configures the global logger
type Options struct {
	File   string // rotating log file; empty disables file output
	Level  string
	Stdout bool
}

// Setup initializes Logrus with a rotating file and an optional stderr tee.
func Setup(opts Options) error {
	var writers []io.Writer
	if opts.File != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    10, // megabytes
			MaxBackups: 7,  // keep up to 7 old files
			MaxAge:     7,  // days
			Compress:   true,
		})
	}
	if opts.Stdout || len(writers) == 0 {
		writers = append(writers, os.Stderr)
	}

	level := logrus.InfoLevel
	if opts.Level != "" {
		parsed, err := logrus.ParseLevel(opts.Level)
		if err != nil {
			return err
		}
		level = parsed
	}

	logrus.SetOutput(io.MultiWriter(writers...))
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})
	logrus.SetLevel(level)
	return nil
}
