package main

import (
	"io"
	"os"

	"github.com/alvmarrod/wiki-weaver/internal/config"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// setupLogging configures the logrus std logger from cfg. When a log file is
// set, entries also go to a size-rotated file. The returned func closes it.
func setupLogging(cfg *config.Config) func() {
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	if cfg.LogFile == "" {
		logrus.SetOutput(os.Stderr)
		return func() {}
	}

	rotated := &lumberjack.Logger{
		Filename:   cfg.LogFile,
		MaxSize:    10, // MB
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}
	logrus.SetOutput(io.MultiWriter(os.Stderr, rotated))

	return func() {
		logrus.SetOutput(os.Stderr)
		rotated.Close()
	}
}
