package main

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

type logConfig struct {
	WithCaller bool
	Level      string
	LogFormat  string
	LogFile    string
}

// newLogger builds the process logger. Text goes to stderr through a
// console writer, json goes to stderr as is, and a log file, when set,
// receives a plain copy rotated by lumberjack.
func newLogger(config *logConfig, stderr io.Writer) (zerolog.Logger, error) {
	level := zerolog.InfoLevel
	if config.Level != "" {
		var err error
		level, err = zerolog.ParseLevel(config.Level)
		if err != nil {
			return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", config.Level, err)
		}
	}

	var logWriter io.Writer
	switch config.LogFormat {
	case "text", "":
		logWriter = zerolog.ConsoleWriter{Out: stderr}
	case "json":
		logWriter = stderr
	default:
		return zerolog.Nop(), fmt.Errorf("invalid log format %q (want text or json)", config.LogFormat)
	}

	if config.LogFile != "" {
		logWriter = io.MultiWriter(
			logWriter,
			zerolog.ConsoleWriter{
				NoColor: true,
				Out: &lumberjack.Logger{
					Filename:   config.LogFile,
					MaxSize:    10, // megabytes
					MaxBackups: 3,
					MaxAge:     28, // days
				},
			})
	}

	ctx := zerolog.New(logWriter).Level(level).With().Timestamp()
	if config.WithCaller {
		ctx = ctx.Caller()
	}
	return ctx.Logger(), nil
}
