// Package logging configures the library's zerolog loggers and their
// integration with the pgx driver.
//
// Verbosity follows the client's three levels:
//   - 0: warnings only
//   - 1: operation metadata (timings, row counts)
//   - 2: full SQL echo through the pgx tracelog
package logging

import (
	"io"
	"os"

	"github.com/jackc/pgx/v5/tracelog"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Level maps a client verbosity to a zerolog level.
func Level(verbosity int) zerolog.Level {
	switch {
	case verbosity <= 0:
		return zerolog.WarnLevel
	case verbosity == 1:
		return zerolog.InfoLevel
	default:
		return zerolog.DebugLevel
	}
}

// New builds the console logger used by the client.
func New(verbosity int) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(Level(verbosity)).
		With().Timestamp().Logger()
}

// NewPgxLogger builds the logger handed to the pgx tracelog adapter.
// SQL statements land under the "sql" component.
func NewPgxLogger(level zerolog.Level) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Str("component", "sql").Logger()
}

// PgxTraceLogLevel maps a zerolog level to the tracelog level so the SQL
// echo only appears at verbosity 2.
func PgxTraceLogLevel(level zerolog.Level) tracelog.LogLevel {
	switch level {
	case zerolog.DebugLevel, zerolog.TraceLevel:
		return tracelog.LogLevelDebug
	case zerolog.InfoLevel:
		return tracelog.LogLevelWarn
	default:
		return tracelog.LogLevelError
	}
}

// NewWithFile builds a logger that writes to the console and to a rotated
// log file. Used by the CLI; rotation keeps unattended runs bounded.
func NewWithFile(verbosity int, path string) zerolog.Logger {
	writers := []io.Writer{zerolog.ConsoleWriter{Out: os.Stderr}}
	if path != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   path,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
		})
	}
	return zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(Level(verbosity)).
		With().Timestamp().Logger()
}
