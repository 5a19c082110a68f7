// Package logging provides structured diagnostic logging for gcloud-logs.
//
// Diagnostics never touch stdout: stdout is reserved for fetched log
// entries. The console core writes to stderr, and an optional JSONL file
// core with rotation keeps a machine-readable trace of each run.
//
// Log Format:
// Each file entry is a single JSON object on its own line:
//
//	{"level":"info","timestamp":"2024-01-15T10:30:00.000Z","service":"gcloud-logs","msg":"fetch_started","project":"my-project"}
package logging

import (
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config holds logging configuration.
type Config struct {
	// Level is the minimum log level (debug, info, warn, error)
	Level string
	// LogDir is the directory for log files
	LogDir string
	// LogFile is the log filename (not full path)
	LogFile string
	// MaxSizeMB is the maximum size in MB before rotation
	MaxSizeMB int
	// MaxBackups is the number of backup files to keep
	MaxBackups int
	// MaxAgeDays is the maximum age in days to retain logs
	MaxAgeDays int
	// EnableConsole enables stderr output
	EnableConsole bool
	// EnableFile enables file output
	EnableFile bool
	// ConsoleFormat is the console format (json, plain)
	ConsoleFormat string
}

// DefaultConfig returns the default logging configuration. File output is
// off by default; a CLI run should not scatter log directories unless asked.
func DefaultConfig() *Config {
	return &Config{
		Level:         "warn",
		LogDir:        "logs",
		LogFile:       "gcloud-logs.jsonl",
		MaxSizeMB:     10,
		MaxBackups:    3,
		MaxAgeDays:    14,
		EnableConsole: true,
		EnableFile:    false,
		ConsoleFormat: "plain",
	}
}

var (
	// globalLogger is the package-level logger instance
	globalLogger *zap.Logger
	// globalSugar is the sugared logger for convenience
	globalSugar *zap.SugaredLogger
	// fileWriter holds the rotating file writer for cleanup
	fileWriter *lumberjack.Logger
)

// Setup initializes the global logger with the given configuration.
func Setup(cfg *Config) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	level, err := parseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	jsonEncoder := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	consoleEncoder := zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.TimeEncoderOfLayout("2006-01-02T15:04:05.000Z07:00"),
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	var cores []zapcore.Core

	if cfg.EnableFile {
		logPath := filepath.Join(cfg.LogDir, cfg.LogFile)
		if err := os.MkdirAll(cfg.LogDir, 0755); err != nil {
			return err
		}

		fileWriter = &lumberjack.Logger{
			Filename:   logPath,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
			LocalTime:  false, // Use UTC for consistency
		}

		fileCore := zapcore.NewCore(
			zapcore.NewJSONEncoder(jsonEncoder),
			zapcore.AddSync(fileWriter),
			level,
		)
		cores = append(cores, fileCore)
	}

	if cfg.EnableConsole {
		var encoder zapcore.Encoder
		if cfg.ConsoleFormat == "json" {
			encoder = zapcore.NewJSONEncoder(jsonEncoder)
		} else {
			encoder = zapcore.NewConsoleEncoder(consoleEncoder)
		}

		// stderr, never stdout: stdout carries fetched entries
		consoleCore := zapcore.NewCore(
			encoder,
			zapcore.AddSync(os.Stderr),
			level,
		)
		cores = append(cores, consoleCore)
	}

	core := zapcore.NewTee(cores...)

	hostname, _ := os.Hostname()
	globalLogger = zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)).With(
		zap.String("service", "gcloud-logs"),
		zap.String("hostname", hostname),
		zap.Int("pid", os.Getpid()),
	)
	globalSugar = globalLogger.Sugar()

	return nil
}

// parseLevel converts a string level to zapcore.Level.
func parseLevel(level string) (zapcore.Level, error) {
	var l zapcore.Level
	err := l.UnmarshalText([]byte(level))
	return l, err
}

// L returns the global logger.
func L() *zap.Logger {
	if globalLogger == nil {
		_ = Setup(DefaultConfig())
	}
	return globalLogger
}

// S returns the global sugared logger.
func S() *zap.SugaredLogger {
	if globalSugar == nil {
		_ = Setup(DefaultConfig())
	}
	return globalSugar
}

// With creates a child logger with additional fields.
func With(fields ...zap.Field) *zap.Logger {
	return L().With(fields...)
}

// Sync flushes any buffered log entries.
func Sync() error {
	if globalLogger != nil {
		return globalLogger.Sync()
	}
	return nil
}

// Close flushes and releases the rotating file writer.
func Close() error {
	_ = Sync()
	if fileWriter != nil {
		err := fileWriter.Close()
		fileWriter = nil
		return err
	}
	return nil
}

// Field constructors for common log fields

// Project returns a field for GCP project IDs.
func Project(id string) zap.Field {
	return zap.String("project", id)
}

// Instances returns a field for queried instance names.
func Instances(names []string) zap.Field {
	return zap.Strings("instances", names)
}

// Filter returns a field for filter expressions.
func Filter(expr string) zap.Field {
	return zap.String("filter", expr)
}

// Path returns a field for file paths.
func Path(path string) zap.Field {
	return zap.String("path", path)
}

// Count returns a field for counts/quantities.
func Count(n int) zap.Field {
	return zap.Int("count", n)
}

// Duration returns a field for time durations.
func Duration(d time.Duration) zap.Field {
	return zap.Duration("duration", d)
}

// ErrorCode returns a field for structured error codes.
func ErrorCode(code string) zap.Field {
	return zap.String("error_code", code)
}

// PageSize returns a field for API page sizes.
func PageSize(size int) zap.Field {
	return zap.Int("page_size", size)
}
