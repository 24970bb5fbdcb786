package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// FileLogger writes JSON log lines to a timestamped per-run file in logDir
// and keeps a latest.log symlink pointing at it.
type FileLogger struct {
	logDir  string
	runFile string
	file    *os.File
	zl      *zap.Logger
}

// NewFileLogger creates a FileLogger in logDir at the given level.
func NewFileLogger(logDir string, logLevel string) (*FileLogger, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	// run-YYYYMMDD-HHMMSS.log
	runFile := filepath.Join(logDir, fmt.Sprintf("run-%s.log", time.Now().Format("20060102-150405")))
	file, err := os.OpenFile(runFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create run log file: %w", err)
	}

	symlinkPath := filepath.Join(logDir, "latest.log")
	if _, err := os.Lstat(symlinkPath); err == nil {
		if err := os.Remove(symlinkPath); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to remove old symlink: %w", err)
		}
	}
	if err := os.Symlink(filepath.Base(runFile), symlinkPath); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to create symlink: %w", err)
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.AddSync(file),
		zapLevel(normalizeLogLevel(logLevel)),
	)

	return &FileLogger{
		logDir:  logDir,
		runFile: runFile,
		file:    file,
		zl:      zap.New(core).Named("acrocheck"),
	}, nil
}

// zapLevel maps our level names onto zap's; trace has no zap equivalent
// and is logged as debug.
func zapLevel(level string) zapcore.Level {
	switch level {
	case "trace", "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// RunFile returns the path of the current run's log file.
func (fl *FileLogger) RunFile() string {
	return fl.runFile
}

// LogTrace logs a trace-level message.
func (fl *FileLogger) LogTrace(message string) {
	fl.zl.Debug(message, zap.String("level_name", "trace"))
}

// LogDebug logs a debug-level message.
func (fl *FileLogger) LogDebug(message string) {
	fl.zl.Debug(message)
}

// LogInfo logs an info-level message.
func (fl *FileLogger) LogInfo(message string) {
	fl.zl.Info(message)
}

// LogWarn logs a warning-level message.
func (fl *FileLogger) LogWarn(message string) {
	fl.zl.Warn(message)
}

// LogError logs an error-level message.
func (fl *FileLogger) LogError(message string) {
	fl.zl.Error(message)
}

// LogPollAttempt records one poll of the result URL.
func (fl *FileLogger) LogPollAttempt(attempt, maxAttempts int) {
	fl.zl.Debug("poll attempt", zap.Int("attempt", attempt), zap.Int("max_attempts", maxAttempts))
}

// LogCheckComplete records the outcome of a finished check.
func (fl *FileLogger) LogCheckComplete(score, issues int, duration time.Duration) {
	fl.zl.Info("check complete", zap.Int("score", score), zap.Int("issues", issues), zap.Duration("duration", duration))
}

// Close flushes and closes the log file.
func (fl *FileLogger) Close() error {
	_ = fl.zl.Sync()
	return fl.file.Close()
}
