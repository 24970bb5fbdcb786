package checking

import "time"

// Logger receives progress of the check workflow. logger.ConsoleLogger and
// logger.FileLogger satisfy it.
type Logger interface {
	LogDebug(message string)
	LogInfo(message string)
	LogWarn(message string)
	LogPollAttempt(attempt, maxAttempts int)
	LogCheckComplete(score, issues int, duration time.Duration)
}

type nopLogger struct{}

func (nopLogger) LogDebug(string) {}
func (nopLogger) LogInfo(string) {}
func (nopLogger) LogWarn(string) {}
func (nopLogger) LogPollAttempt(int, int) {}
func (nopLogger) LogCheckComplete(int, int, time.Duration) {}

// multiLogger fans every call out to several loggers.
type multiLogger []Logger

// MultiLogger returns a Logger writing to each non-nil logger.
func MultiLogger(loggers ...Logger) Logger {
	var m multiLogger
	for _, l := range loggers {
		if l != nil {
			m = append(m, l)
		}
	}
	return m
}

func (m multiLogger) LogDebug(msg string) {
	for _, l := range m {
		l.LogDebug(msg)
	}
}

func (m multiLogger) LogInfo(msg string) {
	for _, l := range m {
		l.LogInfo(msg)
	}
}

func (m multiLogger) LogWarn(msg string) {
	for _, l := range m {
		l.LogWarn(msg)
	}
}

func (m multiLogger) LogPollAttempt(attempt, maxAttempts int) {
	for _, l := range m {
		l.LogPollAttempt(attempt, maxAttempts)
	}
}

func (m multiLogger) LogCheckComplete(score, issues int, d time.Duration) {
	for _, l := range m {
		l.LogCheckComplete(score, issues, d)
	}
}
