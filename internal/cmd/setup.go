package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/harrison/acrocheck/internal/api"
	"github.com/harrison/acrocheck/internal/checking"
	"github.com/harrison/acrocheck/internal/config"
	"github.com/harrison/acrocheck/internal/logger"
)

// addConnectionFlags registers the flags every server command shares.
func addConnectionFlags(cmd *cobra.Command) {
	cmd.Flags().String("config", "", "Path to config file (default: <home>/config.yaml)")
	cmd.Flags().String("server", "", "Acrolinx server URL (overrides server_url)")
	cmd.Flags().String("log-level", "", "Log level: trace, debug, info, warn, error")
	cmd.Flags().String("log-dir", "", "Also write JSON logs to this directory")
}

// loadConfig loads the config file, applies environment overrides and then
// the flags the user set, and validates the result.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	var serverPtr, targetPtr, logLevelPtr *string
	var maxAttemptsPtr *int
	var intervalPtr *time.Duration

	if cmd.Flags().Changed("server") {
		v, _ := cmd.Flags().GetString("server")
		serverPtr = &v
	}
	if cmd.Flags().Changed("target") {
		v, _ := cmd.Flags().GetString("target")
		targetPtr = &v
	}
	if cmd.Flags().Changed("log-level") {
		v, _ := cmd.Flags().GetString("log-level")
		logLevelPtr = &v
	}
	if cmd.Flags().Changed("max-attempts") {
		v, _ := cmd.Flags().GetInt("max-attempts")
		maxAttemptsPtr = &v
	}
	if cmd.Flags().Changed("interval") {
		v, _ := cmd.Flags().GetDuration("interval")
		intervalPtr = &v
	}
	cfg.MergeWithFlags(serverPtr, targetPtr, maxAttemptsPtr, intervalPtr, logLevelPtr)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// runtime holds what a command needs to talk to the server.
type runtime struct {
	cfg    *config.Config
	logger checking.Logger
	client *api.Client
	file   *logger.FileLogger
}

// newRuntime builds the loggers and the HTTP client for cfg. Console logs go
// to the command's stderr; --log-dir adds a JSON file log.
func newRuntime(cmd *cobra.Command, cfg *config.Config) (*runtime, error) {
	if err := cfg.RequireServer(); err != nil {
		return nil, err
	}

	rt := &runtime{cfg: cfg}
	console := logger.NewConsoleLogger(cmd.ErrOrStderr(), cfg.LogLevel)
	rt.logger = console

	if logDir, _ := cmd.Flags().GetString("log-dir"); logDir != "" {
		fl, err := logger.NewFileLogger(logDir, cfg.LogLevel)
		if err != nil {
			return nil, err
		}
		rt.file = fl
		rt.logger = checking.MultiLogger(console, fl)
	}

	rt.client = api.New(api.Options{
		ServerURL:   cfg.ServerURL,
		Signature:   cfg.ClientSignature,
		Token:       cfg.AccessToken,
		Timeout:     cfg.RequestTimeout,
		Credentials: api.KeyringSource{},
		Logger:      rt.logger,
	})
	return rt, nil
}

func (rt *runtime) pollOptions() checking.PollOptions {
	return checking.PollOptions{
		MaxAttempts:     rt.cfg.Poll.MaxAttempts,
		Interval:        rt.cfg.Poll.Interval,
		HonorRetryAfter: rt.cfg.Poll.HonorRetryAfter,
		CancelOnAbandon: rt.cfg.Poll.CancelOnAbandon,
	}
}

// Close flushes the file log, if any.
func (rt *runtime) Close() error {
	if rt.file == nil {
		return nil
	}
	return rt.file.Close()
}

// describeError turns workflow errors into a message for the terminal.
func describeError(err error) error {
	switch {
	case errors.Is(err, api.ErrCanceled):
		return fmt.Errorf("check canceled: %w", err)
	case errors.Is(err, api.ErrTimeout):
		return fmt.Errorf("no result before polling gave up (raise --max-attempts or --interval): %w", err)
	case errors.Is(err, api.ErrSelection):
		return fmt.Errorf("no guidance profile (pass --target or set default_target): %w", err)
	}
	return err
}
