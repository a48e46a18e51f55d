package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"

	"github.com/lox/schocken/internal/rules"
)

func newLogger(level string) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
	})
	switch level {
	case "debug":
		logger.SetLevel(log.DebugLevel)
	case "warn":
		logger.SetLevel(log.WarnLevel)
	case "error":
		logger.SetLevel(log.ErrorLevel)
	default:
		logger.SetLevel(log.InfoLevel)
	}
	return logger
}

// signalContext is cancelled on interrupt or terminate.
func signalContext(logger *log.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("Received signal, shutting down gracefully", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()

	return ctx, cancel
}

// reloadOnHangup rereads the rulesets document on SIGHUP until ctx is done.
func reloadOnHangup(ctx context.Context, repo *rules.Repository, logger *log.Logger) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGHUP)
	defer signal.Stop(sigChan)

	for {
		select {
		case <-sigChan:
			if err := repo.Reload(); err != nil {
				logger.Error("Failed to reload rulesets", "error", err)
				continue
			}
			logger.Info("Rulesets reloaded", "count", len(repo.List()))
		case <-ctx.Done():
			return nil
		}
	}
}

func openRules(logger *log.Logger, file string) (*rules.Repository, error) {
	var opts []rules.Option
	if file != "" {
		opts = append(opts, rules.WithFile(file))
	}
	return rules.NewRepository(logger, opts...)
}

func setColor(noColor bool) {
	if noColor {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}
