// Package cmd wires the recorder front ends into a cobra command tree.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/soocke/productivity-recorder/config"
	"github.com/soocke/productivity-recorder/debug"
	"github.com/soocke/productivity-recorder/domain/session"
)

// LoggerFactory builds the process logger once the level is known.
type LoggerFactory func(level slog.Leveler) *slog.Logger

// env is the state shared by all subcommands, populated in PersistentPreRunE.
type env struct {
	newLogger LoggerFactory
	cfgPath   string
	envFiles  []string
	logLevel  string
	debug     bool

	cfg    *config.Config
	logger *slog.Logger

	// ctrlOpts are passed to every controller; tests inject fake devices.
	ctrlOpts []session.Option
}

// Execute runs the root command until it finishes or the process is
// interrupted.
func Execute(newLogger LoggerFactory) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCmd(newLogger).ExecuteContext(ctx)
}

// NewRootCmd returns the command tree. Without a subcommand it opens the GUI.
func NewRootCmd(newLogger LoggerFactory) *cobra.Command {
	return newRootCmd(&env{newLogger: newLogger})
}

func newRootCmd(e *env) *cobra.Command {
	if e.newLogger == nil {
		e.newLogger = func(level slog.Leveler) *slog.Logger {
			return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		}
	}
	root := &cobra.Command{
		Use:          "recorder",
		Short:        "Record the screen and webcam for a timed work session",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return e.load(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGUI(cmd.Context(), e)
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&e.cfgPath, "config", "config.json", "path to the JSON config file")
	pf.StringSliceVar(&e.envFiles, "env-file", nil, "dotenv files applied before RECORDER_* overrides (default .env)")
	pf.StringVar(&e.logLevel, "log-level", "", "log level: debug, info, warn or error")
	pf.BoolVar(&e.debug, "debug", false, "log runtime diagnostics")

	root.AddCommand(
		newGUICmd(e),
		newRecordCmd(e),
		newTUICmd(e),
		newServeCmd(e),
		newSessionsCmd(e),
	)
	return root
}

// load resolves configuration and logging for the running command.
func (e *env) load(cmd *cobra.Command) error {
	cfg, err := config.Resolve(e.cfgPath, e.envFiles...)
	var perr *config.ParseError
	switch {
	case errors.As(err, &perr):
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v; using defaults\n", err)
	case err != nil:
		return fmt.Errorf("loading config: %w", err)
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = e.logLevel
	}
	if e.debug {
		cfg.Debug = true
	}
	_ = cfg.Validate()
	level, _ := cfg.Level()
	e.cfg = cfg
	e.logger = e.newLogger(level)
	if cfg.Debug {
		debug.StartGoroutineLogger(cmd.Context(), 5*time.Second, e.logger)
		debug.StartMemLogger(cmd.Context(), 5*time.Second, e.logger)
	}
	return nil
}

func (e *env) newController() *session.Controller {
	return session.NewController(e.cfg, e.logger, e.ctrlOpts...)
}

// watchConfig applies edits of the config file to the next session.
func (e *env) watchConfig(ctx context.Context, ctrl *session.Controller) {
	if e.cfgPath == "" {
		return
	}
	go func() {
		if err := config.Watch(ctx, e.cfgPath, e.logger, ctrl.UpdateConfig); err != nil {
			e.logger.Warn("config watch disabled", "path", e.cfgPath, "error", err)
		}
	}()
}

// closeController stops any running session and waits for it to finalize.
func closeController(ctrl *session.Controller, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := ctrl.Close(ctx); err != nil {
		logger.Error("shutdown", "error", err)
	}
}
