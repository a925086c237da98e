package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"github.com/oklog/run"
	"github.com/sirupsen/logrus"

	"github.com/slok/magnetctl/cmd/magnetctl/commands"
	"github.com/slok/magnetctl/internal/log"
	loglogrus "github.com/slok/magnetctl/internal/log/logrus"
)

const (
	// Version is the application version (set via ldflags).
	Version = "dev"
)

// Run runs the main application.
func Run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) (err error) {
	app := kingpin.New("magnetctl", "Magnet task collection client.")
	app.DefaultEnvars()
	rootCmd := commands.NewRootCommand(app)

	// Setup commands (registers flags).
	collectCmd := commands.NewCollectCommand(rootCmd, app)
	statusCmd := commands.NewStatusCommand(rootCmd, app)
	cancelCmd := commands.NewCancelCommand(rootCmd, app)
	journalCmd := commands.NewJournalCommand(rootCmd, app)
	filesCmd := commands.NewFilesCommand(rootCmd, app)
	forceCompleteCmd := commands.NewForceCompleteCommand(rootCmd, app)

	cmds := map[string]commands.Command{
		collectCmd.Name():       collectCmd,
		statusCmd.Name():        statusCmd,
		cancelCmd.Name():        cancelCmd,
		journalCmd.Name():       journalCmd,
		filesCmd.Name():         filesCmd,
		forceCompleteCmd.Name(): forceCompleteCmd,
	}

	// Parse command.
	cmdName, err := app.Parse(args[1:])
	if err != nil {
		return fmt.Errorf("invalid command configuration: %w", err)
	}

	// Set standard input/output.
	rootCmd.Stdin = stdin
	rootCmd.Stdout = stdout
	rootCmd.Stderr = stderr

	// Commands with structured output don't log unless debugging.
	printerCommands := map[string]bool{
		"status":         true,
		"journal":        true,
		"files":          true,
		"force-complete": true,
	}
	if printerCommands[cmdName] && !rootCmd.Debug {
		rootCmd.NoLog = true
	}

	// Set logger.
	rootCmd.Logger = getLogger(ctx, *rootCmd)

	var g run.Group

	// Termination signal.
	{
		signalCtx, signalCancel := signal.NotifyContext(context.Background(), syscall.SIGTERM)
		defer signalCancel()

		g.Add(
			func() error {
				<-signalCtx.Done()
				rootCmd.Logger.Debugf("Termination signal received")
				return nil
			},
			func(_ error) {
				signalCancel()
			},
		)
	}

	// Interrupt signal, intercepted while a task can't be abandoned.
	{
		sigC := make(chan os.Signal, 1)
		signal.Notify(sigC, os.Interrupt)
		defer signal.Stop(sigC)
		stopC := make(chan struct{})

		g.Add(
			func() error {
				for {
					select {
					case <-stopC:
						return nil
					case <-sigC:
						if rootCmd.Interrupts.Intercept() {
							rootCmd.Logger.Debugf("Interrupt intercepted, task in progress")
							continue
						}
						rootCmd.Logger.Debugf("Interrupt signal received")
						return nil
					}
				}
			},
			func(_ error) {
				close(stopC)
			},
		)
	}

	// Execute command.
	{
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		g.Add(
			func() error {
				err := cmds[cmdName].Run(ctx)
				if err != nil {
					return fmt.Errorf("%q command failed: %w", cmdName, err)
				}
				return nil
			},
			func(_ error) {
				cancel()
			},
		)
	}

	return g.Run()
}

// getLogger returns the application logger.
func getLogger(ctx context.Context, config commands.RootCommand) log.Logger {
	if config.NoLog {
		return log.Noop
	}

	logrusLog := logrus.New()
	logrusLog.Out = config.Stderr // Logs go to stderr so they don't mix with stdout prints.
	logrusLogEntry := logrus.NewEntry(logrusLog)

	if config.Debug {
		logrusLogEntry.Logger.SetLevel(logrus.DebugLevel)
	}

	switch config.LoggerType {
	case commands.LoggerTypeDefault:
		logrusLogEntry.Logger.SetFormatter(&logrus.TextFormatter{
			ForceColors:   !config.NoColor,
			DisableColors: config.NoColor,
		})
	case commands.LoggerTypeJSON:
		logrusLogEntry.Logger.SetFormatter(&logrus.JSONFormatter{})
	}

	logger := loglogrus.NewLogrus(logrusLogEntry).WithValues(log.Kv{
		"version": Version,
	})

	logger.Debugf("Debug level is enabled")

	return logger
}

func main() {
	ctx := context.Background()
	err := Run(ctx, os.Args, os.Stdin, os.Stdout, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
