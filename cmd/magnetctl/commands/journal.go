package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/magnetctl/internal/app/history"
)

type JournalCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	taskID string
	format string
}

// NewJournalCommand returns the journal command.
func NewJournalCommand(rootCmd *RootCommand, app *kingpin.Application) *JournalCommand {
	c := &JournalCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("journal", "Show the recorded task lifecycle events.")
	c.Cmd.Arg("task-id", "Only show the events of this task.").StringVar(&c.taskID)
	c.Cmd.Flag("format", "Output format (table, json).").Default(formatTable).EnumVar(&c.format, formatTable, formatJSON)

	return c
}

func (c JournalCommand) Name() string { return c.Cmd.FullCommand() }

func (c JournalCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	journal, err := c.rootCmd.newJournal(ctx)
	if err != nil {
		return fmt.Errorf("could not create journal: %w", err)
	}
	defer journal.Close()

	svc, err := history.NewService(history.ServiceConfig{
		Journal: journal,
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	events, err := svc.Run(ctx, history.Request{TaskID: c.taskID})
	if err != nil {
		return fmt.Errorf("could not list events: %w", err)
	}

	p := newPrinter(c.format, c.rootCmd.Stdout)
	if err := p.PrintEvents(events); err != nil {
		return fmt.Errorf("could not print events: %w", err)
	}

	return nil
}
