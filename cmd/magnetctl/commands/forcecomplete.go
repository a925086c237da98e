package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/magnetctl/internal/app/forcecomplete"
)

type ForceCompleteCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	taskID string
	format string
}

// NewForceCompleteCommand returns the force-complete command.
func NewForceCompleteCommand(rootCmd *RootCommand, app *kingpin.Application) *ForceCompleteCommand {
	c := &ForceCompleteCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("force-complete", "Skip the download completion check of a magnet task and move it to organizing.")
	c.Cmd.Arg("task-id", "Remote task ID.").Required().StringVar(&c.taskID)
	c.Cmd.Flag("format", "Output format (table, json).").Default(formatTable).EnumVar(&c.format, formatTable, formatJSON)

	return c
}

func (c ForceCompleteCommand) Name() string { return c.Cmd.FullCommand() }

func (c ForceCompleteCommand) Run(ctx context.Context) error {
	rem, err := c.rootCmd.newRemote()
	if err != nil {
		return fmt.Errorf("could not create remote: %w", err)
	}

	journal, err := c.rootCmd.newJournal(ctx)
	if err != nil {
		return fmt.Errorf("could not create journal: %w", err)
	}
	defer journal.Close()

	svc, err := forcecomplete.NewService(forcecomplete.ServiceConfig{
		Remote:  rem,
		Journal: journal,
		Logger:  c.rootCmd.Logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	task, err := svc.Run(ctx, forcecomplete.Request{TaskID: c.taskID})
	if err != nil {
		return fmt.Errorf("could not force task completion: %w", err)
	}

	p := newPrinter(c.format, c.rootCmd.Stdout)
	if err := p.PrintTask(*task); err != nil {
		return fmt.Errorf("could not print task: %w", err)
	}

	return nil
}
