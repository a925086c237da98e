package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/magnetctl/internal/app/cancel"
	"github.com/slok/magnetctl/internal/printer"
)

type CancelCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	taskID string
}

// NewCancelCommand returns the cancel command.
func NewCancelCommand(rootCmd *RootCommand, app *kingpin.Application) *CancelCommand {
	c := &CancelCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("cancel", "Cancel a remote magnet task.")
	c.Cmd.Arg("task-id", "Remote task ID.").Required().StringVar(&c.taskID)

	return c
}

func (c CancelCommand) Name() string { return c.Cmd.FullCommand() }

func (c CancelCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	rem, err := c.rootCmd.newRemote()
	if err != nil {
		return fmt.Errorf("could not create remote: %w", err)
	}

	journal, err := c.rootCmd.newJournal(ctx)
	if err != nil {
		return fmt.Errorf("could not create journal: %w", err)
	}
	defer journal.Close()

	svc, err := cancel.NewService(cancel.ServiceConfig{
		Remote:  rem,
		Journal: journal,
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	if err := svc.Run(ctx, cancel.Request{TaskID: c.taskID}); err != nil {
		return fmt.Errorf("could not cancel task: %w", err)
	}

	p := printer.NewTablePrinter(c.rootCmd.Stdout)
	if err := p.PrintMessage(fmt.Sprintf("Cancelled task: %s", c.taskID)); err != nil {
		return fmt.Errorf("could not print message: %w", err)
	}

	return nil
}
