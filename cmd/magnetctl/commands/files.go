package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/magnetctl/internal/app/files"
)

type FilesCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	taskID string
	format string
}

// NewFilesCommand returns the files command.
func NewFilesCommand(rootCmd *RootCommand, app *kingpin.Application) *FilesCommand {
	c := &FilesCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("files", "List the temporary download files of a magnet task.")
	c.Cmd.Arg("task-id", "Remote task ID.").Required().StringVar(&c.taskID)
	c.Cmd.Flag("format", "Output format (table, json).").Default(formatTable).EnumVar(&c.format, formatTable, formatJSON)

	return c
}

func (c FilesCommand) Name() string { return c.Cmd.FullCommand() }

func (c FilesCommand) Run(ctx context.Context) error {
	rem, err := c.rootCmd.newRemote()
	if err != nil {
		return fmt.Errorf("could not create remote: %w", err)
	}

	svc, err := files.NewService(files.ServiceConfig{
		Remote: rem,
		Logger: c.rootCmd.Logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	fs, err := svc.Run(ctx, files.Request{TaskID: c.taskID})
	if err != nil {
		return fmt.Errorf("could not get task files: %w", err)
	}

	p := newPrinter(c.format, c.rootCmd.Stdout)
	if err := p.PrintFiles(fs); err != nil {
		return fmt.Errorf("could not print files: %w", err)
	}

	return nil
}
