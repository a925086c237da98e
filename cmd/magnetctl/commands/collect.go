package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/magnetctl/internal/collect"
	"github.com/slok/magnetctl/internal/model"
	"github.com/slok/magnetctl/internal/printer"
	"github.com/slok/magnetctl/internal/prompt"
	"github.com/slok/magnetctl/internal/storage/io"
)

type CollectCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	magnet       string
	contextFile  string
	title        string
	season       int
	downloadPath string
	organize     organizeOptions
}

// NewCollectCommand returns the collect command.
func NewCollectCommand(rootCmd *RootCommand, app *kingpin.Application) *CollectCommand {
	c := &CollectCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("collect", "Create a magnet task, follow it and organize its files once completed.")
	c.Cmd.Flag("magnet", "Magnet URI to collect.").Short('m').Required().StringVar(&c.magnet)
	c.Cmd.Flag("context-file", "Path to a YAML job context file.").Short('f').StringVar(&c.contextFile)
	c.Cmd.Flag("title", "Title of the content, overrides the context file.").StringVar(&c.title)
	c.Cmd.Flag("season", "Season of the content, overrides the context file.").IntVar(&c.season)
	c.Cmd.Flag("download-path", "Destination directory, overrides the context file.").StringVar(&c.downloadPath)
	c.Cmd.Flag("select", "Regex of the file paths to keep (repeatable, all files by default).").StringsVar(&c.organize.selects)
	c.Cmd.Flag("exclude", "Regex of the file paths to drop (repeatable).").StringsVar(&c.organize.excludes)
	c.Cmd.Flag("keep-dir-structure", "Keep the task directory structure when organizing.").BoolVar(&c.organize.keepDirStructure)
	c.Cmd.Flag("rename-dir", "Rename a task directory when organizing (old=new, repeatable).").StringMapVar(&c.organize.renames)

	return c
}

func (c CollectCommand) Name() string { return c.Cmd.FullCommand() }

func (c CollectCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	jc, err := c.jobContext(ctx)
	if err != nil {
		return err
	}

	// Bad selections are rejected before the task is created.
	if _, err := compileRegexes(c.organize.selects); err != nil {
		return fmt.Errorf("invalid select: %w", err)
	}
	if _, err := compileRegexes(c.organize.excludes); err != nil {
		return fmt.Errorf("invalid exclude: %w", err)
	}

	rem, err := c.rootCmd.newRemote()
	if err != nil {
		return fmt.Errorf("could not create remote: %w", err)
	}

	journal, err := c.rootCmd.newJournal(ctx)
	if err != nil {
		return fmt.Errorf("could not create journal: %w", err)
	}
	defer journal.Close()

	out := printer.NewTablePrinter(c.rootCmd.Stdout)
	notifier := printerNotifier{p: out}

	ctrl, err := collect.NewController(collect.ControllerConfig{
		Remote:   rem,
		Journal:  journal,
		Notifier: notifier,
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("could not create controller: %w", err)
	}
	defer ctrl.Close()

	session, err := collect.NewSession(collect.SessionConfig{
		Controller: ctrl,
		Guard:      collect.NewNavigationGuard(c.rootCmd.Interrupts),
		Notifier:   notifier,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("could not create session: %w", err)
	}

	confirmer, err := prompt.NewTerminalConfirmer(prompt.TerminalConfirmerConfig{
		In:     c.rootCmd.Stdin,
		Out:    c.rootCmd.Stdout,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("could not create confirmer: %w", err)
	}

	exit, err := collect.NewExitConfirmation(collect.ExitConfirmationConfig{
		Target:    session,
		Confirmer: confirmer,
		Notifier:  notifier,
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("could not create exit confirmation: %w", err)
	}

	changes := changeSignal(ctrl)

	if err := session.Show(); err != nil {
		return fmt.Errorf("could not open session: %w", err)
	}
	if err := session.SetForm(collect.Form{Magnet: c.magnet, JobContext: jc}); err != nil {
		return fmt.Errorf("could not set task form: %w", err)
	}
	if err := session.CreateTask(ctx); err != nil {
		return fmt.Errorf("could not create task: %w", err)
	}

	f := &follower{
		session:    session,
		exit:       exit,
		interrupts: c.rootCmd.Interrupts.Interrupts(),
		changes:    changes,
		out:        out,
		organize:   c.organize,
		logger:     logger,
	}

	return f.run(ctx)
}

// jobContext loads the job context file, if any, and applies the flag overrides.
func (c CollectCommand) jobContext(ctx context.Context) (model.JobContext, error) {
	var jc model.JobContext
	if c.contextFile != "" {
		path := c.contextFile
		if !filepath.IsAbs(path) {
			absPath, err := filepath.Abs(path)
			if err != nil {
				return jc, fmt.Errorf("could not resolve context file path: %w", err)
			}
			path = absPath
		}

		repo := io.NewJobContextYAMLRepository(os.DirFS("/"))
		loaded, err := repo.GetJobContext(ctx, path[1:])
		if err != nil {
			return jc, fmt.Errorf("could not load job context: %w", err)
		}
		jc = loaded
	}

	if c.title != "" {
		jc.Title = c.title
	}
	if c.season != 0 {
		jc.Season = c.season
	}
	if c.downloadPath != "" {
		jc.DownloadPath = c.downloadPath
	}

	return jc, nil
}

// printerNotifier shows the session notices on the command output.
type printerNotifier struct {
	p printer.Printer
}

func (n printerNotifier) Success(msg string) { _ = n.p.PrintMessage(msg) }
func (n printerNotifier) Warning(msg string) { _ = n.p.PrintMessage("Warning: " + msg) }
func (n printerNotifier) Error(msg string)   { _ = n.p.PrintMessage("Error: " + msg) }
