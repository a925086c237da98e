package printer

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/slok/magnetctl/internal/model"
)

// TablePrinter prints task information in a table format.
type TablePrinter struct {
	writer io.Writer
}

// NewTablePrinter creates a new table printer.
func NewTablePrinter(w io.Writer) *TablePrinter {
	return &TablePrinter{writer: w}
}

// PrintTask prints detailed task status.
func (t *TablePrinter) PrintTask(task model.Task) error {
	fmt.Fprintf(t.writer, "ID:         %s\n", task.ID)
	fmt.Fprintf(t.writer, "Status:     %s\n", task.Status)
	fmt.Fprintf(t.writer, "Progress:   %s\n", ProgressBar(task.Progress))

	if jc := task.JobContext; jc != nil {
		fmt.Fprintf(t.writer, "Title:      %s\n", jc.Title)
		fmt.Fprintf(t.writer, "Season:     %d\n", jc.Season)
		if jc.Subgroup != "" {
			fmt.Fprintf(t.writer, "Subgroup:   %s\n", jc.Subgroup)
		}
	}

	if task.FinalPath != "" {
		fmt.Fprintf(t.writer, "Final path: %s\n", task.FinalPath)
	}

	if len(task.Files) > 0 {
		fmt.Fprintf(t.writer, "Files:      %d (%s)\n", len(task.Files), FormatBytes(TotalSize(task.Files)))
	}

	if task.Error != "" {
		fmt.Fprintf(t.writer, "Error:      %s\n", task.Error)
	}

	return nil
}

// PrintFiles prints the task files in a table format, the index is the one used to select them.
func (t *TablePrinter) PrintFiles(files []model.File) error {
	if len(files) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "#\tPATH\tSIZE\tSELECTED\tNEW NAME")
	for i, f := range files {
		path := f.Path
		if path == "" {
			path = f.Name
		}
		if f.IsDir {
			path += "/"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", i, path, FormatBytes(f.Size), yesNo(f.Selected), f.NewName)
	}

	return nil
}

// PrintEvents prints journal events in a table format.
func (t *TablePrinter) PrintEvents(events []model.Event) error {
	if len(events) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "TASK\tSEQ\tKIND\tSTATUS\tPROGRESS\tMESSAGE\tCREATED")
	for _, e := range events {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%d%%\t%s\t%s\n", e.TaskID, e.Sequence, e.Kind, e.Status, e.Progress, e.Message, TimeAgo(e.CreatedAt))
	}

	return nil
}

// PrintMessage prints a simple message.
func (t *TablePrinter) PrintMessage(msg string) error {
	_, err := fmt.Fprintln(t.writer, msg)
	return err
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
