package printer

import "github.com/slok/magnetctl/internal/model"

// Printer knows how to print task information in different formats.
type Printer interface {
	PrintTask(task model.Task) error
	PrintFiles(files []model.File) error
	PrintEvents(events []model.Event) error
	PrintMessage(msg string) error
}

var (
	_ Printer = &TablePrinter{}
	_ Printer = &JSONPrinter{}
)
