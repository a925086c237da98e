package commands

import (
	"io"

	"github.com/slok/magnetctl/internal/printer"
)

const (
	formatTable = "table"
	formatJSON  = "json"
)

func newPrinter(format string, w io.Writer) printer.Printer {
	switch format {
	case formatJSON:
		return printer.NewJSONPrinter(w)
	default:
		return printer.NewTablePrinter(w)
	}
}
