package ui

import (
	"fmt"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/fatih/color"

	"qexec/pkg/dberror"
)

var (
	errorLabel = color.New(color.FgRed, color.Bold)
	hintLabel  = color.New(color.FgYellow)
	infoLabel  = color.New(color.FgCyan)
)

// ReportError prints err with its category and, for engine errors, the
// hint attached to it.
func ReportError(w io.Writer, err error) {
	var dbErr *dberror.DBError
	if errors.As(err, &dbErr) {
		errorLabel.Fprintf(w, "error [%s/%s]: ", dbErr.Category, dbErr.Code)
		fmt.Fprintln(w, dbErr.Message)
		if dbErr.Hint != "" {
			hintLabel.Fprintf(w, "  hint: %s\n", dbErr.Hint)
		}
		return
	}
	errorLabel.Fprint(w, "error: ")
	fmt.Fprintln(w, err)
}

// Summary prints a one-line optimizer summary.
func Summary(w io.Writer, strategy string, cost float64, evaluated, failed int) {
	infoLabel.Fprintf(w, "%s: ", strategy)
	fmt.Fprintf(w, "cost %.1f, %d plans evaluated", cost, evaluated)
	if failed > 0 {
		hintLabel.Fprintf(w, ", %d abandoned", failed)
	}
	fmt.Fprintln(w)
}
