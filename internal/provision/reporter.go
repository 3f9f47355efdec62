package provision

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"tasnim.dev/hostprep/internal/theme"
)

// Reporter prints one status line per step. Lines have the form
// "SUCCESS: <description>" or "FAILURE: <description>"; on a terminal the
// status word is coloured.
type Reporter struct {
	w     io.Writer
	color bool
}

// NewReporter colours output only when w is a terminal.
func NewReporter(w io.Writer) *Reporter {
	color := false
	if f, ok := w.(*os.File); ok {
		color = term.IsTerminal(int(f.Fd()))
	}
	return &Reporter{w: w, color: color}
}

// Step prints the line for res.
func (r *Reporter) Step(res Result) {
	fmt.Fprintf(r.w, "%s: %s\n", r.label(res.Status), res.Desc)
}

func (r *Reporter) label(s Status) string {
	var text string
	switch s {
	case StatusSuccess:
		text = "SUCCESS"
	case StatusFailure:
		text = "FAILURE"
	default:
		text = "SKIPPED"
	}
	if !r.color {
		return text
	}
	switch s {
	case StatusSuccess:
		return theme.SuccessStyle.Render(text)
	case StatusFailure:
		return theme.ErrorStyle.Render(text)
	default:
		return theme.WarningStyle.Render(text)
	}
}
