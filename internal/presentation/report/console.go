// Package report renders the workflow event stream for terminal users.
package report

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"

	"github.com/aretw0/sapling/pkg/domain"
)

// ConsoleReporter writes one line per event, colorized when the terminal
// supports it. It implements ports.Reporter.
type ConsoleReporter struct {
	out     io.Writer
	profile termenv.Profile
}

// NewConsoleReporter creates a reporter writing to out. The color profile
// follows the writer, so a plain buffer or a piped stdout gets no escapes.
func NewConsoleReporter(out io.Writer) *ConsoleReporter {
	return &ConsoleReporter{
		out:     out,
		profile: termenv.NewOutput(out).ColorProfile(),
	}
}

func (r *ConsoleReporter) Report(event domain.Event) {
	switch event.Kind {
	case domain.EventCreate:
		fmt.Fprintf(r.out, "%s %s (%d bytes)\n", r.label("CREATE", "#34d399"), event.Path, event.ContentLen)
	case domain.EventUpdate:
		fmt.Fprintf(r.out, "%s %s (%d bytes)\n", r.label("UPDATE", "#fbbf24"), event.Path, event.ContentLen)
	case domain.EventDelete:
		fmt.Fprintf(r.out, "%s %s\n", r.label("DELETE", "#f87171"), event.Path)
	case domain.EventRename:
		fmt.Fprintf(r.out, "%s %s -> %s\n", r.label("RENAME", "#818cf8"), event.Path, event.ToPath)
	case domain.EventError:
		fmt.Fprintf(r.out, "%s %s: %v\n", r.label("ERROR", "#ef4444"), event.Path, event.Err)
	}
}

func (r *ConsoleReporter) ReportTask(notice domain.TaskNotice) {
	if notice.DepCount > 0 {
		fmt.Fprintf(r.out, "%s %s (%d deps)\n", r.label("TASK", "#c084fc"), notice.Executor, notice.DepCount)
		return
	}
	fmt.Fprintf(r.out, "%s %s\n", r.label("TASK", "#c084fc"), notice.Executor)
}

func (r *ConsoleReporter) label(text, color string) string {
	return termenv.String(text).Foreground(r.profile.Color(color)).Bold().String()
}
