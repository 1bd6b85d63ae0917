package reporter

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"go.trai.ch/getver/internal/core/domain"
	"go.trai.ch/getver/internal/core/ports"
	"go.trai.ch/getver/internal/ui/output"
	"go.trai.ch/getver/internal/ui/style"
)

// Text implements ports.Reporter with line-oriented terminal output.
// Found packages go to stdout, everything else to stderr.
type Text struct {
	stdout io.Writer
	stderr io.Writer
	out    *termenv.Output
	errOut *termenv.Output
}

// NewText creates a Text reporter. Colors follow each writer's terminal and NO_COLOR.
func NewText(stdout, stderr io.Writer) *Text {
	return newTextWithProfiles(stdout, stderr, output.ColorProfile(stdout), output.ColorProfile(stderr))
}

func newTextWithProfiles(stdout, stderr io.Writer, outProfile, errProfile termenv.Profile) *Text {
	return &Text{
		stdout: stdout,
		stderr: stderr,
		out:    output.NewWithProfile(stdout, outProfile),
		errOut: output.NewWithProfile(stderr, errProfile),
	}
}

// Render prints, in order: found lines, the not-found summary, then one line per failure.
func (t *Text) Render(report *domain.Report) error {
	for _, o := range report.Found() {
		name := t.out.String(o.Name.String()).Foreground(t.color(t.out, style.Blue)).String()
		version := t.out.String(o.Version).Foreground(t.color(t.out, style.Yellow)).String()
		if _, err := fmt.Fprintf(t.stdout, "%s: %s\n", name, version); err != nil {
			return err
		}
	}

	if missing := report.NotFound(); len(missing) > 0 {
		names := make([]string, 0, len(missing))
		for _, n := range missing {
			names = append(names, t.errOut.String(n.String()).Foreground(t.color(t.errOut, style.Blue)).String())
		}
		label := t.errOut.String("not found").Foreground(t.color(t.errOut, style.Red)).String()
		if _, err := fmt.Fprintf(t.stderr, "%s: %s\n", label, strings.Join(names, ", ")); err != nil {
			return err
		}
	}

	for _, o := range report.Failed() {
		label := t.errOut.String("error").Foreground(t.color(t.errOut, style.Red)).String()
		name := t.errOut.String(o.Name.String()).Foreground(t.color(t.errOut, style.Blue)).String()
		if _, err := fmt.Fprintf(t.stderr, "%s: %s: %s\n", label, name, causeText(o.Cause)); err != nil {
			return err
		}
	}

	return nil
}

func (t *Text) color(out *termenv.Output, c lipgloss.Color) termenv.Color {
	return out.Color(string(c))
}

func causeText(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}

var _ ports.Reporter = (*Text)(nil)
