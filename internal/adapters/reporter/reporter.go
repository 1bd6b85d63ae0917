// Package reporter renders a completed lookup report for humans or scripts.
package reporter

import (
	"io"
	"os"

	"go.trai.ch/getver/internal/core/domain"
	"go.trai.ch/getver/internal/core/ports"
	"go.trai.ch/zerr"
)

// New returns the reporter for format.
// Nil writers default to the process's stdout and stderr.
func New(format domain.OutputFormat, stdout, stderr io.Writer) (ports.Reporter, error) {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}

	switch format {
	case domain.OutputText, "":
		return NewText(stdout, stderr), nil
	case domain.OutputJSON:
		return NewJSON(stdout), nil
	default:
		return nil, zerr.With(zerr.With(domain.ErrInvalidConfig, "field", "output"), "value", string(format))
	}
}
