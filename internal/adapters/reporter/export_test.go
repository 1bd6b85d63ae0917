package reporter

import (
	"io"

	"github.com/muesli/termenv"
)

// NewTextWithProfiles exports newTextWithProfiles for testing.
func NewTextWithProfiles(stdout, stderr io.Writer, outProfile, errProfile termenv.Profile) *Text {
	return newTextWithProfiles(stdout, stderr, outProfile, errProfile)
}
