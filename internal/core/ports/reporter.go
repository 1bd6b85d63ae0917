package ports

import "go.trai.ch/getver/internal/core/domain"

// Reporter renders a completed report.
// It is only called after every lookup has finished.
type Reporter interface {
	Render(report *domain.Report) error
}
