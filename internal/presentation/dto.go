package presentation

import (
	"github.com/zjrosen/nativepage/internal/site"
)

// BuildDTO represents a site build for presentation
type BuildDTO struct {
	ID           string   `json:"id"`
	Rendered     int      `json:"rendered"`
	Skipped      int      `json:"skipped"`
	Created      bool     `json:"created"`
	Unterminated []string `json:"unterminated"` // always present, empty when none
	DurationMS   int64    `json:"duration_ms"`
}

// StaleDTO represents a page that is out of date
type StaleDTO struct {
	Source  string `json:"source,omitempty"` // empty for the site index
	Output  string `json:"output"`
	Missing bool   `json:"missing"`
	Diff    string `json:"diff,omitempty"`
}

// FromBuildResult converts a build result to a DTO
func FromBuildResult(res site.Result) BuildDTO {
	unterminated := res.Unterminated
	if unterminated == nil {
		unterminated = []string{}
	}
	return BuildDTO{
		ID:           res.ID.String(),
		Rendered:     res.Rendered,
		Skipped:      res.Skipped,
		Created:      res.Created,
		Unterminated: unterminated,
		DurationMS:   res.Duration.Milliseconds(),
	}
}

// FromStale converts check results to DTOs
func FromStale(stale []site.Stale) []StaleDTO {
	dtos := make([]StaleDTO, len(stale))
	for i, s := range stale {
		dtos[i] = StaleDTO{
			Source:  s.Source,
			Output:  s.Output,
			Missing: s.Missing,
			Diff:    s.Diff,
		}
	}
	return dtos
}
