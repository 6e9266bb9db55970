// Package steps provides the reusable conversation steps commands are
// assembled from: calendar and list selections, free-text prompts,
// confirmation, and the terminal actions that write timesheet data.
package steps

// Base carries the configuration shared by all steps. UniqueID overrides
// the default step name when the same step type appears twice in one
// command; Back enables the "Previous step" button with the jump size.
type Base struct {
	UniqueID string
	Back     int
}

// BackSteps returns the configured back jump.
func (b Base) BackSteps() int { return b.Back }

func (b Base) name(fallback string) string {
	if b.UniqueID != "" {
		return b.UniqueID
	}
	return fallback
}
