package validate

import "time"

// Mode selects which checker phases run. Each mode builds on the structural
// phase; full runs everything.
type Mode string

const (
	ModeStructural Mode = "structural"
	ModeRules      Mode = "rules"
	ModeNetwork    Mode = "network"
	ModeFull       Mode = "full"
)

// Report is the result of one validation call. It is assembled once and
// never mutated afterwards. Issues appear in phase order (structural, rules,
// network); within the network phase, order across capabilities is best
// effort only.
type Report struct {
	OK             bool      `json:"ok"`
	ProfileURL     string    `json:"profile_url,omitempty"`
	UCPVersion     string    `json:"ucp_version,omitempty"`
	Issues         []Issue   `json:"issues"`
	ValidatedAt    time.Time `json:"validated_at"`
	ValidationMode Mode      `json:"validation_mode"`
}

// Counts returns the number of issues per severity.
func (r *Report) Counts() (errors, warns, infos int) {
	for _, is := range r.Issues {
		switch is.Severity {
		case SeverityError:
			errors++
		case SeverityWarn:
			warns++
		case SeverityInfo:
			infos++
		}
	}
	return
}
