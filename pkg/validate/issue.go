package validate

// Severity ranks a validation finding. Only error-severity issues block a
// profile; warn and info are advisory.
type Severity string

const (
	SeverityError Severity = "error"
	SeverityWarn  Severity = "warn"
	SeverityInfo  Severity = "info"
)

// Issue is a single validation finding. Issues are plain values: checkers
// return them, they are never raised. A single validation run surfaces every
// defect it can see, not just the first.
type Issue struct {
	Severity Severity `json:"severity"`
	Code     string   `json:"code"`
	Path     string   `json:"path,omitempty"`
	Message  string   `json:"message"`
	Hint     string   `json:"hint,omitempty"`
}

func errorIssue(code, path, message string) Issue {
	return Issue{Severity: SeverityError, Code: code, Path: path, Message: message}
}

func warnIssue(code, path, message string) Issue {
	return Issue{Severity: SeverityWarn, Code: code, Path: path, Message: message}
}

func infoIssue(code, path, message string) Issue {
	return Issue{Severity: SeverityInfo, Code: code, Path: path, Message: message}
}

// HasErrors reports whether any issue carries error severity.
func HasErrors(issues []Issue) bool {
	for _, is := range issues {
		if is.Severity == SeverityError {
			return true
		}
	}
	return false
}
