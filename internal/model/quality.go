package model

// Severity grades a quality issue.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// QualityIssue is a single finding from the quality gate.
type QualityIssue struct {
	Severity    Severity `json:"severity"`
	Category    string   `json:"category"`
	Description string   `json:"description"`
	Suggestion  string   `json:"suggestion,omitempty"`
}

// QualitySummary counts issues by severity.
type QualitySummary struct {
	Critical int `json:"critical"`
	Warnings int `json:"warnings"`
	Info     int `json:"info"`
}

// QualityCheckResult is the combined quality verdict for a campaign.
type QualityCheckResult struct {
	CanLaunch bool           `json:"can_launch"`
	Issues    []QualityIssue `json:"issues"`
	Summary   QualitySummary `json:"summary"`
}

// Normalize forces CanLaunch to false when any critical issue is counted or
// listed. Summary counts are never lowered.
func (r QualityCheckResult) Normalize() QualityCheckResult {
	listed := 0
	for _, is := range r.Issues {
		if is.Severity == SeverityCritical {
			listed++
		}
	}
	if listed > r.Summary.Critical {
		r.Summary.Critical = listed
	}
	if r.Summary.Critical > 0 {
		r.CanLaunch = false
	}
	return r
}

// CheckStatus is the state of a pre-flight check.
type CheckStatus string

const (
	CheckPending  CheckStatus = "pending"
	CheckChecking CheckStatus = "checking"
	CheckPassed   CheckStatus = "passed"
	CheckFailed   CheckStatus = "failed"
)

// PreflightCheck is one readiness check run right before launch.
type PreflightCheck struct {
	Name    string      `json:"name"`
	Status  CheckStatus `json:"status"`
	Details string      `json:"details,omitempty"`
}
