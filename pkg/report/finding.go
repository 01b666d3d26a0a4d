// pkg/report/finding.go

package report

// Severity classifies a single finding.
type Severity string

const (
	// SeverityOK indicates the checked item is within expected bounds
	SeverityOK Severity = "OK"

	// SeverityWarn indicates the item deviates from recommended practice
	SeverityWarn Severity = "WARN"

	// SeverityError indicates the check itself failed against this resource
	SeverityError Severity = "ERROR"

	// SeverityManual indicates the item requires human follow-up and
	// carries no automated verdict
	SeverityManual Severity = "MANUAL"
)

// Finding is one rule's verdict about one resource. Findings are produced
// by exactly one check invocation and handed straight to the sinks; they
// are never aggregated or stored between runs.
type Finding struct {
	// Severity is one of OK, WARN, ERROR, MANUAL
	Severity Severity

	// Subject names the resource the verdict is about (host, proxy,
	// cluster or server name)
	Subject string

	// Message is the observed result
	Message string

	// Recommendation is an optional remediation hint
	Recommendation string
}

// OK builds an OK finding.
func OK(subject, message string) Finding {
	return Finding{Severity: SeverityOK, Subject: subject, Message: message}
}

// Warn builds a WARN finding with an optional recommendation.
func Warn(subject, message, recommendation string) Finding {
	return Finding{Severity: SeverityWarn, Subject: subject, Message: message, Recommendation: recommendation}
}

// Error builds an ERROR finding.
func Error(subject, message string) Finding {
	return Finding{Severity: SeverityError, Subject: subject, Message: message}
}

// Manual builds a MANUAL finding.
func Manual(subject, message string) Finding {
	return Finding{Severity: SeverityManual, Subject: subject, Message: message}
}
