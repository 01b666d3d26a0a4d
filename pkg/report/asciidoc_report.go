// pkg/report/asciidoc_report.go

package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// AsciiDocReport collects findings for one run and renders them as an
// AsciiDoc document. It is an optional second sink next to the console
// logger; findings are appended in emission order.
type AsciiDocReport struct {
	// OutputPath is where the report will be saved
	OutputPath string

	// Subject identifies what was audited (cluster name, fleet name)
	Subject string

	// Title is the title of the report
	Title string

	// Findings in emission order
	Findings []Finding

	started time.Time
}

// NewAsciiDocReport creates a new AsciiDoc report.
func NewAsciiDocReport(outputPath string) *AsciiDocReport {
	return &AsciiDocReport{
		OutputPath: outputPath,
		Findings:   []Finding{},
		started:    time.Now(),
	}
}

// Initialize sets up the report with subject and title.
func (r *AsciiDocReport) Initialize(subject, title string) {
	r.Subject = subject
	r.Title = title
}

// Emit appends a finding to the report.
func (r *AsciiDocReport) Emit(f Finding) {
	r.Findings = append(r.Findings, f)
}

// Counts returns the number of findings per severity.
func (r *AsciiDocReport) Counts() map[Severity]int {
	counts := make(map[Severity]int)
	for _, f := range r.Findings {
		counts[f.Severity]++
	}
	return counts
}

// Generate renders the report and writes it to the output path.
func (r *AsciiDocReport) Generate() (string, error) {
	outputDir := filepath.Dir(r.OutputPath)
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	content := r.generateReportContent()

	if err := os.WriteFile(r.OutputPath, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}

	return r.OutputPath, nil
}

// generateReportContent creates the full report content.
func (r *AsciiDocReport) generateReportContent() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("= %s\n\n", r.Title))
	sb.WriteString(fmt.Sprintf("Subject: %s\n\n", r.Subject))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.started.Format("2006-01-02 15:04:05")))
	sb.WriteString("ifdef::env-github[]\n:tip-caption: :bulb:\n:warning-caption: :warning:\nendif::[]\n\n")

	sb.WriteString(r.generateKeySection())
	sb.WriteString(r.generateSummarySection())
	sb.WriteString(r.generateFindingsSection())

	// Reset bgcolor for future tables
	sb.WriteString("[grid=none,frame=none]\n|===\n|{set:cellbgcolor!}\n|===\n\n")

	return sb.String()
}

// generateKeySection creates the color-coded key section.
func (r *AsciiDocReport) generateKeySection() string {
	var sb strings.Builder

	sb.WriteString("== Key\n\n")
	sb.WriteString("[cols=\"1,3\", options=header]\n|===\n|Value\n|Description\n\n")

	sb.WriteString("|\n{set:cellbgcolor:#00FF00}\nOK\n|\n{set:cellbgcolor!}\n")
	sb.WriteString("Within expected bounds. No change required.\n\n")

	sb.WriteString("|\n{set:cellbgcolor:#FEFE20}\nWARN\n|\n{set:cellbgcolor!}\n")
	sb.WriteString("Deviates from recommended practice. Changes recommended.\n\n")

	sb.WriteString("|\n{set:cellbgcolor:#FF0000}\nERROR\n|\n{set:cellbgcolor!}\n")
	sb.WriteString("The check could not be completed against this resource.\n\n")

	sb.WriteString("|\n{set:cellbgcolor:#80E5FF}\nMANUAL\n|\n{set:cellbgcolor!}\n")
	sb.WriteString("Requires human follow-up. No automated verdict.\n|===\n\n")

	return sb.String()
}

// generateSummarySection renders the per-severity totals.
func (r *AsciiDocReport) generateSummarySection() string {
	var sb strings.Builder
	counts := r.Counts()

	sb.WriteString("== Summary\n\n")
	sb.WriteString("[cols=\"1,1\", options=header]\n|===\n|Severity\n|Findings\n\n")
	for _, sev := range []Severity{SeverityOK, SeverityWarn, SeverityError, SeverityManual} {
		sb.WriteString(fmt.Sprintf("|%s\n|%d\n\n", sev, counts[sev]))
	}
	sb.WriteString("|===\n\n")

	return sb.String()
}

// generateFindingsSection renders the findings table in emission order.
func (r *AsciiDocReport) generateFindingsSection() string {
	var sb strings.Builder

	sb.WriteString("== Findings\n\n")
	sb.WriteString("[cols=\"1,2,3,3\", options=header]\n|===\n|*Severity*\n|*Subject*\n|*Observed Result*\n|*Recommendation*\n\n")

	for _, f := range r.Findings {
		sb.WriteString(severityCell(f.Severity) + "\n\n")
		sb.WriteString("|\n{set:cellbgcolor!}\n" + f.Subject + "\n\n")
		sb.WriteString("| " + f.Message + " \n\n")
		if f.Recommendation != "" {
			sb.WriteString("| " + f.Recommendation + " \n\n")
		} else {
			sb.WriteString("| None \n\n")
		}
	}

	sb.WriteString("|===\n\n")
	sb.WriteString("<<<\n\n")
	sb.WriteString("{set:cellbgcolor!}\n\n")

	return sb.String()
}

// severityCell returns the colored severity cell for the findings table.
func severityCell(sev Severity) string {
	options := map[Severity]string{
		SeverityOK: `|
{set:cellbgcolor:#00FF00}
OK`,
		SeverityWarn: `|
{set:cellbgcolor:#FEFE20}
WARN`,
		SeverityError: `|
{set:cellbgcolor:#FF0000}
ERROR`,
		SeverityManual: `|
{set:cellbgcolor:#80E5FF}
MANUAL`,
	}

	cell, ok := options[sev]
	if !ok {
		return options[SeverityManual]
	}
	return cell
}
