// Copyright 2025 Tenprobe Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package subscribers

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"

	"github.com/tenprobe/tenprobe/pkg/engine"
	"github.com/tenprobe/tenprobe/pkg/output"
)

// Lipgloss styles for terminal output
var (
	// Info style - normal messages
	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10")) // Green

	// Error style - critical errors with icon
	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")). // Red
			Bold(true)

	// Warning style - warnings with icon
	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("11")). // Yellow
			Bold(true)

	// Header style - section headers (## Target: ...)
	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("105")). // Purple
			Bold(true)

	// Table header style - bold headers with border
	tableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("62")). // Blue
				BorderStyle(lipgloss.NormalBorder()).
				BorderBottom(true).
				Padding(0, 1)

	// Severity styles keyed by level
	severityStyles = map[engine.Severity]lipgloss.Style{
		engine.SeverityCritical: lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true), // Bright red
		engine.SeverityHigh:     lipgloss.NewStyle().Foreground(lipgloss.Color("208")).Bold(true), // Orange
		engine.SeverityMedium:   lipgloss.NewStyle().Foreground(lipgloss.Color("11")),             // Yellow
		engine.SeverityLow:      lipgloss.NewStyle().Foreground(lipgloss.Color("39")),             // Cyan
		engine.SeverityInfo:     lipgloss.NewStyle().Foreground(lipgloss.Color("245")),            // Gray
	}
)

// HumanFormatter renders human-friendly output (findings, tables, report
// summaries). Used when --json flag is NOT present.
type HumanFormatter struct {
	stdout       io.Writer
	stderr       io.Writer
	colorEnabled bool
}

// NewHumanFormatter creates a new HumanFormatter subscriber.
func NewHumanFormatter(stdout, stderr io.Writer, colorEnabled bool) *HumanFormatter {
	return &HumanFormatter{
		stdout:       stdout,
		stderr:       stderr,
		colorEnabled: colorEnabled,
	}
}

// Name returns the subscriber identifier.
func (s *HumanFormatter) Name() string {
	return "human-formatter"
}

// ShouldHandle decides if this subscriber cares about the event.
// HumanFormatter handles everything EXCEPT diagnostic events.
func (s *HumanFormatter) ShouldHandle(event output.OutputEvent) bool {
	// Diagnostic events are handled by DiagnosticSubscriber
	return event.Type != output.EventDiag
}

// Handle processes an output event and renders it in human-friendly format.
func (s *HumanFormatter) Handle(event output.OutputEvent) {
	switch event.Type {
	case output.EventInfo:
		s.printInfo(event.Message)

	case output.EventError:
		s.printError(event.Message)

	case output.EventWarning:
		s.printWarning(event.Message)

	case output.EventFinding:
		if f, ok := event.Data.(engine.Finding); ok {
			s.printFinding(f)
		}

	case output.EventReport:
		if r, ok := event.Data.(*engine.Report); ok {
			s.printReport(r)
		}

	case output.EventTable:
		if data, ok := event.Data.(map[string]any); ok {
			headers, _ := data["headers"].([]string)
			rows, _ := data["rows"].([][]string)
			s.printTable(headers, rows)
		}

	case output.EventProgress:
		if data, ok := event.Data.(map[string]any); ok {
			current, _ := data["current"].(int)
			total, _ := data["total"].(int)
			s.printProgress(current, total, event.Message)
		}
	}
}

// printInfo outputs an info message with styling based on content
func (s *HumanFormatter) printInfo(message string) {
	if !s.colorEnabled {
		_, _ = fmt.Fprintln(s.stdout, message)
		return
	}

	var styled string
	switch {
	case strings.HasPrefix(message, "##"):
		// Section header (## Target: ...)
		styled = headerStyle.Render(message)

	case strings.Contains(message, "---"):
		// Separator lines
		styled = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")). // Gray
			Render(message)

	default:
		styled = infoStyle.Render(message)
	}

	_, _ = fmt.Fprintln(s.stdout, styled)
}

// printError outputs an error message with styling
func (s *HumanFormatter) printError(message string) {
	if !s.colorEnabled {
		_, _ = fmt.Fprintf(s.stderr, "Error: %s\n", message)
		return
	}

	styled := errorStyle.Render("Error: " + message)
	_, _ = fmt.Fprintln(s.stderr, styled)
}

// printWarning outputs a warning message with styling
func (s *HumanFormatter) printWarning(message string) {
	if !s.colorEnabled {
		_, _ = fmt.Fprintf(s.stdout, "Warning: %s\n", message)
		return
	}

	styled := warningStyle.Render("Warning: " + message)
	_, _ = fmt.Fprintln(s.stdout, styled)
}

// printFinding renders a single finding as it is recorded.
func (s *HumanFormatter) printFinding(f engine.Finding) {
	tag := fmt.Sprintf("[%s][%s]", f.Category, strings.ToUpper(string(f.Severity)))
	line := fmt.Sprintf("%s %s  %s", tag, f.Title, f.Evidence.Location)

	if !s.colorEnabled {
		_, _ = fmt.Fprintln(s.stdout, line)
		return
	}

	style, ok := severityStyles[f.Severity]
	if !ok {
		style = infoStyle
	}
	_, _ = fmt.Fprintln(s.stdout, style.Render(line))
}

// printReport renders the final report summary: one block per finding plus
// a severity tally.
func (s *HumanFormatter) printReport(r *engine.Report) {
	s.printInfo(fmt.Sprintf("## Scan report for %s", r.Target))
	s.printInfo(fmt.Sprintf("Scan %s finished in %s (%d findings, %d warnings)",
		r.ScanID, r.Duration.Round(10e6), len(r.Findings), len(r.Warnings)))
	if r.Truncated {
		s.printWarning("Scan timed out; results are partial")
	}

	for _, f := range r.Findings {
		s.printFinding(f)
		if f.Description != "" {
			_, _ = fmt.Fprintf(s.stdout, "    %s\n", f.Description)
		}
		if f.Remediation != "" {
			_, _ = fmt.Fprintf(s.stdout, "    Remediation: %s\n", f.Remediation)
		}
	}

	for _, w := range r.Warnings {
		s.printWarning(fmt.Sprintf("module %s (%s): %s", w.Module, w.Category, w.Message))
	}

	counts := r.CountBySeverity()
	headers := []string{"Severity", "Count"}
	rows := make([][]string, 0, 5)
	for _, sev := range []engine.Severity{engine.SeverityCritical, engine.SeverityHigh, engine.SeverityMedium, engine.SeverityLow, engine.SeverityInfo} {
		if counts[sev] > 0 {
			rows = append(rows, []string{string(sev), fmt.Sprintf("%d", counts[sev])})
		}
	}
	if len(rows) > 0 {
		s.printTable(headers, rows)
	}
}

// printTable outputs tabular data
func (s *HumanFormatter) printTable(headers []string, rows [][]string) {
	if !s.colorEnabled {
		// Simple table without styling
		w := tabwriter.NewWriter(s.stdout, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(w, strings.Join(headers, "\t"))
		for _, row := range rows {
			_, _ = fmt.Fprintln(w, strings.Join(row, "\t"))
		}
		_ = w.Flush()
		return
	}

	// Styled table with lipgloss
	w := tabwriter.NewWriter(s.stdout, 0, 0, 3, ' ', 0)

	headerLine := make([]string, len(headers))
	for i, h := range headers {
		headerLine[i] = tableHeaderStyle.Render(strings.ToUpper(h))
	}
	_, _ = fmt.Fprintln(w, strings.Join(headerLine, "\t"))

	for _, row := range rows {
		styledRow := make([]string, len(row))
		for i, cell := range row {
			// First column (labels) - dimmed
			if i == 0 {
				styledRow[i] = lipgloss.NewStyle().
					Foreground(lipgloss.Color("245")).
					Render(cell)
			} else {
				styledRow[i] = cell
			}
		}
		_, _ = fmt.Fprintln(w, strings.Join(styledRow, "\t"))
	}

	_ = w.Flush()
}

// printProgress outputs a progress indicator
func (s *HumanFormatter) printProgress(current, total int, message string) {
	if total > 0 {
		percentage := float64(current) / float64(total) * 100
		fmt.Fprintf(s.stdout, "\r[%3.0f%%] %s", percentage, message)
		if current == total {
			fmt.Fprintln(s.stdout) // Newline when complete
		}
	}
}
