// Copyright 2025 Tenprobe Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package output

import (
	"time"

	"github.com/tenprobe/tenprobe/pkg/engine"
)

// contextKey is a type for context keys to avoid collisions
type contextKey string

// OutputKey is the context key for Output interface
const OutputKey contextKey = "output"

// OutputEventType defines the type of output event.
type OutputEventType string

const (
	// EventInfo represents a general information message (always visible)
	EventInfo OutputEventType = "info"

	// EventError represents an error message
	EventError OutputEventType = "error"

	// EventWarning represents a warning message
	EventWarning OutputEventType = "warning"

	// EventTable represents tabular data output
	EventTable OutputEventType = "table"

	// EventProgress represents a progress update
	EventProgress OutputEventType = "progress"

	// EventFinding represents one vulnerability finding
	EventFinding OutputEventType = "finding"

	// EventReport represents the final frozen scan report
	EventReport OutputEventType = "report"

	// EventDiag represents diagnostic information (only visible with -v/-vv/-vvv)
	EventDiag OutputEventType = "diag"
)

// OutputLevel defines the verbosity level for diagnostic messages.
type OutputLevel int

const (
	// LevelNormal is the default level (always shown)
	LevelNormal OutputLevel = 0

	// LevelVerbose is shown with -v flag
	LevelVerbose OutputLevel = 1

	// LevelDebug is shown with -vv flag
	LevelDebug OutputLevel = 2

	// LevelTrace is shown with -vvv flag
	LevelTrace OutputLevel = 3
)

// OutputEvent represents a single output event emitted by business logic.
type OutputEvent struct {
	// Type identifies the event category (info, finding, report, etc.)
	Type OutputEventType

	// Level specifies verbosity level (only used for EventDiag)
	Level OutputLevel

	// Message is the primary text content
	Message string

	// Data contains structured data (table headers/rows, progress values,
	// an engine.Finding, or the final *engine.Report)
	Data any

	// Metadata holds additional key-value pairs for diagnostic events
	Metadata map[string]any

	// Timestamp records when the event was created
	Timestamp time.Time
}

// Output is the primary interface for business logic to emit output events.
// Scan code uses this interface without knowing about the underlying
// rendering format (human-friendly, JSON lines, etc.).
type Output interface {
	// Info emits a general information message (always visible).
	Info(message string)

	// Error emits an error message.
	Error(err error)

	// Warning emits a warning message.
	Warning(message string)

	// Table emits tabular data with headers and rows.
	Table(headers []string, rows [][]string)

	// Progress emits a progress update.
	Progress(current, total int, message string)

	// Finding emits one vulnerability finding as it is recorded.
	Finding(f engine.Finding)

	// Report emits the final frozen scan report.
	Report(r *engine.Report)

	// Diag emits diagnostic information (only visible with -v/-vv/-vvv).
	Diag(level OutputLevel, message string, metadata map[string]any)
}
