// Copyright 2025 Tenprobe Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package subscribers

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/tenprobe/tenprobe/pkg/output"
)

// DiagnosticSubscriber renders diagnostic events up to a configured
// verbosity level, typically to stderr so machine-readable stdout stays
// clean.
type DiagnosticSubscriber struct {
	maxLevel output.OutputLevel
	writer   io.Writer
}

// NewDiagnosticSubscriber creates a subscriber that shows diagnostics at or
// below maxLevel.
func NewDiagnosticSubscriber(maxLevel output.OutputLevel, writer io.Writer) *DiagnosticSubscriber {
	return &DiagnosticSubscriber{
		maxLevel: maxLevel,
		writer:   writer,
	}
}

// Name returns the subscriber identifier.
func (s *DiagnosticSubscriber) Name() string {
	return "diagnostic-subscriber"
}

// ShouldHandle accepts only diagnostic events within the verbosity budget.
func (s *DiagnosticSubscriber) ShouldHandle(event output.OutputEvent) bool {
	return event.Type == output.EventDiag && event.Level <= s.maxLevel
}

// Handle renders the diagnostic line: [LEVEL] time message key:value ...
func (s *DiagnosticSubscriber) Handle(event output.OutputEvent) {
	label := levelLabel(event.Level)
	ts := event.Timestamp.Format("15:04:05")

	line := fmt.Sprintf("[%s] %s %s", label, ts, event.Message)
	if len(event.Metadata) > 0 {
		// Sorted for deterministic output
		keys := make([]string, 0, len(event.Metadata))
		for k := range event.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		pairs := make([]string, 0, len(keys))
		for _, k := range keys {
			pairs = append(pairs, fmt.Sprintf("%s:%v", k, event.Metadata[k]))
		}
		line += " " + strings.Join(pairs, " ")
	}

	_, _ = fmt.Fprintln(s.writer, line)
}

func levelLabel(level output.OutputLevel) string {
	switch level {
	case output.LevelVerbose:
		return "VERBOSE"
	case output.LevelDebug:
		return "DEBUG"
	case output.LevelTrace:
		return "TRACE"
	default:
		return "INFO"
	}
}
