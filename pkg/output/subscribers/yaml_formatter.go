// Copyright 2025 Tenprobe Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package subscribers

import (
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tenprobe/tenprobe/pkg/output"
)

// YAMLFormatter emits structured YAML output (when --output yaml is
// present).
//
// Output format: one YAML document per event, separated by "---" markers,
// so consumers can decode the stream incrementally.
type YAMLFormatter struct {
	writer io.Writer
}

// NewYAMLFormatter creates a new YAMLFormatter subscriber.
func NewYAMLFormatter(writer io.Writer) *YAMLFormatter {
	return &YAMLFormatter{writer: writer}
}

// Name returns the subscriber identifier.
func (s *YAMLFormatter) Name() string {
	return "yaml-formatter"
}

// ShouldHandle decides if this subscriber cares about the event.
// YAMLFormatter handles everything EXCEPT diagnostic events.
func (s *YAMLFormatter) ShouldHandle(event output.OutputEvent) bool {
	return event.Type != output.EventDiag
}

// Handle processes an output event and renders it as a YAML document.
func (s *YAMLFormatter) Handle(event output.OutputEvent) {
	doc := map[string]any{
		"type":      event.Type,
		"timestamp": event.Timestamp.Format(time.RFC3339),
	}

	if event.Message != "" {
		doc["message"] = event.Message
	}

	if event.Data != nil {
		doc["data"] = event.Data
	}

	if len(event.Metadata) > 0 {
		doc["metadata"] = event.Metadata
	}

	out, err := yaml.Marshal(doc)
	if err != nil {
		return
	}

	// Errors cannot propagate through the subscriber contract (e.g. a
	// broken pipe), matching the JSON formatter.
	if _, err := s.writer.Write([]byte("---\n")); err != nil {
		return
	}
	if _, err := s.writer.Write(out); err != nil {
		return
	}
}
