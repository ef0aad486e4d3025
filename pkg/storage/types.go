package storage

import "time"

// ScanMetadata is the summary record for one scan, stored as
// metadata.json alongside the scan's data files.
type ScanMetadata struct {
	// ID is the unique identifier for the scan (UUID v4).
	ID string `json:"id"`

	// Target is the base URL the scan was run against.
	Target string `json:"target"`

	// Status is the current state of the scan.
	// Valid values: "pending", "running", "completed", "failed", "canceled"
	Status string `json:"status"`

	// StartedAt is when the scan was started (UTC).
	StartedAt time.Time `json:"started_at"`

	// CompletedAt is when the scan finished (UTC).
	// Zero value while the scan is still running.
	CompletedAt time.Time `json:"completed_at,omitzero"`

	// Duration is the scan duration in seconds, set on completion.
	Duration int `json:"duration_seconds,omitempty"`

	// Truncated is true when the scan deadline expired before every
	// check ran, so the stored report is partial.
	Truncated bool `json:"truncated,omitempty"`

	// FindingCount holds finding counts by severity so history
	// listings can show totals without parsing report.json.
	FindingCount FindingCounts `json:"finding_count"`

	// ErrorMessage contains error details if the scan failed.
	ErrorMessage string `json:"error_message,omitempty"`

	// CreatedAt is when the record was first created (UTC).
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is when the record was last updated (UTC).
	UpdatedAt time.Time `json:"updated_at"`
}

// FindingCounts contains finding counts by severity level.
type FindingCounts struct {
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
	Info     int `json:"info"`
}

// Total returns the total number of findings.
func (c FindingCounts) Total() int {
	return c.Critical + c.High + c.Medium + c.Low + c.Info
}

// ScanFilter specifies criteria for filtering scan listings.
type ScanFilter struct {
	// Status filters by scan status (empty = all statuses).
	Status string

	// Target filters by target substring match (empty = all targets).
	Target string

	// Limit is the maximum number of results to return (0 = no limit).
	Limit int

	// Offset is the number of results to skip.
	Offset int
}

// ScanUpdates specifies fields to update in a scan record.
//
// Only non-nil fields are applied, so a zero value can be set
// deliberately without clobbering other fields.
type ScanUpdates struct {
	Status       *string        `json:"status,omitempty"`
	CompletedAt  *time.Time     `json:"completed_at,omitempty"`
	Duration     *int           `json:"duration_seconds,omitempty"`
	Truncated    *bool          `json:"truncated,omitempty"`
	FindingCount *FindingCounts `json:"finding_count,omitempty"`
	ErrorMessage *string        `json:"error_message,omitempty"`
}

// DataType identifies one of a scan's data files.
type DataType string

const (
	// DataTypeMetadata is the scan summary record (metadata.json).
	DataTypeMetadata DataType = "metadata.json"

	// DataTypeReport is the frozen scan report (report.json).
	DataTypeReport DataType = "report.json"

	// DataTypeFindings is the finding stream (findings.jsonl).
	// One JSON object per line, appended as modules report findings.
	DataTypeFindings DataType = "findings.jsonl"
)

// String returns the string representation of DataType.
func (d DataType) String() string {
	return string(d)
}

// IsValid checks if the DataType is valid.
func (d DataType) IsValid() bool {
	switch d {
	case DataTypeMetadata, DataTypeReport, DataTypeFindings:
		return true
	default:
		return false
	}
}

// ScanStatus represents valid scan status values.
type ScanStatus string

// Valid scan statuses.
const (
	StatusPending   ScanStatus = "pending"
	StatusRunning   ScanStatus = "running"
	StatusCompleted ScanStatus = "completed"
	StatusFailed    ScanStatus = "failed"
	StatusCancelled ScanStatus = "canceled"
)

// String returns the string representation of ScanStatus.
func (s ScanStatus) String() string {
	return string(s)
}

// IsValid checks if the ScanStatus is valid.
func (s ScanStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusRunning, StatusCompleted, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// IsTerminal returns true if the status indicates the scan is finished.
func (s ScanStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}
