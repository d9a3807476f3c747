package ingest

import "time"

// RawMessage is a single chat message pulled from an export file, shared
// across parsers.
type RawMessage struct {
	Sender    string
	Text      string
	Timestamp time.Time
}

// FileSource indicates which parser produced a conversation.
type FileSource int

const (
	SourceJSONL FileSource = iota
	SourceTextExport
)

// FileSummary accumulates per-file results for batch summaries.
type FileSummary struct {
	Path        string
	Source      string
	Date        string
	Volleys     int
	Annotations int
	Errors      int
}
