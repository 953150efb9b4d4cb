package ingest

// Severity levels for row errors.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// RowError is a structured, row-local parse or persistence failure.
// Row is the 1-based line number in the input (the header is line 1).
type RowError struct {
	Row      int    `json:"row"`
	Field    string `json:"field,omitempty"`
	Value    string `json:"value,omitempty"`
	Error    string `json:"error"`
	Severity string `json:"severity"`
}

// IngestResult is the envelope returned for every ingestion attempt,
// including partial failures.
type IngestResult struct {
	Success        bool       `json:"success"`
	Message        string     `json:"message"`
	ProcessedCount int        `json:"processedCount"`
	Errors         []RowError `json:"errors"`
}
