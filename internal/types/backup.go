package types

// RequestType categorizes Drive API operations for logging
type RequestType string

const (
	RequestTypeListOrSearch RequestType = "list_or_search"
	RequestTypeCreateFolder RequestType = "create_folder"
	RequestTypeUpload       RequestType = "upload"
	RequestTypeDelete       RequestType = "delete"
)

// RequestContext carries per-operation metadata for logging and error
// classification. One context is created per mapping; the trace ID ties
// every API call issued for that mapping together.
type RequestContext struct {
	TraceID     string
	RequestType RequestType
	Source      string
	Destination string
}

// BackupMapping is one configured (local source, remote destination) pair
type BackupMapping struct {
	Source      string
	Destination string
}

// MappingResult records the outcome of processing one mapping. Per-item
// errors are collected here rather than aborting the run; the caller
// decides what to do with them (log and continue).
type MappingResult struct {
	Mapping  BackupMapping
	Skipped  bool
	Uploaded int
	Deleted  int
	Errors   []error
}

// Failed reports whether the mapping was processed but hit at least one error
func (r *MappingResult) Failed() bool {
	return len(r.Errors) > 0
}

// Status returns a short human-readable outcome for summaries
func (r *MappingResult) Status() string {
	switch {
	case r.Skipped:
		return "skipped"
	case r.Failed():
		return "partial"
	default:
		return "ok"
	}
}
