package instrumentation

import "strings"

// Operation names used as metric labels and span names.
const (
	OperationCountUnread   = "count_unread"
	OperationListMessages  = "list_messages"
	OperationGetMessage    = "get_message"
	OperationChat          = "chat_completion"
	OperationTranscription = "transcription"
)

// PathOther replaces any request path outside the known route set.
const PathOther = "other"

// NormalizePath bounds the cardinality of the HTTP path label. Paths not
// in known are reported as PathOther so probing clients cannot create
// unbounded series.
func NormalizePath(path string, known map[string]bool) string {
	path = strings.TrimSuffix(path, "/")
	if path == "" {
		path = "/"
	}
	if known[path] {
		return path
	}
	return PathOther
}
