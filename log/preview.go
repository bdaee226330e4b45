// Package log holds helpers for keeping outcall payloads out of log lines
// at full length.
package log

// defaultMaxLoggedLen caps how much of a request or response body
// ends up in a single log entry.
const defaultMaxLoggedLen = 120

// Preview returns a log-safe preview of str.
//
// maxLen is optional and defaults to defaultMaxLoggedLen.
func Preview(str string, maxLen ...int) string {
	l := defaultMaxLoggedLen
	if len(maxLen) > 0 {
		l = maxLen[0]
	}
	return truncate(str, l)
}

// PreviewBytes is Preview for raw response bodies.
func PreviewBytes(bz []byte, maxLen ...int) string {
	return Preview(string(bz), maxLen...)
}

func truncate(str string, maxLen int) string {
	if maxLen < 0 {
		maxLen = 0
	}
	if len(str) <= maxLen {
		return str
	}
	if maxLen <= 3 {
		return str[:maxLen]
	}
	return str[:maxLen-3] + "..."
}
