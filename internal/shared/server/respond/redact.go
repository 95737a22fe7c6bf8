package respond

import "strings"

// RedactPath masks capability tokens embedded in URL paths so they never
// reach the logs. Only the token segment of /applications/token/{token}
// is sensitive.
func RedactPath(path string) string {
	const marker = "/applications/token/"
	idx := strings.Index(path, marker)
	if idx < 0 {
		return path
	}
	rest := path[idx+len(marker):]
	if end := strings.IndexByte(rest, '/'); end >= 0 {
		rest = rest[end:]
	} else {
		rest = ""
	}
	return path[:idx+len(marker)] + "[redacted]" + rest
}
