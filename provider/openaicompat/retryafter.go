package openaicompat

import "strconv"

// parseRetryAfter parses an HTTP Retry-After header value expressed as
// delay-seconds. HTTP-date forms are not handled; providers in practice
// send the seconds form for 429/503 responses.
func parseRetryAfter(v string) int64 {
	if v == "" {
		return 0
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
