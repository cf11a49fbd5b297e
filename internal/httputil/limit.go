package httputil

import (
	"fmt"
	"io"
)

// ReadAllWithLimit reads at most limit bytes and reports whether the body
// was longer.
func ReadAllWithLimit(r io.Reader, limit int64) ([]byte, bool, error) {
	if limit <= 0 {
		limit = defaultMaxBodyBytes
	}
	body, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, false, err
	}
	if int64(len(body)) > limit {
		return body[:limit], true, nil
	}
	return body, false, nil
}

// ReadAllStrict reads the whole body and fails if it exceeds limit.
func ReadAllStrict(r io.Reader, limit int64) ([]byte, error) {
	body, truncated, err := ReadAllWithLimit(r, limit)
	if err != nil {
		return nil, err
	}
	if truncated {
		return nil, fmt.Errorf("response body exceeds %d bytes", limit)
	}
	return body, nil
}
