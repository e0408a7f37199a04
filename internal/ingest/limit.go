package ingest

import (
	"bytes"
	"io"

	"github.com/pkg/errors"

	"github.com/andresuchdata/buyer-dashboard/backend-go/internal/domain"
)

// DefaultMaxBytes is the upload ceiling used when none is configured.
const DefaultMaxBytes int64 = 50 << 20

// CheckDeclaredSize rejects an upload whose declared size exceeds limit.
// A negative size means unknown and passes.
func CheckDeclaredSize(table string, size, limit int64) error {
	if limit <= 0 {
		limit = DefaultMaxBytes
	}
	if size > limit {
		return &domain.TooLargeError{Table: table, Size: size, Limit: limit}
	}
	return nil
}

// ReadLimited buffers r fully, failing with TooLargeError as soon as more
// than limit bytes arrive. Nothing is parsed until the whole input is known
// to fit.
func ReadLimited(table string, r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		limit = DefaultMaxBytes
	}
	var buf bytes.Buffer
	n, err := buf.ReadFrom(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, errors.Wrapf(err, "read %s upload", table)
	}
	if n > limit {
		return nil, &domain.TooLargeError{Table: table, Size: n, Limit: limit}
	}
	return buf.Bytes(), nil
}
