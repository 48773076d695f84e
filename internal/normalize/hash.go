package normalize

import (
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"strings"
)

// FileHash computes the hex-encoded SHA-256 of the file at path.
func FileHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open file for hash: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash file: %w", err)
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// RowDigest accumulates a stable SHA-256 over ordered rows of values. Two
// runs over the same input produce the same digest.
type RowDigest struct {
	buf  strings.Builder
	rows int
}

// Add appends one row. Values are rendered with %v and null-separated; nil
// pointers render as an empty marker distinct from the empty string.
func (d *RowDigest) Add(values ...any) {
	for _, v := range values {
		d.buf.WriteString(render(v))
		d.buf.WriteByte(0)
	}
	d.buf.WriteByte('\n')
	d.rows++
}

// Rows returns the number of rows added.
func (d *RowDigest) Rows() int { return d.rows }

// Sum returns the hex digest of every row added so far.
func (d *RowDigest) Sum() string {
	return fmt.Sprintf("%x", sha256.Sum256([]byte(d.buf.String())))
}

func render(v any) string {
	switch x := v.(type) {
	case nil:
		return "\x01"
	case *bool:
		if x == nil {
			return "\x01"
		}
		return fmt.Sprint(*x)
	case *float64:
		if x == nil {
			return "\x01"
		}
		return fmt.Sprint(*x)
	case *string:
		if x == nil {
			return "\x01"
		}
		return *x
	}
	return fmt.Sprint(v)
}
