package storage

import (
	"encoding/base64"
	"strconv"
)

// Cursor is an opaque page token wrapping an integer offset. The empty
// cursor means "start from the beginning"; any token that fails to decode is
// treated the same way rather than rejected.
type Cursor string

// CursorAt encodes an offset as a page token.
func CursorAt(offset int) Cursor {
	return Cursor(base64.URLEncoding.EncodeToString([]byte(strconv.Itoa(offset))))
}

// Offset decodes the token back into an offset. Absent or malformed tokens
// decode to zero.
func (c Cursor) Offset() int {
	if c == "" {
		return 0
	}
	raw, err := base64.URLEncoding.DecodeString(string(c))
	if err != nil {
		return 0
	}
	offset, err := strconv.Atoi(string(raw))
	if err != nil || offset < 0 {
		return 0
	}
	return offset
}

// NextCursor computes the token for the page after the one just returned.
// It is non-empty only when the page came back full, which is a heuristic
// rather than an exact "more data exists" check.
func NextCursor(offset, limit, returned int) Cursor {
	if limit <= 0 || returned < limit {
		return ""
	}
	return CursorAt(offset + limit)
}
