package core

// input.go turns request bodies into the UTF-8 text the engines expect.
//
// Spreadsheet exports from Windows tools commonly carry a byte order mark and
// are sometimes saved as UTF-16. Decode normalizes both cases:
//
//   - UTF-8 BOM (EF BB BF): stripped
//   - UTF-16 LE/BE with BOM: transcoded to UTF-8, BOM dropped
//   - anything else: must already be valid UTF-8
//
// Unlike a streaming sanitizer, invalid bytes are rejected rather than
// replaced, so a parse never silently changes the caller's data.

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrInvalidEncoding is returned when input is not valid UTF-8 after BOM handling.
var ErrInvalidEncoding = errors.New("encoding error: input is not valid UTF-8")

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// Decode returns data as UTF-8 text without a leading byte order mark.
func Decode(data []byte) ([]byte, error) {
	switch {
	case bytes.HasPrefix(data, bomUTF8):
		data = data[len(bomUTF8):]

	case bytes.HasPrefix(data, bomUTF16LE), bytes.HasPrefix(data, bomUTF16BE):
		if len(data)%2 != 0 {
			return nil, fmt.Errorf("%w: odd byte count for UTF-16 input", ErrInvalidEncoding)
		}
		out, _, err := transform.Bytes(unicode.BOMOverride(transform.Nop), data)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidEncoding, err)
		}
		data = out
	}

	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%w at byte %d", ErrInvalidEncoding, firstInvalid(data))
	}
	return data, nil
}

// ReadBody reads at most limit bytes from r. It returns ErrInputTooLarge
// when r holds more than limit bytes. The bytes are returned undecoded.
func ReadBody(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: limit is %d bytes", ErrInputTooLarge, limit)
	}
	return data, nil
}

// ErrInputTooLarge is returned by ReadBody when the input exceeds its limit.
var ErrInputTooLarge = errors.New("input too large")

// firstInvalid returns the offset of the first byte that does not start a
// valid UTF-8 sequence.
func firstInvalid(data []byte) int {
	for i := 0; i < len(data); {
		r, size := utf8.DecodeRune(data[i:])
		if r == utf8.RuneError && size == 1 {
			return i
		}
		i += size
	}
	return len(data)
}
