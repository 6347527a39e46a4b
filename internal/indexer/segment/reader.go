// Package segment reads and writes the on-disk forms of an index blob: the
// versioned SIDX container, the JavaScript wrapper emitted by rustdoc and
// raw JSON.
package segment

import (
	"bytes"
	"errors"
	"fmt"
	"hash/crc32"
	"os"
	"strconv"
	"time"
	"unicode/utf8"

	apperrors "github.com/Adithya-Monish-Kumar-K/docsearch/pkg/errors"
)

type Format string

const (
	FormatContainer Format = "container"
	FormatJS        Format = "js"
	FormatJSON      Format = "json"
)

// Blob is an unwrapped JSON payload with its provenance.
type Blob struct {
	Format    Format
	Payload   []byte
	Version   string
	CreatedAt time.Time
}

// ReadFile reads and unwraps a blob from disk.
func ReadFile(path string) (*Blob, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading index file: %w", err)
	}
	blob, err := Unwrap(data)
	if err != nil {
		return nil, fmt.Errorf("unwrapping %s: %w", path, err)
	}
	if blob.CreatedAt.IsZero() {
		if info, err := os.Stat(path); err == nil {
			blob.CreatedAt = info.ModTime()
		}
	}
	return blob, nil
}

// Unwrap detects the blob format and returns its JSON payload. The version
// is the payload checksum, so identical content always has the same version.
func Unwrap(data []byte) (*Blob, error) {
	if len(data) >= HeaderSize && parseHeader(data[:HeaderSize]).Magic == MagicBytes {
		return unpack(data)
	}
	trimmed := bytes.TrimSpace(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf")))
	if len(trimmed) > 0 && trimmed[0] == '{' {
		return &Blob{Format: FormatJSON, Payload: trimmed, Version: Fingerprint(trimmed)}, nil
	}
	payload, err := extractJS(trimmed)
	if err != nil {
		return nil, err
	}
	return &Blob{Format: FormatJS, Payload: payload, Version: Fingerprint(payload)}, nil
}

// Fingerprint is the version string of a payload.
func Fingerprint(payload []byte) string {
	return fmt.Sprintf("%08x", crc32.ChecksumIEEE(payload))
}

func unpack(data []byte) (*Blob, error) {
	h := parseHeader(data[:HeaderSize])
	if h.Version != FormatVersion {
		return nil, fmt.Errorf("%w: unsupported container version %d", apperrors.ErrCorruptIndex, h.Version)
	}
	payload := data[HeaderSize:]
	if int64(len(payload)) != h.PayloadSize {
		return nil, fmt.Errorf("%w: payload is %d bytes, header says %d", apperrors.ErrCorruptIndex, len(payload), h.PayloadSize)
	}
	if sum := crc32.ChecksumIEEE(payload); sum != h.Checksum {
		return nil, fmt.Errorf("%w: checksum mismatch %08x != %08x", apperrors.ErrCorruptIndex, sum, h.Checksum)
	}
	return &Blob{
		Format:    FormatContainer,
		Payload:   payload,
		Version:   Fingerprint(payload),
		CreatedAt: time.Unix(h.CreatedAt, 0),
	}, nil
}

var errNoLiteral = errors.New("no JSON.parse string literal found")

// extractJS pulls the single-quoted literal out of
// `var searchIndex = JSON.parse('...');` and unescapes it.
func extractJS(data []byte) ([]byte, error) {
	const marker = "JSON.parse('"
	start := bytes.Index(data, []byte(marker))
	if start < 0 {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrCorruptIndex, errNoLiteral)
	}
	body := data[start+len(marker):]
	end := -1
	for i := 0; i < len(body); i++ {
		if body[i] == '\\' {
			i++
			continue
		}
		if body[i] == '\'' {
			end = i
			break
		}
	}
	if end < 0 {
		return nil, fmt.Errorf("%w: unterminated string literal", apperrors.ErrCorruptIndex)
	}
	out, err := unescapeJS(body[:end])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrCorruptIndex, err)
	}
	return out, nil
}

// unescapeJS decodes a JavaScript single-quoted string body, including
// backslash-newline line continuations.
func unescapeJS(s []byte) ([]byte, error) {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' {
			out = append(out, c)
			continue
		}
		i++
		if i >= len(s) {
			return nil, errors.New("dangling backslash")
		}
		switch e := s[i]; e {
		case '\n':
		case '\r':
			if i+1 < len(s) && s[i+1] == '\n' {
				i++
			}
		case 'n':
			out = append(out, '\n')
		case 't':
			out = append(out, '\t')
		case 'r':
			out = append(out, '\r')
		case 'b':
			out = append(out, '\b')
		case 'f':
			out = append(out, '\f')
		case 'v':
			out = append(out, '\v')
		case '0':
			out = append(out, 0)
		case 'x', 'u':
			n := 2
			if e == 'u' {
				n = 4
			}
			if i+n >= len(s) {
				return nil, fmt.Errorf("short \\%c escape", e)
			}
			v, err := strconv.ParseUint(string(s[i+1:i+1+n]), 16, 32)
			if err != nil {
				return nil, fmt.Errorf("bad \\%c escape: %w", e, err)
			}
			out = utf8.AppendRune(out, rune(v))
			i += n
		default:
			out = append(out, e)
		}
	}
	return out, nil
}
