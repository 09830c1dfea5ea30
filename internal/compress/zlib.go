// Package compress provides the zlib codec for stored article bodies.
package compress

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
)

// DefaultLevel balances speed and ratio for news-article-sized payloads.
const DefaultLevel = 6

// Zlib implements news.Compressor.
type Zlib struct {
	level int
}

// NewZlib returns a codec at the given compression level (1-9). Out-of-range
// levels fall back to DefaultLevel.
func NewZlib(level int) *Zlib {
	if level < 1 || level > 9 {
		level = DefaultLevel
	}
	return &Zlib{level: level}
}

// Compress encodes content. When compression would enlarge the payload the
// raw bytes are stored instead; Decompress handles both forms.
func (z *Zlib) Compress(content string) ([]byte, error) {
	if content == "" {
		return []byte{}, nil
	}
	raw := []byte(content)

	var buf bytes.Buffer
	w, err := zlib.NewWriterLevel(&buf, z.level)
	if err != nil {
		return nil, fmt.Errorf("init zlib writer: %w", err)
	}
	if _, err := w.Write(raw); err != nil {
		return nil, fmt.Errorf("compress content: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("flush zlib writer: %w", err)
	}

	if buf.Len() >= len(raw) {
		return raw, nil
	}
	return buf.Bytes(), nil
}

// Decompress decodes stored bytes. Bytes without a zlib header are treated
// as uncompressed and returned as-is.
func (z *Zlib) Decompress(data []byte) (string, error) {
	if len(data) == 0 {
		return "", nil
	}
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return string(data), nil
	}
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("decompress content: %w", err)
	}
	return string(out), nil
}
