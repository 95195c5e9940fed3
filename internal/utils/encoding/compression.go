package encoding

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/gzip"
)

var gzipWriters = sync.Pool{
	New: func() interface{} { return gzip.NewWriter(nil) },
}

// compress gzips a serialized document
func compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(len(data) / 2)

	writer := gzipWriters.Get().(*gzip.Writer)
	defer gzipWriters.Put(writer)
	writer.Reset(&buf)

	if _, err := writer.Write(data); err != nil {
		return nil, fmt.Errorf("failed to compress document: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to compress document: %w", err)
	}
	return buf.Bytes(), nil
}

// decompress inflates a gzip document
func decompress(data []byte) ([]byte, error) {
	reader, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open compressed document: %w", err)
	}
	defer reader.Close()

	raw, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress document: %w", err)
	}
	return raw, nil
}

// IsGZIP reports whether data starts with the gzip magic bytes
func IsGZIP(data []byte) bool {
	return len(data) >= 2 && data[0] == 0x1f && data[1] == 0x8b
}
