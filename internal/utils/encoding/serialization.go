package encoding

import (
	"encoding/json"
	"fmt"
)

// DocumentCodec serializes stored documents as JSON, optionally gzip compressed
type DocumentCodec struct {
	compress bool
}

// NewDocumentCodec creates a codec. Decoding accepts both plain and
// compressed documents regardless of the compress setting.
func NewDocumentCodec(compress bool) *DocumentCodec {
	return &DocumentCodec{compress: compress}
}

// Compressed reports whether Encode compresses its output
func (c *DocumentCodec) Compressed() bool {
	return c.compress
}

// Encode serializes v
func (c *DocumentCodec) Encode(v interface{}) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document: %w", err)
	}
	if !c.compress {
		return data, nil
	}
	return compress(data)
}

// Decode deserializes data into v
func (c *DocumentCodec) Decode(data []byte, v interface{}) error {
	if IsGZIP(data) {
		raw, err := decompress(data)
		if err != nil {
			return err
		}
		data = raw
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to unmarshal document: %w", err)
	}
	return nil
}
