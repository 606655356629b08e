package storage

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"
)

var errInvalidPayload = errors.New("payload is neither compressed nor valid JSON")

// Codec serializes values as JSON with optional zstd compression.
// Decoding always tries decompression first so payloads written with or
// without compression stay readable.
type Codec struct {
	compress bool
	enc      *zstd.Encoder
	dec      *zstd.Decoder
}

// NewCodec builds a codec; compress controls only the write path.
func NewCodec(compress bool) (*Codec, error) {
	dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, fmt.Errorf("failed to init zstd decoder: %w", err)
	}
	c := &Codec{compress: compress, dec: dec}
	if compress {
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderConcurrency(1))
		if err != nil {
			dec.Close()
			return nil, fmt.Errorf("failed to init zstd encoder: %w", err)
		}
		c.enc = enc
	}
	return c, nil
}

// Compressing reports whether Encode compresses.
func (c *Codec) Compressing() bool {
	return c.enc != nil
}

// Encode marshals v and compresses it when enabled.
func (c *Codec) Encode(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if c.enc == nil {
		return raw, nil
	}
	return c.enc.EncodeAll(raw, nil), nil
}

// Plain returns the JSON text of a payload, decompressing if needed.
func (c *Codec) Plain(data []byte) ([]byte, error) {
	if plain, err := c.dec.DecodeAll(data, nil); err == nil && json.Valid(plain) {
		return plain, nil
	}
	if json.Valid(data) {
		return data, nil
	}
	return nil, errInvalidPayload
}

// Decode unmarshals a payload into v.
func (c *Codec) Decode(data []byte, v any) error {
	plain, err := c.Plain(data)
	if err != nil {
		return err
	}
	return json.Unmarshal(plain, v)
}

// Close releases encoder and decoder resources.
func (c *Codec) Close() error {
	c.dec.Close()
	if c.enc != nil {
		return c.enc.Close()
	}
	return nil
}
