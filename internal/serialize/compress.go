// Package serialize packs payloads crossing the Flight boundary: a
// msgpack envelope carrying the uncompressed length and a ZStandard
// compressed body.
package serialize

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
)

// envelope is the wire form: uncompressed length first so the receiver
// can validate the body before handing it to a decoder.
type envelope struct {
	_msgpack struct{} `msgpack:",as_array"`

	Length uint64
	Body   []byte
}

var (
	initOnce sync.Once
	encoder  *zstd.Encoder
	decoder  *zstd.Decoder
	initErr  error
)

// codecs lazily builds the shared zstd encoder/decoder pair. Both are
// safe for concurrent EncodeAll/DecodeAll use, so one of each serves
// the whole process.
func codecs() (*zstd.Encoder, *zstd.Decoder, error) {
	initOnce.Do(func() {
		encoder, initErr = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if initErr != nil {
			initErr = fmt.Errorf("creating zstd encoder: %w", initErr)
			return
		}
		decoder, initErr = zstd.NewReader(nil)
		if initErr != nil {
			initErr = fmt.Errorf("creating zstd decoder: %w", initErr)
		}
	})
	return encoder, decoder, initErr
}

// Pack compresses data and wraps it in the length-prefixed envelope.
func Pack(data []byte) ([]byte, error) {
	enc, _, err := codecs()
	if err != nil {
		return nil, err
	}

	body := enc.EncodeAll(data, make([]byte, 0, len(data)/2))
	packed, err := msgpack.Marshal(envelope{
		Length: uint64(len(data)),
		Body:   body,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding envelope: %w", err)
	}
	return packed, nil
}

// Unpack reverses Pack, validating the declared uncompressed length.
func Unpack(packed []byte) ([]byte, error) {
	_, dec, err := codecs()
	if err != nil {
		return nil, err
	}

	var env envelope
	if err := msgpack.Unmarshal(packed, &env); err != nil {
		return nil, fmt.Errorf("decoding envelope: %w", err)
	}

	data, err := dec.DecodeAll(env.Body, make([]byte, 0, env.Length))
	if err != nil {
		return nil, fmt.Errorf("decompressing envelope body: %w", err)
	}
	if uint64(len(data)) != env.Length {
		return nil, fmt.Errorf("envelope length mismatch: declared %d, got %d", env.Length, len(data))
	}
	return data, nil
}
