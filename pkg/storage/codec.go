package storage

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/pierrec/lz4/v4"
	"github.com/vmihailenco/msgpack/v5"
)

// encode writes v as header, raw length and an lz4 block of its msgpack form
func encode(w io.Writer, v interface{}) error {
	raw, err := msgpack.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode MessagePack: %w", err)
	}

	compressed := make([]byte, lz4.CompressBlockBound(len(raw)))
	var hashTable [1 << 16]int
	n, err := lz4.CompressBlock(raw, compressed, hashTable[:])
	if err != nil {
		return fmt.Errorf("failed to compress data: %w", err)
	}

	flags := uint8(0)
	payload := compressed[:n]
	if n == 0 || n >= len(raw) {
		flags |= FlagUncompressed
		payload = raw
	}

	if err := WriteHeader(w, flags); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(raw))); err != nil {
		return fmt.Errorf("failed to write length: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("failed to write payload: %w", err)
	}
	return nil
}

// decode reads what encode wrote into v
func decode(r io.Reader, v interface{}) error {
	header, err := ReadHeader(r)
	if err != nil {
		return err
	}
	var size uint32
	if err := binary.Read(r, binary.LittleEndian, &size); err != nil {
		return fmt.Errorf("failed to read length: %w", err)
	}
	payload, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read payload: %w", err)
	}

	raw := payload
	if header.Flags&FlagUncompressed == 0 {
		raw = make([]byte, size)
		n, err := lz4.UncompressBlock(payload, raw)
		if err != nil {
			return fmt.Errorf("failed to decompress data: %w", err)
		}
		raw = raw[:n]
	}
	if err := msgpack.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("failed to decode MessagePack: %w", err)
	}
	return nil
}

func encodeBytes(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := encode(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeBytes(data []byte, v interface{}) error {
	return decode(bytes.NewReader(data), v)
}
