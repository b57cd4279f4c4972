package storage

import (
	"bytes"
	"encoding/binary"
	"strings"
	"testing"

	"github.com/adfharrison1/go-docdb/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileHeader_WriteAndRead(t *testing.T) {
	var buf bytes.Buffer
	err := WriteHeader(&buf, FlagUncompressed)
	require.NoError(t, err)

	// 4 bytes magic + 1 byte version + 1 byte flags + 2 bytes reserved
	assert.Len(t, buf.Bytes(), 8)

	header, err := ReadHeader(&buf)
	require.NoError(t, err)

	assert.Equal(t, MagicBytes, string(header.Magic[:]))
	assert.EqualValues(t, FormatVersion, header.Version)
	assert.Equal(t, FlagUncompressed, header.Flags)
	assert.Equal(t, [2]byte{0, 0}, header.Reserved)
}

func TestFileHeader_InvalidMagic(t *testing.T) {
	var buf bytes.Buffer
	invalidHeader := FileHeader{
		Magic:   [4]byte{'I', 'N', 'V', 'L'},
		Version: FormatVersion,
	}
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, invalidHeader))

	_, err := ReadHeader(&buf)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid file format")
}

func TestFileHeader_InvalidVersion(t *testing.T) {
	var buf bytes.Buffer
	invalidHeader := FileHeader{
		Magic:   [4]byte{'G', 'O', 'D', 'B'},
		Version: 99,
	}
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, invalidHeader))

	_, err := ReadHeader(&buf)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported file version")
}

func TestFileHeader_ShortBuffer(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{1, 2, 3})

	_, err := ReadHeader(&buf)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read header")
}

func TestFileHeader_Endianness(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteHeader(&buf, 0))

	data := buf.Bytes()
	assert.Equal(t, []byte("GODB"), data[:4])
	assert.Equal(t, byte(FormatVersion), data[4])
	assert.Equal(t, byte(0), data[5])
	assert.Equal(t, []byte{0, 0}, data[6:8])
}

func TestEncodeDecode(t *testing.T) {
	tests := []struct {
		name       string
		doc        domain.Document
		compressed bool
	}{
		{"tiny document stays raw", domain.Document{"a": 1.0}, false},
		{"repetitive document compresses", domain.Document{"text": strings.Repeat("winter is coming ", 50)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := encodeBytes(tt.doc)
			require.NoError(t, err)
			assert.Equal(t, !tt.compressed, data[5]&FlagUncompressed != 0)

			var out domain.Document
			require.NoError(t, decodeBytes(data, &out))
			assert.Equal(t, tt.doc, out)
		})
	}
}

func TestDecodeCorrupt(t *testing.T) {
	data, err := encodeBytes(domain.Document{"text": strings.Repeat("x", 200)})
	require.NoError(t, err)

	var out domain.Document
	assert.Error(t, decodeBytes(data[:len(data)-4], &out))
	assert.Error(t, decodeBytes([]byte("GODB"), &out))
}

func TestConstants(t *testing.T) {
	assert.Equal(t, "GODB", MagicBytes)
	assert.EqualValues(t, uint8(1), FormatVersion)
	assert.Equal(t, ".godb", FileExtension)
}
