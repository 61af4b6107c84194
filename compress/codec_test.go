package compress

import (
	"bytes"
	"testing"

	"github.com/arloliu/packlist/format"
	"github.com/stretchr/testify/require"
)

// repetitivePayload builds a payload that every real codec can shrink.
func repetitivePayload(n int) []byte {
	data := make([]byte, 0, n)
	for len(data) < n {
		data = append(data, "hello quick list node payload "...)
	}

	return data[:n]
}

func TestCodec_RoundTrip(t *testing.T) {
	codecs := map[string]Codec{
		"zstd": NewZstdCompressor(),
		"s2":   NewS2Compressor(),
		"lz4":  NewLZ4Compressor(),
		"noop": NewNoOpCompressor(),
	}

	payloads := map[string][]byte{
		"repetitive": repetitivePayload(4096),
		"small":      []byte("tiny"),
		"binary":     {0x00, 0xFF, 0x10, 0x20, 0x30, 0x00, 0xFF, 0x10},
	}

	for name, codec := range codecs {
		t.Run(name, func(t *testing.T) {
			for pname, payload := range payloads {
				t.Run(pname, func(t *testing.T) {
					compressed, err := codec.Compress(payload)
					require.NoError(t, err)

					restored, err := codec.Decompress(compressed)
					require.NoError(t, err)
					require.True(t, bytes.Equal(payload, restored),
						"round-trip mismatch for %s/%s", name, pname)
				})
			}
		})
	}
}

func TestCodec_CompressesRepetitiveData(t *testing.T) {
	payload := repetitivePayload(8192)

	for name, codec := range map[string]Codec{
		"zstd": NewZstdCompressor(),
		"s2":   NewS2Compressor(),
		"lz4":  NewLZ4Compressor(),
	} {
		t.Run(name, func(t *testing.T) {
			compressed, err := codec.Compress(payload)
			require.NoError(t, err)
			require.Less(t, len(compressed), len(payload))
		})
	}
}

func TestCodec_EmptyInput(t *testing.T) {
	for name, codec := range map[string]Codec{
		"zstd": NewZstdCompressor(),
		"s2":   NewS2Compressor(),
		"lz4":  NewLZ4Compressor(),
	} {
		t.Run(name, func(t *testing.T) {
			restored, err := codec.Decompress(nil)
			require.NoError(t, err)
			require.Empty(t, restored)
		})
	}
}

func TestZstd_RejectsCorruptInput(t *testing.T) {
	codec := NewZstdCompressor()

	_, err := codec.Decompress([]byte("definitely not a zstd frame"))
	require.Error(t, err)
}

func TestNoOp_SharesInput(t *testing.T) {
	codec := NewNoOpCompressor()
	payload := []byte("pass through")

	compressed, err := codec.Compress(payload)
	require.NoError(t, err)
	require.Equal(t, payload, compressed)

	restored, err := codec.Decompress(compressed)
	require.NoError(t, err)
	require.Equal(t, payload, restored)
}

func TestCreateCodec(t *testing.T) {
	tests := []struct {
		name    string
		cType   format.CompressionType
		wantErr bool
	}{
		{"none", format.CompressionNone, false},
		{"zstd", format.CompressionZstd, false},
		{"s2", format.CompressionS2, false},
		{"lz4", format.CompressionLZ4, false},
		{"invalid", format.CompressionType(0xFF), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			codec, err := CreateCodec(tt.cType, "node")
			if tt.wantErr {
				require.Error(t, err)
				require.Nil(t, codec)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, codec)
		})
	}
}

func TestGetCodec(t *testing.T) {
	codec, err := GetCodec(format.CompressionZstd)
	require.NoError(t, err)
	require.NotNil(t, codec)

	_, err = GetCodec(format.CompressionType(0x99))
	require.Error(t, err)
}

func BenchmarkCodec_Compress(b *testing.B) {
	payload := repetitivePayload(8192)

	for name, codec := range map[string]Codec{
		"zstd": NewZstdCompressor(),
		"s2":   NewS2Compressor(),
		"lz4":  NewLZ4Compressor(),
	} {
		b.Run(name, func(b *testing.B) {
			b.SetBytes(int64(len(payload)))
			for i := 0; i < b.N; i++ {
				_, err := codec.Compress(payload)
				if err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
