package compress

// ZstdCompressor provides Zstandard compression for node payloads.
//
// Zstd gives the best ratio of the built-in codecs and is the default for
// new lists: the packed segment format is already dense, and zstd still
// typically halves it for payloads with repetitive element data.
//
// Performance characteristics:
//   - Compression: ~5-20 ns/byte (depending on compression level)
//   - Decompression: ~2-5 ns/byte
//   - Memory usage: low in steady state (encoder/decoder instances pooled)
type ZstdCompressor struct{}

var _ Codec = (*ZstdCompressor)(nil)

// NewZstdCompressor creates a new Zstd compressor with default settings.
//
// Returns:
//   - ZstdCompressor: New Zstd compressor instance
//
// Example:
//
//	compressor := NewZstdCompressor()
//	compressed, err := compressor.Compress(payload)
//	if err != nil {
//		return err
//	}
func NewZstdCompressor() ZstdCompressor {
	return ZstdCompressor{}
}
