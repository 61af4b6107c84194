package compress

// NoOpCompressor provides a no-operation codec that bypasses data without
// compression.
//
// A list configured with this codec keeps every node payload raw regardless
// of compression depth, which is useful for:
//   - Benchmarking the list without compression overhead
//   - Workloads whose element data is already compressed or encrypted
//   - Debugging node split/merge behavior with directly inspectable payloads
type NoOpCompressor struct{}

var _ Codec = (*NoOpCompressor)(nil)

// NewNoOpCompressor creates a new no-operation compressor that bypasses data.
func NewNoOpCompressor() NoOpCompressor {
	return NoOpCompressor{}
}

// Compress bypasses compression and returns the input data directly without copying.
//
// Note: The returned slice shares the same underlying memory as the input.
// Callers should not modify the input data after calling this method if they
// plan to use the returned slice.
func (c NoOpCompressor) Compress(data []byte) ([]byte, error) {
	return data, nil
}

// Decompress bypasses decompression and returns the input data directly without copying.
//
// Note: The returned slice shares the same underlying memory as the input.
func (c NoOpCompressor) Decompress(data []byte) ([]byte, error) {
	return data, nil
}
