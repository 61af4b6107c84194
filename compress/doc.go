// Package compress provides the compression codecs packlist applies to node
// payloads.
//
// A list compresses the packed segment of every node that sits outside its
// protected head/tail zones, trading CPU for memory on the nodes that are not
// near the active ends. The codecs here operate on whole payload buffers and
// are deliberately stateless from the caller's point of view: a node payload
// goes in, a newly allocated buffer comes out.
//
// # Architecture
//
// The package defines three core interfaces:
//
//	type Compressor interface {
//	    Compress(data []byte) ([]byte, error)
//	}
//
//	type Decompressor interface {
//	    Decompress(data []byte) ([]byte, error)
//	}
//
//	type Codec interface {
//	    Compressor
//	    Decompressor
//	}
//
// # Supported Algorithms
//
// **NoOp** (format.CompressionNone)
//
//	codec := compress.NewNoOpCompressor()
//
// Returns input unchanged in both directions. Use when the payload is
// incompressible or when CPU matters more than memory.
//
// **Zstandard** (format.CompressionZstd)
//
//	codec := compress.NewZstdCompressor()
//
// Best compression ratio of the three; encoder and decoder instances are
// pooled so steady-state compression allocates only the output buffer. This
// is the default codec for new lists.
//
// **S2** (format.CompressionS2)
//
//	codec := compress.NewS2Compressor()
//
// Snappy-compatible block format from klauspost/compress, balanced speed and
// ratio.
//
// **LZ4** (format.CompressionLZ4)
//
//	codec := compress.NewLZ4Compressor()
//
// Fastest decompression, which matters most for lists that are read through
// iterators more often than they are mutated. The LZ4 block format does not
// record the decompressed size, so Decompress sizes its buffer adaptively.
//
// # Choosing a codec
//
// Node payloads are small (at most 64KiB under the byte-size fill tiers), so
// throughput differences between algorithms are dominated by the per-call
// ratio: prefer Zstd for memory-bound workloads, LZ4 when iteration latency
// over compressed nodes matters.
package compress
