// Package segment implements the packed segment: a compact, contiguous
// encoding of an ordered sequence of small elements in a single byte buffer.
//
// A packed segment is the payload format of every list node. Instead of one
// allocation and two pointers per element, elements are encoded back to back
// inside one buffer, so per-element overhead is a few header bytes rather
// than a pointer pair.
//
// # Layout
//
// The buffer starts with a 6-byte header followed by the entries:
//
//	[total u32][count u16][entry][entry]...[entry]
//
// total is the byte length of the whole buffer including the header; count
// is the number of entries. Both are little-endian.
//
// Each entry is encoded as:
//
//	[tag][payload][backlen]
//
// The tag selects the element representation:
//
//	0b10xxxxxx  byte string, length 0..63 in the low six tag bits
//	0xF0        byte string, 32-bit length follows the tag
//	0xE1        int8
//	0xE2        int16, little-endian
//	0xE4        int32, little-endian
//	0xE8        int64, little-endian
//
// backlen is a 1..5 byte variable-length encoding of the tag+payload size,
// readable backwards from its last byte, which makes reverse traversal
// possible without any out-of-band index.
//
// Elements pushed as byte strings whose content is the canonical decimal
// form of an int64 are stored in integer form and reported as integers on
// retrieval; Compare treats the two representations as equal.
//
// # Limits
//
// A segment holds at most 65535 entries and its buffer is capped at 4GiB-1
// so that total fits the 32-bit header field. Practical segments stay far
// below both limits because the owning list bounds them by its fill policy.
package segment
