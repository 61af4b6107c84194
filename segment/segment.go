package segment

import (
	"bytes"
	"fmt"
	"math"
	"slices"
	"strconv"

	"github.com/arloliu/packlist/endian"
	"github.com/arloliu/packlist/errs"
)

const (
	// HeaderSize is the fixed prefix every segment starts with: total bytes
	// (u32) + entry count (u16). An empty segment is exactly this long.
	HeaderSize = 6

	// MaxCount is the maximum number of entries a single segment can hold.
	MaxCount = math.MaxUint16

	// maxBytes caps the backing buffer so the total field fits 32 bits.
	maxBytes = math.MaxUint32
)

// Entry tags. Small strings carry their length in the low six tag bits;
// every other representation uses a fixed tag byte.
const (
	tagSmallStr  = 0x80 // 0b10xxxxxx
	smallStrMask = 0xC0
	smallStrMax  = 0x3F

	tagLargeStr = 0xF0
	tagInt8     = 0xE1
	tagInt16    = 0xE2
	tagInt32    = 0xE4
	tagInt64    = 0xE8
)

var engine = endian.GetLittleEndianEngine()

// Segment is a packed, contiguous encoding of an ordered element sequence.
//
// All positional parameters named off are byte offsets of an entry start
// within the backing buffer, obtained from First, Last, Next, Prev or Seek.
// A Segment is not safe for concurrent use.
type Segment struct {
	buf []byte
}

// Value is one decoded element: either a byte string or an int64, depending
// on how the element was stored.
type Value struct {
	Data  []byte // valid when !IsInt; aliases the segment buffer
	Int   int64
	IsInt bool
}

// Bytes returns the element as a byte string, formatting integer elements
// in their canonical decimal form.
func (v Value) Bytes() []byte {
	if v.IsInt {
		return strconv.AppendInt(nil, v.Int, 10)
	}

	return v.Data
}

// Equal reports whether the element equals the literal. Integer elements
// compare numerically against the literal's canonical decimal form;
// byte-string elements compare byte for byte, so equality is independent of
// how the element happens to be encoded.
func (v Value) Equal(literal []byte) bool {
	if v.IsInt {
		lv, ok := asInt(literal)

		return ok && lv == v.Int
	}

	return bytes.Equal(v.Data, literal)
}

// String returns the element as a string.
func (v Value) String() string {
	if v.IsInt {
		return strconv.FormatInt(v.Int, 10)
	}

	return string(v.Data)
}

// New creates an empty segment.
func New() *Segment {
	buf := make([]byte, HeaderSize, 64)
	engine.PutUint32(buf[0:4], HeaderSize)
	engine.PutUint16(buf[4:6], 0)

	return &Segment{buf: buf}
}

// NewFromBytes adopts an externally built segment buffer.
//
// The buffer is copied and fully validated: the total field must match the
// buffer length, every entry must be well formed with a consistent backlen,
// and the walked entry count must match the count field. Returns
// errs.ErrCorruptSegment (wrapped with detail) on any violation.
func NewFromBytes(data []byte) (*Segment, error) {
	if len(data) < HeaderSize || len(data) > maxBytes {
		return nil, fmt.Errorf("%w: buffer length %d", errs.ErrCorruptSegment, len(data))
	}

	buf := make([]byte, len(data))
	copy(buf, data)

	s := &Segment{buf: buf}
	if total := engine.Uint32(buf[0:4]); int(total) != len(buf) {
		return nil, fmt.Errorf("%w: total field %d, buffer length %d", errs.ErrCorruptSegment, total, len(buf))
	}

	walked := 0
	for off := HeaderSize; off < len(buf); {
		size, err := s.checkEntry(off)
		if err != nil {
			return nil, err
		}
		off += size
		walked++
	}

	if walked != s.Count() {
		return nil, fmt.Errorf("%w: count field %d, walked %d entries", errs.ErrCorruptSegment, s.Count(), walked)
	}

	return s, nil
}

// Wrap adopts a segment buffer without copying or validating it. The caller
// guarantees the buffer was produced by Bytes() on a well-formed segment;
// the list core uses this to rehydrate payloads it compressed itself after
// verifying their checksum.
func Wrap(buf []byte) *Segment {
	return &Segment{buf: buf}
}

// EncodedSize returns the number of bytes one element would occupy inside a
// segment, used by the list's fill policy to size-check before inserting.
func EncodedSize(data []byte) int {
	return len(encodeEntry(data))
}

// Count returns the number of entries.
func (s *Segment) Count() int {
	return int(engine.Uint16(s.buf[4:6]))
}

// TotalBytes returns the byte length of the backing buffer, header included.
func (s *Segment) TotalBytes() int {
	return len(s.buf)
}

// Bytes returns the backing buffer. The caller must not modify it; it is
// only valid until the next mutation.
func (s *Segment) Bytes() []byte {
	return s.buf
}

// Clone returns an independent deep copy of the segment.
func (s *Segment) Clone() *Segment {
	buf := make([]byte, len(s.buf))
	copy(buf, s.buf)

	return &Segment{buf: buf}
}

// First returns the offset of the first entry, or -1 when empty.
func (s *Segment) First() int {
	if s.Count() == 0 {
		return -1
	}

	return HeaderSize
}

// Last returns the offset of the last entry, or -1 when empty.
func (s *Segment) Last() int {
	if s.Count() == 0 {
		return -1
	}

	return s.Prev(len(s.buf))
}

// Next returns the offset of the entry after off, or -1 past the end.
func (s *Segment) Next(off int) int {
	next := off + s.entrySize(off)
	if next >= len(s.buf) {
		return -1
	}

	return next
}

// Prev returns the offset of the entry before off, or -1 before the start.
// Passing len(Bytes()) yields the last entry.
func (s *Segment) Prev(off int) int {
	if off <= HeaderSize {
		return -1
	}

	bodyLen, n := decodeBacklen(s.buf, off)

	return off - bodyLen - n
}

// Seek resolves an entry rank in [0, Count) to its byte offset, walking from
// whichever end is closer. Returns -1 when the rank is out of range.
func (s *Segment) Seek(index int) int {
	count := s.Count()
	if index < 0 || index >= count {
		return -1
	}

	if index <= count/2 {
		off := s.First()
		for i := 0; i < index; i++ {
			off = s.Next(off)
		}

		return off
	}

	off := len(s.buf)
	for i := count; i > index; i-- {
		off = s.Prev(off)
	}

	return off
}

// Get decodes the entry at off.
func (s *Segment) Get(off int) Value {
	_, val := s.parseBody(off)

	return val
}

// Insert places a new element before the entry at off. Passing len(Bytes())
// appends. Byte strings holding a canonical decimal int64 are stored in
// integer form.
func (s *Segment) Insert(off int, data []byte) error {
	if s.Count() >= MaxCount {
		return errs.ErrSegmentFull
	}

	enc := encodeEntry(data)
	if len(s.buf)+len(enc) > maxBytes {
		return errs.ErrSegmentFull
	}

	s.buf = slices.Insert(s.buf, off, enc...)
	s.setCount(s.Count() + 1)
	s.setTotal()

	return nil
}

// Append adds an element after the last entry.
func (s *Segment) Append(data []byte) error {
	return s.Insert(len(s.buf), data)
}

// Prepend adds an element before the first entry.
func (s *Segment) Prepend(data []byte) error {
	return s.Insert(HeaderSize, data)
}

// Replace swaps the entry at off for a new element encoded from data.
func (s *Segment) Replace(off int, data []byte) error {
	enc := encodeEntry(data)
	size := s.entrySize(off)
	if len(s.buf)-size+len(enc) > maxBytes {
		return errs.ErrSegmentFull
	}

	s.buf = slices.Replace(s.buf, off, off+size, enc...)
	s.setTotal()

	return nil
}

// Delete removes the entry at off.
func (s *Segment) Delete(off int) {
	size := s.entrySize(off)
	s.buf = slices.Delete(s.buf, off, off+size)
	s.setCount(s.Count() - 1)
	s.setTotal()
}

// DeleteRange removes up to n entries starting at rank index and returns how
// many were removed.
func (s *Segment) DeleteRange(index, n int) int {
	count := s.Count()
	if index < 0 || index >= count || n <= 0 {
		return 0
	}
	if index+n > count {
		n = count - index
	}

	start := s.Seek(index)
	end := start
	for i := 0; i < n; i++ {
		end += s.entrySize(end)
	}

	s.buf = slices.Delete(s.buf, start, end)
	s.setCount(count - n)
	s.setTotal()

	return n
}

// Merge appends every entry of other to s. The other segment is unchanged.
func (s *Segment) Merge(other *Segment) error {
	if s.Count()+other.Count() > MaxCount {
		return errs.ErrSegmentFull
	}
	if len(s.buf)+len(other.buf)-HeaderSize > maxBytes {
		return errs.ErrSegmentFull
	}

	total := s.Count() + other.Count()
	s.buf = append(s.buf, other.buf[HeaderSize:]...)
	s.setCount(total)
	s.setTotal()

	return nil
}

// MergeLeft prepends every entry of other before the first entry of s. The
// other segment is unchanged.
func (s *Segment) MergeLeft(other *Segment) error {
	if s.Count()+other.Count() > MaxCount {
		return errs.ErrSegmentFull
	}
	if len(s.buf)+len(other.buf)-HeaderSize > maxBytes {
		return errs.ErrSegmentFull
	}

	total := s.Count() + other.Count()
	s.buf = slices.Insert(s.buf, HeaderSize, other.buf[HeaderSize:]...)
	s.setCount(total)
	s.setTotal()

	return nil
}

// SplitAt detaches the entries at rank index and above into a new segment,
// truncating s to the first index entries. index is clamped to [0, Count],
// so either side may come back empty.
func (s *Segment) SplitAt(index int) *Segment {
	count := s.Count()
	var off int
	switch {
	case index <= 0:
		index = 0
		off = HeaderSize
	case index >= count:
		index = count
		off = len(s.buf)
	default:
		off = s.Seek(index)
	}

	right := New()
	right.buf = append(right.buf, s.buf[off:]...)
	right.setCount(count - index)
	right.setTotal()

	s.buf = s.buf[:off]
	s.setCount(index)
	s.setTotal()

	return right
}

// Compare reports whether the entry at off equals the literal, with the
// semantics of Value.Equal.
func (s *Segment) Compare(off int, literal []byte) bool {
	return s.Get(off).Equal(literal)
}

func (s *Segment) setCount(n int) {
	engine.PutUint16(s.buf[4:6], uint16(n))
}

func (s *Segment) setTotal() {
	engine.PutUint32(s.buf[0:4], uint32(len(s.buf)))
}

// parseBody decodes the tag and payload at off, returning their combined
// byte length and the element value.
func (s *Segment) parseBody(off int) (int, Value) {
	tag := s.buf[off]
	switch {
	case tag&smallStrMask == tagSmallStr:
		n := int(tag & smallStrMax)

		return 1 + n, Value{Data: s.buf[off+1 : off+1+n]}
	case tag == tagLargeStr:
		n := int(engine.Uint32(s.buf[off+1 : off+5]))

		return 5 + n, Value{Data: s.buf[off+5 : off+5+n]}
	case tag == tagInt8:
		return 2, Value{Int: int64(int8(s.buf[off+1])), IsInt: true}
	case tag == tagInt16:
		return 3, Value{Int: int64(int16(engine.Uint16(s.buf[off+1 : off+3]))), IsInt: true}
	case tag == tagInt32:
		return 5, Value{Int: int64(int32(engine.Uint32(s.buf[off+1 : off+5]))), IsInt: true}
	case tag == tagInt64:
		return 9, Value{Int: int64(engine.Uint64(s.buf[off+1 : off+9])), IsInt: true}
	default:
		panic(fmt.Sprintf("segment: invalid entry tag 0x%02X at offset %d", tag, off))
	}
}

// EntrySize returns the full byte length of the entry at off, backlen
// included.
func (s *Segment) EntrySize(off int) int {
	return s.entrySize(off)
}

// entrySize returns the full byte length of the entry at off, backlen
// included.
func (s *Segment) entrySize(off int) int {
	bodyLen, _ := s.parseBody(off)

	return bodyLen + backlenSize(bodyLen)
}

// checkEntry validates the entry at off without trusting any of its fields,
// returning its full size.
func (s *Segment) checkEntry(off int) (int, error) {
	tag := s.buf[off]
	var bodyLen int
	switch {
	case tag&smallStrMask == tagSmallStr:
		bodyLen = 1 + int(tag&smallStrMax)
	case tag == tagLargeStr:
		if off+5 > len(s.buf) {
			return 0, fmt.Errorf("%w: truncated string header at offset %d", errs.ErrCorruptSegment, off)
		}
		bodyLen = 5 + int(engine.Uint32(s.buf[off+1:off+5]))
	case tag == tagInt8:
		bodyLen = 2
	case tag == tagInt16:
		bodyLen = 3
	case tag == tagInt32:
		bodyLen = 5
	case tag == tagInt64:
		bodyLen = 9
	default:
		return 0, fmt.Errorf("%w: invalid entry tag 0x%02X at offset %d", errs.ErrCorruptSegment, tag, off)
	}

	size := bodyLen + backlenSize(bodyLen)
	if off+size > len(s.buf) {
		return 0, fmt.Errorf("%w: entry at offset %d overruns buffer", errs.ErrCorruptSegment, off)
	}

	if decoded, n := decodeBacklen(s.buf, off+size); decoded != bodyLen || n != backlenSize(bodyLen) {
		return 0, fmt.Errorf("%w: backlen mismatch at offset %d", errs.ErrCorruptSegment, off)
	}

	return size, nil
}

// encodeEntry encodes one element as tag+payload+backlen.
func encodeEntry(data []byte) []byte {
	var body []byte
	if v, ok := asInt(data); ok {
		switch {
		case v >= math.MinInt8 && v <= math.MaxInt8:
			body = []byte{tagInt8, byte(v)}
		case v >= math.MinInt16 && v <= math.MaxInt16:
			body = engine.AppendUint16([]byte{tagInt16}, uint16(v))
		case v >= math.MinInt32 && v <= math.MaxInt32:
			body = engine.AppendUint32([]byte{tagInt32}, uint32(v))
		default:
			body = engine.AppendUint64([]byte{tagInt64}, uint64(v))
		}
	} else if len(data) <= smallStrMax {
		body = make([]byte, 0, 1+len(data)+1)
		body = append(body, tagSmallStr|byte(len(data)))
		body = append(body, data...)
	} else {
		body = make([]byte, 0, 5+len(data)+5)
		body = append(body, tagLargeStr)
		body = engine.AppendUint32(body, uint32(len(data)))
		body = append(body, data...)
	}

	return appendBacklen(body)
}

// asInt reports whether data is the canonical decimal form of an int64.
// Non-canonical forms ("+1", "007", " 5") stay byte strings so that the
// stored representation always round-trips to the original bytes.
func asInt(data []byte) (int64, bool) {
	if len(data) == 0 || len(data) > 20 {
		return 0, false
	}

	v, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return 0, false
	}
	if strconv.FormatInt(v, 10) != string(data) {
		return 0, false
	}

	return v, true
}

// appendBacklen appends the 1..5 byte reverse-readable length of body.
// The most significant 7-bit group comes first; every byte except the first
// carries a continuation bit, so decoding walks backwards from the last byte.
func appendBacklen(body []byte) []byte {
	l := uint64(len(body))
	switch {
	case l < 1<<7:
		return append(body, byte(l))
	case l < 1<<14:
		return append(body, byte(l>>7), byte(l&0x7F|0x80))
	case l < 1<<21:
		return append(body, byte(l>>14), byte(l>>7&0x7F|0x80), byte(l&0x7F|0x80))
	case l < 1<<28:
		return append(body, byte(l>>21), byte(l>>14&0x7F|0x80), byte(l>>7&0x7F|0x80), byte(l&0x7F|0x80))
	default:
		return append(body, byte(l>>28), byte(l>>21&0x7F|0x80), byte(l>>14&0x7F|0x80), byte(l>>7&0x7F|0x80), byte(l&0x7F|0x80))
	}
}

// backlenSize returns how many bytes appendBacklen uses for a body of l bytes.
func backlenSize(l int) int {
	switch {
	case l < 1<<7:
		return 1
	case l < 1<<14:
		return 2
	case l < 1<<21:
		return 3
	case l < 1<<28:
		return 4
	default:
		return 5
	}
}

// decodeBacklen reads the backlen whose last byte sits at end-1, returning
// the encoded body length and the number of backlen bytes consumed.
func decodeBacklen(buf []byte, end int) (int, int) {
	var val uint64
	var shift uint
	n := 0
	for i := end - 1; i >= 0; i-- {
		b := buf[i]
		val |= uint64(b&0x7F) << shift
		n++
		if b&0x80 == 0 {
			break
		}
		shift += 7
	}

	return int(val), n
}
