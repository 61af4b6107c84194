// Package packlist implements a doubly linked list of packed-segment nodes
// for large sequences of small elements.
//
// Instead of one heap allocation and two pointers per element, the list
// chains fixed-budget nodes, each holding many elements in one contiguous
// packed segment (see the segment package). Nodes away from the ends are
// additionally compressed with a pluggable codec (see the compress package),
// trading CPU for memory on the part of the list that is not being actively
// pushed or popped.
//
// # Basic Usage
//
//	lst, _ := packlist.New()
//	lst.PushTail([]byte("alpha"))
//	lst.PushTail([]byte("42"))
//
//	it := lst.Iterator(packlist.FromHead)
//	defer it.Release()
//
//	var entry packlist.Entry
//	for it.Next(&entry) {
//	    fmt.Println(entry.String())
//	}
//
// # Policies
//
// Two knobs shape the node chain. The fill factor bounds node capacity: a
// positive value caps the element count per node, a negative value (-1..-5)
// caps the payload byte size at 4/8/16/32/64 KiB. The compression depth is
// the number of nodes at each end that are never compressed; 0 disables
// compression entirely.
//
// # Concurrency
//
// A List and its iterators are not safe for concurrent use. Every operation
// runs to completion inline, including compression, and assumes exclusive
// access for its duration.
package packlist

import (
	"github.com/arloliu/packlist/compress"
	"github.com/arloliu/packlist/errs"
	"github.com/arloliu/packlist/internal/options"
	"github.com/arloliu/packlist/segment"
)

const (
	// DefaultFill is the default fill factor: payload capped at 8KiB per node.
	DefaultFill = -2

	// DefaultCompressDepth disables compression by default.
	DefaultCompressDepth = 0

	fillMin = -5
	fillMax = 1 << 15

	depthMax = 1<<16 - 1

	// sizeSafetyLimit caps node payload bytes when the fill factor bounds
	// element count rather than size.
	sizeSafetyLimit = 8192
)

// fillSizeLimits maps negative fill factors -1..-5 to payload byte caps.
var fillSizeLimits = [...]int{4096, 8192, 16384, 32768, 65536}

// Where selects one end of the list.
type Where int

const (
	Head Where = iota
	Tail
)

// List is a doubly linked chain of packed-segment nodes.
//
// The zero value is not usable; create lists with New.
type List struct {
	head  *node
	tail  *node
	count int // total elements across all nodes
	nodes int // nodes in the chain
	fill  int
	depth int
	codec compress.Codec
}

// Option configures a List at construction time.
type Option = options.Option[*List]

// WithFill sets the fill factor. Positive values cap the element count per
// node; -1..-5 cap the payload byte size at 4/8/16/32/64 KiB.
func WithFill(fill int) Option {
	return options.New(func(l *List) error {
		if fill < fillMin || fill > fillMax {
			return errs.ErrInvalidFill
		}
		l.fill = fill

		return nil
	})
}

// WithCompressDepth sets how many nodes at each end stay uncompressed;
// 0 disables compression.
func WithCompressDepth(depth int) Option {
	return options.New(func(l *List) error {
		if depth < 0 || depth > depthMax {
			return errs.ErrInvalidCompressDepth
		}
		l.depth = depth

		return nil
	})
}

// WithCodec sets the codec used to compress node payloads.
func WithCodec(codec compress.Codec) Option {
	return options.NoError(func(l *List) {
		l.codec = codec
	})
}

// New creates an empty list.
//
// Without options the list uses DefaultFill, DefaultCompressDepth and the
// Zstd codec.
func New(opts ...Option) (*List, error) {
	l := &List{
		fill:  DefaultFill,
		depth: DefaultCompressDepth,
		codec: compress.NewZstdCompressor(),
	}
	if err := options.Apply(l, opts...); err != nil {
		return nil, err
	}

	return l, nil
}

// NewFromSegment creates a list and fills it from an externally built packed
// segment, re-packing element by element so the fill policy holds on every
// resulting node.
func NewFromSegment(seg *segment.Segment, opts ...Option) (*List, error) {
	l, err := New(opts...)
	if err != nil {
		return nil, err
	}
	l.AppendValuesFromSegment(seg)

	return l, nil
}

// Count returns the total number of elements.
func (l *List) Count() int {
	return l.count
}

// Nodes returns the number of nodes in the chain.
func (l *List) Nodes() int {
	return l.nodes
}

// Fill returns the current fill factor.
func (l *List) Fill() int {
	return l.fill
}

// CompressDepth returns the current compression depth.
func (l *List) CompressDepth() int {
	return l.depth
}

// SetFill sets the fill factor, clamping out-of-range values to the nearest
// supported one. Existing nodes are not repacked; the policy applies to
// subsequent mutations.
func (l *List) SetFill(fill int) {
	if fill > fillMax {
		fill = fillMax
	} else if fill < fillMin {
		fill = fillMin
	}
	l.fill = fill
}

// SetCompressDepth sets the compression depth, clamping negative values to 0
// and oversized values to the maximum. The chain is immediately re-encoded
// to match: nodes entering the protected end zones are decompressed, interior
// nodes are compressed.
func (l *List) SetCompressDepth(depth int) {
	if depth < 0 {
		depth = 0
	} else if depth > depthMax {
		depth = depthMax
	}
	l.depth = depth
	l.applyDepth()
}

// SetOptions sets both policies at once.
func (l *List) SetOptions(fill, depth int) {
	l.SetFill(fill)
	l.SetCompressDepth(depth)
}

// PushHead inserts an element before the first element, allocating a new
// head node when the current head no longer satisfies the fill policy.
func (l *List) PushHead(data []byte) {
	if l.allowInsert(l.head, data) {
		mustOK(l.head.seg.Prepend(data))
		l.head.update()
	} else {
		n := newRawNode(segmentWith(data))
		l.insertNode(l.head, n, false)
	}
	l.count++
}

// PushTail appends an element after the last element, allocating a new tail
// node when the current tail no longer satisfies the fill policy.
func (l *List) PushTail(data []byte) {
	if l.allowInsert(l.tail, data) {
		mustOK(l.tail.seg.Append(data))
		l.tail.update()
	} else {
		n := newRawNode(segmentWith(data))
		l.insertNode(l.tail, n, true)
	}
	l.count++
}

// Push inserts an element at the given end.
func (l *List) Push(where Where, data []byte) {
	if where == Head {
		l.PushHead(data)
	} else {
		l.PushTail(data)
	}
}

// Pop removes and returns the element at the given end. Byte-string elements
// come back in data with intval zero; integer elements come back with data
// nil and the value in intval. ok is false on an empty list.
func (l *List) Pop(where Where) (data []byte, intval int64, ok bool) {
	if l.count == 0 {
		return nil, 0, false
	}

	idx := 0
	if where == Tail {
		idx = -1
	}

	var entry Entry
	if !l.Index(idx, &entry) {
		return nil, 0, false
	}

	if entry.IsInt {
		intval = entry.Int
	} else {
		data = append([]byte(nil), entry.Value...)
	}

	l.decompressForUse(entry.node)
	l.deleteEntryAt(entry.node, entry.pos)

	return data, intval, true
}

// AppendSegment adopts an externally built packed segment wholesale as a new
// tail node, without re-packing. The resulting node may exceed the fill
// policy; it is treated like any other full node afterwards.
func (l *List) AppendSegment(seg *segment.Segment) {
	n := newRawNode(seg)
	l.insertNode(l.tail, n, true)
	l.count += int(n.count)
}

// AppendValuesFromSegment appends every element of the segment one by one,
// so the content is re-packed under the list's fill policy. The source
// segment is not modified.
func (l *List) AppendValuesFromSegment(seg *segment.Segment) {
	for off := seg.First(); off != -1; off = seg.Next(off) {
		l.PushTail(seg.Get(off).Bytes())
	}
}

// Dup returns a deep, structurally independent copy with identical logical
// content. Compressed payloads are copied in their compressed form; nothing
// is shared with the original.
func (l *List) Dup() *List {
	copied := &List{
		fill:  l.fill,
		depth: l.depth,
		codec: l.codec,
	}

	for cur := l.head; cur != nil; cur = cur.next {
		n := cur.clone()
		copied.insertNodeRaw(copied.tail, n, true)
		copied.count += int(n.count)
	}

	return copied
}

// segmentWith creates a fresh one-element segment.
func segmentWith(data []byte) *segment.Segment {
	seg := segment.New()
	mustOK(seg.Append(data))

	return seg
}

// mustOK panics on segment capacity errors that the fill policy already
// rules out; reaching it means a bookkeeping bug, not a caller mistake.
func mustOK(err error) {
	if err != nil {
		panic(err)
	}
}
