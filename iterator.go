package packlist

import (
	"github.com/arloliu/packlist/segment"
)

// Direction selects which way an iterator walks the chain.
type Direction int

const (
	FromHead Direction = iota
	FromTail
)

// Entry is a resolved view of one element: its decoded value plus enough
// position information for targeted mutation (InsertBefore, InsertAfter,
// DelEntry). Entries are transient; any structural mutation of the list
// other than through the same iterator's DelEntry invalidates them.
type Entry struct {
	list *List
	node *node

	// Value holds byte-string elements; nil for integers.
	Value []byte
	// Int holds the value of integer elements, valid when IsInt is set.
	Int   int64
	IsInt bool

	// offset is the element rank inside the node; negative ranks count from
	// the node's tail, mirroring the iterator convention.
	offset int
	// pos is the byte offset of the entry inside the node's segment.
	pos int
}

// Compare reports whether the entry equals the literal, independent of the
// element's internal integer/string encoding.
func (e *Entry) Compare(literal []byte) bool {
	v := segment.Value{Data: e.Value, Int: e.Int, IsInt: e.IsInt}

	return v.Equal(literal)
}

// String returns the element in its canonical string form.
func (e *Entry) String() string {
	v := segment.Value{Data: e.Value, Int: e.Int, IsInt: e.IsInt}

	return v.String()
}

// Bytes returns the element as a byte string, formatting integers in their
// canonical decimal form. The result aliases the node payload for
// byte-string elements.
func (e *Entry) Bytes() []byte {
	v := segment.Value{Data: e.Value, Int: e.Int, IsInt: e.IsInt}

	return v.Bytes()
}

// rank returns the entry's non-negative element rank inside its node.
func (e *Entry) rank() int {
	if e.offset < 0 {
		return e.offset + int(e.node.count)
	}

	return e.offset
}

// Iterator is a read cursor over a list, forward or backward. It transiently
// decompresses the node it is visiting and seals it again when moving on, so
// an iterator must be released (or run to exhaustion) to leave the chain in
// its steady compression state.
type Iterator struct {
	list    *List
	current *node

	// offset is the element rank the cursor is at inside current; negative
	// values count from the node's tail (-1 is the last element), which is
	// how backward iteration stays stable across deletes.
	offset int
	// pos is the byte offset of the current entry, or -1 when the cursor
	// needs to re-seek (fresh node, or after a delete).
	pos int

	direction Direction
}

// Iterator creates a cursor at the head (FromHead) or tail (FromTail) of the
// list. Structural mutation of the list outside the iterator's own DelEntry
// invalidates the iterator.
func (l *List) Iterator(direction Direction) *Iterator {
	it := &Iterator{
		list:      l,
		direction: direction,
		pos:       -1,
	}
	if direction == FromHead {
		it.current = l.head
		it.offset = 0
	} else {
		it.current = l.tail
		it.offset = -1
	}

	return it
}

// IteratorAtIdx creates a cursor positioned at the given logical index
// (negative counts from the tail), walking in the given direction from
// there. Returns nil when the index is out of range.
func (l *List) IteratorAtIdx(direction Direction, idx int) *Iterator {
	var entry Entry
	if !l.Index(idx, &entry) {
		return nil
	}

	it := &Iterator{
		list:      l,
		direction: direction,
		current:   entry.node,
		pos:       -1,
		offset:    entry.offset,
	}

	// Backward cursors carry tail-relative offsets so a DelEntry during the
	// walk cannot shift the resume position.
	if direction == FromTail && it.offset >= 0 {
		it.offset -= int(entry.node.count)
	} else if direction == FromHead && it.offset < 0 {
		it.offset += int(entry.node.count)
	}

	return it
}

// Rewind repositions an existing iterator at the head, walking forward.
func (it *Iterator) Rewind() {
	it.seal()
	it.direction = FromHead
	it.current = it.list.head
	it.offset = 0
	it.pos = -1
}

// RewindTail repositions an existing iterator at the tail, walking backward.
func (it *Iterator) RewindTail() {
	it.seal()
	it.direction = FromTail
	it.current = it.list.tail
	it.offset = -1
	it.pos = -1
}

// Release recompresses any node the iterator left transiently decompressed
// and detaches the iterator from the list. Safe to call multiple times.
func (it *Iterator) Release() {
	it.seal()
	it.current = nil
	it.list = nil
}

// seal restores the compression state of the node the cursor sits on.
func (it *Iterator) seal() {
	if it.list != nil && it.current != nil {
		it.list.compressOrRestore(it.current)
	}
}

// Next advances the cursor and fills entry with the next element, returning
// false once the list is exhausted in the iteration direction. Moving past
// the end of a node recompresses it (if it lies outside the protected
// zones) and steps to the adjacent node, decompressing it on demand.
func (it *Iterator) Next(entry *Entry) bool {
	*entry = Entry{}
	if it == nil || it.list == nil {
		return false
	}
	entry.list = it.list
	entry.node = it.current

	if it.current == nil {
		return false
	}

	if it.pos == -1 {
		// Initial position in this node: resolve the stored rank.
		it.list.decompressForUse(it.current)
		rank := it.offset
		if rank < 0 {
			rank += int(it.current.count)
		}
		it.pos = it.current.seg.Seek(rank)
	} else {
		if it.direction == FromHead {
			it.pos = it.current.seg.Next(it.pos)
			it.offset++
		} else {
			it.pos = it.current.seg.Prev(it.pos)
			it.offset--
		}
	}

	entry.pos = it.pos
	entry.offset = it.offset

	if it.pos != -1 {
		val := it.current.seg.Get(it.pos)
		entry.Value = val.Data
		entry.Int = val.Int
		entry.IsInt = val.IsInt

		return true
	}

	// This node is exhausted: seal it and step to the adjacent one.
	it.list.compressOrRestore(it.current)
	if it.direction == FromHead {
		it.current = it.current.next
		it.offset = 0
	} else {
		it.current = it.current.prev
		it.offset = -1
	}
	it.pos = -1

	return it.Next(entry)
}

// DelEntry removes the entry's element through the iterator, repositioning
// the cursor so the following Next neither skips nor repeats an element.
// The entry must be the one most recently produced by this iterator.
func (it *Iterator) DelEntry(entry *Entry) {
	n := entry.node
	prev := n.prev
	next := n.next

	deletedNode := it.list.deleteEntryAt(n, entry.pos)

	// The byte position is invalid after the splice; the next call re-seeks
	// using the rank, which is stable: positive ranks are unaffected by
	// deleting at that rank, negative ranks track the shrunken tail.
	it.pos = -1

	if deletedNode {
		if it.direction == FromHead {
			it.current = next
			it.offset = 0
		} else {
			it.current = prev
			it.offset = -1
		}
	}
}

// Index resolves a zero-based logical position (negative counts from the
// tail: -1 is the last element) to an Entry, walking node by node from
// whichever end is closer. Returns false when idx is outside
// [-Count, Count-1], leaving the list unmodified.
func (l *List) Index(idx int, entry *Entry) bool {
	*entry = Entry{list: l}

	rank := idx
	if rank < 0 {
		rank += l.count
	}
	if rank < 0 || rank >= l.count {
		return false
	}

	var n *node
	var nodeRank int
	if rank < l.count/2 || l.count <= 1 {
		// Head walk.
		accum := 0
		for n = l.head; n != nil; n = n.next {
			if accum+int(n.count) > rank {
				break
			}
			accum += int(n.count)
		}
		nodeRank = rank - accum
	} else {
		// Tail walk; track the rank of the first element after n.
		after := l.count
		for n = l.tail; n != nil; n = n.prev {
			after -= int(n.count)
			if after <= rank {
				break
			}
		}
		nodeRank = rank - after
	}

	if n == nil {
		return false
	}

	l.decompressForUse(n)

	pos := n.seg.Seek(nodeRank)
	val := n.seg.Get(pos)

	entry.node = n
	entry.pos = pos
	entry.offset = nodeRank
	entry.Value = val.Data
	entry.Int = val.Int
	entry.IsInt = val.IsInt

	// Single accesses are sealed immediately; the decoded Value keeps the
	// raw buffer alive even after the node is recompressed. Callers that
	// mutate through the entry reopen the node themselves.
	l.compressOrRestore(n)

	return true
}
