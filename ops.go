package packlist

import (
	"github.com/arloliu/packlist/segment"
)

// InsertBefore places a new element immediately before the entry's position.
func (l *List) InsertBefore(entry *Entry, data []byte) {
	l.insert(entry, data, false)
}

// InsertAfter places a new element immediately after the entry's position.
func (l *List) InsertAfter(entry *Entry, data []byte) {
	l.insert(entry, data, true)
}

// insert is the split-capable insertion path shared by InsertBefore,
// InsertAfter and ReplaceAtIndex. When the target node would exceed the fill
// policy it spills into a neighbor with room, allocates a fresh node, or
// splits the target at the insertion point, and finally runs the merge pass
// to reclaim fragmentation the split may have left behind.
func (l *List) insert(entry *Entry, data []byte, after bool) {
	if entry.node == nil {
		// No reference position; the list is empty.
		n := newRawNode(segmentWith(data))
		l.insertNode(nil, n, after)
		l.count++

		return
	}

	n := entry.node
	rank := entry.rank()
	full := !l.allowInsert(n, data)

	atTail := after && rank == int(n.count)-1
	atHead := !after && rank == 0
	fullNext := atTail && !l.allowInsert(n.next, data)
	fullPrev := atHead && !l.allowInsert(n.prev, data)

	switch {
	case !full && after:
		l.decompressForUse(n)
		next := n.seg.Next(entry.pos)
		if next == -1 {
			mustOK(n.seg.Append(data))
		} else {
			mustOK(n.seg.Insert(next, data))
		}
		n.update()
		l.recompressOnly(n)

	case !full && !after:
		l.decompressForUse(n)
		mustOK(n.seg.Insert(entry.pos, data))
		n.update()
		l.recompressOnly(n)

	case atTail && n.next != nil && !fullNext:
		// Target full but the next node has room: new tail-side element
		// becomes the head of the next node.
		nn := n.next
		l.decompressForUse(nn)
		mustOK(nn.seg.Prepend(data))
		nn.update()
		l.recompressOnly(nn)

	case atHead && n.prev != nil && !fullPrev:
		pn := n.prev
		l.decompressForUse(pn)
		mustOK(pn.seg.Append(data))
		pn.update()
		l.recompressOnly(pn)

	case (atTail && n.next != nil && fullNext) || (atHead && n.prev != nil && fullPrev):
		// Both the target and its neighbor are full: a fresh node between
		// them takes the single element.
		fresh := newRawNode(segmentWith(data))
		l.insertNode(n, fresh, after)

	default:
		// Interior insert into a full node: split at the insertion point.
		l.decompressForUse(n)
		fresh := l.splitNode(n, rank, after)
		if after {
			mustOK(fresh.seg.Prepend(data))
		} else {
			mustOK(fresh.seg.Append(data))
		}
		fresh.update()
		l.insertNode(n, fresh, after)
		l.mergePass(n)
	}

	l.count++
}

// ReplaceAtIndex swaps the element at the logical index for a new value.
// The replacement happens in place when the node still satisfies the fill
// policy with the new element; otherwise it goes through delete + reinsert,
// which may split the node. Returns false when idx is out of range, leaving
// the list unmodified.
func (l *List) ReplaceAtIndex(idx int, data []byte) bool {
	var entry Entry
	if !l.Index(idx, &entry) {
		return false
	}

	n := entry.node
	l.decompressForUse(n)

	newSz := int(n.sz) - n.seg.EntrySize(entry.pos) + segment.EncodedSize(data)
	fits := false
	if l.fill < 0 {
		fits = newSz <= fillSizeLimits[-l.fill-1]
	} else {
		fits = newSz <= sizeSafetyLimit
	}

	if fits {
		mustOK(n.seg.Replace(entry.pos, data))
		n.update()
		l.compressOrRestore(n)

		return true
	}

	// The new element pushes the node over its byte budget: remove the old
	// element first, then reinsert at the same logical position.
	rank := idx
	if rank < 0 {
		rank += l.count
	}

	// The reinsertion may resolve into a different node; seal this one now
	// so it does not stay open past the operation.
	if !l.deleteEntryAt(n, entry.pos) {
		l.compressOrRestore(n)
	}

	if rank >= l.count {
		l.PushTail(data)
	} else {
		var at Entry
		l.Index(rank, &at)
		l.insert(&at, data, false)
	}

	return true
}

// DelRange removes the half-open span [start, stop) of logical positions,
// clamped to the list bounds; negative positions count from the tail.
// Nodes fully covered by the span are dropped whole, boundary nodes are
// truncated, and the merge pass then reclaims any undersized leftovers.
// Returns the number of elements removed.
func (l *List) DelRange(start, stop int) int {
	if l.count == 0 {
		return 0
	}

	from := start
	if from < 0 {
		from += l.count
	}
	if from < 0 {
		from = 0
	}
	to := stop
	if to < 0 {
		to += l.count
	}
	if to > l.count {
		to = l.count
	}
	if from >= to {
		return 0
	}

	extent := to - from

	var entry Entry
	if !l.Index(from, &entry) {
		return 0
	}

	n := entry.node
	before := n.prev
	offset := entry.rank()

	deleted := 0
	var survivor *node
	for extent > 0 && n != nil {
		next := n.next

		if offset == 0 && extent >= int(n.count) {
			// Node fully covered by the span.
			del := int(n.count)
			l.delNode(n)
			deleted += del
			extent -= del
		} else {
			del := int(n.count) - offset
			if del > extent {
				del = extent
			}

			l.decompressForUse(n)
			n.seg.DeleteRange(offset, del)
			n.update()
			l.count -= del
			deleted += del
			extent -= del

			if n.count == 0 {
				l.delNode(n)
			} else {
				if survivor == nil {
					survivor = n
				}
				l.compressOrRestore(n)
			}
		}

		offset = 0
		n = next
	}

	if survivor == nil {
		if before != nil {
			survivor = before
		} else if n != nil {
			survivor = n
		}
	}
	if survivor != nil {
		l.mergePass(survivor)
	}

	return deleted
}

// Rotate moves the last element to the front, treating the list as circular
// by one step. On a single-node list this is an in-place move within one
// segment; a list with fewer than two elements is left unchanged.
func (l *List) Rotate() {
	if l.count <= 1 {
		return
	}

	tail := l.tail
	l.decompressForUse(tail)

	pos := tail.seg.Last()
	value := append([]byte(nil), tail.seg.Get(pos).Bytes()...)

	l.PushHead(value)

	// On a single-node list the push went into the same segment, shifting
	// the tail entry's position; re-resolve it before deleting.
	tail = l.tail
	l.decompressForUse(tail)
	pos = tail.seg.Last()
	l.deleteEntryAt(tail, pos)
}
