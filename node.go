package packlist

import (
	"github.com/arloliu/packlist/format"
	"github.com/arloliu/packlist/segment"
)

// mergeSizeThreshold marks a node as undersized for the post-delete merge
// pass. Only pairs with at least one undersized member are considered, and
// the merge still has to satisfy the fill policy, so this is a conservative
// fragmentation-reclaim knob rather than a packing target.
const mergeSizeThreshold = 1024

// node is one link in the chain. Its payload is either a raw packed segment
// (seg) or the codec-compressed form of one (zdata); exactly one of the two
// is non-nil, and encoding always matches which one it is.
type node struct {
	prev *node
	next *node

	seg    *segment.Segment
	zdata  []byte
	rawSum uint64 // xxHash64 of the raw payload, valid while compressed

	sz    uint32 // raw payload bytes, regardless of current encoding
	count uint16

	encoding  format.EncodingType
	container format.ContainerType

	// recompress is set while the node is transiently decompressed for
	// access and must be compressed again before it goes back to rest.
	recompress bool

	// triedCompress is set when compression was attempted and declined
	// (payload too small or not compressible); cleared on payload change.
	triedCompress bool
}

func newRawNode(seg *segment.Segment) *node {
	return &node{
		seg:       seg,
		sz:        uint32(seg.TotalBytes()),
		count:     uint16(seg.Count()),
		encoding:  format.EncodingRaw,
		container: format.ContainerPacked,
	}
}

// update refreshes the cached size and count after a segment mutation. The
// payload changed, so a previously declined compression attempt is worth
// retrying.
func (n *node) update() {
	n.sz = uint32(n.seg.TotalBytes())
	n.count = uint16(n.seg.Count())
	n.triedCompress = false
}

// clone deep-copies the node payload in its current encoding, without links.
func (n *node) clone() *node {
	c := &node{
		rawSum:        n.rawSum,
		sz:            n.sz,
		count:         n.count,
		encoding:      n.encoding,
		container:     n.container,
		triedCompress: n.triedCompress,
	}
	if n.encoding == format.EncodingCompressed {
		c.zdata = append([]byte(nil), n.zdata...)
	} else {
		c.seg = n.seg.Clone()
	}

	return c
}

// allowInsert reports whether one more element of the given size still fits
// n under the fill policy. A nil node never fits.
func (l *List) allowInsert(n *node, data []byte) bool {
	if n == nil || int(n.count) >= segment.MaxCount {
		return false
	}

	newSz := int(n.sz) + segment.EncodedSize(data)
	if l.fill < 0 {
		return newSz <= fillSizeLimits[-l.fill-1]
	}
	if newSz > sizeSafetyLimit {
		return false
	}

	return int(n.count) < l.fill
}

// allowMerge reports whether a and b may be merged into one node: at least
// one of them undersized, and the combined payload still satisfying the fill
// policy. The combined size drops one segment header.
func (l *List) allowMerge(a, b *node) bool {
	if a == nil || b == nil {
		return false
	}
	if a.sz >= mergeSizeThreshold && b.sz >= mergeSizeThreshold {
		return false
	}
	if int(a.count)+int(b.count) > segment.MaxCount {
		return false
	}

	mergedSz := int(a.sz) + int(b.sz) - segment.HeaderSize
	if l.fill < 0 {
		return mergedSz <= fillSizeLimits[-l.fill-1]
	}
	if mergedSz > sizeSafetyLimit {
		return false
	}

	return int(a.count)+int(b.count) <= l.fill
}

// insertNode links newNode into the chain adjacent to old (after it when
// after is true), then lets the compression policy settle the boundary.
func (l *List) insertNode(old, newNode *node, after bool) {
	l.insertNodeRaw(old, newNode, after)
	if old != nil {
		l.compressOrRestore(old)
	}
	l.listCompress(newNode)
}

// insertNodeRaw performs only the link rewiring and node accounting.
func (l *List) insertNodeRaw(old, newNode *node, after bool) {
	if after {
		newNode.prev = old
		if old != nil {
			newNode.next = old.next
			if old.next != nil {
				old.next.prev = newNode
			}
			old.next = newNode
		}
		if l.tail == old {
			l.tail = newNode
		}
	} else {
		newNode.next = old
		if old != nil {
			newNode.prev = old.prev
			if old.prev != nil {
				old.prev.next = newNode
			}
			old.prev = newNode
		}
		if l.head == old {
			l.head = newNode
		}
	}

	if l.nodes == 0 {
		l.head = newNode
		l.tail = newNode
	}
	l.nodes++
}

// delNode unlinks and discards a node. Counters are updated before the
// compression pass so the zone walk sees the final chain length.
func (l *List) delNode(n *node) {
	if n.next != nil {
		n.next.prev = n.prev
	}
	if n.prev != nil {
		n.prev.next = n.next
	}
	if n == l.tail {
		l.tail = n.prev
	}
	if n == l.head {
		l.head = n.next
	}

	l.nodes--
	l.count -= int(n.count)

	// A node inside the protected zones may have disappeared; re-settle.
	l.listCompress(nil)

	n.prev = nil
	n.next = nil
	n.seg = nil
	n.zdata = nil
}

// deleteEntryAt removes the entry at byte offset pos from n, which must be
// raw. Returns true when that emptied the node and removed it from the
// chain.
func (l *List) deleteEntryAt(n *node, pos int) bool {
	n.seg.Delete(pos)
	n.count--
	l.count--
	if n.count == 0 {
		l.delNode(n)

		return true
	}
	n.update()

	return false
}

// splitNode splits a raw node at element rank offset, returning the newly
// detached half. With after, n keeps ranks [0, offset] and the new node
// holds [offset+1, count); otherwise n keeps [offset, count) and the new
// node holds [0, offset). Either half may be empty, which the caller fills
// with the element being inserted.
func (l *List) splitNode(n *node, offset int, after bool) *node {
	if after {
		right := n.seg.SplitAt(offset + 1)
		n.update()

		return newRawNode(right)
	}

	right := n.seg.SplitAt(offset)
	left := n.seg
	n.seg = right
	n.update()

	return newRawNode(left)
}

// mergeNodes merges a into its successor b (chain order a, b), keeping the
// node that already holds more elements so fewer bytes move. The surviving
// node takes over the lower-index position in the chain. Returns the
// survivor, or nil when the segments cannot be combined.
func (l *List) mergeNodes(a, b *node) *node {
	l.decompressNode(a)
	l.decompressNode(b)

	var keep, drop *node
	if a.count >= b.count {
		if a.seg.Merge(b.seg) != nil {
			return nil
		}
		keep, drop = a, b
	} else {
		if b.seg.MergeLeft(a.seg) != nil {
			return nil
		}
		keep, drop = b, a
	}

	keep.update()
	drop.count = 0
	l.delNode(drop)
	l.compressOrRestore(keep)

	return keep
}

// mergePass reclaims fragmentation around center after a split or delete:
// try (prev.prev, prev), (next, next.next), (prev, center), then the result
// against its next neighbor.
func (l *List) mergePass(center *node) {
	var prev, prevPrev, next, nextNext *node
	if center.prev != nil {
		prev = center.prev
		prevPrev = prev.prev
	}
	if center.next != nil {
		next = center.next
		nextNext = next.next
	}

	if l.allowMerge(prevPrev, prev) {
		l.mergeNodes(prevPrev, prev)
	}
	if l.allowMerge(next, nextNext) {
		l.mergeNodes(next, nextNext)
	}

	target := center
	if l.allowMerge(center.prev, center) {
		if merged := l.mergeNodes(center.prev, center); merged != nil {
			target = merged
		}
	}
	if l.allowMerge(target, target.next) {
		l.mergeNodes(target, target.next)
	}
}
