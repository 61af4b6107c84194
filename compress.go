package packlist

import (
	"fmt"

	"github.com/cespare/xxhash/v2"

	"github.com/arloliu/packlist/format"
	"github.com/arloliu/packlist/segment"
)

const (
	// minCompressBytes is the smallest payload worth handing to the codec;
	// below it the codec framing alone eats any savings.
	minCompressBytes = 48

	// minCompressImprove is how many bytes compression must save for the
	// compressed form to replace the raw one.
	minCompressImprove = 8
)

// compressNode tries to swap a raw payload for its compressed form. Declines
// (too small, not compressible, already tried on this payload) are recorded
// in triedCompress so an unchanged payload is not retried. The transient
// recompress mark is cleared on every outcome: the node is at rest once
// compression has either happened or been declined. Returns true when the
// node ends up compressed.
func (l *List) compressNode(n *node) bool {
	if n == nil || n.encoding != format.EncodingRaw {
		return false
	}
	n.recompress = false
	if n.triedCompress {
		return false
	}
	if int(n.sz) < minCompressBytes {
		n.triedCompress = true

		return false
	}

	raw := n.seg.Bytes()
	zdata, err := l.codec.Compress(raw)
	if err != nil || len(zdata)+minCompressImprove >= len(raw) {
		n.triedCompress = true

		return false
	}

	n.rawSum = xxhash.Sum64(raw)
	n.zdata = zdata
	n.seg = nil
	n.encoding = format.EncodingCompressed

	return true
}

// decompressNode restores a compressed payload to raw form and clears the
// transient recompress mark. The restored bytes are verified against the
// checksum taken at compression time; a mismatch means the payload was
// corrupted in memory and there is nothing sane left to return.
func (l *List) decompressNode(n *node) bool {
	if n == nil || n.encoding != format.EncodingCompressed {
		return false
	}

	raw, err := l.codec.Decompress(n.zdata)
	if err != nil {
		panic(fmt.Sprintf("packlist: node payload decompression failed: %v", err))
	}
	if len(raw) != int(n.sz) || xxhash.Sum64(raw) != n.rawSum {
		panic("packlist: node payload corrupted: checksum mismatch after decompression")
	}

	n.seg = segment.Wrap(raw)
	n.zdata = nil
	n.encoding = format.EncodingRaw
	n.recompress = false

	return true
}

// decompressForUse is decompressNode plus the recompress mark: the node is
// being opened for an access and must be sealed again by compressOrRestore
// before it goes back to rest.
func (l *List) decompressForUse(n *node) {
	if n != nil && n.encoding == format.EncodingCompressed {
		l.decompressNode(n)
		n.recompress = true
	}
}

// recompressOnly seals a node that decompressForUse opened, and does nothing
// for nodes that were raw to begin with.
func (l *List) recompressOnly(n *node) {
	if n.recompress {
		l.compressNode(n)
	}
}

// compressOrRestore closes out one node access: transiently opened nodes are
// sealed again, anything else goes through the positional policy.
func (l *List) compressOrRestore(n *node) {
	if n != nil && n.recompress {
		l.recompressOnly(n)
	} else {
		l.listCompress(n)
	}
}

// listCompress enforces the depth policy after a chain membership change.
// It walks depth nodes inward from both ends keeping them raw, compresses
// the target if it sits outside both zones, and always re-compresses the
// first node beyond each zone, which is exactly the node that a push, split
// or delete can move across the boundary. target may be nil.
func (l *List) listCompress(target *node) {
	if l.depth == 0 || l.nodes < l.depth*2 {
		return
	}

	forward := l.head
	reverse := l.tail
	inDepth := false
	for depth := 0; depth < l.depth; depth++ {
		l.decompressNode(forward)
		l.decompressNode(reverse)

		if forward == target || reverse == target {
			inDepth = true
		}

		// Zones met in the middle; every node is protected.
		if forward == reverse || forward.next == reverse {
			return
		}

		forward = forward.next
		reverse = reverse.prev
	}

	if !inDepth {
		l.compressNode(target)
	}

	// forward and reverse are now one node beyond each zone.
	l.compressNode(forward)
	l.compressNode(reverse)
}

// applyDepth re-encodes the whole chain for a new depth setting: protected
// zones raw, interior compressed.
func (l *List) applyDepth() {
	if l.depth == 0 || l.nodes < l.depth*2 {
		for n := l.head; n != nil; n = n.next {
			l.decompressNode(n)
		}

		return
	}

	forward := l.head
	reverse := l.tail
	for depth := 0; depth < l.depth; depth++ {
		l.decompressNode(forward)
		l.decompressNode(reverse)

		if forward == reverse || forward.next == reverse {
			return
		}

		forward = forward.next
		reverse = reverse.prev
	}

	for n := forward; n != nil; n = n.next {
		l.compressNode(n)
		if n == reverse {
			break
		}
	}
}
