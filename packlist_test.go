package packlist

import (
	"fmt"
	"strconv"
	"testing"

	"github.com/arloliu/packlist/errs"
	"github.com/arloliu/packlist/format"
	"github.com/arloliu/packlist/segment"
	"github.com/stretchr/testify/require"
)

// checkInvariants walks the chain and verifies the structural invariants:
// aggregate counters match the per-node state, every node's cached
// size/count match its payload, and the compression zones hold.
func checkInvariants(t *testing.T, l *List) {
	t.Helper()

	count := 0
	nodes := 0
	for n := l.head; n != nil; n = n.next {
		nodes++
		count += int(n.count)

		require.Positive(t, n.count, "empty node left in chain")
		require.Equal(t, format.ContainerPacked, n.container)
		require.False(t, n.recompress, "node left transiently open at rest")

		switch n.encoding {
		case format.EncodingRaw:
			require.NotNil(t, n.seg)
			require.Nil(t, n.zdata)
			require.Equal(t, int(n.count), n.seg.Count())
			require.Equal(t, int(n.sz), n.seg.TotalBytes())
		case format.EncodingCompressed:
			require.Nil(t, n.seg)
			require.NotNil(t, n.zdata)
		default:
			t.Fatalf("invalid node encoding %v", n.encoding)
		}
	}

	require.Equal(t, l.count, count, "list count out of sync with nodes")
	require.Equal(t, l.nodes, nodes, "list node count out of sync with chain")

	if l.tail != nil {
		require.Nil(t, l.tail.next)
		require.Nil(t, l.head.prev)
	}

	checkCompressionZones(t, l)
}

// checkCompressionZones verifies that the depth nodes nearest each end are
// raw and every interior node is compressed unless compression was declined.
func checkCompressionZones(t *testing.T, l *List) {
	t.Helper()

	if l.depth == 0 || l.nodes < l.depth*2 {
		for n := l.head; n != nil; n = n.next {
			require.Equal(t, format.EncodingRaw, n.encoding)
		}

		return
	}

	idx := 0
	for n := l.head; n != nil; n = n.next {
		inZone := idx < l.depth || idx >= l.nodes-l.depth
		if inZone {
			require.Equal(t, format.EncodingRaw, n.encoding,
				"node %d inside the protected zone must stay raw", idx)
		} else if n.encoding == format.EncodingRaw {
			require.True(t, n.triedCompress,
				"interior node %d is raw without a declined compression", idx)
		}
		idx++
	}
}

func buildList(t *testing.T, fill, depth int, values ...string) *List {
	t.Helper()

	l, err := New(WithFill(fill), WithCompressDepth(depth))
	require.NoError(t, err)
	for _, v := range values {
		l.PushTail([]byte(v))
	}
	checkInvariants(t, l)

	return l
}

// listValues drains the list through a forward iterator.
func listValues(t *testing.T, l *List) []string {
	t.Helper()

	it := l.Iterator(FromHead)
	defer it.Release()

	var out []string
	var entry Entry
	for it.Next(&entry) {
		out = append(out, entry.String())
	}

	return out
}

func TestNew_Defaults(t *testing.T) {
	l, err := New()
	require.NoError(t, err)
	require.Equal(t, DefaultFill, l.Fill())
	require.Equal(t, DefaultCompressDepth, l.CompressDepth())
	require.Equal(t, 0, l.Count())
	require.Equal(t, 0, l.Nodes())
}

func TestNew_InvalidOptions(t *testing.T) {
	_, err := New(WithFill(-6))
	require.ErrorIs(t, err, errs.ErrInvalidFill)

	_, err = New(WithFill(1 << 16))
	require.ErrorIs(t, err, errs.ErrInvalidFill)

	_, err = New(WithCompressDepth(-1))
	require.ErrorIs(t, err, errs.ErrInvalidCompressDepth)
}

func TestSetters_Clamp(t *testing.T) {
	l, err := New()
	require.NoError(t, err)

	l.SetFill(-100)
	require.Equal(t, -5, l.Fill())
	l.SetFill(1 << 20)
	require.Equal(t, 1<<15, l.Fill())

	l.SetCompressDepth(-3)
	require.Equal(t, 0, l.CompressDepth())
}

func TestPushOrdering(t *testing.T) {
	l := buildList(t, 4, 0)
	l.PushTail([]byte("A"))
	l.PushTail([]byte("B"))
	l.PushTail([]byte("C"))

	require.Equal(t, []string{"A", "B", "C"}, listValues(t, l))

	// Tail-to-head yields the reverse.
	it := l.Iterator(FromTail)
	defer it.Release()

	var rev []string
	var entry Entry
	for it.Next(&entry) {
		rev = append(rev, entry.String())
	}
	require.Equal(t, []string{"C", "B", "A"}, rev)
}

func TestPushHead(t *testing.T) {
	l := buildList(t, 4, 0)
	for i := 0; i < 10; i++ {
		l.PushHead([]byte(strconv.Itoa(i)))
	}
	checkInvariants(t, l)

	require.Equal(t, 10, l.Count())
	require.Equal(t, []string{"9", "8", "7", "6", "5", "4", "3", "2", "1", "0"}, listValues(t, l))
}

func TestFillFactor_CountBound(t *testing.T) {
	// fill = 4: pushing 0..9 packs into 3 nodes of 4, 4 and 2 elements.
	l := buildList(t, 4, 0)
	for i := 0; i < 10; i++ {
		l.PushTail([]byte(strconv.Itoa(i)))
	}
	checkInvariants(t, l)

	require.Equal(t, 10, l.Count())
	require.Equal(t, 3, l.Nodes())
	require.Equal(t, uint16(4), l.head.count)
	require.Equal(t, uint16(4), l.head.next.count)
	require.Equal(t, uint16(2), l.tail.count)

	var entry Entry
	require.True(t, l.Index(0, &entry))
	require.True(t, entry.IsInt)
	require.Equal(t, int64(0), entry.Int)

	require.True(t, l.Index(-1, &entry))
	require.Equal(t, int64(9), entry.Int)
}

func TestFillFactor_SizeBound(t *testing.T) {
	// fill = -1: nodes capped at 4KiB of payload regardless of count.
	l, err := New(WithFill(-1))
	require.NoError(t, err)

	big := make([]byte, 1000)
	for i := range big {
		big[i] = byte('a' + i%26)
	}
	for i := 0; i < 10; i++ {
		l.PushTail(big)
	}
	checkInvariants(t, l)

	require.Equal(t, 10, l.Count())
	require.Greater(t, l.Nodes(), 2)
	for n := l.head; n != nil; n = n.next {
		require.LessOrEqual(t, int(n.sz), 4096)
	}
}

func TestPop(t *testing.T) {
	l := buildList(t, 4, 0, "first", "22", "last")

	data, intval, ok := l.Pop(Head)
	require.True(t, ok)
	require.Equal(t, []byte("first"), data)
	require.Equal(t, int64(0), intval)

	data, intval, ok = l.Pop(Tail)
	require.True(t, ok)
	require.Equal(t, []byte("last"), data)
	require.Equal(t, int64(0), intval)

	// "22" is stored as an integer.
	data, intval, ok = l.Pop(Tail)
	require.True(t, ok)
	require.Nil(t, data)
	require.Equal(t, int64(22), intval)
	require.Equal(t, 0, l.Count())

	checkInvariants(t, l)
}

func TestPop_Empty(t *testing.T) {
	l, err := New()
	require.NoError(t, err)

	_, _, ok := l.Pop(Head)
	require.False(t, ok)
	_, _, ok = l.Pop(Tail)
	require.False(t, ok)
}

func TestPop_IntegerValue(t *testing.T) {
	l := buildList(t, 4, 0, "12345")

	data, intval, ok := l.Pop(Head)
	require.True(t, ok)
	require.Nil(t, data)
	require.Equal(t, int64(12345), intval)
	require.Equal(t, 0, l.Count())
	require.Equal(t, 0, l.Nodes())
}

func TestCountersAcrossMixedOps(t *testing.T) {
	l := buildList(t, 6, 0)
	for i := 0; i < 50; i++ {
		if i%2 == 0 {
			l.PushTail([]byte(strconv.Itoa(i)))
		} else {
			l.PushHead([]byte(fmt.Sprintf("value-%d", i)))
		}
	}
	checkInvariants(t, l)
	require.Equal(t, 50, l.Count())

	l.DelRange(10, 20)
	checkInvariants(t, l)
	require.Equal(t, 40, l.Count())

	for i := 0; i < 5; i++ {
		l.Pop(Head)
		l.Pop(Tail)
	}
	checkInvariants(t, l)
	require.Equal(t, 30, l.Count())
}

func TestDup(t *testing.T) {
	l := buildList(t, 4, 0)
	for i := 0; i < 20; i++ {
		l.PushTail([]byte(fmt.Sprintf("element-%d", i)))
	}

	copied := l.Dup()
	checkInvariants(t, copied)
	require.Equal(t, l.Count(), copied.Count())
	require.Equal(t, l.Nodes(), copied.Nodes())

	// Element-by-element equality through Compare.
	var entry Entry
	for i := 0; i < l.Count(); i++ {
		require.True(t, copied.Index(i, &entry))
		require.True(t, entry.Compare([]byte(fmt.Sprintf("element-%d", i))))
	}

	// Mutating the duplicate leaves the original untouched.
	copied.DelRange(0, 10)
	copied.PushTail([]byte("extra"))
	require.Equal(t, 20, l.Count())
	require.True(t, l.Index(0, &entry))
	require.True(t, entry.Compare([]byte("element-0")))
}

func TestAppendSegment_AdoptsWholesale(t *testing.T) {
	seg := segment.New()
	for i := 0; i < 30; i++ {
		require.NoError(t, seg.Append([]byte(strconv.Itoa(i))))
	}

	// fill=4 would normally bound nodes at 4 elements, but wholesale
	// adoption skips re-packing.
	l := buildList(t, 4, 0, "existing")
	l.AppendSegment(seg)
	checkInvariants(t, l)

	require.Equal(t, 31, l.Count())
	require.Equal(t, 2, l.Nodes())
	require.Equal(t, uint16(30), l.tail.count)
}

func TestAppendValuesFromSegment_Repacks(t *testing.T) {
	seg := segment.New()
	for i := 0; i < 10; i++ {
		require.NoError(t, seg.Append([]byte(strconv.Itoa(i))))
	}

	l, err := NewFromSegment(seg, WithFill(4))
	require.NoError(t, err)
	checkInvariants(t, l)

	require.Equal(t, 10, l.Count())
	require.Equal(t, 3, l.Nodes())
	require.Equal(t, []string{"0", "1", "2", "3", "4", "5", "6", "7", "8", "9"}, listValues(t, l))

	// Source segment is untouched.
	require.Equal(t, 10, seg.Count())
}

func TestEntry_Compare(t *testing.T) {
	l := buildList(t, 4, 0, "text", "512")

	var entry Entry
	require.True(t, l.Index(0, &entry))
	require.True(t, entry.Compare([]byte("text")))
	require.False(t, entry.Compare([]byte("other")))

	require.True(t, l.Index(1, &entry))
	require.True(t, entry.IsInt)
	require.True(t, entry.Compare([]byte("512")))
	require.False(t, entry.Compare([]byte("513")))
}

func TestIndex_OutOfRange(t *testing.T) {
	l := buildList(t, 4, 0, "a", "b", "c")

	var entry Entry
	require.False(t, l.Index(3, &entry))
	require.False(t, l.Index(-4, &entry))
	require.True(t, l.Index(2, &entry))
	require.True(t, l.Index(-3, &entry))
	require.Equal(t, "a", entry.String())
}

func TestIndex_WalksFromCloserEnd(t *testing.T) {
	l := buildList(t, 8, 0)
	for i := 0; i < 100; i++ {
		l.PushTail([]byte(strconv.Itoa(i)))
	}

	var entry Entry
	for _, idx := range []int{0, 1, 49, 50, 51, 99, -1, -50, -100} {
		require.True(t, l.Index(idx, &entry), "index %d", idx)
		want := idx
		if want < 0 {
			want += 100
		}
		require.Equal(t, int64(want), entry.Int, "index %d", idx)
	}
}
