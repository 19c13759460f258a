package writequeue

import "encoding/binary"

// Keyspace layout:
// - wq/{ns}/m            (queue metadata: lastSeq | count)
// - wq/{ns}/e/{seq_be8}  (pending mutations)

var (
	wqPrefix   = []byte("wq/")
	metaSuffix = []byte("/m")
	entrySeg   = []byte("/e/")
)

func metaKey(namespace string) []byte {
	k := make([]byte, 0, len(wqPrefix)+len(namespace)+len(metaSuffix))
	k = append(k, wqPrefix...)
	k = append(k, namespace...)
	k = append(k, metaSuffix...)
	return k
}

func entryKey(namespace string, seq uint64) []byte {
	k := make([]byte, 0, len(wqPrefix)+len(namespace)+len(entrySeg)+8)
	k = append(k, wqPrefix...)
	k = append(k, namespace...)
	k = append(k, entrySeg...)
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], seq)
	return append(k, b[:]...)
}

func entryBounds(namespace string) (low, hi []byte) {
	low = entryKey(namespace, 0)
	hi = append(entryKey(namespace, ^uint64(0)), 0x00)
	return low, hi
}

func seqFromEntryKey(k []byte) uint64 {
	return binary.BigEndian.Uint64(k[len(k)-8:])
}
