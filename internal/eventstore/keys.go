package eventstore

import "encoding/binary"

// Keyspace helpers for Pebble keys.
//
// Layout (byte-wise, lexicographically sortable):
// - ev/{ns}/m            (namespace metadata: lastSeq | count)
// - ev/{ns}/e/{seq_be8}  (entries)

var (
	evPrefix   = []byte("ev/")
	metaSuffix = []byte("/m")
	entrySeg   = []byte("/e/")
)

func appendBE8(dst []byte, v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return append(dst, b[:]...)
}

// keyMeta builds the namespace metadata key.
func keyMeta(namespace string) []byte {
	k := make([]byte, 0, len(evPrefix)+len(namespace)+len(metaSuffix))
	k = append(k, evPrefix...)
	k = append(k, namespace...)
	k = append(k, metaSuffix...)
	return k
}

// keyEntry builds the entry key with a big-endian sequence for ordering.
func keyEntry(namespace string, seq uint64) []byte {
	k := make([]byte, 0, len(evPrefix)+len(namespace)+len(entrySeg)+8)
	k = append(k, evPrefix...)
	k = append(k, namespace...)
	k = append(k, entrySeg...)
	k = appendBE8(k, seq)
	return k
}

// entryBounds returns the [low, high) iterator bounds for a namespace.
func entryBounds(namespace string) (low, hi []byte) {
	low = keyEntry(namespace, 0)
	hi = append(keyEntry(namespace, ^uint64(0)), 0x00)
	return low, hi
}

func seqFromEntryKey(k []byte) uint64 {
	return binary.BigEndian.Uint64(k[len(k)-8:])
}
