package eventstore

import (
	"encoding/binary"
	"encoding/json"
	"hash/crc32"
)

// Event is the envelope persisted for every durable record. Payload carries
// the domain-specific content: a pending mutation for the write queue, an
// action/resource/details document for the audit trail.
type Event struct {
	ID          string          `json:"id"`
	TimestampMs int64           `json:"ts_ms"`
	Actor       string          `json:"actor,omitempty"`
	// Origin is the caller's network origin. It is only meaningful when set
	// by a trusted server boundary; the client path leaves it empty.
	Origin  string          `json:"origin,omitempty"`
	Agent   string          `json:"agent,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Filter selects events on ReadAll. Zero values mean "no constraint";
// time bounds are inclusive on both ends.
type Filter struct {
	Actor   string
	StartMs int64
	EndMs   int64
}

// Match reports whether ev passes the filter.
func (f Filter) Match(ev Event) bool {
	if f.Actor != "" && ev.Actor != f.Actor {
		return false
	}
	if f.StartMs != 0 && ev.TimestampMs < f.StartMs {
		return false
	}
	if f.EndMs != 0 && ev.TimestampMs > f.EndMs {
		return false
	}
	return true
}

// Entry encoding: ts_ms(8B BE) | body | crc32c(ts|body)
// The leading timestamp lets range filters skip JSON decoding.

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

func encodeEntry(ev Event) ([]byte, error) {
	body, err := json.Marshal(ev)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, 8+len(body)+4)
	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], uint64(ev.TimestampMs))
	out = append(out, ts[:]...)
	out = append(out, body...)

	crc := crc32.Update(0, castagnoli, out)
	var crcb [4]byte
	binary.BigEndian.PutUint32(crcb[:], crc)
	return append(out, crcb[:]...), nil
}

func decodeEntry(b []byte) (Event, bool) {
	if len(b) < 8+4 {
		return Event{}, false
	}
	body := b[8 : len(b)-4]
	expect := binary.BigEndian.Uint32(b[len(b)-4:])
	if crc32.Update(0, castagnoli, b[:len(b)-4]) != expect {
		return Event{}, false
	}
	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return Event{}, false
	}
	return ev, true
}

func entryTimestampMs(b []byte) (int64, bool) {
	if len(b) < 8+4 {
		return 0, false
	}
	return int64(binary.BigEndian.Uint64(b[:8])), true
}
