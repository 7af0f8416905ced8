package envelope

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"time"

	"github.com/unkn0wn-root/recordcache/backend"
)

const version byte = 1

var (
	ErrCorrupt  = errors.New("recordcache: corrupt entry")
	ErrTooLarge = errors.New("recordcache: value exceeds the 4 GiB entry limit")
	magic4      = [...]byte{'R', 'C', 'R', 'D'}
)

// vlen is a u32 on the wire
var maxValue uint64 = math.MaxUint32

// Entry is a stored value plus the expiration bookkeeping needed by stores
// without native per-entry (or sliding) TTLs.
type Entry struct {
	Value      []byte
	AbsoluteAt time.Time     // zero => no absolute deadline
	Sliding    time.Duration // 0 => no sliding window
	Deadline   time.Time     // effective expiry; zero => never
}

// New builds an entry written at now.
func New(value []byte, opts backend.EntryOptions, now time.Time) Entry {
	e := Entry{Value: value, Sliding: opts.SlidingExpiration}
	if opts.AbsoluteExpiration > 0 {
		e.AbsoluteAt = now.Add(opts.AbsoluteExpiration)
	}
	if e.Sliding < 0 {
		e.Sliding = 0
	}
	e.Deadline = e.next(now)
	return e
}

// next is the earlier of now+sliding and the absolute deadline.
func (e Entry) next(now time.Time) time.Time {
	var d time.Time
	if e.Sliding > 0 {
		d = now.Add(e.Sliding)
	}
	if !e.AbsoluteAt.IsZero() && (d.IsZero() || e.AbsoluteAt.Before(d)) {
		d = e.AbsoluteAt
	}
	return d
}

func (e Entry) Expired(now time.Time) bool {
	return !e.Deadline.IsZero() && !now.Before(e.Deadline)
}

// Touch slides the deadline forward after a read. Reports whether anything
// changed (i.e. whether the entry has to be written back).
func (e *Entry) Touch(now time.Time) bool {
	if e.Sliding <= 0 {
		return false
	}
	d := e.next(now)
	if d.Equal(e.Deadline) {
		return false
	}
	e.Deadline = d
	return true
}

// TTL is the time left until Deadline; 0 when the entry never expires.
func (e Entry) TTL(now time.Time) time.Duration {
	if e.Deadline.IsZero() {
		return 0
	}
	return e.Deadline.Sub(now)
}

// magic(4) | ver(1) | absAt(i64 be, unix ns) | sliding(i64 be, ns) | deadline(i64 be, unix ns) | vlen(u32 be) | value(vlen)
const hdr = 4 + 1 + 8 + 8 + 8 + 4

func Encode(e Entry) ([]byte, error) {
	if uint64(len(e.Value)) > maxValue {
		return nil, ErrTooLarge
	}
	var buf bytes.Buffer
	buf.Grow(hdr + len(e.Value))

	buf.Write(magic4[:])
	buf.WriteByte(version)

	var u8 [8]byte
	var u4 [4]byte

	binary.BigEndian.PutUint64(u8[:], uint64(unixNano(e.AbsoluteAt)))
	buf.Write(u8[:])
	binary.BigEndian.PutUint64(u8[:], uint64(e.Sliding))
	buf.Write(u8[:])
	binary.BigEndian.PutUint64(u8[:], uint64(unixNano(e.Deadline)))
	buf.Write(u8[:])

	binary.BigEndian.PutUint32(u4[:], uint32(len(e.Value)))
	buf.Write(u4[:])

	buf.Write(e.Value)
	return buf.Bytes(), nil
}

// Decode parses an encoded entry. The returned Value aliases b.
func Decode(b []byte) (Entry, error) {
	if len(b) < hdr || !bytes.Equal(b[:4], magic4[:]) || b[4] != version {
		return Entry{}, ErrCorrupt
	}
	off := 5

	abs := int64(binary.BigEndian.Uint64(b[off : off+8]))
	off += 8
	sliding := int64(binary.BigEndian.Uint64(b[off : off+8]))
	off += 8
	deadline := int64(binary.BigEndian.Uint64(b[off : off+8]))
	off += 8

	vlen := int(binary.BigEndian.Uint32(b[off : off+4]))
	off += 4
	if vlen != len(b)-off || sliding < 0 {
		return Entry{}, ErrCorrupt
	}

	return Entry{
		Value:      b[off : off+vlen],
		AbsoluteAt: fromUnixNano(abs),
		Sliding:    time.Duration(sliding),
		Deadline:   fromUnixNano(deadline),
	}, nil
}

func unixNano(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromUnixNano(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}
