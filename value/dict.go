package value

import (
	"fmt"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// dictEntry is one key/value pair. Dict keys are compared by value equality
// (spec.md §3), not identity, and insertion order is not required to be
// preserved — so a Go map can't be used directly (most Value kinds aren't
// Go-comparable). Instead entries are bucketed by a canonical structural
// hash (blake2b-256 over a tag-aware serialization) and collisions within
// a bucket are resolved with a linear Equal scan, the same bucket-then-scan
// shape a hash table uses internally, just implemented explicitly because
// the key type isn't a Go map key.
type dictEntry struct {
	key Value
	val Value
}

type Dict struct {
	buckets map[[32]byte][]dictEntry
	size    int
}

func NewEmptyDict() *Dict {
	return &Dict{buckets: make(map[[32]byte][]dictEntry)}
}

func NewDict(pairs [][2]Value) *Dict {
	d := NewEmptyDict()
	for _, p := range pairs {
		d = d.Set(p[0], p[1])
	}
	return d
}

// canonicalHash produces a tag-aware, deterministic digest of a value so
// that structurally-equal-but-differently-tagged values (e.g. an Int64(1)
// and a Float64(1.0), which spec.md's Equal rule for numerics treats as
// equal via cross-tag Equal but Dict key identity should still route
// consistently) hash into a stable bucket. Numeric keys are normalized to
// their float64 value before hashing so 1 (int) and 1.0 (float) collide
// into the same bucket and are disambiguated, if at all, by Equal.
func canonicalHash(v Value) [32]byte {
	var b strings.Builder
	writeCanonical(&b, v)
	return blake2b.Sum256([]byte(b.String()))
}

func writeCanonical(b *strings.Builder, v Value) {
	switch val := v.(type) {
	case IntValue:
		fmt.Fprintf(b, "N:%v", float64(val.Val))
	case FloatValue:
		fmt.Fprintf(b, "N:%v", val.Val)
	case StringValue:
		fmt.Fprintf(b, "S:%s", val.Val)
	case BoolValue:
		fmt.Fprintf(b, "B:%v", val.Val)
	case NilValue:
		b.WriteString("nil")
	case *Tuple:
		b.WriteString("T(")
		for _, e := range val.elements {
			writeCanonical(b, e)
			b.WriteByte(',')
		}
		b.WriteByte(')')
	case *List:
		b.WriteString("L(")
		for _, e := range val.elements {
			writeCanonical(b, e)
			b.WriteByte(',')
		}
		b.WriteByte(')')
	default:
		fmt.Fprintf(b, "%s:%s", v.Type(), v.String())
	}
}

func (d *Dict) clone() *Dict {
	next := &Dict{buckets: make(map[[32]byte][]dictEntry, len(d.buckets)), size: d.size}
	for h, entries := range d.buckets {
		cp := make([]dictEntry, len(entries))
		copy(cp, entries)
		next.buckets[h] = cp
	}
	return next
}

// Set returns a new Dict (copy-on-write, matching List) with key bound to val.
func (d *Dict) Set(key, val Value) *Dict {
	next := d.clone()
	h := canonicalHash(key)
	bucket := next.buckets[h]
	for i, e := range bucket {
		if e.key.Equal(key) {
			bucket[i].val = val
			next.buckets[h] = bucket
			return next
		}
	}
	next.buckets[h] = append(bucket, dictEntry{key: key, val: val})
	next.size++
	return next
}

func (d *Dict) Get(key Value) (Value, bool) {
	h := canonicalHash(key)
	for _, e := range d.buckets[h] {
		if e.key.Equal(key) {
			return e.val, true
		}
	}
	return nil, false
}

// Delete returns a new Dict without key, and whether it was present.
func (d *Dict) Delete(key Value) (*Dict, bool) {
	h := canonicalHash(key)
	bucket := d.buckets[h]
	for i, e := range bucket {
		if e.key.Equal(key) {
			next := d.clone()
			nb := append(bucket[:i:i], bucket[i+1:]...)
			if len(nb) == 0 {
				delete(next.buckets, h)
			} else {
				next.buckets[h] = nb
			}
			next.size--
			return next, true
		}
	}
	return d, false
}

func (d *Dict) Len() int { return d.size }

// Pairs returns all entries in unspecified (bucket) order, matching
// spec.md's "preserving insertion order is not required".
func (d *Dict) Pairs() [][2]Value {
	out := make([][2]Value, 0, d.size)
	for _, bucket := range d.buckets {
		for _, e := range bucket {
			out = append(out, [2]Value{e.key, e.val})
		}
	}
	return out
}

func (d *Dict) Type() Tag { return TagDict }

func (d *Dict) String() string {
	parts := make([]string, 0, d.size)
	for _, p := range d.Pairs() {
		parts = append(parts, fmt.Sprintf("%s: %s", p[0].String(), p[1].String()))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func (d *Dict) Truthy() bool { return d.size > 0 }

func (d *Dict) Equal(o Value) bool {
	other, ok := o.(*Dict)
	if !ok || other.size != d.size {
		return false
	}
	for _, p := range d.Pairs() {
		ov, found := other.Get(p[0])
		if !found || !ov.Equal(p[1]) {
			return false
		}
	}
	return true
}
