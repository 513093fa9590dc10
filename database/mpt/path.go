// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package mpt

import (
	"fmt"
	"strings"
)

// Path is a sequence of nibbles describing a navigation step in the trie,
// used both as the remaining key suffix passed down during a walk and as the
// `partial`/`prefix` fields carried by Leaf and Extension nodes. Like
// Carmen's fixed-size Path, nibbles are packed two per byte for a dense
// representation; unlike it, a Path here is not bounded to 64 nibbles, since
// keys of arbitrary byte length (e.g. RLP(index) keys for transaction and
// receipt tries) must be representable.
type Path struct {
	packed []byte
	length int
}

// PathFromBytes produces a path of length 2*len(bs); the i-th nibble is the
// high or low half of bs[i/2], high nibble first.
func PathFromBytes(bs []byte) Path {
	packed := make([]byte, len(bs))
	copy(packed, bs)
	return Path{packed: packed, length: 2 * len(bs)}
}

// PathFromNibbles builds a path from an explicit nibble sequence.
func PathFromNibbles(nibbles []Nibble) Path {
	p := newPath(len(nibbles))
	for _, n := range nibbles {
		p.appendInPlace(n)
	}
	return p
}

func newPath(capacityNibbles int) Path {
	return Path{packed: make([]byte, 0, (capacityNibbles+1)/2)}
}

// Len returns the number of nibbles in the path.
func (p Path) Len() int {
	return p.length
}

// IsEmpty reports whether the path has no nibbles.
func (p Path) IsEmpty() bool {
	return p.length == 0
}

// Get returns the nibble at position pos, which must be in [0,Len()).
func (p Path) Get(pos int) Nibble {
	if pos < 0 || pos >= p.length {
		panic(fmt.Sprintf("path index %d out of range [0,%d)", pos, p.length))
	}
	b := p.packed[pos/2]
	if pos%2 == 0 {
		return Nibble(b >> 4)
	}
	return Nibble(b & 0xF)
}

// NextChoice returns the first nibble of the path and the remainder with it
// consumed; ok is false if the path is empty, in which case rest equals p.
func (p Path) NextChoice() (n Nibble, rest Path, ok bool) {
	if p.length == 0 {
		return 0, p, false
	}
	return p.Get(0), p.Offset(1), true
}

// Offset returns a path identical to p with the first k nibbles dropped. It
// panics if k is out of [0,Len()].
func (p Path) Offset(k int) Path {
	return p.Slice(k, p.length)
}

// Slice returns the sub-path covering nibble positions [from,to).
func (p Path) Slice(from, to int) Path {
	if from < 0 || to > p.length || from > to {
		panic(fmt.Sprintf("invalid path slice [%d,%d) of length %d", from, to, p.length))
	}
	res := newPath(to - from)
	for i := from; i < to; i++ {
		res.appendInPlace(p.Get(i))
	}
	return res
}

// Prepend returns a new path with n inserted at the front.
func (p Path) Prepend(n Nibble) Path {
	res := newPath(p.length + 1)
	res.appendInPlace(n)
	for i := 0; i < p.length; i++ {
		res.appendInPlace(p.Get(i))
	}
	return res
}

// Append returns a new path with n added at the end.
func (p Path) Append(n Nibble) Path {
	res := newPath(p.length + 1)
	for i := 0; i < p.length; i++ {
		res.appendInPlace(p.Get(i))
	}
	res.appendInPlace(n)
	return res
}

// Concat returns the path formed by p followed by other. Concatenation is
// associative: a.Concat(b).Concat(c) equals a.Concat(b.Concat(c)).
func (p Path) Concat(other Path) Path {
	res := newPath(p.length + other.length)
	for i := 0; i < p.length; i++ {
		res.appendInPlace(p.Get(i))
	}
	for i := 0; i < other.length; i++ {
		res.appendInPlace(other.Get(i))
	}
	return res
}

// SkipPrefix reports whether p begins with prefix; if so it returns the
// remainder of p past the prefix and true, otherwise it returns p unchanged
// and false.
func (p Path) SkipPrefix(prefix Path) (Path, bool) {
	if prefix.length > p.length {
		return p, false
	}
	for i := 0; i < prefix.length; i++ {
		if p.Get(i) != prefix.Get(i) {
			return p, false
		}
	}
	return p.Offset(prefix.length), true
}

// ComparePrefix performs a three-way lexicographic comparison of p against
// other, restricted to the first min(p.Len(), other.Len()) nibbles of each;
// a path that is a strict prefix of the other compares as smaller. This is
// used to decide which side of an Extension's prefix a key falls on when the
// key does not fully traverse it.
func (p Path) ComparePrefix(other Path) int {
	n := p.length
	if other.length < n {
		n = other.length
	}
	for i := 0; i < n; i++ {
		a, b := p.Get(i), other.Get(i)
		if a < b {
			return -1
		}
		if a > b {
			return 1
		}
	}
	switch {
	case p.length < other.length:
		return -1
	case p.length > other.length:
		return 1
	default:
		return 0
	}
}

// CommonPrefixLength returns the length of the longest common prefix of a
// and b.
func CommonPrefixLength(a, b Path) int {
	n := a.length
	if b.length < n {
		n = b.length
	}
	for i := 0; i < n; i++ {
		if a.Get(i) != b.Get(i) {
			return i
		}
	}
	return n
}

// Equal reports whether p and other describe the same nibble sequence.
func (p Path) Equal(other Path) bool {
	return p.length == other.length && CommonPrefixLength(p, other) == p.length
}

// ToNibbles expands the path into an explicit nibble slice.
func (p Path) ToNibbles() []Nibble {
	res := make([]Nibble, p.length)
	for i := range res {
		res[i] = p.Get(i)
	}
	return res
}

func (p *Path) appendInPlace(n Nibble) {
	if p.length%2 == 0 {
		p.packed = append(p.packed, byte(n&0xF)<<4)
	} else {
		p.packed[len(p.packed)-1] |= byte(n & 0xF)
	}
	p.length++
}

func (p Path) String() string {
	if p.length == 0 {
		return "-empty-"
	}
	var b strings.Builder
	for i := 0; i < p.length; i++ {
		b.WriteRune(p.Get(i).Rune())
	}
	return b.String()
}
