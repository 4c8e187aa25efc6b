// Package decode turns an arbitrarily chunked byte stream into a sequence of
// Unicode scalar values and flagged invalid bytes.
//
// Decoding is chunking-invariant: a given byte stream yields the same units
// no matter how it is split across calls. Bytes that may still begin a valid
// multi-byte encoding are retained in a Pending window of at most
// utf8.UTFMax bytes until enough input arrives to decide.
package decode

import (
	"fmt"
	"unicode/utf8"
)

// Kind tags a Unit.
type Kind uint8

const (
	// KindChar is a validated Unicode scalar value.
	KindChar Kind = iota + 1
	// KindInvalid is a single byte that cannot begin or continue a valid encoding.
	KindInvalid
)

// Unit is one decoded element of the stream. Exactly one of Rune or Byte is
// meaningful, selected by Kind.
type Unit struct {
	Kind Kind
	Rune rune
	Byte byte
}

// Char returns a character unit.
func Char(r rune) Unit { return Unit{Kind: KindChar, Rune: r} }

// Invalid returns an invalid-byte unit.
func Invalid(b byte) Unit { return Unit{Kind: KindInvalid, Byte: b} }

func (u Unit) String() string {
	switch u.Kind {
	case KindChar:
		return fmt.Sprintf("Char(%q)", u.Rune)
	case KindInvalid:
		return fmt.Sprintf("Invalid(0x%02X)", u.Byte)
	default:
		return "Unit(?)"
	}
}

// Pending holds the undecided head of the stream between calls.
// The zero value is an empty window.
type Pending struct {
	buf [utf8.UTFMax]byte
	n   int
}

// Len returns the number of retained bytes, always in [0, utf8.UTFMax].
func (p Pending) Len() int { return p.n }

// Bytes returns a copy of the retained bytes.
func (p Pending) Bytes() []byte {
	out := make([]byte, p.n)
	copy(out, p.buf[:p.n])
	return out
}

// Decode appends the units decodable from pending followed by p to dst and
// returns the extended slice with the new pending window.
//
// The window is refilled from p before every decision, so an incomplete
// sequence can only remain once p is exhausted. No byte of p is copied into
// the window twice or skipped.
func Decode(pending Pending, p []byte, dst []Unit) ([]Unit, Pending) {
	for {
		k := copy(pending.buf[pending.n:], p)
		pending.n += k
		p = p[k:]

		if pending.n == 0 {
			return dst, pending
		}

		window := pending.buf[:pending.n]
		if !utf8.FullRune(window) {
			// Short but possibly valid. p is empty here: a full window is
			// always a full rune.
			return dst, pending
		}

		r, size := utf8.DecodeRune(window)
		if r == utf8.RuneError && size == 1 {
			dst = append(dst, Invalid(window[0]))
		} else {
			dst = append(dst, Char(r))
		}

		pending.n = copy(pending.buf[:], window[size:])
	}
}

// Decoder is a stateful wrapper around Decode that owns its Pending window.
type Decoder struct {
	pending Pending
}

// NewDecoder returns a decoder with an empty pending window.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Append decodes p, appending units to dst.
func (d *Decoder) Append(dst []Unit, p []byte) []Unit {
	dst, d.pending = Decode(d.pending, p, dst)
	return dst
}

// Feed decodes p into a fresh slice.
func (d *Decoder) Feed(p []byte) []Unit {
	return d.Append(nil, p)
}

// Pending returns the bytes currently retained.
func (d *Decoder) Pending() Pending {
	return d.pending
}
