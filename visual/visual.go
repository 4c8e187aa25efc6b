// Package visual renders decoded units as terminal-safe bytes.
//
// Control characters and invalid bytes are shown as caret or hex markers in
// reverse video. The Visualizer tracks whether reverse video is active so
// that each mode transition emits its escape sequence exactly once.
package visual

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	"github.com/justapithecus/serialcat/decode"
)

// Escape sequences. Nothing beyond these two is ever emitted.
const (
	EnterReverse = "\x1b[7m"
	ExitReverse  = "\x1b[m"
)

const hexDigits = "0123456789ABCDEF"

// Class is the rendering category of a unit.
type Class uint8

const (
	// ClassText is any character written as-is, including '\n' and '\t'.
	ClassText Class = iota
	// ClassControl is a Cc character other than '\n' and '\t'.
	ClassControl
	// ClassInvalid is an undecodable byte.
	ClassInvalid
)

func (c Class) String() string {
	switch c {
	case ClassText:
		return "text"
	case ClassControl:
		return "control"
	case ClassInvalid:
		return "invalid"
	default:
		return fmt.Sprintf("class(%d)", uint8(c))
	}
}

// Classify returns the rendering class of u.
func Classify(u decode.Unit) Class {
	if u.Kind == decode.KindInvalid {
		return ClassInvalid
	}
	if unicode.IsControl(u.Rune) && u.Rune != '\n' && u.Rune != '\t' {
		return ClassControl
	}
	return ClassText
}

// Visualizer holds the reverse-video flag for one display stream.
// It is not safe for concurrent use.
type Visualizer struct {
	reversed bool
}

// New returns a Visualizer in normal mode.
func New() *Visualizer {
	return &Visualizer{}
}

// Reversed reports whether reverse video is currently active.
func (v *Visualizer) Reversed() bool {
	return v.reversed
}

// Render appends the display bytes for u to dst.
func (v *Visualizer) Render(dst []byte, u decode.Unit) []byte {
	switch Classify(u) {
	case ClassControl:
		dst = v.enter(dst)
		return appendCaret(dst, u.Rune)
	case ClassInvalid:
		dst = v.enter(dst)
		return append(dst, '<', hexDigits[u.Byte>>4], hexDigits[u.Byte&0x0F], '>')
	default:
		dst = v.exit(dst)
		return utf8.AppendRune(dst, u.Rune)
	}
}

// RenderAll appends the display bytes for every unit in order.
func (v *Visualizer) RenderAll(dst []byte, units []decode.Unit) []byte {
	for _, u := range units {
		dst = v.Render(dst, u)
	}
	return dst
}

func (v *Visualizer) enter(dst []byte) []byte {
	if v.reversed {
		return dst
	}
	v.reversed = true
	return append(dst, EnterReverse...)
}

func (v *Visualizer) exit(dst []byte) []byte {
	if !v.reversed {
		return dst
	}
	v.reversed = false
	return append(dst, ExitReverse...)
}

// appendCaret renders C0 as ^@..^_, DEL as ^? and C1 as ^[[@..^[[_.
func appendCaret(dst []byte, r rune) []byte {
	switch {
	case r < 0x20:
		return append(dst, '^', byte(r)+'@')
	case r == 0x7F:
		return append(dst, '^', '?')
	case r >= 0x80 && r < 0xA0:
		return append(dst, '^', '[', '[', byte(r-0x80)+'@')
	default:
		panic(fmt.Sprintf("visual: unexpected control character %U", r))
	}
}
