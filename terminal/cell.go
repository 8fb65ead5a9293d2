// Copyright 2022~2024 wangqi. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package terminal

import (
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
)

// packed attribute bits
const (
	intensityShift     = 0
	underlineShift     = 2
	blinkShift         = 4
	italicBit          = 1 << 6
	reverseBit         = 1 << 7
	strikeThroughBit   = 1 << 8
	invisibleBit       = 1 << 9
	wrappedBit         = 1 << 10
	twoBitMask  uint16 = 0b11
)

// CellAttributes is the pen: packed SGR bits, the two colors and an
// optional shared hyperlink.
type CellAttributes struct {
	attributes uint16
	Foreground ColorAttribute
	Background ColorAttribute
	Hyperlink  *Hyperlink
}

func (a CellAttributes) Intensity() Intensity {
	return Intensity(a.attributes >> intensityShift & twoBitMask)
}

func (a *CellAttributes) SetIntensity(i Intensity) {
	a.attributes = a.attributes&^(twoBitMask<<intensityShift) | uint16(i)<<intensityShift
}

func (a CellAttributes) Underline() Underline {
	return Underline(a.attributes >> underlineShift & twoBitMask)
}

func (a *CellAttributes) SetUnderline(u Underline) {
	a.attributes = a.attributes&^(twoBitMask<<underlineShift) | uint16(u)<<underlineShift
}

func (a CellAttributes) Blink() Blink {
	return Blink(a.attributes >> blinkShift & twoBitMask)
}

func (a *CellAttributes) SetBlink(b Blink) {
	a.attributes = a.attributes&^(twoBitMask<<blinkShift) | uint16(b)<<blinkShift
}

func (a *CellAttributes) setBit(bit uint16, on bool) {
	if on {
		a.attributes |= bit
	} else {
		a.attributes &^= bit
	}
}

func (a CellAttributes) Italic() bool        { return a.attributes&italicBit != 0 }
func (a *CellAttributes) SetItalic(on bool)  { a.setBit(italicBit, on) }
func (a CellAttributes) Reverse() bool       { return a.attributes&reverseBit != 0 }
func (a *CellAttributes) SetReverse(on bool) { a.setBit(reverseBit, on) }
func (a CellAttributes) StrikeThrough() bool {
	return a.attributes&strikeThroughBit != 0
}
func (a *CellAttributes) SetStrikeThrough(on bool) { a.setBit(strikeThroughBit, on) }
func (a CellAttributes) Invisible() bool           { return a.attributes&invisibleBit != 0 }
func (a *CellAttributes) SetInvisible(on bool)     { a.setBit(invisibleBit, on) }

// Wrapped marks the last cell of a row that flowed into the next row.
// It is positional state, not part of the SGR pen.
func (a CellAttributes) Wrapped() bool       { return a.attributes&wrappedBit != 0 }
func (a *CellAttributes) SetWrapped(on bool) { a.setBit(wrappedBit, on) }

// CloneSgrOnly copies the rendition bits and colors but neither the
// positional wrapped bit nor the hyperlink.
func (a CellAttributes) CloneSgrOnly() CellAttributes {
	res := CellAttributes{
		attributes: a.attributes,
		Foreground: a.Foreground,
		Background: a.Background,
	}
	res.SetWrapped(false)
	return res
}

// Cell holds one grapheme cluster and its attributes. The zero-width
// followers of a wide cluster are stored as blank cells so column
// arithmetic stays simple.
type Cell struct {
	text  string
	attrs CellAttributes
}

// nerfControl keeps raw control bytes out of the grid; they would
// corrupt anything that later prints the row.
func nerfControl(text string) string {
	if text == "" || text == "\r\n" {
		return " "
	}
	if len(text) == 1 && (text[0] < 0x20 || text[0] == 0x7f) {
		return " "
	}
	return text
}

func NewCell(text string, attrs CellAttributes) Cell {
	return Cell{text: nerfControl(text), attrs: attrs}
}

func defaultCell() Cell {
	return Cell{text: " "}
}

func (c *Cell) Str() string { return c.text }

func (c *Cell) Attrs() *CellAttributes { return &c.attrs }

// Width is the number of columns the cluster occupies, capped at 2.
func (c *Cell) Width() int {
	w := graphemeColumnWidth(c.text)
	if w > 2 {
		w = 2
	}
	return w
}

// east asian narrow, the common terminal default
var wcwidth = &runewidth.Condition{EastAsianWidth: false}

// graphemeColumnWidth measures one grapheme cluster. Multi-rune
// clusters (ZWJ emoji et al) go through uniseg, which knows that a
// seven-codepoint family emoji still renders in two columns.
func graphemeColumnWidth(s string) int {
	r, size := utf8.DecodeRuneInString(s)
	if size == len(s) {
		w := wcwidth.RuneWidth(r)
		if w < 0 {
			w = 0
		}
		return w
	}
	return uniseg.StringWidth(s)
}

// unicodeColumnWidth measures a whole string, grapheme by grapheme.
func unicodeColumnWidth(s string) int {
	w := 0
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		w += graphemeColumnWidth(g.Str())
	}
	return w
}
