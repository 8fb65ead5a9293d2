// Copyright 2022~2024 wangqi. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package terminal

import (
	"fmt"
	"strconv"
	"strings"
)

// RgbColor is a 24-bit color value.
type RgbColor struct {
	Red   uint8
	Green uint8
	Blue  uint8
}

func NewRgbColor(r, g, b uint8) RgbColor {
	return RgbColor{Red: r, Green: g, Blue: b}
}

// String returns the color in "#rrggbb" form, the shape emitted in
// dynamic color query responses.
func (c RgbColor) String() string {
	return fmt.Sprintf("#%02x%02x%02x", c.Red, c.Green, c.Blue)
}

// ParseRgbColor understands "#rrggbb" and the xterm "rgb:RR/GG/BB" form
// with 2 or 4 hex digits per component.
func ParseRgbColor(s string) (RgbColor, bool) {
	if strings.HasPrefix(s, "#") && len(s) == 7 {
		v, err := strconv.ParseUint(s[1:], 16, 32)
		if err != nil {
			return RgbColor{}, false
		}
		return NewRgbColor(uint8(v>>16), uint8(v>>8), uint8(v)), true
	}
	if strings.HasPrefix(s, "rgb:") {
		parts := strings.Split(s[4:], "/")
		if len(parts) != 3 {
			return RgbColor{}, false
		}
		var comp [3]uint8
		for i, p := range parts {
			if len(p) != 2 && len(p) != 4 {
				return RgbColor{}, false
			}
			v, err := strconv.ParseUint(p, 16, 16)
			if err != nil {
				return RgbColor{}, false
			}
			if len(p) == 4 {
				v >>= 8
			}
			comp[i] = uint8(v)
		}
		return NewRgbColor(comp[0], comp[1], comp[2]), true
	}
	return RgbColor{}, false
}

// ColorSpec names a color the way escape sequences do: the default for
// its position, a palette slot, or a direct RGB value.
type ColorSpecKind uint8

const (
	ColorSpecDefault ColorSpecKind = iota
	ColorSpecPaletteIndex
	ColorSpecTrueColor
)

type ColorSpec struct {
	Kind  ColorSpecKind
	Index uint8
	Color RgbColor
}

func DefaultColor() ColorSpec {
	return ColorSpec{Kind: ColorSpecDefault}
}

func PaletteColor(idx uint8) ColorSpec {
	return ColorSpec{Kind: ColorSpecPaletteIndex, Index: idx}
}

func TrueColor(r, g, b uint8) ColorSpec {
	return ColorSpec{Kind: ColorSpecTrueColor, Color: NewRgbColor(r, g, b)}
}

// ColorAttribute is the color stored in a cell's attributes. True color
// values carry a fallback strategy for renderers without 24-bit support.
type ColorAttributeKind uint8

const (
	ColorAttrDefault ColorAttributeKind = iota
	ColorAttrPaletteIndex
	ColorAttrTrueColorWithDefaultFallback
	ColorAttrTrueColorWithPaletteFallback
)

type ColorAttribute struct {
	Kind  ColorAttributeKind
	Index uint8
	Color RgbColor
}

func (s ColorSpec) Attribute() ColorAttribute {
	switch s.Kind {
	case ColorSpecPaletteIndex:
		return ColorAttribute{Kind: ColorAttrPaletteIndex, Index: s.Index}
	case ColorSpecTrueColor:
		return ColorAttribute{Kind: ColorAttrTrueColorWithDefaultFallback, Color: s.Color}
	}
	return ColorAttribute{}
}

// ramp of the 6x6x6 color cube
var colorRamp6 = [6]uint8{0x00, 0x33, 0x66, 0x99, 0xcc, 0xff}

var ansi16 = [16]RgbColor{
	{0x00, 0x00, 0x00}, // black
	{0xcc, 0x55, 0x55}, // maroon
	{0x55, 0xcc, 0x55}, // green
	{0xcd, 0xcd, 0x55}, // olive
	{0x54, 0x55, 0xcb}, // navy
	{0xcc, 0x55, 0xcc}, // purple
	{0x7a, 0xca, 0xca}, // teal
	{0xcc, 0xcc, 0xcc}, // silver
	{0x55, 0x55, 0x55}, // grey
	{0xff, 0x55, 0x55}, // red
	{0x55, 0xff, 0x55}, // lime
	{0xff, 0xff, 0x55}, // yellow
	{0x55, 0x55, 0xff}, // blue
	{0xff, 0x55, 0xff}, // fuchsia
	{0x55, 0xff, 0xff}, // aqua
	{0xff, 0xff, 0xff}, // white
}

// ColorPalette holds the 256 indexed colors plus the special slots a
// renderer needs. OSC 4 and OSC 10..19 mutate it at runtime.
type ColorPalette struct {
	Colors      [256]RgbColor
	Foreground  RgbColor
	Background  RgbColor
	CursorFg    RgbColor
	CursorBg    RgbColor
	SelectionFg RgbColor
	SelectionBg RgbColor
}

func NewColorPalette() *ColorPalette {
	p := &ColorPalette{}
	copy(p.Colors[:16], ansi16[:])
	for i := 0; i < 216; i++ {
		p.Colors[16+i] = RgbColor{
			Red:   colorRamp6[i/36%6],
			Green: colorRamp6[i/6%6],
			Blue:  colorRamp6[i%6],
		}
	}
	for i := 0; i < 24; i++ {
		g := uint8(8 + i*10)
		p.Colors[232+i] = RgbColor{g, g, g}
	}
	p.Foreground = p.Colors[249]
	p.Background = p.Colors[0]
	p.CursorFg = p.Colors[0]
	p.CursorBg = NewRgbColor(0x52, 0xad, 0x70)
	p.SelectionFg = p.Colors[0]
	p.SelectionBg = NewRgbColor(0xff, 0xfa, 0xcd)
	return p
}

// ResolveFg maps a cell foreground attribute to a concrete color.
func (p *ColorPalette) ResolveFg(attr ColorAttribute) RgbColor {
	switch attr.Kind {
	case ColorAttrDefault:
		return p.Foreground
	case ColorAttrPaletteIndex:
		return p.Colors[attr.Index]
	}
	return attr.Color
}

// ResolveBg maps a cell background attribute to a concrete color.
func (p *ColorPalette) ResolveBg(attr ColorAttribute) RgbColor {
	switch attr.Kind {
	case ColorAttrDefault:
		return p.Background
	case ColorAttrPaletteIndex:
		return p.Colors[attr.Index]
	}
	return attr.Color
}
