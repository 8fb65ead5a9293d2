// Copyright 2022~2024 wangqi. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package terminal

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

type (
	SetIconNameAndWindowTitle struct {
		oscCmd
		Title string
	}
	SetIconName struct {
		oscCmd
		Title string
	}
	SetWindowTitle struct {
		oscCmd
		Title string
	}
	SystemNotification struct {
		oscCmd
		Message string
	}
	// OSC 8; a nil Link ends the current hyperlink
	SetHyperlink struct {
		oscCmd
		Link *Hyperlink
	}
	// OSC 4
	ChangeColorNumber struct {
		oscCmd
		Pairs []ColorPair
	}
	// OSC 10..19; each extra spec applies to the following color number
	ChangeDynamicColors struct {
		oscCmd
		FirstColor DynamicColorNumber
		Colors     []ColorOrQuery
	}
	// OSC 52 forms
	ClearSelection struct {
		oscCmd
		Selection Selection
	}
	QuerySelection struct {
		oscCmd
		Selection Selection
	}
	SetSelection struct {
		oscCmd
		Selection Selection
		Content   string
	}
	// UnspecifiedOSC preserves anything unrecognized byte for byte.
	UnspecifiedOSC struct {
		oscCmd
		Params [][]byte
	}
)

// ColorOrQuery is either a concrete color or the "?" query form.
type ColorOrQuery struct {
	Color RgbColor
	Query bool
}

type ColorPair struct {
	Index uint8
	Color ColorOrQuery
}

type DynamicColorNumber uint8

const (
	DynamicTextForeground         DynamicColorNumber = 10
	DynamicTextBackground         DynamicColorNumber = 11
	DynamicTextCursorColor        DynamicColorNumber = 12
	DynamicMousePointerForeground DynamicColorNumber = 13
	DynamicMousePointerBackground DynamicColorNumber = 14
	DynamicTektronixForeground    DynamicColorNumber = 15
	DynamicTektronixBackground    DynamicColorNumber = 16
	DynamicHighlightBackground    DynamicColorNumber = 17
	DynamicTektronixCursorColor   DynamicColorNumber = 18
	DynamicHighlightForeground    DynamicColorNumber = 19
)

// Selection is the clipboard destination bitset of OSC 52.
type Selection uint16

const (
	SelectionClipboard Selection = 1 << 1
	SelectionPrimary   Selection = 1 << 2
	SelectionSelect    Selection = 1 << 3
	SelectionCut0      Selection = 1 << 4
	SelectionCut1      Selection = 1 << 5
	SelectionCut2      Selection = 1 << 6
	SelectionCut3      Selection = 1 << 7
	SelectionCut4      Selection = 1 << 8
	SelectionCut5      Selection = 1 << 9
	SelectionCut6      Selection = 1 << 10
	SelectionCut7      Selection = 1 << 11
	SelectionCut8      Selection = 1 << 12
	SelectionCut9      Selection = 1 << 13
)

func parseSelection(s []byte) Selection {
	if len(s) == 0 {
		return SelectionSelect | SelectionCut0
	}
	var sel Selection
	for _, b := range s {
		switch {
		case b == 'c':
			sel |= SelectionClipboard
		case b == 'p':
			sel |= SelectionPrimary
		case b == 's':
			sel |= SelectionSelect
		case b >= '0' && b <= '9':
			sel |= SelectionCut0 << (b - '0')
		}
	}
	return sel
}

func (s Selection) String() string {
	var b strings.Builder
	if s&SelectionClipboard != 0 {
		b.WriteByte('c')
	}
	if s&SelectionPrimary != 0 {
		b.WriteByte('p')
	}
	if s&SelectionSelect != 0 {
		b.WriteByte('s')
	}
	for i := 0; i < 10; i++ {
		if s&(SelectionCut0<<i) != 0 {
			b.WriteByte(byte('0' + i))
		}
	}
	return b.String()
}

// ParseOSC decodes the ';'-separated parameter list of an operating
// system command. Unknown or malformed commands come back as
// UnspecifiedOSC so they survive a round trip.
func ParseOSC(params [][]byte) OSC {
	unspecified := func() OSC {
		cp := make([][]byte, len(params))
		for i, p := range params {
			cp[i] = append([]byte(nil), p...)
		}
		return UnspecifiedOSC{Params: cp}
	}
	if len(params) == 0 {
		return unspecified()
	}
	code, err := strconv.Atoi(string(params[0]))
	if err != nil {
		return unspecified()
	}

	str1 := func() (string, bool) {
		if len(params) != 2 || !utf8.Valid(params[1]) {
			return "", false
		}
		return string(params[1]), true
	}

	switch {
	case code == 0:
		if s, ok := str1(); ok {
			return SetIconNameAndWindowTitle{Title: s}
		}
	case code == 1:
		if s, ok := str1(); ok {
			return SetIconName{Title: s}
		}
	case code == 2:
		if s, ok := str1(); ok {
			return SetWindowTitle{Title: s}
		}
	case code == 4:
		rest := params[1:]
		if len(rest) == 0 || len(rest)%2 != 0 {
			return unspecified()
		}
		pairs := make([]ColorPair, 0, len(rest)/2)
		for i := 0; i < len(rest); i += 2 {
			idx, err := strconv.ParseUint(string(rest[i]), 10, 8)
			if err != nil {
				return unspecified()
			}
			cq, ok := parseColorOrQuery(string(rest[i+1]))
			if !ok {
				return unspecified()
			}
			pairs = append(pairs, ColorPair{Index: uint8(idx), Color: cq})
		}
		return ChangeColorNumber{Pairs: pairs}
	case code == 8:
		link, ok := parseHyperlinkParams(params)
		if !ok {
			return unspecified()
		}
		return SetHyperlink{Link: link}
	case code == 9:
		if s, ok := str1(); ok {
			return SystemNotification{Message: s}
		}
	case code >= 10 && code <= 19:
		rest := params[1:]
		if len(rest) == 0 {
			return unspecified()
		}
		colors := make([]ColorOrQuery, 0, len(rest))
		for _, p := range rest {
			cq, ok := parseColorOrQuery(string(p))
			if !ok {
				return unspecified()
			}
			colors = append(colors, cq)
		}
		return ChangeDynamicColors{FirstColor: DynamicColorNumber(code), Colors: colors}
	case code == 52:
		switch len(params) {
		case 2:
			return ClearSelection{Selection: parseSelection(params[1])}
		case 3:
			sel := parseSelection(params[1])
			if string(params[2]) == "?" {
				return QuerySelection{Selection: sel}
			}
			data, err := base64.StdEncoding.DecodeString(string(params[2]))
			if err != nil || !utf8.Valid(data) {
				return unspecified()
			}
			return SetSelection{Selection: sel, Content: string(data)}
		}
	}
	return unspecified()
}

func parseColorOrQuery(s string) (ColorOrQuery, bool) {
	if s == "?" {
		return ColorOrQuery{Query: true}, true
	}
	c, ok := ParseRgbColor(s)
	if !ok {
		return ColorOrQuery{}, false
	}
	return ColorOrQuery{Color: c}, true
}

func (c ColorOrQuery) String() string {
	if c.Query {
		return "?"
	}
	return c.Color.String()
}

// EncodeOSC renders the command back to its byte sequence, BEL
// terminated as xterm emits them.
func EncodeOSC(o OSC) string {
	return "\x1b]" + encodeOSCBody(o) + "\x07"
}

func encodeOSCBody(o OSC) string {
	switch v := o.(type) {
	case SetIconNameAndWindowTitle:
		return "0;" + v.Title
	case SetIconName:
		return "1;" + v.Title
	case SetWindowTitle:
		return "2;" + v.Title
	case SystemNotification:
		return "9;" + v.Message
	case SetHyperlink:
		if v.Link == nil {
			return "8;;"
		}
		return "8;" + v.Link.paramString() + ";" + v.Link.URI
	case ChangeColorNumber:
		var b strings.Builder
		b.WriteByte('4')
		for _, p := range v.Pairs {
			fmt.Fprintf(&b, ";%d;%s", p.Index, p.Color)
		}
		return b.String()
	case ChangeDynamicColors:
		var b strings.Builder
		fmt.Fprintf(&b, "%d", v.FirstColor)
		for _, c := range v.Colors {
			b.WriteByte(';')
			b.WriteString(c.String())
		}
		return b.String()
	case ClearSelection:
		return "52;" + v.Selection.String()
	case QuerySelection:
		return "52;" + v.Selection.String() + ";?"
	case SetSelection:
		return "52;" + v.Selection.String() + ";" +
			base64.StdEncoding.EncodeToString([]byte(v.Content))
	case UnspecifiedOSC:
		parts := make([]string, len(v.Params))
		for i, p := range v.Params {
			parts[i] = string(p)
		}
		return strings.Join(parts, ";")
	}
	return ""
}
