// Copyright 2022~2024 wangqi. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package terminal

import (
	"strings"

	"github.com/rivo/uniseg"
)

// Performer applies decoded actions to the terminal state. Print runes
// are buffered so combining marks and ZWJ sequences land in the grid as
// whole grapheme clusters; any non-print action flushes the buffer
// first.
type Performer struct {
	state *TerminalState
	host  TerminalHost

	print strings.Builder
	err   error
}

func NewPerformer(state *TerminalState, host TerminalHost) *Performer {
	return &Performer{state: state, host: host}
}

// PerformAction routes one action. The first host write error sticks
// and is reported by Finish.
func (p *Performer) PerformAction(a Action) {
	if pr, ok := a.(Print); ok {
		p.print.WriteRune(rune(pr))
		return
	}
	p.FlushPrint()
	switch v := a.(type) {
	case Control:
		p.state.performControl(v)
	case Esc:
		p.state.performEsc(v)
	case CSI:
		p.keepErr(p.state.performCSI(v, p.host))
	case OSC:
		p.keepErr(p.state.performOSC(v, p.host))
	case EnterDeviceControl, DeviceControlData, ExitDeviceControl:
		// device control strings are decoded but not interpreted
	}
}

func (p *Performer) keepErr(err error) {
	if p.err == nil {
		p.err = err
	}
}

// Finish flushes pending print output and returns the first error any
// response write produced.
func (p *Performer) Finish() error {
	p.FlushPrint()
	err := p.err
	p.err = nil
	return err
}

// FlushPrint writes the buffered text into the grid cluster by
// cluster.
func (p *Performer) FlushPrint() {
	if p.print.Len() == 0 {
		return
	}
	text := p.print.String()
	p.print.Reset()

	g := uniseg.NewGraphemes(text)
	for g.Next() {
		p.printCluster(g.Str())
	}
}

var lineDrawingMap = map[rune]string{
	'j': "┘", 'k': "┐", 'l': "┌", 'm': "└", 'n': "┼",
	'q': "─", 't': "├", 'u': "┤", 'v': "┴", 'w': "┬", 'x': "│",
}

func (p *Performer) printCluster(cluster string) {
	t := p.state
	scr := t.screen.Active()
	cols := scr.PhysicalCols()

	if t.decLineDrawing {
		if len(cluster) == 1 {
			if glyph, ok := lineDrawingMap[rune(cluster[0])]; ok {
				cluster = glyph
			}
		}
	}

	if !t.insert && t.wrapNext {
		t.newLine(true)
	}

	width := unicodeColumnWidth(cluster)
	if width < 1 {
		// combining mark with nothing to combine with; give it a cell
		width = 1
	}

	pen := t.pen
	if !t.insert && t.cursor.X+width >= cols {
		pen.SetWrapped(true)
	}

	if t.insert {
		for i := 0; i < width; i++ {
			scr.InsertCell(t.cursor.X, t.cursor.Y)
		}
	}
	scr.SetCell(t.cursor.X, t.cursor.Y, NewCell(cluster, pen))

	if t.cursor.X+width < cols {
		t.cursor.X += width
		t.wrapNext = false
	} else {
		t.wrapNext = t.decAutoWrap
	}
}
