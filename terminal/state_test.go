// Copyright 2022~2024 wangqi. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package terminal

import (
	"bytes"
	"strings"
	"testing"
)

func newTestTerminal(rows, cols int) (*Terminal, *WriterHost, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	host := &WriterHost{W: buf, CB: &MemoryClipboard{}}
	emu := NewTerminal(rows, cols, cols*8, rows*16, 100, nil)
	return emu, host, buf
}

func advance(t *testing.T, emu *Terminal, host *WriterHost, s string) {
	t.Helper()
	if err := emu.Advance([]byte(s), host); err != nil {
		t.Fatalf("advance %q: %s\n", s, err)
	}
}

func visibleRow(emu *Terminal, y VisibleRowIndex) string {
	return strings.TrimRight(emu.Screen().VisibleLine(y).String(), " ")
}

func TestPrintSimple(t *testing.T) {
	emu, host, _ := newTestTerminal(4, 10)
	advance(t, emu, host, "hello")

	if got := visibleRow(emu, 0); got != "hello" {
		t.Errorf("row 0 expect %q, got %q\n", "hello", got)
	}
	if pos := emu.CursorPos(); pos.X != 5 || pos.Y != 0 {
		t.Errorf("cursor expect (5,0), got (%d,%d)\n", pos.X, pos.Y)
	}
}

func TestPrintCRLF(t *testing.T) {
	emu, host, _ := newTestTerminal(4, 10)
	advance(t, emu, host, "one\r\ntwo")

	if got := visibleRow(emu, 0); got != "one" {
		t.Errorf("row 0 expect %q, got %q\n", "one", got)
	}
	if got := visibleRow(emu, 1); got != "two" {
		t.Errorf("row 1 expect %q, got %q\n", "two", got)
	}
}

func TestPrintWideWrap(t *testing.T) {
	emu, host, _ := newTestTerminal(2, 4)
	advance(t, emu, host, "ab你d")

	if got := visibleRow(emu, 0); got != "ab你" {
		t.Errorf("row 0 expect %q, got %q\n", "ab你", got)
	}
	if got := visibleRow(emu, 1); got != "d" {
		t.Errorf("row 1 expect %q, got %q\n", "d", got)
	}
}

func TestPrintCombining(t *testing.T) {
	emu, host, _ := newTestTerminal(2, 10)
	advance(t, emu, host, "éx")

	cell := emu.Screen().VisibleLine(0).CellAt(0)
	if cell.Str() != "é" {
		t.Errorf("cluster expect %q, got %q\n", "é", cell.Str())
	}
	if got := emu.Screen().VisibleLine(0).CellAt(1).Str(); got != "x" {
		t.Errorf("col 1 expect %q, got %q\n", "x", got)
	}
}

func TestAutoWrapDisabled(t *testing.T) {
	emu, host, _ := newTestTerminal(2, 4)
	advance(t, emu, host, "\x1b[?7labcdef")

	if got := visibleRow(emu, 0); got != "abcf" {
		t.Errorf("row 0 expect %q, got %q\n", "abcf", got)
	}
	if got := visibleRow(emu, 1); got != "" {
		t.Errorf("row 1 expect blank, got %q\n", got)
	}
}

func TestInsertMode(t *testing.T) {
	emu, host, _ := newTestTerminal(2, 10)
	advance(t, emu, host, "abcd\x1b[1;1H\x1b[4hXY")

	if got := visibleRow(emu, 0); got != "XYabcd" {
		t.Errorf("insert mode expect %q, got %q\n", "XYabcd", got)
	}
	// the cursor advances past each inserted cluster, as in xterm
	if pos := emu.CursorPos(); pos.X != 2 {
		t.Errorf("insert mode cursor expect x 2, got %d\n", pos.X)
	}
}

func TestEraseDisplayAndHome(t *testing.T) {
	emu, host, _ := newTestTerminal(2, 10)
	advance(t, emu, host, "aaa\r\nbbb\x1b[2J\x1b[H")

	if got := visibleRow(emu, 0); got != "" {
		t.Errorf("row 0 expect blank, got %q\n", got)
	}
	if got := visibleRow(emu, 1); got != "" {
		t.Errorf("row 1 expect blank, got %q\n", got)
	}
	advance(t, emu, host, "x")
	if got := visibleRow(emu, 0); got != "x" {
		t.Errorf("after home expect %q, got %q\n", "x", got)
	}
}

func TestEraseInLine(t *testing.T) {
	emu, host, _ := newTestTerminal(2, 10)
	advance(t, emu, host, "abcdefgh\x1b[1;4H\x1b[K")
	if got := visibleRow(emu, 0); got != "abc" {
		t.Errorf("erase to end expect %q, got %q\n", "abc", got)
	}

	emu, host, _ = newTestTerminal(2, 10)
	advance(t, emu, host, "abcdefgh\x1b[1;4H\x1b[1K")
	if got := visibleRow(emu, 0); got != "    efgh" {
		t.Errorf("erase to start expect %q, got %q\n", "    efgh", got)
	}
}

func TestEraseCharacter(t *testing.T) {
	emu, host, _ := newTestTerminal(2, 10)
	advance(t, emu, host, "abcdef\x1b[1;2H\x1b[3X")
	if got := visibleRow(emu, 0); got != "a   ef" {
		t.Errorf("ech expect %q, got %q\n", "a   ef", got)
	}
}

// erasing one half of a wide cluster blanks the whole cluster
func TestEraseNeutralizesWideCluster(t *testing.T) {
	emu, host, _ := newTestTerminal(2, 10)
	advance(t, emu, host, "你\x1b[1;2Hx")

	if got := visibleRow(emu, 0); got != " x" {
		t.Errorf("expect %q, got %q\n", " x", got)
	}
}

func TestInsertDeleteCharacter(t *testing.T) {
	emu, host, _ := newTestTerminal(2, 10)
	advance(t, emu, host, "abcd\x1b[1;1H\x1b[2@")
	if got := visibleRow(emu, 0); got != "  abcd" {
		t.Errorf("ich expect %q, got %q\n", "  abcd", got)
	}
	advance(t, emu, host, "\x1b[2P")
	if got := visibleRow(emu, 0); got != "abcd" {
		t.Errorf("dch expect %q, got %q\n", "abcd", got)
	}
}

func TestDeleteCharacterAcrossWideGlyph(t *testing.T) {
	emu, host, _ := newTestTerminal(2, 10)
	advance(t, emu, host, "ab世cd\x1b[1;4H\x1b[P")

	if got := visibleRow(emu, 0); got != "ab cd" {
		t.Errorf("dch on wide follower expect %q, got %q\n", "ab cd", got)
	}
}

func TestInsertDeleteLine(t *testing.T) {
	emu, host, _ := newTestTerminal(4, 10)
	advance(t, emu, host, "a\r\nb\r\nc\r\nd\x1b[2;1H\x1b[L")

	expect := []string{"a", "", "b", "c"}
	for y, want := range expect {
		if got := visibleRow(emu, VisibleRowIndex(y)); got != want {
			t.Errorf("after il: row %d expect %q, got %q\n", y, want, got)
		}
	}

	advance(t, emu, host, "\x1b[M")
	expect = []string{"a", "b", "c", ""}
	for y, want := range expect {
		if got := visibleRow(emu, VisibleRowIndex(y)); got != want {
			t.Errorf("after dl: row %d expect %q, got %q\n", y, want, got)
		}
	}
}

func TestRepeat(t *testing.T) {
	emu, host, _ := newTestTerminal(2, 10)
	advance(t, emu, host, "ab\x1b[2b")
	if got := visibleRow(emu, 0); got != "abbb" {
		t.Errorf("repeat expect %q, got %q\n", "abbb", got)
	}
	if pos := emu.CursorPos(); pos.X != 4 {
		t.Errorf("cursor expect x 4, got %d\n", pos.X)
	}
}

func TestScrollRegion(t *testing.T) {
	emu, host, _ := newTestTerminal(4, 10)
	advance(t, emu, host, "a\r\nb\r\nc\r\nd\x1b[2;3r\x1b[3;1H\n")

	expect := []string{"a", "c", "", "d"}
	for y, want := range expect {
		if got := visibleRow(emu, VisibleRowIndex(y)); got != want {
			t.Errorf("row %d expect %q, got %q\n", y, want, got)
		}
	}
	// a region scroll must not feed the scrollback
	if got := len(emu.Screen().AllLines()); got != 4 {
		t.Errorf("expect 4 stored lines, got %d\n", got)
	}
}

func TestOriginMode(t *testing.T) {
	emu, host, _ := newTestTerminal(4, 10)
	advance(t, emu, host, "\x1b[2;3r\x1b[?6h")

	if pos := emu.CursorPos(); pos.Y != 1 {
		t.Errorf("origin home expect row 1, got %d\n", pos.Y)
	}
	advance(t, emu, host, "\x1b[9;1H")
	if pos := emu.CursorPos(); pos.Y != 2 {
		t.Errorf("origin clamp expect row 2, got %d\n", pos.Y)
	}
}

func TestScrollbackAndStableRows(t *testing.T) {
	emu, host, _ := newTestTerminal(2, 5)
	advance(t, emu, host, "a\r\nb\r\nc")

	if got := visibleRow(emu, 0); got != "b" {
		t.Errorf("row 0 expect %q, got %q\n", "b", got)
	}
	if got := visibleRow(emu, 1); got != "c" {
		t.Errorf("row 1 expect %q, got %q\n", "c", got)
	}
	if _, y := emu.State().StableCursorPos(); y != 2 {
		t.Errorf("stable cursor row expect 2, got %d\n", y)
	}
	// the first row is still in the scrollback
	if got := strings.TrimRight(emu.Screen().Line(0).String(), " "); got != "a" {
		t.Errorf("scrollback expect %q, got %q\n", "a", got)
	}
}

func TestTabStops(t *testing.T) {
	emu, host, _ := newTestTerminal(2, 20)
	advance(t, emu, host, "\t")
	if pos := emu.CursorPos(); pos.X != 8 {
		t.Errorf("tab expect x 8, got %d\n", pos.X)
	}
	advance(t, emu, host, "\t\t")
	if pos := emu.CursorPos(); pos.X != 19 {
		t.Errorf("tab past last stop expect x 19, got %d\n", pos.X)
	}

	// custom stop via HTS
	advance(t, emu, host, "\x1b[1;4H\x1bH\r\t")
	if pos := emu.CursorPos(); pos.X != 3 {
		t.Errorf("custom stop expect x 3, got %d\n", pos.X)
	}

	// clear all stops
	advance(t, emu, host, "\x1b[3g\r\t")
	if pos := emu.CursorPos(); pos.X != 19 {
		t.Errorf("cleared stops expect x 19, got %d\n", pos.X)
	}
}

func TestBackspaceReverseWraparound(t *testing.T) {
	emu, host, _ := newTestTerminal(2, 5)
	advance(t, emu, host, "ab\x08")
	if pos := emu.CursorPos(); pos.X != 1 {
		t.Errorf("bs expect x 1, got %d\n", pos.X)
	}

	emu, host, _ = newTestTerminal(2, 5)
	advance(t, emu, host, "\x1b[?45h\x08")
	if pos := emu.CursorPos(); pos.X != 4 || pos.Y != 1 {
		t.Errorf("reverse wrap from home expect (4,1), got (%d,%d)\n", pos.X, pos.Y)
	}
}

func TestAltScreen(t *testing.T) {
	emu, host, _ := newTestTerminal(2, 10)
	advance(t, emu, host, "main\x1b[?1049h")

	if !emu.State().ScreenOrAlt().AltScreenIsActive() {
		t.Fatalf("alt screen should be active\n")
	}
	if got := visibleRow(emu, 0); got != "" {
		t.Errorf("alt screen should start blank, got %q\n", got)
	}

	advance(t, emu, host, "alt")
	if got := visibleRow(emu, 0); got != "alt" {
		t.Errorf("alt row expect %q, got %q\n", "alt", got)
	}

	advance(t, emu, host, "\x1b[?1049l")
	if got := visibleRow(emu, 0); got != "main" {
		t.Errorf("primary content expect %q, got %q\n", "main", got)
	}
	if pos := emu.CursorPos(); pos.X != 4 || pos.Y != 0 {
		t.Errorf("cursor restore expect (4,0), got (%d,%d)\n", pos.X, pos.Y)
	}
}

func TestSgrPen(t *testing.T) {
	emu, host, _ := newTestTerminal(2, 10)
	advance(t, emu, host, "\x1b[1;4;31mX\x1b[0mY")

	x := emu.Screen().VisibleLine(0).CellAt(0).Attrs()
	if x.Intensity() != IntensityBold || x.Underline() != UnderlineSingle {
		t.Errorf("X attrs expect bold underline, got %+v\n", x)
	}
	if x.Foreground != PaletteColor(1).Attribute() {
		t.Errorf("X foreground expect palette 1, got %+v\n", x.Foreground)
	}

	y := emu.Screen().VisibleLine(0).CellAt(1).Attrs()
	if y.Intensity() != IntensityNormal || y.Foreground != (ColorAttribute{}) {
		t.Errorf("Y attrs should be reset, got %+v\n", y)
	}
}

func TestSgrResetKeepsHyperlink(t *testing.T) {
	emu, host, _ := newTestTerminal(2, 10)
	advance(t, emu, host, "\x1b]8;;http://a\x07\x1b[31m\x1b[0mZ\x1b]8;;\x07W")

	z := emu.Screen().VisibleLine(0).CellAt(0).Attrs()
	if z.Hyperlink == nil || z.Hyperlink.URI != "http://a" {
		t.Errorf("Z should keep the hyperlink through SGR reset, got %#v\n", z.Hyperlink)
	}
	w := emu.Screen().VisibleLine(0).CellAt(1).Attrs()
	if w.Hyperlink != nil {
		t.Errorf("W should carry no hyperlink\n")
	}
}

func TestWindowTitle(t *testing.T) {
	emu, host, _ := newTestTerminal(2, 10)
	advance(t, emu, host, "\x1b]2;mytitle\x07")
	if got := emu.Title(); got != "mytitle" {
		t.Errorf("title expect %q, got %q\n", "mytitle", got)
	}
}

func TestClipboardOSC52(t *testing.T) {
	emu, host, _ := newTestTerminal(2, 10)
	advance(t, emu, host, "\x1b]52;c;aGVsbG8=\x07")

	got, _ := host.CB.GetContents()
	if got != "hello" {
		t.Errorf("clipboard expect %q, got %q\n", "hello", got)
	}

	advance(t, emu, host, "\x1b]52;c\x07")
	got, _ = host.CB.GetContents()
	if got != "" {
		t.Errorf("clipboard expect cleared, got %q\n", got)
	}
}

func TestDynamicColors(t *testing.T) {
	emu, host, buf := newTestTerminal(2, 10)
	advance(t, emu, host, "\x1b]10;#102030\x07")

	if got := emu.Palette().Foreground; got != NewRgbColor(0x10, 0x20, 0x30) {
		t.Errorf("foreground expect #102030, got %s\n", got)
	}

	advance(t, emu, host, "\x1b]11;?\x07")
	if got := buf.String(); got != "\x1b]11;#000000\x07" {
		t.Errorf("background query expect %q, got %q\n", "\x1b]11;#000000\x07", got)
	}
}

func TestChangeColorNumber(t *testing.T) {
	emu, host, buf := newTestTerminal(2, 10)
	advance(t, emu, host, "\x1b]4;1;#102030\x07")

	if got := emu.Palette().Colors[1]; got != NewRgbColor(0x10, 0x20, 0x30) {
		t.Errorf("palette 1 expect #102030, got %s\n", got)
	}

	advance(t, emu, host, "\x1b]4;2;?\x07")
	if got := buf.String(); got != "\x1b]4;2;#55cc55\x07" {
		t.Errorf("palette query expect %q, got %q\n", "\x1b]4;2;#55cc55\x07", got)
	}
}

func TestDeviceResponses(t *testing.T) {
	tc := []struct {
		name   string
		input  string
		expect string
	}{
		{"primary da", "\x1b[c", "\x1b[?63;4;6c"},
		{"secondary da", "\x1b[>c", "\x1b[>0;0;0c"},
		{"status report", "\x1b[5n", "\x1b[0n"},
		{"cursor position report", "\x1b[3;5H\x1b[6n", "\x1b[3;5R"},
		{"text area size", "\x1b[18t", "\x1b[8;4;10t"},
	}

	for _, v := range tc {
		t.Run(v.name, func(t *testing.T) {
			emu, host, buf := newTestTerminal(4, 10)
			advance(t, emu, host, v.input)
			if got := buf.String(); got != v.expect {
				t.Errorf("%q expect response %q, got %q\n", v.input, v.expect, got)
			}
		})
	}
}

func TestChecksumRectangularArea(t *testing.T) {
	emu, host, buf := newTestTerminal(2, 10)
	advance(t, emu, host, "AB\x1b[1;0;1;1;1;2*y")

	expect := "\x1bP1!~0083\x1b\\"
	if got := buf.String(); got != expect {
		t.Errorf("checksum expect %q, got %q\n", expect, got)
	}
}

func TestSoftReset(t *testing.T) {
	emu, host, buf := newTestTerminal(4, 10)
	advance(t, emu, host, "\x1b[2;3r\x1b[?6h\x1b[?1h\x1b[!p")

	buf.Reset()
	if err := emu.KeyDown(Key(KeyUpArrow), ModNone, buf); err != nil {
		t.Fatalf("keydown: %s\n", err)
	}
	if got := buf.String(); got != "\x1b[A" {
		t.Errorf("cursor keys should be normal after soft reset, got %q\n", got)
	}

	advance(t, emu, host, "\x1b[H")
	if pos := emu.CursorPos(); pos.Y != 0 {
		t.Errorf("origin mode should be off after soft reset, row %d\n", pos.Y)
	}
}

func TestFullReset(t *testing.T) {
	emu, host, _ := newTestTerminal(2, 10)
	advance(t, emu, host, "hi\x1b[31m\x1bc")

	if got := visibleRow(emu, 0); got != "" {
		t.Errorf("full reset should clear the screen, got %q\n", got)
	}
	if pos := emu.CursorPos(); pos.X != 0 || pos.Y != 0 {
		t.Errorf("full reset cursor expect (0,0), got (%d,%d)\n", pos.X, pos.Y)
	}

	advance(t, emu, host, "x")
	attrs := emu.Screen().VisibleLine(0).CellAt(0).Attrs()
	if attrs.Foreground != (ColorAttribute{}) {
		t.Errorf("full reset should clear the pen, got %+v\n", attrs.Foreground)
	}
}

func TestDirtyLines(t *testing.T) {
	emu, host, _ := newTestTerminal(2, 10)
	emu.State().CleanDirtyLines()
	advance(t, emu, host, "ab")

	stable := emu.Screen().StableRange(Range[VisibleRowIndex]{Start: 0, End: 2})
	dirty := emu.GetDirtyLines(stable)
	if !dirty.Contains(stable.Start) {
		t.Errorf("printed row should be dirty: %s\n", dirty)
	}
	if dirty.Contains(stable.Start + 1) {
		t.Errorf("untouched row should be clean: %s\n", dirty)
	}

	// fetching the lines clears their dirty state
	first, lines := emu.GetLines(stable)
	if first != stable.Start || len(lines) != 2 {
		t.Fatalf("getlines expect (%d,2), got (%d,%d)\n", stable.Start, first, len(lines))
	}
	if !strings.HasPrefix(lines[0].String(), "ab") {
		t.Errorf("cloned line expect %q prefix, got %q\n", "ab", lines[0].String())
	}
	if got := emu.GetDirtyLines(stable); !got.IsEmpty() {
		t.Errorf("expect clean after getlines, got %s\n", got)
	}
}

func TestResizeReflow(t *testing.T) {
	emu, host, _ := newTestTerminal(2, 4)
	advance(t, emu, host, "abcdefgh")

	emu.Resize(2, 8, 64, 32)
	if got := visibleRow(emu, 0); got != "abcdefgh" {
		t.Errorf("widen expect %q, got %q\n", "abcdefgh", got)
	}
}

func TestSendPaste(t *testing.T) {
	emu, host, _ := newTestTerminal(2, 10)
	out := &bytes.Buffer{}

	emu.SendPaste("hi", out)
	if got := out.String(); got != "hi" {
		t.Errorf("plain paste expect %q, got %q\n", "hi", got)
	}

	advance(t, emu, host, "\x1b[?2004h")
	out.Reset()
	emu.SendPaste("hi", out)
	if got := out.String(); got != "\x1b[200~hi\x1b[201~" {
		t.Errorf("bracketed paste expect %q, got %q\n", "\x1b[200~hi\x1b[201~", got)
	}
}
