// Copyright 2022~2024 wangqi. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package terminal

import (
	"bytes"
	"testing"
)

func TestKeyDownEncoding(t *testing.T) {
	tc := []struct {
		name   string
		key    KeyCode
		mods   Modifiers
		expect string
	}{
		{"plain char", Char('a'), ModNone, "a"},
		{"ctrl char", Char('a'), ModCtrl, "\x01"},
		{"ctrl upper", Char('A'), ModCtrl, "\x01"},
		{"alt char", Char('a'), ModAlt, "\x1ba"},
		{"ctrl alt char", Char('c'), ModCtrl | ModAlt, "\x1b\x03"},
		{"ctrl i masks to tab", Char('i'), ModCtrl, "\x09"},
		{"ctrl bracket", Char('['), ModCtrl, "\x1b"},
		{"ctrl space", Char(' '), ModCtrl, "\x00"},
		{"enter", Key(KeyEnter), ModNone, "\r"},
		{"escape", Key(KeyEscape), ModNone, "\x1b"},
		{"backspace", Key(KeyBackspace), ModNone, "\x7f"},
		{"del char remaps", Char(0x7f), ModNone, "\x1b[3~"},
		{"bs char remaps", Char(0x08), ModNone, "\x7f"},
		{"tab", Key(KeyTab), ModNone, "\t"},
		{"shift tab", Key(KeyTab), ModShift, "\x1b[Z"},
		{"ctrl tab", Key(KeyTab), ModCtrl, "\x1b[9;5u"},
		{"up", Key(KeyUpArrow), ModNone, "\x1b[A"},
		{"ctrl up", Key(KeyUpArrow), ModCtrl, "\x1b[1;5A"},
		{"shift left", Key(KeyLeftArrow), ModShift, "\x1b[1;2D"},
		{"home", Key(KeyHome), ModNone, "\x1b[H"},
		{"end", Key(KeyEnd), ModNone, "\x1b[F"},
		{"application up", Key(KeyApplicationUpArrow), ModNone, "\x1bOA"},
		{"page up", Key(KeyPageUp), ModNone, "\x1b[5~"},
		{"shift page down", Key(KeyPageDown), ModShift, "\x1b[6;2~"},
		{"alt insert", Key(KeyInsert), ModAlt, "\x1b\x1b[2~"},
		{"ctrl delete", Key(KeyDelete), ModCtrl, "\x1b[3;5~"},
		{"f1", Function(1), ModNone, "\x1bOP"},
		{"f4", Function(4), ModNone, "\x1bOS"},
		{"f5", Function(5), ModNone, "\x1b[15~"},
		{"f12", Function(12), ModNone, "\x1b[24~"},
		{"shift f1", Function(1), ModShift, "\x1b[11;2~"},
		{"bare shift", Key(KeyShift), ModNone, ""},
	}

	for _, v := range tc {
		t.Run(v.name, func(t *testing.T) {
			st := NewTerminalState(4, 10, 0, 0, 0, nil)
			out := &bytes.Buffer{}
			if err := st.KeyDown(v.key, v.mods, out); err != nil {
				t.Fatalf("keydown: %s\n", err)
			}
			if got := out.String(); got != v.expect {
				t.Errorf("expect %q, got %q\n", v.expect, got)
			}
		})
	}
}

func TestKeyDownApplicationCursorKeys(t *testing.T) {
	emu, host, buf := newTestTerminal(4, 10)
	advance(t, emu, host, "\x1b[?1h")

	buf.Reset()
	if err := emu.KeyDown(Key(KeyUpArrow), ModNone, buf); err != nil {
		t.Fatalf("keydown: %s\n", err)
	}
	if got := buf.String(); got != "\x1bOA" {
		t.Errorf("application mode expect %q, got %q\n", "\x1bOA", got)
	}

	// modifiers force the CSI form even in application mode
	buf.Reset()
	if err := emu.KeyDown(Key(KeyUpArrow), ModCtrl, buf); err != nil {
		t.Fatalf("keydown: %s\n", err)
	}
	if got := buf.String(); got != "\x1b[1;5A" {
		t.Errorf("modified arrow expect %q, got %q\n", "\x1b[1;5A", got)
	}
}

func TestMouseSGRReporting(t *testing.T) {
	emu, host, buf := newTestTerminal(10, 20)
	advance(t, emu, host, "\x1b[?1000h\x1b[?1006h")

	buf.Reset()
	press := MouseEvent{Kind: MousePress, Button: MouseLeft, X: 4, Y: 5}
	if err := emu.MouseEvent(press, host); err != nil {
		t.Fatalf("mouse: %s\n", err)
	}
	if got := buf.String(); got != "\x1b[<0;5;6M" {
		t.Errorf("press expect %q, got %q\n", "\x1b[<0;5;6M", got)
	}

	buf.Reset()
	release := MouseEvent{Kind: MouseRelease, X: 4, Y: 5}
	if err := emu.MouseEvent(release, host); err != nil {
		t.Fatalf("mouse: %s\n", err)
	}
	if got := buf.String(); got != "\x1b[<0;5;6m" {
		t.Errorf("release expect %q, got %q\n", "\x1b[<0;5;6m", got)
	}

	// wheel with ctrl
	buf.Reset()
	wheel := MouseEvent{Kind: MousePress, Button: MouseWheelUp, X: 0, Y: 0, Modifiers: ModCtrl}
	if err := emu.MouseEvent(wheel, host); err != nil {
		t.Fatalf("mouse: %s\n", err)
	}
	if got := buf.String(); got != "\x1b[<80;1;1M" {
		t.Errorf("wheel expect %q, got %q\n", "\x1b[<80;1;1M", got)
	}
}

func TestMouseLegacyReporting(t *testing.T) {
	emu, host, buf := newTestTerminal(10, 20)
	advance(t, emu, host, "\x1b[?1000h")

	buf.Reset()
	press := MouseEvent{Kind: MousePress, Button: MouseLeft, X: 4, Y: 5}
	if err := emu.MouseEvent(press, host); err != nil {
		t.Fatalf("mouse: %s\n", err)
	}
	expect := []byte{0x1b, '[', 'M', 32, 37, 38}
	if got := buf.Bytes(); !bytes.Equal(got, expect) {
		t.Errorf("legacy press expect % x, got % x\n", expect, got)
	}
}

func TestMouseMotionReporting(t *testing.T) {
	emu, host, buf := newTestTerminal(10, 20)
	advance(t, emu, host, "\x1b[?1002h\x1b[?1006h")

	// motion without a held button is not reported in button-event mode
	move := MouseEvent{Kind: MouseMove, X: 3, Y: 3}
	if err := emu.MouseEvent(move, host); err != nil {
		t.Fatalf("mouse: %s\n", err)
	}
	if buf.Len() != 0 {
		t.Errorf("hover should not report, got %q\n", buf.String())
	}

	press := MouseEvent{Kind: MousePress, Button: MouseLeft, X: 3, Y: 3}
	if err := emu.MouseEvent(press, host); err != nil {
		t.Fatalf("mouse: %s\n", err)
	}
	buf.Reset()
	drag := MouseEvent{Kind: MouseMove, X: 5, Y: 5}
	if err := emu.MouseEvent(drag, host); err != nil {
		t.Fatalf("mouse: %s\n", err)
	}
	if got := buf.String(); got != "\x1b[<32;6;6M" {
		t.Errorf("drag expect %q, got %q\n", "\x1b[<32;6;6M", got)
	}
}

func TestMouseWheelWithoutReporting(t *testing.T) {
	emu, host, buf := newTestTerminal(10, 20)

	wheel := MouseEvent{Kind: MousePress, Button: MouseWheelDown, X: 0, Y: 0}
	if err := emu.MouseEvent(wheel, host); err != nil {
		t.Fatalf("mouse: %s\n", err)
	}
	if buf.Len() != 0 {
		t.Errorf("primary screen wheel should be silent, got %q\n", buf.String())
	}

	// on the alternate screen the wheel turns into arrow keys
	advance(t, emu, host, "\x1b[?47h")
	buf.Reset()
	if err := emu.MouseEvent(wheel, host); err != nil {
		t.Fatalf("mouse: %s\n", err)
	}
	if got := buf.String(); got != "\x1b[B" {
		t.Errorf("alt screen wheel expect %q, got %q\n", "\x1b[B", got)
	}
}

func TestCurrentHighlight(t *testing.T) {
	emu, host, _ := newTestTerminal(4, 40)
	advance(t, emu, host, "see \x1b]8;;http://a\x07docs\x1b]8;;\x07 here")

	move := MouseEvent{Kind: MouseMove, X: 5, Y: 0}
	if err := emu.MouseEvent(move, host); err != nil {
		t.Fatalf("mouse: %s\n", err)
	}
	link := emu.CurrentHighlight()
	if link == nil || link.URI != "http://a" {
		t.Errorf("expect link under pointer, got %#v\n", link)
	}

	move = MouseEvent{Kind: MouseMove, X: 20, Y: 0}
	if err := emu.MouseEvent(move, host); err != nil {
		t.Fatalf("mouse: %s\n", err)
	}
	if emu.CurrentHighlight() != nil {
		t.Errorf("expect no link over plain text\n")
	}
}

func TestClickStreak(t *testing.T) {
	c := NewLastMouseClick(MouseLeft)
	c = c.Add(MouseLeft)
	if c.Streak != 2 {
		t.Errorf("double click expect streak 2, got %d\n", c.Streak)
	}
	c = c.Add(MouseRight)
	if c.Streak != 1 {
		t.Errorf("button change should restart the streak, got %d\n", c.Streak)
	}
}
