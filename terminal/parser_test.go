/*

MIT License

Copyright (c) 2022 wangqi

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in all
copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
SOFTWARE.

*/

package terminal

import (
	"reflect"
	"testing"
)

func TestParseGround(t *testing.T) {
	tc := []struct {
		name   string
		input  string
		expect []Action
	}{
		{"plain text", "hi", []Action{Print('h'), Print('i')}},
		{"control in text", "a\x07b", []Action{Print('a'), Control(C0_BEL), Print('b')}},
		{"cr lf", "\r\n", []Action{Control(C0_CR), Control(C0_LF)}},
		{"delete swallowed", "a\x7fb", []Action{Print('a'), Print('b')}},
		{"utf8 text", "你a", []Action{Print('你'), Print('a')}},
		{"esc pair", "\x1bM", []Action{Esc{Control: 'M'}}},
		{"esc with intermediate", "\x1b(0", []Action{Esc{Intermediate: '(', Control: '0'}}},
	}

	for _, v := range tc {
		t.Run(v.name, func(t *testing.T) {
			p := NewParser()
			got := p.Parse([]byte(v.input))
			if !reflect.DeepEqual(got, v.expect) {
				t.Errorf("%q expect %#v, got %#v\n", v.input, v.expect, got)
			}
		})
	}
}

func TestParseCSISequence(t *testing.T) {
	tc := []struct {
		name   string
		input  string
		expect []Action
	}{
		{"home no params", "\x1b[H", []Action{CursorPosition{Line: 1, Col: 1}}},
		{"home leading default", "\x1b[;5H", []Action{CursorPosition{Line: 1, Col: 5}}},
		{"cursor up default", "\x1b[A", []Action{CursorUp{N: 1}}},
		{"cursor up count", "\x1b[7A", []Action{CursorUp{N: 7}}},
		{"colon separator", "\x1b[3:2H", []Action{CursorPosition{Line: 3, Col: 2}}},
		{"erase display", "\x1b[2J", []Action{EraseInDisplay{Mode: EraseDisplay}}},
		{"dec private set", "\x1b[?25h", []Action{SetDecPrivateMode{Mode: DecShowCursor}}},
		{"scroll region", "\x1b[2;5r", []Action{SetTopAndBottomMargins{Top: 2, Bottom: 5}}},
		{
			"sgr packed", "\x1b[1;31m",
			[]Action{SgrIntensity{I: IntensityBold}, SgrForeground{Color: PaletteColor(1)}},
		},
		{
			"sgr true color", "\x1b[38;2;10;20;30m",
			[]Action{SgrForeground{Color: TrueColor(10, 20, 30)}},
		},
		{
			"unknown final preserved", "\x1b[7;3;9z",
			[]Action{Unspecified{Params: []int64{7, 3, 9}, Final: 'z'}},
		},
		{"can aborts csi", "\x1b[12\x18A", []Action{Print('A')}},
		{"param clamp", "\x1b[99999999C", []Action{CursorRight{N: 65535}}},
	}

	for _, v := range tc {
		t.Run(v.name, func(t *testing.T) {
			p := NewParser()
			got := p.Parse([]byte(v.input))
			if !reflect.DeepEqual(got, v.expect) {
				t.Errorf("%q expect %#v, got %#v\n", v.input, v.expect, got)
			}
		})
	}
}

func TestParseOSCSequence(t *testing.T) {
	tc := []struct {
		name   string
		input  string
		expect []Action
	}{
		{"title bel", "\x1b]0;hello\x07", []Action{SetIconNameAndWindowTitle{Title: "hello"}}},
		{"title st", "\x1b]2;hi\x1b\\", []Action{SetWindowTitle{Title: "hi"}}},
		{
			"unknown osc", "\x1b]777;a;b\x07",
			[]Action{UnspecifiedOSC{Params: [][]byte{[]byte("777"), []byte("a"), []byte("b")}}},
		},
	}

	for _, v := range tc {
		t.Run(v.name, func(t *testing.T) {
			p := NewParser()
			got := p.Parse([]byte(v.input))
			if !reflect.DeepEqual(got, v.expect) {
				t.Errorf("%q expect %#v, got %#v\n", v.input, v.expect, got)
			}
		})
	}
}

func TestParseDCS(t *testing.T) {
	p := NewParser()
	got := p.Parse([]byte("\x1bP1$q\"p\x1b\\"))
	expect := []Action{
		EnterDeviceControl{Params: []int64{1}, Intermediates: []byte{'$'}, Final: 'q'},
		DeviceControlData('"'),
		DeviceControlData('p'),
		ExitDeviceControl{},
	}
	if !reflect.DeepEqual(got, expect) {
		t.Errorf("dcs expect %#v, got %#v\n", expect, got)
	}
}

// escape sequences and multi-byte runes may be split at any byte
func TestParseChunkBoundary(t *testing.T) {
	tc := []struct {
		name   string
		chunks []string
		expect []Action
	}{
		{"split rune", []string{"a\xe4\xbd", "\xa0b"}, []Action{Print('a'), Print('你'), Print('b')}},
		{"split csi", []string{"\x1b", "[2", "J"}, []Action{EraseInDisplay{Mode: EraseDisplay}}},
		{"split osc", []string{"\x1b]0;a", "b\x07"}, []Action{SetIconNameAndWindowTitle{Title: "ab"}}},
		{"split esc", []string{"\x1b", "7"}, []Action{Esc{Control: '7'}}},
	}

	for _, v := range tc {
		t.Run(v.name, func(t *testing.T) {
			p := NewParser()
			var got []Action
			for _, chunk := range v.chunks {
				got = append(got, p.Parse([]byte(chunk))...)
			}
			if !reflect.DeepEqual(got, v.expect) {
				t.Errorf("%q expect %#v, got %#v\n", v.chunks, v.expect, got)
			}
		})
	}
}

func TestParseInvalidUTF8(t *testing.T) {
	p := NewParser()
	got := p.Parse([]byte{'a', 0xff, 'b'})
	expect := []Action{Print('a'), Print(0xfffd), Print('b')}
	if !reflect.DeepEqual(got, expect) {
		t.Errorf("invalid utf8 expect %#v, got %#v\n", expect, got)
	}
}

// anything the decoder does not model must survive decode plus encode
// byte for byte
func TestParseEncodeRoundTrip(t *testing.T) {
	tc := []struct {
		name  string
		input string
	}{
		{"unknown csi final", "\x1b[7;3;9z"},
		{"unknown dec mode", "\x1b[?9999h"},
		{"cursor up", "\x1b[7A"},
		{"cursor position", "\x1b[3;5H"},
		{"sgr reset", "\x1b[0m"},
		{"soft reset", "\x1b[!p"},
		{"checksum area", "\x1b[1;0;1;1;2;2*y"},
	}

	for _, v := range tc {
		t.Run(v.name, func(t *testing.T) {
			p := NewParser()
			actions := p.Parse([]byte(v.input))
			if len(actions) != 1 {
				t.Fatalf("%q expect one action, got %#v\n", v.input, actions)
			}
			csi, ok := actions[0].(CSI)
			if !ok {
				t.Fatalf("%q expect CSI, got %#v\n", v.input, actions[0])
			}
			if got := EncodeCSI(csi); got != v.input {
				t.Errorf("%q re-encoded as %q\n", v.input, got)
			}
		})
	}
}
