// Copyright 2022~2024 wangqi. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package terminal

import (
	"fmt"
	"strings"
)

// Action is one decoded event from the byte parser: a printable rune, a
// control character, an escape sequence or a device-control fragment.
// Every Action re-encodes to the bytes that produced it via EncodeAction.
type Action interface {
	isAction()
}

// CSI is a decoded control sequence ("\x1b[...").
type CSI interface {
	Action
	isCSI()
}

// OSC is a decoded operating system command ("\x1b]...\x07").
type OSC interface {
	Action
	isOSC()
}

// markers embedded by every concrete command type
type csiCmd struct{}

func (csiCmd) isAction() {}
func (csiCmd) isCSI()    {}

type oscCmd struct{}

func (oscCmd) isAction() {}
func (oscCmd) isOSC()    {}

// Print is a single printable rune destined for the grid.
type Print rune

func (Print) isAction() {}

// Control is a C0/C1 control character.
type Control byte

func (Control) isAction() {}

const (
	C0_NUL Control = 0x00
	C0_BEL Control = 0x07
	C0_BS  Control = 0x08
	C0_HT  Control = 0x09
	C0_LF  Control = 0x0a
	C0_VT  Control = 0x0b
	C0_FF  Control = 0x0c
	C0_CR  Control = 0x0d
	C0_SO  Control = 0x0e
	C0_SI  Control = 0x0f
	C0_ESC Control = 0x1b
	C0_DEL Control = 0x7f
)

// EnterDeviceControl begins a DCS string; the parameters and final byte
// identify the device request. Data bytes follow as DeviceControlData,
// terminated by ExitDeviceControl.
type EnterDeviceControl struct {
	Params        []int64
	Intermediates []byte
	Final         byte
}

func (EnterDeviceControl) isAction() {}

type DeviceControlData byte

func (DeviceControlData) isAction() {}

type ExitDeviceControl struct{}

func (ExitDeviceControl) isAction() {}

// EncodeAction renders an Action back to the byte sequence it was
// decoded from.
func EncodeAction(a Action) string {
	switch v := a.(type) {
	case Print:
		return string(rune(v))
	case Control:
		return string([]byte{byte(v)})
	case Esc:
		return EncodeEsc(v)
	case CSI:
		return EncodeCSI(v)
	case OSC:
		return EncodeOSC(v)
	case EnterDeviceControl:
		var b strings.Builder
		b.WriteString("\x1bP")
		for i, p := range v.Params {
			if i > 0 {
				b.WriteByte(';')
			}
			fmt.Fprintf(&b, "%d", p)
		}
		b.Write(v.Intermediates)
		b.WriteByte(v.Final)
		return b.String()
	case DeviceControlData:
		return string([]byte{byte(v)})
	case ExitDeviceControl:
		return "\x1b\\"
	}
	return ""
}
