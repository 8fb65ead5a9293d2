// Copyright 2022~2024 wangqi. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package terminal

import "time"

// Modifiers is the keyboard modifier bitset shared by key and mouse
// events.
type Modifiers uint8

const (
	ModNone  Modifiers = 0
	ModShift Modifiers = 1 << 1
	ModAlt   Modifiers = 1 << 2
	ModCtrl  Modifiers = 1 << 3
	ModSuper Modifiers = 1 << 4
)

type KeyCodeKind uint8

const (
	KeyChar KeyCodeKind = iota
	KeyBackspace
	KeyTab
	KeyEnter
	KeyEscape
	KeyPageUp
	KeyPageDown
	KeyHome
	KeyEnd
	KeyLeftArrow
	KeyRightArrow
	KeyUpArrow
	KeyDownArrow
	KeyInsert
	KeyDelete
	KeyFunction
	KeyApplicationLeftArrow
	KeyApplicationRightArrow
	KeyApplicationUpArrow
	KeyApplicationDownArrow
	KeyNumpad
	KeyShift
	KeyControl
	KeyAlt
	KeySuper
)

// KeyCode identifies a key. Char carries the rune for KeyChar; Num
// carries the function key number or numpad digit.
type KeyCode struct {
	Kind KeyCodeKind
	Char rune
	Num  uint8
}

func Char(r rune) KeyCode { return KeyCode{Kind: KeyChar, Char: r} }

func Function(n uint8) KeyCode { return KeyCode{Kind: KeyFunction, Num: n} }

func Key(kind KeyCodeKind) KeyCode { return KeyCode{Kind: kind} }

type MouseButton uint8

const (
	MouseNone MouseButton = iota
	MouseLeft
	MouseMiddle
	MouseRight
	MouseWheelUp
	MouseWheelDown
)

type MouseEventKind uint8

const (
	MousePress MouseEventKind = iota
	MouseRelease
	MouseMove
)

// MouseEvent is a host-side pointer event in screen coordinates.
type MouseEvent struct {
	Kind      MouseEventKind
	X         int
	Y         int64
	Button    MouseButton
	Modifiers Modifiers
}

const clickStreakWindow = 500 * time.Millisecond

// LastMouseClick tracks double/triple click streaks.
type LastMouseClick struct {
	Button MouseButton
	Streak int
	when   time.Time
}

func NewLastMouseClick(button MouseButton) LastMouseClick {
	return LastMouseClick{Button: button, Streak: 1, when: time.Now()}
}

// Add extends the streak when the same button clicks again inside the
// window, otherwise restarts it.
func (c LastMouseClick) Add(button MouseButton) LastMouseClick {
	now := time.Now()
	if c.Button == button && now.Sub(c.when) <= clickStreakWindow {
		return LastMouseClick{Button: button, Streak: c.Streak + 1, when: now}
	}
	return LastMouseClick{Button: button, Streak: 1, when: now}
}
