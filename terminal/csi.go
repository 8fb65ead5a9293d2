// Copyright 2022~2024 wangqi. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package terminal

import (
	"fmt"
	"math"
	"strings"
)

// OneBased is a 1-based coordinate as carried on the wire. A zero
// parameter is promoted to 1 during decode.
type OneBased uint32

func oneBasedFromParam(v int64) (OneBased, bool) {
	if v < 0 || v > math.MaxUint32 {
		return 0, false
	}
	if v == 0 {
		return 1, true
	}
	return OneBased(v), true
}

func oneBasedFromZero(z int) OneBased {
	return OneBased(z + 1)
}

// ZeroBased converts to a 0-based index, saturating at 0.
func (o OneBased) ZeroBased() int {
	if o <= 1 {
		return 0
	}
	return int(o) - 1
}

//
// cursor family
//

type (
	CursorUp    struct {
		csiCmd
		N uint32
	}
	CursorDown struct {
		csiCmd
		N uint32
	}
	CursorRight struct {
		csiCmd
		N uint32
	}
	CursorLeft struct {
		csiCmd
		N uint32
	}
	CursorNextLine struct {
		csiCmd
		N uint32
	}
	CursorPrecedingLine struct {
		csiCmd
		N uint32
	}
	// CSI G
	CursorCharacterAbsolute struct {
		csiCmd
		Col OneBased
	}
	// CSI `
	CharacterPositionAbsolute struct {
		csiCmd
		Col OneBased
	}
	CharacterPositionForward struct {
		csiCmd
		N uint32
	}
	CharacterPositionBackward struct {
		csiCmd
		N uint32
	}
	// CSI f
	CharacterAndLinePosition struct {
		csiCmd
		Line OneBased
		Col  OneBased
	}
	LinePositionAbsolute struct {
		csiCmd
		Line OneBased
	}
	LinePositionForward struct {
		csiCmd
		N uint32
	}
	LinePositionBackward struct {
		csiCmd
		N uint32
	}
	// CSI H
	CursorPosition struct {
		csiCmd
		Line OneBased
		Col  OneBased
	}
	ForwardTabulation struct {
		csiCmd
		N uint32
	}
	BackwardTabulation struct {
		csiCmd
		N uint32
	}
	LineTabulation struct {
		csiCmd
		N uint32
	}
	TabulationClear struct {
		csiCmd
		Mode TabClearMode
	}
	TabulationControl struct {
		csiCmd
		Mode TabControlMode
	}
	// CSI R, emitted by the terminal in response to DSR 6
	ActivePositionReport struct {
		csiCmd
		Line OneBased
		Col  OneBased
	}
	RequestActivePositionReport struct{ csiCmd }
	SaveCursor                  struct{ csiCmd }
	RestoreCursor               struct{ csiCmd }
	// CSI SP q
	SetCursorStyle struct {
		csiCmd
		Style CursorStyle
	}
	// DECSTBM
	SetTopAndBottomMargins struct {
		csiCmd
		Top    OneBased
		Bottom OneBased
	}
)

type TabClearMode uint8

const (
	TabClearCharacterTabStopAtActivePosition TabClearMode = 0
	TabClearLineTabStopAtActiveLine          TabClearMode = 1
	TabClearCharacterTabStopsAtActiveLine    TabClearMode = 2
	TabClearAllCharacterTabStops             TabClearMode = 3
	TabClearAllLineTabStops                  TabClearMode = 4
	TabClearAll                              TabClearMode = 5
)

type TabControlMode uint8

const (
	TabControlSetCharacterTabStopAtActivePosition TabControlMode = 0
	TabControlSetLineTabStopAtActiveLine          TabControlMode = 1
	TabControlClearCharacterTabStopAtActivePos    TabControlMode = 2
	TabControlClearLineTabStopAtActiveLine        TabControlMode = 3
	TabControlClearCharacterTabStopsAtActiveLine  TabControlMode = 4
	TabControlClearAllCharacterTabStops           TabControlMode = 5
	TabControlClearAllLineTabStops                TabControlMode = 6
)

type CursorStyle uint8

const (
	CursorStyleDefault           CursorStyle = 0
	CursorStyleBlinkingBlock     CursorStyle = 1
	CursorStyleSteadyBlock       CursorStyle = 2
	CursorStyleBlinkingUnderline CursorStyle = 3
	CursorStyleSteadyUnderline   CursorStyle = 4
	CursorStyleBlinkingBar       CursorStyle = 5
	CursorStyleSteadyBar         CursorStyle = 6
)

//
// edit family
//

type (
	InsertCharacter struct {
		csiCmd
		N uint32
	}
	InsertLine struct {
		csiCmd
		N uint32
	}
	DeleteCharacter struct {
		csiCmd
		N uint32
	}
	DeleteLine struct {
		csiCmd
		N uint32
	}
	EraseCharacter struct {
		csiCmd
		N uint32
	}
	ScrollUp struct {
		csiCmd
		N uint32
	}
	ScrollDown struct {
		csiCmd
		N uint32
	}
	Repeat struct {
		csiCmd
		N uint32
	}
	EraseInLine struct {
		csiCmd
		Mode EraseInLineMode
	}
	EraseInDisplay struct {
		csiCmd
		Mode EraseInDisplayMode
	}
)

type EraseInLineMode uint8

const (
	EraseToEndOfLine   EraseInLineMode = 0
	EraseToStartOfLine EraseInLineMode = 1
	EraseLine          EraseInLineMode = 2
)

type EraseInDisplayMode uint8

const (
	EraseToEndOfDisplay   EraseInDisplayMode = 0
	EraseToStartOfDisplay EraseInDisplayMode = 1
	EraseDisplay          EraseInDisplayMode = 2
	EraseScrollback       EraseInDisplayMode = 3
)

//
// mode family
//

// DecMode is a DEC private mode number ("CSI ? Pm h/l"). Unknown numbers
// decode losslessly into the same types.
type DecMode uint16

const (
	DecApplicationCursorKeys  DecMode = 1
	DecOriginMode             DecMode = 6
	DecAutoWrap               DecMode = 7
	DecStartBlinkingCursor    DecMode = 12
	DecShowCursor             DecMode = 25
	DecReverseWraparound      DecMode = 45
	DecUseAlternateScreen     DecMode = 47
	DecMouseTracking          DecMode = 1000
	DecHighlightMouseTracking DecMode = 1001
	DecButtonEventMouse       DecMode = 1002
	DecAnyEventMouse          DecMode = 1003
	DecSGRMouse               DecMode = 1006
	DecClearAndEnableAltScrn  DecMode = 1049
	DecBracketedPaste         DecMode = 2004
)

// AnsiMode is an ECMA-48 mode number ("CSI Pm h/l").
type AnsiMode uint16

const (
	AnsiKeyboardAction   AnsiMode = 2
	AnsiInsert           AnsiMode = 4
	AnsiSendReceive      AnsiMode = 12
	AnsiAutomaticNewline AnsiMode = 20
)

type (
	SetDecPrivateMode struct {
		csiCmd
		Mode DecMode
	}
	ResetDecPrivateMode struct {
		csiCmd
		Mode DecMode
	}
	SaveDecPrivateMode struct {
		csiCmd
		Mode DecMode
	}
	RestoreDecPrivateMode struct {
		csiCmd
		Mode DecMode
	}
	SetMode struct {
		csiCmd
		Mode AnsiMode
	}
	ResetMode struct {
		csiCmd
		Mode AnsiMode
	}
)

//
// device family
//

type (
	SoftReset                        struct{ csiCmd }
	RequestPrimaryDeviceAttributes   struct{ csiCmd }
	RequestSecondaryDeviceAttributes struct{ csiCmd }
	StatusReport                     struct{ csiCmd }
)

type DeviceAttributeKind uint8

const (
	DeviceVt100AVO DeviceAttributeKind = iota
	DeviceVt101
	DeviceVt102
	DeviceVt220
	DeviceVt320
	DeviceVt420
)

// DeviceAttributes is the terminal's answer to DA1 ("CSI ? ... c").
type DeviceAttributes struct {
	csiCmd
	Kind       DeviceAttributeKind
	Attributes []uint16
}

//
// SGR family
//

type Intensity uint8

const (
	IntensityNormal Intensity = 0
	IntensityBold   Intensity = 1
	IntensityHalf   Intensity = 2
)

type Underline uint8

const (
	UnderlineNone   Underline = 0
	UnderlineSingle Underline = 1
	UnderlineDouble Underline = 2
)

type Blink uint8

const (
	BlinkNone  Blink = 0
	BlinkSlow  Blink = 1
	BlinkRapid Blink = 2
)

type (
	SgrReset     struct{ csiCmd }
	SgrIntensity struct {
		csiCmd
		I Intensity
	}
	SgrUnderline struct {
		csiCmd
		U Underline
	}
	SgrBlink struct {
		csiCmd
		B Blink
	}
	SgrItalic struct {
		csiCmd
		On bool
	}
	SgrInverse struct {
		csiCmd
		On bool
	}
	SgrInvisible struct {
		csiCmd
		On bool
	}
	SgrStrikeThrough struct {
		csiCmd
		On bool
	}
	// 0 is the default font, 1..9 the alternates
	SgrFont struct {
		csiCmd
		Font uint8
	}
	SgrForeground struct {
		csiCmd
		Color ColorSpec
	}
	SgrBackground struct {
		csiCmd
		Color ColorSpec
	}
)

//
// mouse report (SGR 1006 form, "CSI < b;x;y M|m")
//

type MouseButtonEvent uint8

const (
	Button1Press MouseButtonEvent = iota
	Button2Press
	Button3Press
	Button4Press
	Button5Press
	Button1Release
	Button2Release
	Button3Release
	Button1Drag
	Button2Drag
	Button3Drag
	ButtonNoneMoved
)

type MouseReport struct {
	csiCmd
	X         uint16
	Y         uint16
	Button    MouseButtonEvent
	Modifiers Modifiers
}

//
// window ops (xterm "CSI Ps t")
//

type WindowOp uint8

const (
	DeIconify WindowOp = iota
	Iconify
	RaiseWindow
	LowerWindow
	RefreshWindow
	RestoreMaximizedWindow
	MaximizeWindow
	MaximizeWindowVertically
	MaximizeWindowHorizontally
	UndoFullScreenMode
	ChangeToFullScreenMode
	ToggleFullScreen
	ReportWindowState
	ReportWindowPosition
	ReportTextAreaSizePixels
	ReportScreenSizePixels
	ReportCellSizePixels
	ReportTextAreaSizeCells
	ReportScreenSizeCells
	ReportIconLabel
	ReportWindowTitle
	PushIconAndWindowTitle
	PushIconTitle
	PushWindowTitle
	PopIconAndWindowTitle
	PopIconTitle
	PopWindowTitle
)

type Window struct {
	csiCmd
	Op WindowOp
}

type MoveWindow struct {
	csiCmd
	X int64
	Y int64
}

// ResizeWindowCells doubles as the response to ReportTextAreaSizeCells.
// A zero dimension stands for an omitted parameter.
type ResizeWindowCells struct {
	csiCmd
	Width  int64
	Height int64
}

type ResizeWindowPixels struct {
	csiCmd
	Width  int64
	Height int64
}

// DECRQCRA
type ChecksumRectangularArea struct {
	csiCmd
	RequestID  int64
	PageNumber int64
	Top        OneBased
	Left       OneBased
	Bottom     OneBased
	Right      OneBased
}

// Unspecified carries any sequence the decoder has no type for; it
// re-encodes to exactly the parameters, intermediates and final byte it
// was built from.
type Unspecified struct {
	csiCmd
	Params        []int64
	Intermediates []byte
	Final         byte
}

//
// decode
//

func to1bU32(v int64) (uint32, bool) {
	if v < 0 || v > math.MaxUint32 {
		return 0, false
	}
	if v == 0 {
		return 1, true
	}
	return uint32(v), true
}

// count of a repeatable op: missing means 1, zero means 1
func parseCount(params []int64) (uint32, bool) {
	switch len(params) {
	case 0:
		return 1, true
	case 1:
		return to1bU32(params[0])
	}
	return 0, false
}

func parseOne(params []int64) (OneBased, bool) {
	switch len(params) {
	case 0:
		return 1, true
	case 1:
		return oneBasedFromParam(params[0])
	}
	return 0, false
}

func parsePair(params []int64) (OneBased, OneBased, bool) {
	switch len(params) {
	case 0:
		return 1, 1, true
	case 2:
		a, ok1 := oneBasedFromParam(params[0])
		b, ok2 := oneBasedFromParam(params[1])
		return a, b, ok1 && ok2
	}
	return 0, 0, false
}

// enumerated parameter: missing means the default, exactly one value
// otherwise, bounded by maxVal
func parseEnum(params []int64, def, maxVal int64) (int64, bool) {
	switch len(params) {
	case 0:
		return def, true
	case 1:
		if params[0] >= 0 && params[0] <= maxVal {
			return params[0], true
		}
	}
	return 0, false
}

// ParseCSI turns the raw pieces of a control sequence into typed
// commands. SGR packs several commands into one sequence, hence the
// slice result. Anything unrecognized becomes a single Unspecified.
func ParseCSI(params []int64, intermediates []byte, final byte) []CSI {
	var res []CSI
	for {
		cmd, rest, ok := parseNextCSI(params, intermediates, final)
		if !ok {
			res = append(res, Unspecified{
				Params:        append([]int64(nil), params...),
				Intermediates: append([]byte(nil), intermediates...),
				Final:         final,
			})
			return res
		}
		res = append(res, cmd)
		if len(rest) == 0 {
			return res
		}
		params = rest
	}
}

// parseNextCSI decodes one command. A nil rest stops the iteration; a
// non-empty rest means the sequence packs more commands (SGR).
func parseNextCSI(params []int64, intermediates []byte, final byte) (CSI, []int64, bool) {
	if len(intermediates) == 0 {
		return parsePlainCSI(params, final)
	}
	if len(intermediates) == 1 {
		switch intermediates[0] {
		case '?':
			return parseDecModeCSI(params, final)
		case '>':
			if final == 'c' && (len(params) == 0 || (len(params) == 1 && params[0] == 0)) {
				return RequestSecondaryDeviceAttributes{}, nil, true
			}
		case '<':
			if final == 'M' || final == 'm' {
				return parseMouseReport(params, final)
			}
		case '!':
			if final == 'p' {
				return SoftReset{}, nil, true
			}
		case ' ':
			if final == 'q' {
				if len(params) >= 1 {
					if params[0] >= 0 && params[0] <= 6 {
						rest := params[1:]
						if len(rest) == 0 {
							rest = nil
						}
						return SetCursorStyle{Style: CursorStyle(params[0])}, rest, true
					}
				}
			}
		case '*':
			if final == 'y' {
				return parseChecksumArea(params)
			}
		}
	}
	return nil, nil, false
}

func parsePlainCSI(params []int64, final byte) (CSI, []int64, bool) {
	switch final {
	case '@':
		n, ok := parseCount(params)
		return InsertCharacter{N: n}, nil, ok
	case '`':
		c, ok := parseOne(params)
		return CharacterPositionAbsolute{Col: c}, nil, ok
	case 'A':
		n, ok := parseCount(params)
		return CursorUp{N: n}, nil, ok
	case 'B':
		n, ok := parseCount(params)
		return CursorDown{N: n}, nil, ok
	case 'C':
		n, ok := parseCount(params)
		return CursorRight{N: n}, nil, ok
	case 'D':
		n, ok := parseCount(params)
		return CursorLeft{N: n}, nil, ok
	case 'E':
		n, ok := parseCount(params)
		return CursorNextLine{N: n}, nil, ok
	case 'F':
		n, ok := parseCount(params)
		return CursorPrecedingLine{N: n}, nil, ok
	case 'G':
		c, ok := parseOne(params)
		return CursorCharacterAbsolute{Col: c}, nil, ok
	case 'H':
		line, col, ok := parsePair(params)
		return CursorPosition{Line: line, Col: col}, nil, ok
	case 'I':
		n, ok := parseCount(params)
		return ForwardTabulation{N: n}, nil, ok
	case 'J':
		m, ok := parseEnum(params, 0, 3)
		return EraseInDisplay{Mode: EraseInDisplayMode(m)}, nil, ok
	case 'K':
		m, ok := parseEnum(params, 0, 2)
		return EraseInLine{Mode: EraseInLineMode(m)}, nil, ok
	case 'L':
		n, ok := parseCount(params)
		return InsertLine{N: n}, nil, ok
	case 'M':
		n, ok := parseCount(params)
		return DeleteLine{N: n}, nil, ok
	case 'P':
		n, ok := parseCount(params)
		return DeleteCharacter{N: n}, nil, ok
	case 'R':
		line, col, ok := parsePair(params)
		return ActivePositionReport{Line: line, Col: col}, nil, ok
	case 'S':
		n, ok := parseCount(params)
		return ScrollUp{N: n}, nil, ok
	case 'T':
		n, ok := parseCount(params)
		return ScrollDown{N: n}, nil, ok
	case 'W':
		m, ok := parseEnum(params, 0, 6)
		return TabulationControl{Mode: TabControlMode(m)}, nil, ok
	case 'X':
		n, ok := parseCount(params)
		return EraseCharacter{N: n}, nil, ok
	case 'Y':
		n, ok := parseCount(params)
		return LineTabulation{N: n}, nil, ok
	case 'Z':
		n, ok := parseCount(params)
		return BackwardTabulation{N: n}, nil, ok
	case 'a':
		n, ok := parseCount(params)
		return CharacterPositionForward{N: n}, nil, ok
	case 'b':
		n, ok := parseCount(params)
		return Repeat{N: n}, nil, ok
	case 'c':
		if len(params) == 0 || (len(params) == 1 && params[0] == 0) {
			return RequestPrimaryDeviceAttributes{}, nil, true
		}
		return nil, nil, false
	case 'd':
		l, ok := parseOne(params)
		return LinePositionAbsolute{Line: l}, nil, ok
	case 'e':
		n, ok := parseCount(params)
		return LinePositionForward{N: n}, nil, ok
	case 'f':
		line, col, ok := parsePair(params)
		return CharacterAndLinePosition{Line: line, Col: col}, nil, ok
	case 'g':
		m, ok := parseEnum(params, 0, 5)
		return TabulationClear{Mode: TabClearMode(m)}, nil, ok
	case 'h', 'l':
		if len(params) != 1 || params[0] < 0 || params[0] > math.MaxUint16 {
			return nil, nil, false
		}
		if final == 'h' {
			return SetMode{Mode: AnsiMode(params[0])}, nil, true
		}
		return ResetMode{Mode: AnsiMode(params[0])}, nil, true
	case 'j':
		n, ok := parseCount(params)
		return CharacterPositionBackward{N: n}, nil, ok
	case 'k':
		n, ok := parseCount(params)
		return LinePositionBackward{N: n}, nil, ok
	case 'm':
		return parseSgrStep(params)
	case 'n':
		if len(params) == 1 {
			switch params[0] {
			case 5:
				return StatusReport{}, nil, true
			case 6:
				return RequestActivePositionReport{}, nil, true
			}
		}
		return nil, nil, false
	case 'r':
		switch len(params) {
		case 0:
			return SetTopAndBottomMargins{Top: 1, Bottom: OneBased(math.MaxUint32)}, nil, true
		case 2:
			top, ok1 := oneBasedFromParam(params[0])
			bot, ok2 := oneBasedFromParam(params[1])
			return SetTopAndBottomMargins{Top: top, Bottom: bot}, nil, ok1 && ok2
		}
		return nil, nil, false
	case 's':
		if len(params) == 0 {
			return SaveCursor{}, nil, true
		}
		return nil, nil, false
	case 'u':
		if len(params) == 0 {
			return RestoreCursor{}, nil, true
		}
		return nil, nil, false
	case 't':
		return parseWindow(params)
	}
	return nil, nil, false
}

func parseDecModeCSI(params []int64, final byte) (CSI, []int64, bool) {
	switch final {
	case 'h', 'l', 'r', 's':
		if len(params) != 1 || params[0] < 0 || params[0] > math.MaxUint16 {
			return nil, nil, false
		}
		mode := DecMode(params[0])
		switch final {
		case 'h':
			return SetDecPrivateMode{Mode: mode}, nil, true
		case 'l':
			return ResetDecPrivateMode{Mode: mode}, nil, true
		case 'r':
			return RestoreDecPrivateMode{Mode: mode}, nil, true
		case 's':
			return SaveDecPrivateMode{Mode: mode}, nil, true
		}
	case 'c':
		return parseDeviceAttributes(params)
	}
	return nil, nil, false
}

func parseDeviceAttributes(params []int64) (CSI, []int64, bool) {
	if len(params) == 0 {
		return nil, nil, false
	}
	switch params[0] {
	case 1:
		if len(params) == 2 {
			switch params[1] {
			case 0:
				return DeviceAttributes{Kind: DeviceVt101}, nil, true
			case 2:
				return DeviceAttributes{Kind: DeviceVt100AVO}, nil, true
			}
		}
	case 6:
		if len(params) == 1 {
			return DeviceAttributes{Kind: DeviceVt102}, nil, true
		}
	case 62, 63, 64:
		attrs := make([]uint16, 0, len(params)-1)
		for _, p := range params[1:] {
			if p < 0 || p > math.MaxUint16 {
				return nil, nil, false
			}
			attrs = append(attrs, uint16(p))
		}
		kind := DeviceVt220
		switch params[0] {
		case 63:
			kind = DeviceVt320
		case 64:
			kind = DeviceVt420
		}
		return DeviceAttributes{Kind: kind, Attributes: attrs}, nil, true
	}
	return nil, nil, false
}

func parseMouseReport(params []int64, final byte) (CSI, []int64, bool) {
	if len(params) != 3 {
		return nil, nil, false
	}
	b := params[0]
	if b < 0 || params[1] < 0 || params[1] > math.MaxUint16 ||
		params[2] < 0 || params[2] > math.MaxUint16 {
		return nil, nil, false
	}
	release := final == 'm'
	var button MouseButtonEvent
	switch b & 0b110_0011 {
	case 0:
		button = Button1Press
		if release {
			button = Button1Release
		}
	case 1:
		button = Button2Press
		if release {
			button = Button2Release
		}
	case 2:
		button = Button3Press
		if release {
			button = Button3Release
		}
	case 64:
		button = Button4Press
	case 65:
		button = Button5Press
	case 32:
		button = Button1Drag
	case 33:
		button = Button2Drag
	case 34:
		button = Button3Drag
	case 35:
		button = ButtonNoneMoved
	default:
		return nil, nil, false
	}
	var mods Modifiers
	if b&4 != 0 {
		mods |= ModShift
	}
	if b&8 != 0 {
		mods |= ModAlt
	}
	if b&16 != 0 {
		mods |= ModCtrl
	}
	return MouseReport{
		X:         uint16(params[1]),
		Y:         uint16(params[2]),
		Button:    button,
		Modifiers: mods,
	}, nil, true
}

func parseChecksumArea(params []int64) (CSI, []int64, bool) {
	if len(params) < 2 {
		return nil, nil, false
	}
	get := func(i int) (OneBased, bool) {
		if i >= len(params) {
			return 1, true
		}
		return oneBasedFromParam(params[i])
	}
	top, ok1 := get(2)
	left, ok2 := get(3)
	bottom, ok3 := get(4)
	right, ok4 := get(5)
	if !(ok1 && ok2 && ok3 && ok4) {
		return nil, nil, false
	}
	return ChecksumRectangularArea{
		RequestID:  params[0],
		PageNumber: params[1],
		Top:        top,
		Left:       left,
		Bottom:     bottom,
		Right:      right,
	}, nil, true
}

func parseWindow(params []int64) (CSI, []int64, bool) {
	if len(params) == 0 {
		return nil, nil, false
	}
	arg := func(i int) int64 {
		if i < len(params) {
			return params[i]
		}
		return 0
	}
	sub := func(ops ...WindowOp) (CSI, []int64, bool) {
		n := arg(1)
		if n >= 0 && int(n) < len(ops) {
			return Window{Op: ops[n]}, nil, true
		}
		return nil, nil, false
	}
	switch params[0] {
	case 1:
		return Window{Op: DeIconify}, nil, true
	case 2:
		return Window{Op: Iconify}, nil, true
	case 3:
		return MoveWindow{X: arg(1), Y: arg(2)}, nil, true
	case 4:
		return ResizeWindowPixels{Height: arg(1), Width: arg(2)}, nil, true
	case 5:
		return Window{Op: RaiseWindow}, nil, true
	case 6:
		return Window{Op: LowerWindow}, nil, true
	case 7:
		return Window{Op: RefreshWindow}, nil, true
	case 8:
		return ResizeWindowCells{Height: arg(1), Width: arg(2)}, nil, true
	case 9:
		return sub(RestoreMaximizedWindow, MaximizeWindow,
			MaximizeWindowVertically, MaximizeWindowHorizontally)
	case 10:
		return sub(UndoFullScreenMode, ChangeToFullScreenMode, ToggleFullScreen)
	case 11:
		return Window{Op: ReportWindowState}, nil, true
	case 13:
		return Window{Op: ReportWindowPosition}, nil, true
	case 14:
		return Window{Op: ReportTextAreaSizePixels}, nil, true
	case 15:
		return Window{Op: ReportScreenSizePixels}, nil, true
	case 16:
		return Window{Op: ReportCellSizePixels}, nil, true
	case 18:
		return Window{Op: ReportTextAreaSizeCells}, nil, true
	case 19:
		return Window{Op: ReportScreenSizeCells}, nil, true
	case 20:
		return Window{Op: ReportIconLabel}, nil, true
	case 21:
		return Window{Op: ReportWindowTitle}, nil, true
	case 22:
		return sub(PushIconAndWindowTitle, PushIconTitle, PushWindowTitle)
	case 23:
		return sub(PopIconAndWindowTitle, PopIconTitle, PopWindowTitle)
	}
	return nil, nil, false
}

// parseSgrStep consumes one rendition from the front of params.
func parseSgrStep(params []int64) (CSI, []int64, bool) {
	if len(params) == 0 {
		return SgrReset{}, nil, true
	}
	one := func(cmd CSI) (CSI, []int64, bool) {
		rest := params[1:]
		if len(rest) == 0 {
			rest = nil
		}
		return cmd, rest, true
	}
	p := params[0]
	switch {
	case p == 0:
		return one(SgrReset{})
	case p == 1:
		return one(SgrIntensity{I: IntensityBold})
	case p == 2:
		return one(SgrIntensity{I: IntensityHalf})
	case p == 3:
		return one(SgrItalic{On: true})
	case p == 4:
		return one(SgrUnderline{U: UnderlineSingle})
	case p == 5:
		return one(SgrBlink{B: BlinkSlow})
	case p == 6:
		return one(SgrBlink{B: BlinkRapid})
	case p == 7:
		return one(SgrInverse{On: true})
	case p == 8:
		return one(SgrInvisible{On: true})
	case p == 9:
		return one(SgrStrikeThrough{On: true})
	case p >= 10 && p <= 19:
		return one(SgrFont{Font: uint8(p - 10)})
	case p == 21:
		return one(SgrUnderline{U: UnderlineDouble})
	case p == 22:
		return one(SgrIntensity{I: IntensityNormal})
	case p == 23:
		return one(SgrItalic{On: false})
	case p == 24:
		return one(SgrUnderline{U: UnderlineNone})
	case p == 25:
		return one(SgrBlink{B: BlinkNone})
	case p == 27:
		return one(SgrInverse{On: false})
	case p == 28:
		return one(SgrInvisible{On: false})
	case p == 29:
		return one(SgrStrikeThrough{On: false})
	case p >= 30 && p <= 37:
		return one(SgrForeground{Color: PaletteColor(uint8(p - 30))})
	case p == 38:
		spec, n, ok := parseSgrColor(params)
		if !ok {
			return nil, nil, false
		}
		rest := params[n:]
		if len(rest) == 0 {
			rest = nil
		}
		return SgrForeground{Color: spec}, rest, true
	case p == 39:
		return one(SgrForeground{Color: DefaultColor()})
	case p >= 40 && p <= 47:
		return one(SgrBackground{Color: PaletteColor(uint8(p - 40))})
	case p == 48:
		spec, n, ok := parseSgrColor(params)
		if !ok {
			return nil, nil, false
		}
		rest := params[n:]
		if len(rest) == 0 {
			rest = nil
		}
		return SgrBackground{Color: spec}, rest, true
	case p == 49:
		return one(SgrBackground{Color: DefaultColor()})
	case p >= 90 && p <= 97:
		return one(SgrForeground{Color: PaletteColor(uint8(p - 90 + 8))})
	case p >= 100 && p <= 107:
		return one(SgrBackground{Color: PaletteColor(uint8(p - 100 + 8))})
	}
	return nil, nil, false
}

// parseSgrColor handles the 38/48 extended color forms.
func parseSgrColor(params []int64) (ColorSpec, int, bool) {
	u8ok := func(v int64) bool { return v >= 0 && v <= 255 }
	if len(params) >= 5 && params[1] == 2 {
		if u8ok(params[2]) && u8ok(params[3]) && u8ok(params[4]) {
			return TrueColor(uint8(params[2]), uint8(params[3]), uint8(params[4])), 5, true
		}
	}
	if len(params) >= 3 && params[1] == 5 {
		if u8ok(params[2]) {
			return PaletteColor(uint8(params[2])), 3, true
		}
	}
	return ColorSpec{}, 0, false
}

//
// encode
//

// one-based param body: omitted when it holds the default 1
func obParam(v OneBased) string {
	if v == 1 {
		return ""
	}
	return fmt.Sprintf("%d", v)
}

func nParam(v uint32) string {
	if v == 1 {
		return ""
	}
	return fmt.Sprintf("%d", v)
}

func obPair(a, b OneBased) string {
	if a == 1 && b == 1 {
		return ""
	}
	return fmt.Sprintf("%d;%d", a, b)
}

func encodeSgrColor(spec ColorSpec, fg bool) string {
	switch spec.Kind {
	case ColorSpecDefault:
		if fg {
			return "39m"
		}
		return "49m"
	case ColorSpecPaletteIndex:
		idx := int(spec.Index)
		switch {
		case idx < 8:
			if fg {
				return fmt.Sprintf("%dm", 30+idx)
			}
			return fmt.Sprintf("%dm", 40+idx)
		case idx < 16:
			if fg {
				return fmt.Sprintf("%dm", 90+idx-8)
			}
			return fmt.Sprintf("%dm", 100+idx-8)
		default:
			if fg {
				return fmt.Sprintf("38;5;%dm", idx)
			}
			return fmt.Sprintf("48;5;%dm", idx)
		}
	}
	c := spec.Color
	if fg {
		return fmt.Sprintf("38;2;%d;%d;%dm", c.Red, c.Green, c.Blue)
	}
	return fmt.Sprintf("48;2;%d;%d;%dm", c.Red, c.Green, c.Blue)
}

// EncodeCSI renders one command back to its full byte sequence,
// including the CSI introducer.
func EncodeCSI(c CSI) string {
	return "\x1b[" + encodeCSIBody(c)
}

func encodeCSIBody(c CSI) string {
	switch v := c.(type) {
	case CursorUp:
		return nParam(v.N) + "A"
	case CursorDown:
		return nParam(v.N) + "B"
	case CursorRight:
		return nParam(v.N) + "C"
	case CursorLeft:
		return nParam(v.N) + "D"
	case CursorNextLine:
		return nParam(v.N) + "E"
	case CursorPrecedingLine:
		return nParam(v.N) + "F"
	case CursorCharacterAbsolute:
		return obParam(v.Col) + "G"
	case CursorPosition:
		return obPair(v.Line, v.Col) + "H"
	case ForwardTabulation:
		return nParam(v.N) + "I"
	case EraseInDisplay:
		if v.Mode == EraseToEndOfDisplay {
			return "J"
		}
		return fmt.Sprintf("%dJ", v.Mode)
	case EraseInLine:
		if v.Mode == EraseToEndOfLine {
			return "K"
		}
		return fmt.Sprintf("%dK", v.Mode)
	case InsertLine:
		return nParam(v.N) + "L"
	case DeleteLine:
		return nParam(v.N) + "M"
	case DeleteCharacter:
		return nParam(v.N) + "P"
	case ActivePositionReport:
		return obPair(v.Line, v.Col) + "R"
	case ScrollUp:
		return nParam(v.N) + "S"
	case ScrollDown:
		return nParam(v.N) + "T"
	case TabulationControl:
		if v.Mode == 0 {
			return "W"
		}
		return fmt.Sprintf("%dW", v.Mode)
	case EraseCharacter:
		return nParam(v.N) + "X"
	case LineTabulation:
		return nParam(v.N) + "Y"
	case BackwardTabulation:
		return nParam(v.N) + "Z"
	case InsertCharacter:
		return nParam(v.N) + "@"
	case CharacterPositionAbsolute:
		return obParam(v.Col) + "`"
	case CharacterPositionForward:
		return nParam(v.N) + "a"
	case Repeat:
		return nParam(v.N) + "b"
	case RequestPrimaryDeviceAttributes:
		return "c"
	case RequestSecondaryDeviceAttributes:
		return ">c"
	case LinePositionAbsolute:
		return obParam(v.Line) + "d"
	case LinePositionForward:
		return nParam(v.N) + "e"
	case CharacterAndLinePosition:
		return obPair(v.Line, v.Col) + "f"
	case TabulationClear:
		if v.Mode == 0 {
			return "g"
		}
		return fmt.Sprintf("%dg", v.Mode)
	case SetMode:
		return fmt.Sprintf("%dh", v.Mode)
	case ResetMode:
		return fmt.Sprintf("%dl", v.Mode)
	case CharacterPositionBackward:
		return nParam(v.N) + "j"
	case LinePositionBackward:
		return nParam(v.N) + "k"
	case StatusReport:
		return "5n"
	case RequestActivePositionReport:
		return "6n"
	case SetCursorStyle:
		return fmt.Sprintf("%d q", v.Style)
	case SetTopAndBottomMargins:
		if v.Top == 1 && v.Bottom == OneBased(math.MaxUint32) {
			return "r"
		}
		return fmt.Sprintf("%d;%dr", v.Top, v.Bottom)
	case SaveCursor:
		return "s"
	case RestoreCursor:
		return "u"
	case SoftReset:
		return "!p"
	case SetDecPrivateMode:
		return fmt.Sprintf("?%dh", v.Mode)
	case ResetDecPrivateMode:
		return fmt.Sprintf("?%dl", v.Mode)
	case SaveDecPrivateMode:
		return fmt.Sprintf("?%ds", v.Mode)
	case RestoreDecPrivateMode:
		return fmt.Sprintf("?%dr", v.Mode)
	case DeviceAttributes:
		return encodeDeviceAttributes(v)
	case MouseReport:
		return encodeMouseReport(v)
	case Window:
		return encodeWindow(v)
	case MoveWindow:
		return fmt.Sprintf("3;%d;%dt", v.X, v.Y)
	case ResizeWindowPixels:
		if v.Width == 0 && v.Height == 0 {
			return "4t"
		}
		return fmt.Sprintf("4;%d;%dt", v.Height, v.Width)
	case ResizeWindowCells:
		if v.Width == 0 && v.Height == 0 {
			return "8t"
		}
		return fmt.Sprintf("8;%d;%dt", v.Height, v.Width)
	case ChecksumRectangularArea:
		return fmt.Sprintf("%d;%d;%d;%d;%d;%d*y",
			v.RequestID, v.PageNumber, v.Top, v.Left, v.Bottom, v.Right)
	case SgrReset:
		return "0m"
	case SgrIntensity:
		switch v.I {
		case IntensityBold:
			return "1m"
		case IntensityHalf:
			return "2m"
		}
		return "22m"
	case SgrUnderline:
		switch v.U {
		case UnderlineSingle:
			return "4m"
		case UnderlineDouble:
			return "21m"
		}
		return "24m"
	case SgrBlink:
		switch v.B {
		case BlinkSlow:
			return "5m"
		case BlinkRapid:
			return "6m"
		}
		return "25m"
	case SgrItalic:
		if v.On {
			return "3m"
		}
		return "23m"
	case SgrInverse:
		if v.On {
			return "7m"
		}
		return "27m"
	case SgrInvisible:
		if v.On {
			return "8m"
		}
		return "28m"
	case SgrStrikeThrough:
		if v.On {
			return "9m"
		}
		return "29m"
	case SgrFont:
		return fmt.Sprintf("%dm", 10+int(v.Font))
	case SgrForeground:
		return encodeSgrColor(v.Color, true)
	case SgrBackground:
		return encodeSgrColor(v.Color, false)
	case Unspecified:
		var b strings.Builder
		for i, p := range v.Params {
			if i > 0 {
				b.WriteByte(';')
			}
			fmt.Fprintf(&b, "%d", p)
		}
		b.Write(v.Intermediates)
		b.WriteByte(v.Final)
		return b.String()
	}
	return ""
}

func encodeDeviceAttributes(v DeviceAttributes) string {
	var b strings.Builder
	b.WriteByte('?')
	switch v.Kind {
	case DeviceVt100AVO:
		b.WriteString("1;2")
	case DeviceVt101:
		b.WriteString("1;0")
	case DeviceVt102:
		b.WriteString("6")
	case DeviceVt220:
		b.WriteString("62")
	case DeviceVt320:
		b.WriteString("63")
	case DeviceVt420:
		b.WriteString("64")
	}
	for _, a := range v.Attributes {
		fmt.Fprintf(&b, ";%d", a)
	}
	b.WriteByte('c')
	return b.String()
}

func encodeMouseReport(v MouseReport) string {
	var code int
	trailer := byte('M')
	switch v.Button {
	case Button1Press:
		code = 0
	case Button2Press:
		code = 1
	case Button3Press:
		code = 2
	case Button1Release:
		code, trailer = 0, 'm'
	case Button2Release:
		code, trailer = 1, 'm'
	case Button3Release:
		code, trailer = 2, 'm'
	case Button4Press:
		code = 64
	case Button5Press:
		code = 65
	case Button1Drag:
		code = 32
	case Button2Drag:
		code = 33
	case Button3Drag:
		code = 34
	case ButtonNoneMoved:
		code = 35
	}
	if v.Modifiers&ModShift != 0 {
		code |= 4
	}
	if v.Modifiers&ModAlt != 0 {
		code |= 8
	}
	if v.Modifiers&ModCtrl != 0 {
		code |= 16
	}
	return fmt.Sprintf("<%d;%d;%d%c", code, v.X, v.Y, trailer)
}

func encodeWindow(v Window) string {
	switch v.Op {
	case DeIconify:
		return "1t"
	case Iconify:
		return "2t"
	case RaiseWindow:
		return "5t"
	case LowerWindow:
		return "6t"
	case RefreshWindow:
		return "7t"
	case RestoreMaximizedWindow:
		return "9;0t"
	case MaximizeWindow:
		return "9;1t"
	case MaximizeWindowVertically:
		return "9;2t"
	case MaximizeWindowHorizontally:
		return "9;3t"
	case UndoFullScreenMode:
		return "10;0t"
	case ChangeToFullScreenMode:
		return "10;1t"
	case ToggleFullScreen:
		return "10;2t"
	case ReportWindowState:
		return "11t"
	case ReportWindowPosition:
		return "13t"
	case ReportTextAreaSizePixels:
		return "14t"
	case ReportScreenSizePixels:
		return "15t"
	case ReportCellSizePixels:
		return "16t"
	case ReportTextAreaSizeCells:
		return "18t"
	case ReportScreenSizeCells:
		return "19t"
	case ReportIconLabel:
		return "20t"
	case ReportWindowTitle:
		return "21t"
	case PushIconAndWindowTitle:
		return "22;0t"
	case PushIconTitle:
		return "22;1t"
	case PushWindowTitle:
		return "22;2t"
	case PopIconAndWindowTitle:
		return "23;0t"
	case PopIconTitle:
		return "23;1t"
	case PopWindowTitle:
		return "23;2t"
	}
	return "t"
}
