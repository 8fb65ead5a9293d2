// Copyright 2022~2024 wangqi. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package terminal

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/ericwq/termemu/util"
)

// DeviceIdent is the primary device attributes response: VT320 with
// sixel and selective erase options.
const DeviceIdent = "\x1b[?63;4;6c"

// Clipboard lets the embedding application own the system clipboard.
type Clipboard interface {
	GetContents() (string, error)
	SetContents(content string) error
}

// TerminalHost supplies the collaborators the state machine needs when
// it must answer or publish: the reply channel back to the application
// and the clipboard.
type TerminalHost interface {
	Writer() io.Writer
	Clipboard() Clipboard
}

// Position is a coordinate for cursor moves, absolute or relative to
// the current position.
type Position struct {
	Value    int64
	Relative bool
}

func Absolute(v int64) Position { return Position{Value: v} }
func Relative(v int64) Position { return Position{Value: v, Relative: true} }

// CursorPos is the insertion point in visible coordinates.
type CursorPos struct {
	X int
	Y VisibleRowIndex
}

const defaultTabWidth = 8

// TabStop tracks the horizontal tab stops.
type TabStop struct {
	tabs     []bool
	tabWidth int
}

func newTabStop(width, tabWidth int) *TabStop {
	t := &TabStop{tabWidth: tabWidth}
	t.Resize(width)
	return t
}

func (t *TabStop) SetTabStop(col int) {
	if col >= 0 && col < len(t.tabs) {
		t.tabs[col] = true
	}
}

func (t *TabStop) ClearTabStop(col int) {
	if col >= 0 && col < len(t.tabs) {
		t.tabs[col] = false
	}
}

func (t *TabStop) ClearAll() {
	for i := range t.tabs {
		t.tabs[i] = false
	}
}

// FindNextTabStop returns the first stop after col.
func (t *TabStop) FindNextTabStop(col int) (int, bool) {
	for i := col + 1; i < len(t.tabs); i++ {
		if t.tabs[i] {
			return i, true
		}
	}
	return 0, false
}

// FindPrevTabStop returns the last stop before col.
func (t *TabStop) FindPrevTabStop(col int) (int, bool) {
	for i := col - 1; i >= 0; i-- {
		if t.tabs[i] {
			return i, true
		}
	}
	return 0, false
}

// Resize grows the table; stops already set are kept.
func (t *TabStop) Resize(width int) {
	for i := len(t.tabs); i < width; i++ {
		t.tabs = append(t.tabs, i%t.tabWidth == 0)
	}
}

// TerminalState interprets decoded commands against the screen model.
// One goroutine owns it; concurrent access needs external locking.
type TerminalState struct {
	screen *ScreenOrAlt

	pen      CellAttributes
	cursor   CursorPos
	wrapNext bool

	insert            bool
	decAutoWrap       bool
	reverseWraparound bool
	decOriginMode     bool
	decLineDrawing    bool
	cursorVisible     bool
	sixelScrolling    bool

	applicationCursorKeys bool
	applicationKeypad     bool
	bracketedPaste        bool

	sgrMouse         bool
	mouseTracking    bool
	buttonEventMouse bool
	anyEventMouse    bool

	currentMouseButton MouseButton
	lastMouseClick     *LastMouseClick
	currentHighlight   *Hyperlink

	title        string
	palette      *ColorPalette
	tabs         *TabStop
	scrollRegion Range[VisibleRowIndex]

	hyperlinkRules []Rule

	pixelWidth  int
	pixelHeight int
}

func NewTerminalState(physRows, physCols, pixelWidth, pixelHeight, scrollbackSize int,
	hyperlinkRules []Rule,
) *TerminalState {
	return &TerminalState{
		screen:         NewScreenOrAlt(physRows, physCols, scrollbackSize),
		decAutoWrap:    true,
		sixelScrolling: true,
		cursorVisible:  true,
		title:          "termemu",
		palette:        NewColorPalette(),
		tabs:           newTabStop(physCols, defaultTabWidth),
		scrollRegion:   Range[VisibleRowIndex]{Start: 0, End: VisibleRowIndex(physRows)},
		hyperlinkRules: hyperlinkRules,
		pixelWidth:     pixelWidth,
		pixelHeight:    pixelHeight,
	}
}

func (t *TerminalState) Screen() *Screen { return t.screen.Active() }

func (t *TerminalState) ScreenOrAlt() *ScreenOrAlt { return t.screen }

func (t *TerminalState) Title() string { return t.title }

func (t *TerminalState) Palette() *ColorPalette { return t.palette }

func (t *TerminalState) CursorVisible() bool { return t.cursorVisible }

func (t *TerminalState) BracketedPaste() bool { return t.bracketedPaste }

// CursorPos returns the cursor in visible coordinates.
func (t *TerminalState) CursorPos() CursorPos { return t.cursor }

// StableCursorPos labels the cursor row with its stable index.
func (t *TerminalState) StableCursorPos() (x int, y StableRowIndex) {
	return t.cursor.X, t.screen.Active().VisibleRowToStableRow(t.cursor.Y)
}

// GetDimensions returns (cols, visible rows).
func (t *TerminalState) GetDimensions() (cols, rows int) {
	scr := t.screen.Active()
	return scr.PhysicalCols(), scr.PhysicalRows()
}

// PhysicalDimensions includes the scrollback.
func (t *TerminalState) PhysicalDimensions() (cols, rows int) {
	scr := t.screen.Active()
	return scr.PhysicalCols(), len(scr.AllLines())
}

// GetDirtyLines reports the stable indices of dirty lines inside the
// given stable range.
func (t *TerminalState) GetDirtyLines(stable Range[StableRowIndex]) *RangeSet[StableRowIndex] {
	set := NewRangeSet[StableRowIndex]()
	scr := t.screen.Active()
	for phys := range scr.AllLines() {
		if !scr.Line(phys).IsDirty() {
			continue
		}
		st := scr.PhysToStableRowIndex(phys)
		if stable.Contains(st) {
			set.Add(st)
		}
	}
	return set
}

// GetLines clones the lines of a stable range for rendering, running
// the implicit hyperlink scan and clearing their dirty bits. The first
// returned value is the stable index of the first cloned line.
func (t *TerminalState) GetLines(stable Range[StableRowIndex]) (StableRowIndex, []Line) {
	scr := t.screen.Active()
	first := stable.Start
	physStart := scr.StableToPhysRowIndex(stable.Start)
	if physStart < 0 {
		first += -physStart
		physStart = 0
	}
	physEnd := scr.StableToPhysRowIndex(stable.End)
	if physEnd > len(scr.AllLines()) {
		physEnd = len(scr.AllLines())
	}
	var lines []Line
	for phys := physStart; phys < physEnd; phys++ {
		line := scr.Line(phys)
		line.ScanAndCreateHyperlinks(t.hyperlinkRules)
		lines = append(lines, line.Clone())
		line.ClearDirty()
	}
	return first, lines
}

func (t *TerminalState) CleanDirtyLines() { t.screen.Active().CleanDirtyLines() }

func (t *TerminalState) MakeAllLinesDirty() { t.screen.Active().MakeAllLinesDirty() }

// Resize adjusts the grid and dependent state. Content reflows when
// the width changes.
func (t *TerminalState) Resize(physRows, physCols, pixelWidth, pixelHeight int) {
	t.cursor = t.screen.Resize(physRows, physCols, t.cursor)
	t.scrollRegion = Range[VisibleRowIndex]{Start: 0, End: VisibleRowIndex(physRows)}
	t.tabs.Resize(physCols)
	t.pixelWidth = pixelWidth
	t.pixelHeight = pixelHeight
	t.wrapNext = false
}

//
// cursor motion
//

func (t *TerminalState) setCursorPos(x, y Position) {
	scr := t.screen.Active()
	rows := scr.PhysicalRows()
	cols := scr.PhysicalCols()

	xpos := int64(0)
	if x.Relative {
		xpos = int64(t.cursor.X) + x.Value
	} else {
		xpos = x.Value
	}
	if xpos < 0 {
		xpos = 0
	}
	if xpos > int64(cols-1) {
		xpos = int64(cols - 1)
	}

	ypos := VisibleRowIndex(0)
	if y.Relative {
		ypos = t.cursor.Y + VisibleRowIndex(y.Value)
	} else {
		ypos = VisibleRowIndex(y.Value)
	}
	if ypos < 0 {
		ypos = 0
	}
	if t.decOriginMode && !y.Relative {
		ypos += t.scrollRegion.Start
	}
	if t.decOriginMode {
		if ypos > t.scrollRegion.End-1 {
			ypos = t.scrollRegion.End - 1
		}
	} else if ypos > VisibleRowIndex(rows-1) {
		ypos = VisibleRowIndex(rows - 1)
	}

	old := t.cursor.Y
	t.cursor = CursorPos{X: int(xpos), Y: ypos}
	t.wrapNext = false
	scr.DirtyLine(old)
	scr.DirtyLine(ypos)
}

// newLine moves down one row, scrolling when at the bottom margin.
func (t *TerminalState) newLine(moveToFirstCol bool) {
	scr := t.screen.Active()
	rows := scr.PhysicalRows()
	y := t.cursor.Y
	switch {
	case y == t.scrollRegion.End-1:
		scr.ScrollUp(t.scrollRegion, 1)
	case y < VisibleRowIndex(rows-1):
		y++
	}
	x := Relative(0)
	if moveToFirstCol {
		x = Absolute(0)
	}
	t.setCursorPos(x, Absolute(int64(y)))
}

func (t *TerminalState) reverseIndex() {
	if t.cursor.Y == t.scrollRegion.Start {
		t.screen.Active().ScrollDown(t.scrollRegion, 1)
		return
	}
	t.setCursorPos(Relative(0), Relative(-1))
}

func (t *TerminalState) horizontalTab() {
	x, ok := t.tabs.FindNextTabStop(t.cursor.X)
	if !ok {
		x = t.screen.Active().PhysicalCols() - 1
	}
	t.setCursorPos(Absolute(int64(x)), Relative(0))
}

func (t *TerminalState) backwardTab() {
	x, ok := t.tabs.FindPrevTabStop(t.cursor.X)
	if !ok {
		x = 0
	}
	t.setCursorPos(Absolute(int64(x)), Relative(0))
}

//
// control characters
//

func (t *TerminalState) performControl(c Control) {
	switch c {
	case C0_LF, C0_VT, C0_FF:
		t.newLine(false)
	case C0_CR:
		t.setCursorPos(Absolute(0), Relative(0))
	case C0_BS:
		t.backspace()
	case C0_HT:
		t.horizontalTab()
	case C0_BEL:
		util.Logger.Debug("bell")
	default:
		util.Logger.Trace("unhandled control", "code", byte(c))
	}
}

// backspace honors reverse wraparound, including the top-left to
// bottom-right quirk of xterm.
func (t *TerminalState) backspace() {
	scr := t.screen.Active()
	x, y := t.cursor.X, t.cursor.Y
	switch {
	case t.reverseWraparound && t.decAutoWrap && x == 0 && y == t.scrollRegion.Start:
		t.setCursorPos(
			Absolute(int64(scr.PhysicalCols()-1)),
			Absolute(int64(t.scrollRegion.End-1)))
	case t.reverseWraparound && t.decAutoWrap && x == 0:
		t.setCursorPos(Absolute(int64(scr.PhysicalCols()-1)), Relative(-1))
	case x == 0:
		// stay
	default:
		t.setCursorPos(Relative(-1), Relative(0))
	}
}

//
// escape dispatch
//

func (t *TerminalState) performEsc(e Esc) {
	switch e.Code() {
	case ESC_StringTerminator:
		// no-op
	case ESC_DecApplicationKeyPad:
		t.applicationKeypad = true
	case ESC_DecNormalKeyPad:
		t.applicationKeypad = false
	case ESC_Index:
		t.newLine(false)
	case ESC_NextLine:
		t.newLine(true)
	case ESC_CursorPositionLowerLeft:
		rows := t.screen.Active().PhysicalRows()
		t.setCursorPos(Absolute(0), Absolute(int64(rows-1)))
	case ESC_HorizontalTabSet:
		t.tabs.SetTabStop(t.cursor.X)
	case ESC_ReverseIndex:
		t.reverseIndex()
	case ESC_DecLineDrawing:
		t.decLineDrawing = true
	case ESC_AsciiCharacterSet:
		t.decLineDrawing = false
	case ESC_DecSaveCursorPosition:
		t.decSaveCursor()
	case ESC_DecRestoreCursorPosition:
		t.decRestoreCursor()
	case ESC_FullReset:
		t.fullReset()
	default:
		util.Logger.Trace("unhandled esc",
			"intermediate", e.Intermediate, "control", e.Control)
	}
}

func (t *TerminalState) decSaveCursor() {
	t.screen.SaveCursor(savedCursor{
		position:      t.cursor,
		wrapNext:      t.wrapNext,
		pen:           t.pen,
		decOriginMode: t.decOriginMode,
	})
}

func (t *TerminalState) decRestoreCursor() {
	saved := t.screen.SavedCursor()
	if saved == nil {
		saved = &savedCursor{}
	}
	t.pen = saved.pen
	t.decOriginMode = saved.decOriginMode
	t.setCursorPos(Absolute(int64(saved.position.X)), Absolute(int64(saved.position.Y)))
	t.wrapNext = saved.wrapNext
}

func (t *TerminalState) softReset() {
	rows := t.screen.Active().PhysicalRows()
	t.pen = CellAttributes{}
	t.insert = false
	t.decAutoWrap = false
	t.applicationCursorKeys = false
	t.applicationKeypad = false
	t.reverseWraparound = false
	t.decOriginMode = false
	t.scrollRegion = Range[VisibleRowIndex]{Start: 0, End: VisibleRowIndex(rows)}
	t.screen.ClearSavedCursor()
}

func (t *TerminalState) fullReset() {
	rows := t.screen.Active().PhysicalRows()
	cols := t.screen.Active().PhysicalCols()
	t.pen = CellAttributes{}
	t.wrapNext = false
	t.insert = false
	t.decAutoWrap = true
	t.reverseWraparound = false
	t.decOriginMode = false
	t.decLineDrawing = false
	t.applicationCursorKeys = false
	t.applicationKeypad = false
	t.bracketedPaste = false
	t.sgrMouse = false
	t.mouseTracking = false
	t.buttonEventMouse = false
	t.anyEventMouse = false
	t.cursorVisible = true
	t.palette = NewColorPalette()
	t.tabs = newTabStop(cols, defaultTabWidth)
	t.scrollRegion = Range[VisibleRowIndex]{Start: 0, End: VisibleRowIndex(rows)}
	t.screen.ClearSavedCursor()
	t.setCursorPos(Absolute(0), Absolute(0))
	t.eraseInDisplay(EraseDisplay)
	t.MakeAllLinesDirty()
}

//
// CSI dispatch
//

func (t *TerminalState) performCSI(cmd CSI, host TerminalHost) error {
	switch v := cmd.(type) {
	case CursorUp:
		t.setCursorPos(Relative(0), Relative(-int64(v.N)))
	case CursorDown:
		t.setCursorPos(Relative(0), Relative(int64(v.N)))
	case CursorLeft:
		t.setCursorPos(Relative(-int64(v.N)), Relative(0))
	case CursorRight:
		t.setCursorPos(Relative(int64(v.N)), Relative(0))
	case CursorNextLine:
		for i := uint32(0); i < v.N; i++ {
			t.newLine(true)
		}
	case CursorPrecedingLine:
		t.setCursorPos(Absolute(0), Relative(-int64(v.N)))
	case CursorCharacterAbsolute:
		t.setCursorPos(Absolute(int64(v.Col.ZeroBased())), Relative(0))
	case CharacterPositionAbsolute:
		t.setCursorPos(Absolute(int64(v.Col.ZeroBased())), Relative(0))
	case CharacterPositionForward:
		t.setCursorPos(Relative(int64(v.N)), Relative(0))
	case CharacterPositionBackward:
		t.setCursorPos(Relative(-int64(v.N)), Relative(0))
	case LinePositionAbsolute:
		t.setCursorPos(Relative(0), Absolute(int64(v.Line.ZeroBased())))
	case LinePositionForward:
		t.setCursorPos(Relative(0), Relative(int64(v.N)))
	case LinePositionBackward:
		t.setCursorPos(Relative(0), Relative(-int64(v.N)))
	case CursorPosition:
		t.setCursorPos(Absolute(int64(v.Col.ZeroBased())), Absolute(int64(v.Line.ZeroBased())))
	case CharacterAndLinePosition:
		t.setCursorPos(Absolute(int64(v.Col.ZeroBased())), Absolute(int64(v.Line.ZeroBased())))
	case ForwardTabulation:
		for i := uint32(0); i < v.N; i++ {
			t.horizontalTab()
		}
	case BackwardTabulation:
		for i := uint32(0); i < v.N; i++ {
			t.backwardTab()
		}
	case TabulationClear:
		switch v.Mode {
		case TabClearCharacterTabStopAtActivePosition:
			t.tabs.ClearTabStop(t.cursor.X)
		case TabClearAllCharacterTabStops, TabClearAll:
			t.tabs.ClearAll()
		}
	case TabulationControl, LineTabulation, SetCursorStyle:
		// deliberately ignored
	case ActivePositionReport:
		// only meaningful when we are the application side
	case RequestActivePositionReport:
		report := ActivePositionReport{
			Line: oneBasedFromZero(int(t.cursor.Y)),
			Col:  oneBasedFromZero(t.cursor.X),
		}
		return t.writeResponse(host, EncodeCSI(report))
	case SaveCursor:
		t.decSaveCursor()
	case RestoreCursor:
		t.decRestoreCursor()
	case SetTopAndBottomMargins:
		t.setScrollRegion(v)
	case InsertCharacter, InsertLine, DeleteCharacter, DeleteLine,
		EraseCharacter, EraseInLine, EraseInDisplay, ScrollUp, ScrollDown, Repeat:
		t.performCSIEdit(cmd)
	case SetMode:
		t.setAnsiMode(v.Mode, true)
	case ResetMode:
		t.setAnsiMode(v.Mode, false)
	case SetDecPrivateMode:
		t.setDecPrivateMode(v.Mode, true)
	case ResetDecPrivateMode:
		t.setDecPrivateMode(v.Mode, false)
	case SaveDecPrivateMode, RestoreDecPrivateMode:
		// decoded losslessly, not implemented
	case SoftReset:
		t.softReset()
	case RequestPrimaryDeviceAttributes:
		return t.writeResponse(host, DeviceIdent)
	case RequestSecondaryDeviceAttributes:
		return t.writeResponse(host, "\x1b[>0;0;0c")
	case StatusReport:
		return t.writeResponse(host, "\x1b[0n")
	case DeviceAttributes:
		// a response, nothing to interpret
	case MouseReport:
		// reports travel the other way
	case Window:
		return t.performCSIWindow(v, host)
	case MoveWindow, ResizeWindowPixels, ResizeWindowCells:
		// the embedding application owns the window
	case ChecksumRectangularArea:
		sum := t.checksumRectangle(v.Top.ZeroBased(), v.Left.ZeroBased(),
			v.Bottom.ZeroBased(), v.Right.ZeroBased())
		return t.writeResponse(host,
			fmt.Sprintf("\x1bP%d!~%04x\x1b\\", v.RequestID, sum))
	case SgrReset, SgrIntensity, SgrUnderline, SgrBlink, SgrItalic,
		SgrInverse, SgrInvisible, SgrStrikeThrough, SgrFont,
		SgrForeground, SgrBackground:
		t.performSGR(cmd)
	case Unspecified:
		util.Logger.Trace("unhandled csi", "seq", EncodeCSI(v))
	}
	return nil
}

func (t *TerminalState) setScrollRegion(v SetTopAndBottomMargins) {
	rows := t.screen.Active().PhysicalRows()
	top := VisibleRowIndex(v.Top.ZeroBased())
	bottom := VisibleRowIndex(v.Bottom.ZeroBased())
	if top > VisibleRowIndex(rows-1) {
		top = VisibleRowIndex(rows - 1)
	}
	if bottom > VisibleRowIndex(rows-1) {
		bottom = VisibleRowIndex(rows - 1)
	}
	if top > bottom {
		top, bottom = bottom, top
	}
	t.scrollRegion = Range[VisibleRowIndex]{Start: top, End: bottom + 1}
}

func (t *TerminalState) performCSIEdit(cmd CSI) {
	scr := t.screen.Active()
	cols := scr.PhysicalCols()
	x, y := t.cursor.X, t.cursor.Y
	switch v := cmd.(type) {
	case DeleteCharacter:
		limit := min(x+int(v.N), cols)
		for i := x; i < limit; i++ {
			scr.EraseCell(x, y)
		}
	case DeleteLine:
		if t.scrollRegion.Contains(y) {
			region := Range[VisibleRowIndex]{Start: y, End: t.scrollRegion.End}
			scr.ScrollUp(region, int(v.N))
		}
	case InsertCharacter:
		limit := min(x+int(v.N), cols)
		for i := x; i < limit; i++ {
			scr.InsertCell(x, y)
		}
	case InsertLine:
		if t.scrollRegion.Contains(y) {
			region := Range[VisibleRowIndex]{Start: y, End: t.scrollRegion.End}
			scr.ScrollDown(region, int(v.N))
		}
	case EraseCharacter:
		limit := min(x+int(v.N), cols)
		blank := NewCell(" ", t.pen.CloneSgrOnly())
		line := scr.VisibleLine(y)
		for i := x; i < limit; i++ {
			line.SetCell(i, blank)
		}
	case EraseInLine:
		var r Range[int]
		switch v.Mode {
		case EraseToEndOfLine:
			r = Range[int]{Start: x, End: cols}
		case EraseToStartOfLine:
			r = Range[int]{Start: 0, End: x + 1}
		case EraseLine:
			r = Range[int]{Start: 0, End: cols}
		}
		scr.ClearLine(y, r, t.pen.CloneSgrOnly())
	case EraseInDisplay:
		t.eraseInDisplay(v.Mode)
	case ScrollUp:
		scr.ScrollUp(t.scrollRegion, int(v.N))
	case ScrollDown:
		scr.ScrollDown(t.scrollRegion, int(v.N))
	case Repeat:
		if x == 0 {
			return
		}
		line := scr.VisibleLine(y)
		prev := line.CellAt(x - 1)
		if prev == nil {
			return
		}
		cell := *prev
		limit := min(x+int(v.N), cols)
		for i := x; i < limit; i++ {
			line.SetCell(i, cell)
		}
		t.setCursorPos(Relative(int64(v.N)), Relative(0))
	}
}

func (t *TerminalState) eraseInDisplay(mode EraseInDisplayMode) {
	scr := t.screen.Active()
	cols := scr.PhysicalCols()
	rows := VisibleRowIndex(scr.PhysicalRows())
	cy := t.cursor.Y
	pen := t.pen.CloneSgrOnly()
	full := Range[int]{Start: 0, End: cols}

	clearRows := func(r Range[VisibleRowIndex]) {
		for y := r.Start; y < r.End; y++ {
			scr.ClearLine(y, full, pen)
		}
	}
	switch mode {
	case EraseToEndOfDisplay:
		scr.ClearLine(cy, Range[int]{Start: t.cursor.X, End: cols}, pen)
		clearRows(Range[VisibleRowIndex]{Start: cy + 1, End: rows})
	case EraseToStartOfDisplay:
		scr.ClearLine(cy, Range[int]{Start: 0, End: t.cursor.X + 1}, pen)
		clearRows(Range[VisibleRowIndex]{Start: 0, End: cy})
	case EraseDisplay:
		clearRows(Range[VisibleRowIndex]{Start: 0, End: rows})
	case EraseScrollback:
		scr.EraseScrollback()
	}
}

func (t *TerminalState) setAnsiMode(mode AnsiMode, enable bool) {
	switch mode {
	case AnsiInsert:
		t.insert = enable
	default:
		util.Logger.Trace("unhandled ansi mode", "mode", uint16(mode), "enable", enable)
	}
}

func (t *TerminalState) setDecPrivateMode(mode DecMode, enable bool) {
	switch mode {
	case DecApplicationCursorKeys:
		t.applicationCursorKeys = enable
	case DecOriginMode:
		t.decOriginMode = enable
		t.setCursorPos(Absolute(0), Absolute(0))
	case DecAutoWrap:
		t.decAutoWrap = enable
	case DecShowCursor:
		t.cursorVisible = enable
	case DecReverseWraparound:
		t.reverseWraparound = enable
	case DecUseAlternateScreen:
		if enable {
			t.screen.ActivateAltScreen()
			t.pen = CellAttributes{}
		} else {
			t.screen.ActivatePrimaryScreen()
			t.pen = CellAttributes{}
		}
	case DecClearAndEnableAltScrn:
		if enable {
			t.decSaveCursor()
			t.screen.ActivateAltScreen()
			t.setCursorPos(Absolute(0), Absolute(0))
			t.pen = CellAttributes{}
			t.eraseInDisplay(EraseDisplay)
		} else {
			t.screen.ActivatePrimaryScreen()
			t.decRestoreCursor()
		}
	case DecMouseTracking:
		t.mouseTracking = enable
	case DecButtonEventMouse:
		t.buttonEventMouse = enable
	case DecAnyEventMouse:
		t.anyEventMouse = enable
	case DecSGRMouse:
		t.sgrMouse = enable
	case DecBracketedPaste:
		t.bracketedPaste = enable
	case DecStartBlinkingCursor, DecHighlightMouseTracking:
		// deliberately ignored
	default:
		util.Logger.Trace("unhandled dec mode", "mode", uint16(mode), "enable", enable)
	}
}

func (t *TerminalState) performCSIWindow(v Window, host TerminalHost) error {
	cols, rows := t.GetDimensions()
	switch v.Op {
	case ReportTextAreaSizeCells:
		return t.writeResponse(host, EncodeCSI(ResizeWindowCells{
			Width: int64(cols), Height: int64(rows),
		}))
	case ReportTextAreaSizePixels:
		return t.writeResponse(host, EncodeCSI(ResizeWindowPixels{
			Width: int64(t.pixelWidth), Height: int64(t.pixelHeight),
		}))
	case ReportCellSizePixels:
		cw, ch := 0, 0
		if cols > 0 {
			cw = t.pixelWidth / cols
		}
		if rows > 0 {
			ch = t.pixelHeight / rows
		}
		return t.writeResponse(host, fmt.Sprintf("\x1b[6;%d;%dt", ch, cw))
	default:
		util.Logger.Trace("unhandled window op", "op", uint8(v.Op))
	}
	return nil
}

// checksumRectangle sums the leading byte of every cell in the
// inclusive rectangle, mod 2^16.
func (t *TerminalState) checksumRectangle(top, left, bottom, right int) uint16 {
	scr := t.screen.Active()
	var sum uint16
	for y := top; y <= bottom && y < scr.PhysicalRows(); y++ {
		line := scr.VisibleLine(VisibleRowIndex(y))
		for x := left; x <= right && x < line.Len(); x++ {
			s := line.CellAt(x).Str()
			if len(s) > 0 {
				sum += uint16(s[0])
			}
		}
	}
	return sum
}

func (t *TerminalState) performSGR(cmd CSI) {
	switch v := cmd.(type) {
	case SgrReset:
		link := t.pen.Hyperlink
		t.pen = CellAttributes{Hyperlink: link}
	case SgrIntensity:
		t.pen.SetIntensity(v.I)
	case SgrUnderline:
		t.pen.SetUnderline(v.U)
	case SgrBlink:
		t.pen.SetBlink(v.B)
	case SgrItalic:
		t.pen.SetItalic(v.On)
	case SgrInverse:
		t.pen.SetReverse(v.On)
	case SgrInvisible:
		t.pen.SetInvisible(v.On)
	case SgrStrikeThrough:
		t.pen.SetStrikeThrough(v.On)
	case SgrFont:
		// alternate fonts are not modeled
	case SgrForeground:
		t.pen.Foreground = v.Color.Attribute()
	case SgrBackground:
		t.pen.Background = v.Color.Attribute()
	}
}

//
// OSC dispatch
//

func (t *TerminalState) performOSC(cmd OSC, host TerminalHost) error {
	switch v := cmd.(type) {
	case SetIconNameAndWindowTitle:
		t.title = v.Title
	case SetWindowTitle:
		t.title = v.Title
	case SetIconName:
		// icon-only titles are not tracked
	case SetHyperlink:
		t.pen.Hyperlink = v.Link
	case SystemNotification:
		util.Logger.Info("system notification", "message", v.Message)
	case ClearSelection:
		if cb := host.Clipboard(); cb != nil {
			return cb.SetContents("")
		}
	case QuerySelection:
		// pasting the clipboard back is the host's decision
	case SetSelection:
		if cb := host.Clipboard(); cb != nil {
			return cb.SetContents(v.Content)
		}
	case ChangeColorNumber:
		return t.changeColorNumber(v, host)
	case ChangeDynamicColors:
		return t.changeDynamicColors(v, host)
	case UnspecifiedOSC:
		util.Logger.Trace("unhandled osc", "seq", EncodeOSC(v))
	}
	return nil
}

func (t *TerminalState) changeColorNumber(v ChangeColorNumber, host TerminalHost) error {
	for _, pair := range v.Pairs {
		if pair.Color.Query {
			resp := ChangeColorNumber{Pairs: []ColorPair{{
				Index: pair.Index,
				Color: ColorOrQuery{Color: t.palette.Colors[pair.Index]},
			}}}
			if err := t.writeResponse(host, EncodeOSC(resp)); err != nil {
				return err
			}
			continue
		}
		t.palette.Colors[pair.Index] = pair.Color.Color
	}
	t.MakeAllLinesDirty()
	return nil
}

func (t *TerminalState) changeDynamicColors(v ChangeDynamicColors, host TerminalHost) error {
	idx := v.FirstColor
	for _, which := range v.Colors {
		var slot *RgbColor
		switch idx {
		case DynamicTextForeground:
			slot = &t.palette.Foreground
		case DynamicTextBackground:
			slot = &t.palette.Background
		case DynamicTextCursorColor:
			slot = &t.palette.CursorBg
		case DynamicHighlightBackground:
			slot = &t.palette.SelectionBg
		case DynamicHighlightForeground:
			slot = &t.palette.SelectionFg
		}
		if slot != nil {
			if which.Query {
				resp := ChangeDynamicColors{
					FirstColor: idx,
					Colors:     []ColorOrQuery{{Color: *slot}},
				}
				if err := t.writeResponse(host, EncodeOSC(resp)); err != nil {
					return err
				}
			} else {
				*slot = which.Color
			}
		}
		idx++
	}
	t.MakeAllLinesDirty()
	return nil
}

func (t *TerminalState) writeResponse(host TerminalHost, s string) error {
	if host == nil || host.Writer() == nil {
		return nil
	}
	_, err := io.WriteString(host.Writer(), s)
	return err
}

//
// host input encoding
//

func encodeModifiers(mods Modifiers) int {
	n := 0
	if mods&ModShift != 0 {
		n |= 1
	}
	if mods&ModAlt != 0 {
		n |= 2
	}
	if mods&ModCtrl != 0 {
		n |= 4
	}
	return n
}

// ctrl-pairs whose masked value collides with another control; they
// need an unambiguous encoding
func isAmbiguousASCIICtrl(c rune) bool {
	return strings.ContainsRune("iImM[{@", c)
}

func ctrlMaskEncode(buf *bytes.Buffer, c rune, mods Modifiers) {
	if mods&ModCtrl != 0 && c < 0x80 {
		c = rune(byte(unicode.ToUpper(c)) & 0x1f)
	}
	if mods&ModAlt != 0 {
		buf.WriteByte(0x1b)
	}
	buf.WriteRune(c)
}

// SendPaste forwards pasted text, bracketed when the application asked
// for it.
func (t *TerminalState) SendPaste(text string, w io.Writer) error {
	if t.bracketedPaste {
		_, err := io.WriteString(w, "\x1b[200~"+text+"\x1b[201~")
		return err
	}
	_, err := io.WriteString(w, text)
	return err
}

// KeyDown encodes a key press the way xterm would and writes it to w.
func (t *TerminalState) KeyDown(key KeyCode, mods Modifiers, w io.Writer) error {
	buf := &bytes.Buffer{}

	if key.Kind == KeyChar {
		switch key.Char {
		case 0x7f:
			key = Key(KeyDelete)
		case 0x08:
			key = Key(KeyBackspace)
		}
	}
	// shift is already baked into a shifted character
	if key.Kind == KeyChar && mods&ModShift != 0 &&
		(unicode.IsUpper(key.Char) || unicode.IsPunct(key.Char)) {
		mods &^= ModShift
	}

	switch key.Kind {
	case KeyChar:
		c := key.Char
		switch {
		case mods&ModCtrl != 0 && isAmbiguousASCIICtrl(c):
			ctrlMaskEncode(buf, c, mods)
		case mods&ModCtrl != 0 && unicode.IsUpper(c):
			ctrlMaskEncode(buf, c, mods)
		case mods&ModCtrl != 0 &&
			(unicode.IsLetter(c) || unicode.IsDigit(c) || unicode.IsPunct(c) || c == ' '):
			ctrlMaskEncode(buf, c, mods)
		case mods&ModAlt != 0:
			buf.WriteByte(0x1b)
			buf.WriteRune(c)
		default:
			buf.WriteRune(c)
		}

	case KeyEnter, KeyEscape, KeyBackspace:
		c := byte('\r')
		switch key.Kind {
		case KeyEscape:
			c = 0x1b
		case KeyBackspace:
			c = 0x7f
		}
		if mods&(ModShift|ModCtrl) != 0 {
			ctrlMaskEncode(buf, rune(c), mods)
		} else {
			if mods&ModAlt != 0 && key.Kind != KeyEscape {
				buf.WriteByte(0x1b)
			}
			buf.WriteByte(c)
		}

	case KeyTab:
		if mods&ModAlt != 0 {
			buf.WriteByte(0x1b)
		}
		switch {
		case mods&ModCtrl != 0 && mods&ModShift != 0:
			buf.WriteString("\x1b[1;5Z")
		case mods&ModCtrl != 0:
			buf.WriteString("\x1b[9;5u")
		case mods&ModShift != 0:
			buf.WriteString("\x1b[Z")
		default:
			buf.WriteByte('\t')
		}

	case KeyUpArrow, KeyDownArrow, KeyRightArrow, KeyLeftArrow, KeyHome, KeyEnd:
		c := map[KeyCodeKind]byte{
			KeyUpArrow: 'A', KeyDownArrow: 'B', KeyRightArrow: 'C',
			KeyLeftArrow: 'D', KeyHome: 'H', KeyEnd: 'F',
		}[key.Kind]
		switch {
		case mods != ModNone:
			fmt.Fprintf(buf, "\x1b[1;%d%c", 1+encodeModifiers(mods), c)
		case t.applicationCursorKeys:
			fmt.Fprintf(buf, "\x1bO%c", c)
		default:
			fmt.Fprintf(buf, "\x1b[%c", c)
		}

	case KeyApplicationUpArrow, KeyApplicationDownArrow,
		KeyApplicationRightArrow, KeyApplicationLeftArrow:
		c := map[KeyCodeKind]byte{
			KeyApplicationUpArrow: 'A', KeyApplicationDownArrow: 'B',
			KeyApplicationRightArrow: 'C', KeyApplicationLeftArrow: 'D',
		}[key.Kind]
		fmt.Fprintf(buf, "\x1bO%c", c)

	case KeyPageUp, KeyPageDown, KeyInsert, KeyDelete:
		c := map[KeyCodeKind]int{
			KeyInsert: 2, KeyDelete: 3, KeyPageUp: 5, KeyPageDown: 6,
		}[key.Kind]
		if mods&(ModShift|ModCtrl) != 0 {
			fmt.Fprintf(buf, "\x1b[%d;%d~", c, 1+encodeModifiers(mods))
		} else {
			if mods&ModAlt != 0 {
				buf.WriteByte(0x1b)
			}
			fmt.Fprintf(buf, "\x1b[%d~", c)
		}

	case KeyFunction:
		n := int(key.Num)
		if n >= 1 && n <= 4 && mods == ModNone {
			buf.WriteString([]string{"\x1bOP", "\x1bOQ", "\x1bOR", "\x1bOS"}[n-1])
			break
		}
		codes := map[int]int{
			1: 11, 2: 12, 3: 13, 4: 14, 5: 15, 6: 17,
			7: 18, 8: 19, 9: 20, 10: 21, 11: 23, 12: 24,
		}
		code, ok := codes[n]
		if !ok {
			break
		}
		if mods != ModNone {
			fmt.Fprintf(buf, "\x1b[%d;%d~", code, 1+encodeModifiers(mods))
		} else {
			fmt.Fprintf(buf, "\x1b[%d~", code)
		}

	case KeyNumpad, KeyShift, KeyControl, KeyAlt, KeySuper:
		// nothing to send
	}

	if buf.Len() == 0 {
		return nil
	}
	_, err := w.Write(buf.Bytes())
	return err
}

//
// mouse encoding
//

func legacyMouseCoord(pos int) byte {
	if pos < 0 || pos > 222 {
		return 0
	}
	return byte(pos + 1 + 32)
}

func mouseButtonCode(b MouseButton) int {
	switch b {
	case MouseLeft:
		return 0
	case MouseMiddle:
		return 1
	case MouseRight:
		return 2
	case MouseWheelUp:
		return 64
	case MouseWheelDown:
		return 65
	}
	return 3
}

func (t *TerminalState) mouseReportCode(button MouseButton, mods Modifiers) int {
	code := mouseButtonCode(button)
	if mods&ModShift != 0 {
		code |= 4
	}
	if mods&ModAlt != 0 {
		code |= 8
	}
	if mods&ModCtrl != 0 {
		code |= 16
	}
	return code
}

func (t *TerminalState) anyMouseReporting() bool {
	return t.mouseTracking || t.buttonEventMouse || t.anyEventMouse
}

func (t *TerminalState) writeMouseSGR(w io.Writer, code, x int, y int64, release bool) error {
	trailer := byte('M')
	if release {
		trailer = 'm'
	}
	_, err := fmt.Fprintf(w, "\x1b[<%d;%d;%d%c", code, x+1, y+1, trailer)
	return err
}

func (t *TerminalState) writeMouseLegacy(w io.Writer, code, x int, y int64) error {
	_, err := w.Write([]byte{
		0x1b, '[', 'M', byte(32 + code),
		legacyMouseCoord(x), legacyMouseCoord(int(y)),
	})
	return err
}

// CurrentHighlight is the hyperlink under the pointer, nil when the
// pointer is not over a link.
func (t *TerminalState) CurrentHighlight() *Hyperlink { return t.currentHighlight }

func (t *TerminalState) updateHighlight(x int, y VisibleRowIndex) {
	line := t.screen.Active().VisibleLine(y)
	line.ScanAndCreateHyperlinks(t.hyperlinkRules)
	t.currentHighlight = nil
	if cell := line.CellAt(x); cell != nil {
		t.currentHighlight = cell.Attrs().Hyperlink
	}
}

// MouseEvent interprets a host pointer event, emitting whatever report
// the current tracking modes ask for.
func (t *TerminalState) MouseEvent(event MouseEvent, host TerminalHost) error {
	cols, rows := t.GetDimensions()
	if event.Y > int64(rows-1) {
		event.Y = int64(rows - 1)
	}
	if event.X > cols-1 {
		event.X = cols - 1
	}
	t.updateHighlight(event.X, event.Y)

	w := host.Writer()
	switch {
	case event.Kind == MousePress &&
		(event.Button == MouseWheelUp || event.Button == MouseWheelDown):
		return t.mouseWheel(event, w)
	case event.Kind == MousePress:
		return t.mousePress(event, w)
	case event.Kind == MouseRelease:
		return t.mouseRelease(event, w)
	case event.Kind == MouseMove:
		return t.mouseMove(event, w)
	}
	return nil
}

func (t *TerminalState) mouseWheel(event MouseEvent, w io.Writer) error {
	code := t.mouseReportCode(event.Button, event.Modifiers)
	switch {
	case t.sgrMouse && t.anyMouseReporting():
		return t.writeMouseSGR(w, code, event.X, event.Y, false)
	case t.anyMouseReporting():
		return t.writeMouseLegacy(w, code, event.X, event.Y)
	case t.screen.AltScreenIsActive():
		// many TUIs expect wheel to scroll even without mouse modes
		key := Key(KeyUpArrow)
		if event.Button == MouseWheelDown {
			key = Key(KeyDownArrow)
		}
		return t.KeyDown(key, ModNone, w)
	}
	return nil
}

func (t *TerminalState) mousePress(event MouseEvent, w io.Writer) error {
	t.currentMouseButton = event.Button
	if t.lastMouseClick == nil {
		c := NewLastMouseClick(event.Button)
		t.lastMouseClick = &c
	} else {
		c := t.lastMouseClick.Add(event.Button)
		t.lastMouseClick = &c
	}
	if !t.anyMouseReporting() {
		return nil
	}
	code := t.mouseReportCode(event.Button, event.Modifiers)
	if t.sgrMouse {
		return t.writeMouseSGR(w, code, event.X, event.Y, false)
	}
	return t.writeMouseLegacy(w, code, event.X, event.Y)
}

func (t *TerminalState) mouseRelease(event MouseEvent, w io.Writer) error {
	released := t.currentMouseButton
	t.currentMouseButton = MouseNone
	if !t.anyMouseReporting() {
		return nil
	}
	if t.sgrMouse {
		code := t.mouseReportCode(released, event.Modifiers)
		return t.writeMouseSGR(w, code, event.X, event.Y, true)
	}
	// legacy reports cannot say which button; 3 means "released"
	code := 3 | t.mouseReportCode(MouseNone, event.Modifiers)&^3
	return t.writeMouseLegacy(w, code, event.X, event.Y)
}

func (t *TerminalState) mouseMove(event MouseEvent, w io.Writer) error {
	reportable := t.anyEventMouse || t.currentMouseButton != MouseNone
	if !reportable || !(t.buttonEventMouse || t.anyEventMouse) {
		return nil
	}
	code := 32 + t.mouseReportCode(t.currentMouseButton, event.Modifiers)
	if t.sgrMouse {
		return t.writeMouseSGR(w, code, event.X, event.Y, false)
	}
	return t.writeMouseLegacy(w, code, event.X, event.Y)
}
