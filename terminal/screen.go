// Copyright 2022~2024 wangqi. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package terminal

// Row index flavors. Physical rows index the whole line storage,
// visible rows the on-screen window at its end. Stable rows are
// monotonically increasing labels that survive scrolling: a line keeps
// its stable index until it is evicted from the scrollback.
type (
	PhysRowIndex                = int
	StableRowIndex              = int
	VisibleRowIndex             = int64
	ScrollbackOrVisibleRowIndex = int32
)

// Screen is the line storage for one surface: scrollback plus the
// visible rows at the tail.
type Screen struct {
	lines          []Line
	physicalRows   int
	physicalCols   int
	scrollbackSize int

	// stable index of lines[0]; advances only on eviction
	stableRowOffset StableRowIndex
}

func NewScreen(physRows, physCols, scrollbackSize int) *Screen {
	physRows = max(physRows, 1)
	physCols = max(physCols, 1)
	s := &Screen{
		physicalRows:   physRows,
		physicalCols:   physCols,
		scrollbackSize: scrollbackSize,
	}
	s.lines = make([]Line, 0, physRows)
	for i := 0; i < physRows; i++ {
		s.lines = append(s.lines, NewLine(physCols))
	}
	return s
}

func (s *Screen) PhysicalRows() int { return s.physicalRows }
func (s *Screen) PhysicalCols() int { return s.physicalCols }

// PhysRow maps a visible row to its physical index.
func (s *Screen) PhysRow(row VisibleRowIndex) PhysRowIndex {
	return len(s.lines) - s.physicalRows + int(row)
}

// ScrollbackOrVisibleRow maps a scrollback-or-visible index (negative
// rows reach back into the scrollback) to a physical index.
func (s *Screen) ScrollbackOrVisibleRow(row ScrollbackOrVisibleRowIndex) PhysRowIndex {
	idx := len(s.lines) - s.physicalRows + int(row)
	return max(idx, 0)
}

// PhysToStableRowIndex labels a physical row with its stable index.
func (s *Screen) PhysToStableRowIndex(phys PhysRowIndex) StableRowIndex {
	return phys + s.stableRowOffset
}

// StableToPhysRowIndex inverts PhysToStableRowIndex; the result may be
// out of range if the row has been evicted.
func (s *Screen) StableToPhysRowIndex(stable StableRowIndex) PhysRowIndex {
	return stable - s.stableRowOffset
}

// VisibleRowToStableRow labels a visible row with its stable index.
func (s *Screen) VisibleRowToStableRow(row VisibleRowIndex) StableRowIndex {
	return s.PhysToStableRowIndex(s.PhysRow(row))
}

// StableRange converts a visible row span into stable indices.
func (s *Screen) StableRange(visible Range[VisibleRowIndex]) Range[StableRowIndex] {
	return Range[StableRowIndex]{
		Start: s.VisibleRowToStableRow(visible.Start),
		End:   s.VisibleRowToStableRow(visible.End - 1) + 1,
	}
}

func (s *Screen) Line(phys PhysRowIndex) *Line {
	return &s.lines[phys]
}

func (s *Screen) VisibleLine(row VisibleRowIndex) *Line {
	return &s.lines[s.PhysRow(row)]
}

func (s *Screen) AllLines() []Line { return s.lines }

func (s *Screen) DirtyLine(row VisibleRowIndex) {
	idx := s.PhysRow(row)
	if idx >= 0 && idx < len(s.lines) {
		s.lines[idx].SetDirty()
	}
}

func (s *Screen) MakeAllLinesDirty() {
	for i := range s.lines {
		s.lines[i].SetDirty()
	}
}

func (s *Screen) CleanDirtyLines() {
	for i := range s.lines {
		s.lines[i].ClearDirty()
	}
}

// SetCell writes a cell at visible coordinates and returns the line for
// chained inspection.
func (s *Screen) SetCell(x int, y VisibleRowIndex, cell Cell) *Line {
	line := s.VisibleLine(y)
	line.SetCell(x, cell)
	line.Truncate(s.physicalCols)
	return line
}

func (s *Screen) InsertCell(x int, y VisibleRowIndex) {
	line := s.VisibleLine(y)
	line.InsertCell(x, defaultCell())
	line.Truncate(s.physicalCols)
}

func (s *Screen) EraseCell(x int, y VisibleRowIndex) {
	s.VisibleLine(y).EraseCell(x)
}

// ClearLine paints a column span of a visible row with blanks carrying
// the given attributes.
func (s *Screen) ClearLine(y VisibleRowIndex, cols Range[int], attrs CellAttributes) {
	line := s.VisibleLine(y)
	line.resize(s.physicalCols)
	end := min(cols.End, s.physicalCols)
	line.FillRange(cols.Start, end, NewCell(" ", attrs))
}

// ScrollUp moves the content of the scroll region up by n rows. When
// the region starts at the top of the screen the evicted rows roll
// into the scrollback; otherwise they are dropped.
func (s *Screen) ScrollUp(region Range[VisibleRowIndex], n int) {
	size := int(region.End - region.Start)
	if n > size {
		n = size
	}
	if n <= 0 {
		return
	}
	physStart := s.PhysRow(region.Start)
	physEnd := s.PhysRow(region.End)
	for i := physStart; i < physEnd; i++ {
		s.lines[i].SetDirty()
	}

	blanks := make([]Line, 0, n)
	for i := 0; i < n; i++ {
		blanks = append(blanks, NewLine(s.physicalCols))
	}

	if region.Start == 0 {
		// rows scroll into the scrollback
		if int(region.End) == s.physicalRows {
			s.lines = append(s.lines, blanks...)
		} else {
			s.lines = insertLines(s.lines, physEnd, blanks)
		}
		s.trimScrollback()
	} else {
		s.lines = append(s.lines[:physStart], s.lines[physStart+n:]...)
		s.lines = insertLines(s.lines, physEnd-n, blanks)
	}
}

// ScrollDown moves the region's content down; rows falling off the
// bottom of the region are dropped.
func (s *Screen) ScrollDown(region Range[VisibleRowIndex], n int) {
	size := int(region.End - region.Start)
	if n > size {
		n = size
	}
	if n <= 0 {
		return
	}
	physStart := s.PhysRow(region.Start)
	physEnd := s.PhysRow(region.End)
	for i := physStart; i < physEnd; i++ {
		s.lines[i].SetDirty()
	}

	s.lines = append(s.lines[:physEnd-n], s.lines[physEnd:]...)
	blanks := make([]Line, 0, n)
	for i := 0; i < n; i++ {
		blanks = append(blanks, NewLine(s.physicalCols))
	}
	s.lines = insertLines(s.lines, physStart, blanks)
}

// EraseScrollback drops everything above the visible rows. The evicted
// lines advance the stable offset just as capacity eviction does.
func (s *Screen) EraseScrollback() {
	evict := len(s.lines) - s.physicalRows
	if evict <= 0 {
		return
	}
	s.lines = append([]Line(nil), s.lines[evict:]...)
	s.stableRowOffset += evict
}

func (s *Screen) trimScrollback() {
	capacity := s.scrollbackSize + s.physicalRows
	if over := len(s.lines) - capacity; over > 0 {
		s.lines = s.lines[over:]
		s.stableRowOffset += over
	}
}

// logicalLine is one unwrapped line plus the physical index where it
// started, used during reflow.
type logicalLine struct {
	cells []Cell
	first PhysRowIndex
}

// Resize changes the grid dimensions, rewrapping content when the
// width changes, and returns the adjusted cursor position.
func (s *Screen) Resize(physRows, physCols int, cursor CursorPos) CursorPos {
	physRows = max(physRows, 1)
	physCols = max(physCols, 1)
	if physRows == s.physicalRows && physCols == s.physicalCols {
		return cursor
	}

	cursorPhys := s.PhysRow(cursor.Y)
	cursorX := cursor.X

	if physCols != s.physicalCols {
		cursorPhys, cursorX = s.reflow(physCols, cursorPhys, cursorX)
	}
	s.physicalCols = physCols

	// grow the window with blank rows; shrinking just slides the
	// window up over existing content
	for len(s.lines) < physRows {
		s.lines = append(s.lines, NewLine(physCols))
	}
	s.physicalRows = physRows
	s.trimScrollback()
	s.MakeAllLinesDirty()

	y := VisibleRowIndex(cursorPhys - (len(s.lines) - physRows))
	if y < 0 {
		y = 0
	}
	if y >= VisibleRowIndex(physRows) {
		y = VisibleRowIndex(physRows - 1)
	}
	x := cursorX
	if x >= physCols {
		x = physCols - 1
	}
	return CursorPos{X: x, Y: y}
}

// reflow joins wrapped physical lines into logical lines and rewraps
// them to the new width. Rewrapping the same content twice at the same
// width yields the same layout.
func (s *Screen) reflow(newCols int, cursorPhys PhysRowIndex, cursorX int) (PhysRowIndex, int) {
	var logical []logicalLine
	cursorLogical, cursorOffset := -1, 0

	i := 0
	for i < len(s.lines) {
		start := i
		var cells []Cell
		for {
			line := &s.lines[i]
			if cursorPhys == i {
				cursorLogical = len(logical)
				cursorOffset = len(cells) + cursorX
			}
			wrapped := line.lastCellWasWrapped()
			cells = append(cells, line.Cells()...)
			if len(cells) > 0 {
				cells[len(cells)-1].attrs.SetWrapped(false)
			}
			i++
			if !wrapped || i >= len(s.lines) {
				break
			}
		}
		logical = append(logical, logicalLine{cells: cells, first: start})
	}

	newLines := make([]Line, 0, len(logical))
	cursorNewPhys, cursorNewX := 0, 0
	for li, ll := range logical {
		src := Line{bits: lineDirty, cells: ll.cells}
		parts := src.wrap(newCols)
		// keep grid invariant: every stored line is exactly full width
		for pi := range parts {
			parts[pi].Truncate(newCols)
			parts[pi].resize(newCols)
		}
		if li == cursorLogical {
			part := cursorOffset / newCols
			if part >= len(parts) {
				part = len(parts) - 1
			}
			cursorNewPhys = len(newLines) + part
			cursorNewX = cursorOffset - part*newCols
		}
		newLines = append(newLines, parts...)
	}
	if cursorLogical < 0 {
		cursorNewPhys = len(newLines) - 1
		cursorNewX = cursorX
	}
	if len(newLines) == 0 {
		newLines = append(newLines, NewLine(newCols))
	}
	s.lines = newLines
	return cursorNewPhys, cursorNewX
}

func insertLines(lines []Line, at int, add []Line) []Line {
	res := make([]Line, 0, len(lines)+len(add))
	res = append(res, lines[:at]...)
	res = append(res, add...)
	res = append(res, lines[at:]...)
	return res
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// savedCursor is the DECSC register: enough to restore the insertion
// state, kept per screen.
type savedCursor struct {
	position      CursorPos
	wrapNext      bool
	pen           CellAttributes
	decOriginMode bool
}

// ScreenOrAlt pairs the primary screen with the scrollback-less
// alternate screen and tracks which one is live.
type ScreenOrAlt struct {
	screen    *Screen
	altScreen *Screen
	altActive bool

	savedCursor    *savedCursor
	altSavedCursor *savedCursor
}

func NewScreenOrAlt(physRows, physCols, scrollbackSize int) *ScreenOrAlt {
	return &ScreenOrAlt{
		screen:    NewScreen(physRows, physCols, scrollbackSize),
		altScreen: NewScreen(physRows, physCols, 0),
	}
}

func (s *ScreenOrAlt) Active() *Screen {
	if s.altActive {
		return s.altScreen
	}
	return s.screen
}

func (s *ScreenOrAlt) Primary() *Screen { return s.screen }

func (s *ScreenOrAlt) AltScreenIsActive() bool { return s.altActive }

func (s *ScreenOrAlt) Resize(physRows, physCols int, cursor CursorPos) CursorPos {
	if s.altActive {
		s.screen.Resize(physRows, physCols, CursorPos{})
		return s.altScreen.Resize(physRows, physCols, cursor)
	}
	s.altScreen.Resize(physRows, physCols, CursorPos{})
	return s.screen.Resize(physRows, physCols, cursor)
}

// ActivateAltScreen switches to the alternate screen; the content that
// becomes visible must repaint.
func (s *ScreenOrAlt) ActivateAltScreen() {
	s.altActive = true
	s.dirtyVisible()
}

func (s *ScreenOrAlt) ActivatePrimaryScreen() {
	s.altActive = false
	s.dirtyVisible()
}

func (s *ScreenOrAlt) dirtyVisible() {
	scr := s.Active()
	for v := 0; v < scr.physicalRows; v++ {
		scr.DirtyLine(VisibleRowIndex(v))
	}
}

func (s *ScreenOrAlt) SaveCursor(sc savedCursor) {
	if s.altActive {
		s.altSavedCursor = &sc
	} else {
		s.savedCursor = &sc
	}
}

func (s *ScreenOrAlt) SavedCursor() *savedCursor {
	if s.altActive {
		return s.altSavedCursor
	}
	return s.savedCursor
}

func (s *ScreenOrAlt) ClearSavedCursor() {
	if s.altActive {
		s.altSavedCursor = nil
	} else {
		s.savedCursor = nil
	}
}
