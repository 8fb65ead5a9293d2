// Copyright 2022~2024 wangqi. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package terminal

import "strings"

// line state bits
const (
	lineDirty uint8 = 1 << 0
	// at least one cell carries a hyperlink
	lineHasHyperlink uint8 = 1 << 1
	// implicit hyperlink scan already ran for the current content
	lineScannedImplicit uint8 = 1 << 2
	lineHasImplicit     uint8 = 1 << 3
)

// Line is one row of cells. New lines start dirty so a renderer that
// has seen nothing yet paints everything.
type Line struct {
	bits  uint8
	cells []Cell
}

func NewLine(width int) Line {
	l := Line{bits: lineDirty, cells: make([]Cell, width)}
	for i := range l.cells {
		l.cells[i] = defaultCell()
	}
	return l
}

// Clone copies the line for a renderer snapshot. Cells share hyperlink
// pointers, which are immutable once attached.
func (l *Line) Clone() Line {
	return Line{bits: l.bits, cells: append([]Cell(nil), l.cells...)}
}

func (l *Line) IsDirty() bool { return l.bits&lineDirty != 0 }

func (l *Line) SetDirty() { l.bits |= lineDirty }

func (l *Line) ClearDirty() { l.bits &^= lineDirty }

func (l *Line) Len() int { return len(l.cells) }

// Cells exposes the raw cell storage, followers included.
func (l *Line) Cells() []Cell { return l.cells }

// CellAt returns nil when x is outside the line.
func (l *Line) CellAt(x int) *Cell {
	if x < 0 || x >= len(l.cells) {
		return nil
	}
	return &l.cells[x]
}

// resizeAndClear rebuilds the line as width blank cells.
func (l *Line) resizeAndClear(width int) {
	l.cells = l.cells[:0]
	for i := 0; i < width; i++ {
		l.cells = append(l.cells, defaultCell())
	}
	l.bits = lineDirty
}

// resize grows the line; shrinking is left to reflow.
func (l *Line) resize(width int) {
	for len(l.cells) < width {
		l.cells = append(l.cells, defaultCell())
	}
	l.bits |= lineDirty
}

// invalidateImplicitHyperlinks drops rule-derived links so the next
// scan sees the updated text.
func (l *Line) invalidateImplicitHyperlinks() {
	l.bits &^= lineScannedImplicit
	if l.bits&lineHasImplicit == 0 {
		return
	}
	for i := range l.cells {
		attrs := l.cells[i].Attrs()
		if attrs.Hyperlink != nil && attrs.Hyperlink.Implicit {
			attrs.Hyperlink = nil
		}
	}
	l.bits &^= lineHasImplicit
	l.bits |= lineDirty
}

// ScanAndCreateHyperlinks applies the implicit link rules once per
// content generation.
func (l *Line) ScanAndCreateHyperlinks(rules []Rule) {
	if l.bits&lineScannedImplicit != 0 {
		return
	}
	l.bits |= lineScannedImplicit
	if len(rules) == 0 {
		return
	}

	var b strings.Builder
	byteToCell := make(map[int]int)
	for _, vc := range l.VisibleCells() {
		byteToCell[b.Len()] = vc.CellIndex
		b.WriteString(vc.Cell.Str())
	}
	text := b.String()

	for _, m := range matchHyperlinks(text, rules) {
		for pos := m.Start; pos < m.End; pos++ {
			idx, ok := byteToCell[pos]
			if !ok {
				continue
			}
			attrs := l.cells[idx].Attrs()
			if attrs.Hyperlink != nil {
				continue
			}
			attrs.Hyperlink = m.Link
			l.bits |= lineHasHyperlink | lineHasImplicit | lineDirty
		}
	}
}

// invalidateGraphemeAtOrBefore neutralizes a wide cluster that is about
// to be partially overwritten at x.
func (l *Line) invalidateGraphemeAtOrBefore(x int) {
	if x == 0 {
		return
	}
	prior := x - 1
	if prior >= len(l.cells) {
		return
	}
	width := l.cells[prior].Width()
	if width <= 1 {
		return
	}
	attrs := l.cells[prior].attrs
	for i := prior; i < prior+width && i < len(l.cells); i++ {
		l.cells[i] = NewCell(" ", attrs)
	}
}

// SetCell writes a cluster at x, materializing blank followers for wide
// clusters and healing any cluster it lands in the middle of.
func (l *Line) SetCell(x int, cell Cell) {
	width := cell.Width()
	if width < 1 {
		width = 1
	}
	l.resize(max(len(l.cells), x+width))
	l.invalidateImplicitHyperlinks()
	l.bits |= lineDirty
	if cell.attrs.Hyperlink != nil {
		l.bits |= lineHasHyperlink
	}
	l.invalidateGraphemeAtOrBefore(x)
	for i := 1; i < width; i++ {
		l.cells[x+i] = NewCell(" ", cell.attrs)
	}
	l.cells[x] = cell
}

// InsertCell shifts cells right from x. The caller bounds the line.
func (l *Line) InsertCell(x int, cell Cell) {
	l.invalidateImplicitHyperlinks()
	l.bits |= lineDirty
	if cell.attrs.Hyperlink != nil {
		l.bits |= lineHasHyperlink
	}
	l.cells = append(l.cells, Cell{})
	copy(l.cells[x+1:], l.cells[x:])
	l.cells[x] = cell
}

// EraseCell removes the cell at x and pads the line back out. A wide
// cluster losing its follower is neutralized first so the shift cannot
// bury the next character behind the wide lead.
func (l *Line) EraseCell(x int) {
	if x >= len(l.cells) {
		return
	}
	l.invalidateImplicitHyperlinks()
	l.invalidateGraphemeAtOrBefore(x)
	l.bits |= lineDirty
	copy(l.cells[x:], l.cells[x+1:])
	l.cells[len(l.cells)-1] = defaultCell()
}

// Truncate drops cells beyond width.
func (l *Line) Truncate(width int) {
	if len(l.cells) > width {
		l.cells = l.cells[:width]
		l.bits |= lineDirty
	}
}

// FillRange paints [start, end) with copies of cell.
func (l *Line) FillRange(start, end int, cell Cell) {
	for x := start; x < end && x < len(l.cells); x++ {
		l.SetCell(x, cell)
	}
}

// VisibleCell pairs a cell with its column; followers of wide clusters
// are skipped.
type VisibleCell struct {
	CellIndex int
	Cell      *Cell
}

func (l *Line) VisibleCells() []VisibleCell {
	var res []VisibleCell
	skip := 0
	for i := range l.cells {
		if skip > 0 {
			skip--
			continue
		}
		res = append(res, VisibleCell{CellIndex: i, Cell: &l.cells[i]})
		skip = l.cells[i].Width() - 1
	}
	return res
}

func isDefaultBlank(c *Cell) bool {
	return c.text == " " && c.attrs == CellAttributes{}
}

// wrap rewraps the line's content to a new width, used during reflow.
// Each full chunk's trailing cell carries the wrapped bit so the pieces
// can be joined again later.
func (l Line) wrap(width int) []Line {
	end := -1
	for i := len(l.cells) - 1; i >= 0; i-- {
		if !isDefaultBlank(&l.cells[i]) {
			end = i
			break
		}
	}
	if end < 0 {
		return []Line{l}
	}
	cells := l.cells[:end+1]
	var out []Line
	for start := 0; start < len(cells); start += width {
		stop := start + width
		if stop > len(cells) {
			stop = len(cells)
		}
		nl := Line{bits: lineDirty, cells: append([]Cell(nil), cells[start:stop]...)}
		last := nl.cells[len(nl.cells)-1].Attrs()
		last.SetWrapped(stop < len(cells))
		out = append(out, nl)
	}
	return out
}

// lastCellWasWrapped reports whether the line flows into the next one.
func (l *Line) lastCellWasWrapped() bool {
	if len(l.cells) == 0 {
		return false
	}
	return l.cells[len(l.cells)-1].attrs.Wrapped()
}

// String renders the visible text, trailing blanks included.
func (l *Line) String() string {
	var b strings.Builder
	for _, vc := range l.VisibleCells() {
		b.WriteString(vc.Cell.Str())
	}
	return b.String()
}

func (l *Line) IsWhitespace() bool {
	if len(l.cells) == 0 {
		return false
	}
	for i := range l.cells {
		if l.cells[i].text != " " {
			return false
		}
	}
	return true
}

// DoubleClickRange is a half-open column span; Wrapped means the word
// continues on the following line.
type DoubleClickRange struct {
	Start   int
	End     int
	Wrapped bool
}

// ComputeDoubleClickRange expands from clickCol over cells satisfying
// isWord.
func (l *Line) ComputeDoubleClickRange(clickCol int, isWord func(string) bool) DoubleClickRange {
	if clickCol >= len(l.cells) || !isWord(l.cells[clickCol].Str()) {
		return DoubleClickRange{Start: clickCol, End: clickCol}
	}
	lower, upper := clickCol, clickCol+1
	for lower > 0 && isWord(l.cells[lower-1].Str()) {
		lower--
	}
	for upper < len(l.cells) && isWord(l.cells[upper].Str()) {
		upper++
	}
	return DoubleClickRange{
		Start:   lower,
		End:     upper,
		Wrapped: upper == len(l.cells) && l.lastCellWasWrapped(),
	}
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
