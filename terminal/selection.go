// Copyright 2022~2024 wangqi. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package terminal

import "math"

// SelectionCoordinate addresses a cell for selection purposes. Y is a
// scrollback-or-visible row index: negative rows lie in the scrollback.
type SelectionCoordinate struct {
	X int
	Y int32
}

// SelectionRange holds the endpoints in the order the user produced
// them; Normalize puts them into top-to-bottom order.
type SelectionRange struct {
	Start SelectionCoordinate
	End   SelectionCoordinate
}

// StartSelection begins a selection at a single cell.
func StartSelection(start SelectionCoordinate) SelectionRange {
	return SelectionRange{Start: start, End: start}
}

// Extend moves the free endpoint.
func (r SelectionRange) Extend(end SelectionCoordinate) SelectionRange {
	return SelectionRange{Start: r.Start, End: end}
}

// Normalize orders the endpoints so Start.Y <= End.Y.
func (r SelectionRange) Normalize() SelectionRange {
	if r.Start.Y <= r.End.Y {
		return r
	}
	return SelectionRange{Start: r.End, End: r.Start}
}

// Rows returns the normalized row span as a half-open range.
func (r SelectionRange) Rows() Range[int32] {
	n := r.Normalize()
	return Range[int32]{Start: n.Start.Y, End: n.End.Y + 1}
}

// ClipToViewport intersects the selection with a viewport that starts
// viewportOffset rows back from the visible screen and is height rows
// tall. The result is expressed relative to that viewport.
func (r SelectionRange) ClipToViewport(viewportOffset int32, height int) SelectionRange {
	n := r.Normalize()
	offset := -viewportOffset
	startY := n.Start.Y
	if startY < offset {
		startY = offset
	}
	endY := n.End.Y
	if limit := offset + int32(height); endY > limit {
		endY = limit
	}
	return SelectionRange{
		Start: SelectionCoordinate{X: n.Start.X, Y: startY - offset},
		End:   SelectionCoordinate{X: n.End.X, Y: endY - offset},
	}
}

// ColsForRow returns the half-open column span the selection covers on
// the given row of the normalized range. Interior rows span the whole
// line.
func (r SelectionRange) ColsForRow(row int32) Range[int] {
	n := r.Normalize()
	switch {
	case row < n.Start.Y || row > n.End.Y:
		return Range[int]{Start: 0, End: 0}
	case n.Start.Y == n.End.Y:
		lo, hi := n.Start.X, n.End.X
		if lo > hi {
			lo, hi = hi, lo
		}
		return Range[int]{Start: lo, End: hi + 1}
	case row == n.End.Y:
		return Range[int]{Start: 0, End: n.End.X + 1}
	case row == n.Start.Y:
		return Range[int]{Start: n.Start.X, End: math.MaxInt}
	default:
		return Range[int]{Start: 0, End: math.MaxInt}
	}
}
