// Copyright 2022~2024 wangqi. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package terminal

import (
	"fmt"
	"strings"

	"golang.org/x/exp/constraints"
)

// Range is a half-open interval [Start, End).
type Range[T constraints.Integer] struct {
	Start T
	End   T
}

func (r Range[T]) Contains(v T) bool {
	return v >= r.Start && v < r.End
}

func (r Range[T]) intersects(o Range[T]) bool {
	return r.Start < o.End && o.Start < r.End
}

// RangeSet is an ordered set of non-overlapping, non-adjacent ranges.
// Used to report which stable rows changed without shipping per-row
// flags.
type RangeSet[T constraints.Integer] struct {
	ranges []Range[T]
}

func NewRangeSet[T constraints.Integer]() *RangeSet[T] {
	return &RangeSet[T]{}
}

func (s *RangeSet[T]) IsEmpty() bool { return len(s.ranges) == 0 }

func (s *RangeSet[T]) Ranges() []Range[T] { return s.ranges }

func (s *RangeSet[T]) Add(v T) {
	s.AddRange(Range[T]{Start: v, End: v + 1})
}

// AddRange merges the new range with any it touches.
func (s *RangeSet[T]) AddRange(r Range[T]) {
	if r.Start >= r.End {
		return
	}
	merged := r
	out := make([]Range[T], 0, len(s.ranges)+1)
	inserted := false
	for _, existing := range s.ranges {
		switch {
		case existing.End < merged.Start:
			out = append(out, existing)
		case merged.End < existing.Start:
			if !inserted {
				out = append(out, merged)
				inserted = true
			}
			out = append(out, existing)
		default:
			// touching or overlapping: absorb
			if existing.Start < merged.Start {
				merged.Start = existing.Start
			}
			if existing.End > merged.End {
				merged.End = existing.End
			}
		}
	}
	if !inserted {
		out = append(out, merged)
	}
	s.ranges = out
}

// Contains reports membership of a single value.
func (s *RangeSet[T]) Contains(v T) bool {
	for _, r := range s.ranges {
		if r.Contains(v) {
			return true
		}
	}
	return false
}

func (s *RangeSet[T]) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, r := range s.ranges {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%d..%d", r.Start, r.End)
	}
	b.WriteByte(']')
	return b.String()
}
