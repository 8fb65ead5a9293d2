// Copyright 2022~2024 wangqi. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package terminal

import (
	"reflect"
	"testing"
)

func TestRangeSetAdd(t *testing.T) {
	tc := []struct {
		name   string
		add    []Range[int]
		expect []Range[int]
	}{
		{
			"disjoint kept ordered",
			[]Range[int]{{Start: 10, End: 12}, {Start: 0, End: 2}},
			[]Range[int]{{Start: 0, End: 2}, {Start: 10, End: 12}},
		},
		{
			"touching merged",
			[]Range[int]{{Start: 0, End: 2}, {Start: 2, End: 4}},
			[]Range[int]{{Start: 0, End: 4}},
		},
		{
			"overlap merged",
			[]Range[int]{{Start: 0, End: 5}, {Start: 3, End: 8}},
			[]Range[int]{{Start: 0, End: 8}},
		},
		{
			"bridge merges three",
			[]Range[int]{{Start: 0, End: 2}, {Start: 4, End: 6}, {Start: 2, End: 4}},
			[]Range[int]{{Start: 0, End: 6}},
		},
		{
			"empty range ignored",
			[]Range[int]{{Start: 3, End: 3}},
			nil,
		},
	}

	for _, v := range tc {
		t.Run(v.name, func(t *testing.T) {
			s := NewRangeSet[int]()
			for _, r := range v.add {
				s.AddRange(r)
			}
			if !reflect.DeepEqual(s.Ranges(), v.expect) {
				t.Errorf("expect %v, got %v\n", v.expect, s.Ranges())
			}
		})
	}
}

func TestRangeSetContains(t *testing.T) {
	s := NewRangeSet[int]()
	s.Add(3)
	s.Add(4)
	s.AddRange(Range[int]{Start: 10, End: 12})

	for _, v := range []int{3, 4, 10, 11} {
		if !s.Contains(v) {
			t.Errorf("expect %d in set %s\n", v, s)
		}
	}
	for _, v := range []int{2, 5, 12} {
		if s.Contains(v) {
			t.Errorf("expect %d not in set %s\n", v, s)
		}
	}
}

func TestRangeSetString(t *testing.T) {
	s := NewRangeSet[int]()
	s.AddRange(Range[int]{Start: 1, End: 3})
	s.AddRange(Range[int]{Start: 7, End: 8})
	if got := s.String(); got != "[1..3 7..8]" {
		t.Errorf("expect %q, got %q\n", "[1..3 7..8]", got)
	}
}
