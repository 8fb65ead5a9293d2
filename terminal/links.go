// Copyright 2022~2024 wangqi. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package terminal

import (
	"regexp"
	"sort"
	"strings"
)

// Hyperlink is an OSC 8 target. Cells belonging to the same link share
// one *Hyperlink, so "same link" is pointer identity. Implicit links
// are produced by rules rather than escape sequences and are stripped
// again when a line changes.
type Hyperlink struct {
	Params   map[string]string
	URI      string
	Implicit bool
}

func NewHyperlink(uri string, params map[string]string) *Hyperlink {
	if params == nil {
		params = make(map[string]string)
	}
	return &Hyperlink{Params: params, URI: uri}
}

func NewImplicitHyperlink(uri string) *Hyperlink {
	return &Hyperlink{Params: make(map[string]string), URI: uri, Implicit: true}
}

// ID returns the explicit link id, if the application supplied one.
func (h *Hyperlink) ID() string {
	return h.Params["id"]
}

// paramString renders the parameter list in the OSC 8 "k=v:k2=v2" form,
// in stable key order.
func (h *Hyperlink) paramString() string {
	if len(h.Params) == 0 {
		return ""
	}
	keys := make([]string, 0, len(h.Params))
	for k := range h.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(':')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(h.Params[k])
	}
	return b.String()
}

// parseHyperlinkParams expects the full OSC parameter list of an
// OSC 8: ["8", params, uri]. Empty params and uri end the link.
func parseHyperlinkParams(params [][]byte) (*Hyperlink, bool) {
	if len(params) != 3 {
		return nil, false
	}
	paramStr, uri := string(params[1]), string(params[2])
	if paramStr == "" && uri == "" {
		return nil, true
	}
	kv := make(map[string]string)
	if paramStr != "" {
		for _, pair := range strings.Split(paramStr, ":") {
			k, v, found := strings.Cut(pair, "=")
			if !found {
				return nil, false
			}
			kv[k] = v
		}
	}
	return NewHyperlink(uri, kv), true
}

// Rule turns plain text that matches a pattern into an implicit
// hyperlink. Format is expanded with $0..$n capture references.
type Rule struct {
	re     *regexp.Regexp
	format string
}

func NewRule(pattern, format string) (Rule, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return Rule{}, err
	}
	return Rule{re: re, format: format}, nil
}

// RuleMatch is one implicit link found in a line, as byte offsets into
// the scanned string.
type RuleMatch struct {
	Start int
	End   int
	Link  *Hyperlink
}

// matchHyperlinks runs every rule over s. Longer matches sort first so
// they win when ranges overlap.
func matchHyperlinks(s string, rules []Rule) []RuleMatch {
	var matches []RuleMatch
	for _, rule := range rules {
		for _, idx := range rule.re.FindAllStringSubmatchIndex(s, -1) {
			uri := string(rule.re.ExpandString(nil, rule.format, s, idx))
			matches = append(matches, RuleMatch{
				Start: idx[0],
				End:   idx[1],
				Link:  NewImplicitHyperlink(uri),
			})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].End-matches[i].Start > matches[j].End-matches[j].Start
	})
	return matches
}
