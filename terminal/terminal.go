// Copyright 2022~2024 wangqi. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package terminal implements a terminal emulator core: a DEC-ANSI
// escape sequence decoder with typed commands, an xterm compatible
// state machine and a cell grid with scrollback, alternate screen and
// reflow. It renders nothing itself; a frontend reads lines and dirty
// ranges out of it.
package terminal

import (
	"io"
	"sync"
)

// Terminal couples the byte parser with the state machine. Advance is
// the single entry point for application output; input goes through
// KeyDown, MouseEvent and SendPaste.
type Terminal struct {
	state  *TerminalState
	parser *Parser
}

func NewTerminal(physRows, physCols, pixelWidth, pixelHeight, scrollbackSize int,
	hyperlinkRules []Rule,
) *Terminal {
	return &Terminal{
		state:  NewTerminalState(physRows, physCols, pixelWidth, pixelHeight, scrollbackSize, hyperlinkRules),
		parser: NewParser(),
	}
}

// Advance feeds a chunk of application output through the parser and
// applies the decoded actions. Chunks may split escape sequences and
// UTF-8 clusters at any byte.
func (t *Terminal) Advance(buf []byte, host TerminalHost) error {
	performer := NewPerformer(t.state, host)
	for _, action := range t.parser.Parse(buf) {
		performer.PerformAction(action)
	}
	return performer.Finish()
}

func (t *Terminal) State() *TerminalState { return t.state }

func (t *Terminal) Screen() *Screen { return t.state.Screen() }

func (t *Terminal) Title() string { return t.state.Title() }

func (t *Terminal) Palette() *ColorPalette { return t.state.Palette() }

func (t *Terminal) CursorVisible() bool { return t.state.CursorVisible() }

func (t *Terminal) CursorPos() CursorPos { return t.state.CursorPos() }

func (t *Terminal) CurrentHighlight() *Hyperlink { return t.state.CurrentHighlight() }

func (t *Terminal) GetDimensions() (cols, rows int) { return t.state.GetDimensions() }

func (t *Terminal) Resize(physRows, physCols, pixelWidth, pixelHeight int) {
	t.state.Resize(physRows, physCols, pixelWidth, pixelHeight)
}

func (t *Terminal) GetDirtyLines(stable Range[StableRowIndex]) *RangeSet[StableRowIndex] {
	return t.state.GetDirtyLines(stable)
}

func (t *Terminal) GetLines(stable Range[StableRowIndex]) (StableRowIndex, []Line) {
	return t.state.GetLines(stable)
}

func (t *Terminal) KeyDown(key KeyCode, mods Modifiers, w io.Writer) error {
	return t.state.KeyDown(key, mods, w)
}

func (t *Terminal) MouseEvent(event MouseEvent, host TerminalHost) error {
	return t.state.MouseEvent(event, host)
}

func (t *Terminal) SendPaste(text string, w io.Writer) error {
	return t.state.SendPaste(text, w)
}

// MemoryClipboard is a process-local Clipboard for hosts without a
// system clipboard, and for tests.
type MemoryClipboard struct {
	mu       sync.Mutex
	contents string
}

func (c *MemoryClipboard) GetContents() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.contents, nil
}

func (c *MemoryClipboard) SetContents(content string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.contents = content
	return nil
}

// WriterHost is the trivial TerminalHost: responses go to W, the
// clipboard is optional.
type WriterHost struct {
	W  io.Writer
	CB Clipboard
}

func (h *WriterHost) Writer() io.Writer    { return h.W }
func (h *WriterHost) Clipboard() Clipboard { return h.CB }

// lockedWriter serializes writes from multiple goroutines onto one
// io.Writer.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func NewLockedWriter(w io.Writer) io.Writer {
	return &lockedWriter{w: w}
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
