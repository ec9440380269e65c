// console/console.go
// Copyright(c) 2022-2025 fbogfx contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package console

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/fbogfx/fbogfx/math"
	"github.com/fbogfx/fbogfx/util"
)

type TextStyle int

const (
	TextRegular TextStyle = iota
	TextEmphasized
	TextError
)

// Entry is a single line of console output.
type Entry struct {
	Text  string
	Style TextStyle
}

// Input is the command line being edited; cursor is a byte offset into
// cmd.
type Input struct {
	cmd    string
	cursor int
}

func (in *Input) InsertAtCursor(s string) {
	if len(s) == 0 {
		return
	}
	in.cmd = in.cmd[:in.cursor] + s + in.cmd[in.cursor:]
	// place cursor after the inserted text
	in.cursor += len(s)
}

func (in *Input) DeleteBeforeCursor() {
	if in.cursor > 0 {
		_, n := utf8.DecodeLastRuneInString(in.cmd[:in.cursor])
		in.cmd = in.cmd[:in.cursor-n] + in.cmd[in.cursor:]
		in.cursor -= n
	}
}

func (in *Input) DeleteAfterCursor() {
	if in.cursor < len(in.cmd) {
		_, n := utf8.DecodeRuneInString(in.cmd[in.cursor:])
		in.cmd = in.cmd[:in.cursor] + in.cmd[in.cursor+n:]
	}
}

func (in *Input) CursorLeft() {
	if in.cursor > 0 {
		_, n := utf8.DecodeLastRuneInString(in.cmd[:in.cursor])
		in.cursor -= n
	}
}

func (in *Input) CursorRight() {
	if in.cursor < len(in.cmd) {
		_, n := utf8.DecodeRuneInString(in.cmd[in.cursor:])
		in.cursor += n
	}
}

func (in *Input) Home() { in.cursor = 0 }
func (in *Input) End()  { in.cursor = len(in.cmd) }

func (in *Input) String() string { return in.cmd }
func (in *Input) Cursor() int    { return in.cursor }

// Console is a bounded scroll-back of text entries along with a command
// line. It is only a model; Renderer draws it.
type Console struct {
	lines *util.RingBuffer[Entry]
	// Lines from the end (for pgup/down); 0 shows the most recent.
	viewOffset int

	Input  Input
	Status string

	history       []Input
	historyOffset int // counts from the end; 0 when not in history
	savedInput    Input
}

func New(scrollback int) *Console {
	return &Console{lines: util.NewRingBuffer[Entry](scrollback)}
}

// Resize changes the scroll-back length, keeping the most recent lines.
func (c *Console) Resize(scrollback int) {
	c.lines.Resize(scrollback)
	c.clampView(0)
}

func (c *Console) add(s string, style TextStyle) {
	for _, line := range strings.Split(strings.TrimSuffix(s, "\n"), "\n") {
		c.lines.Add(Entry{Text: line, Style: style})
	}
}

// Print adds s, one entry per line.
func (c *Console) Print(s string) {
	c.add(s, TextRegular)
}

func (c *Console) Printf(format string, args ...any) {
	c.add(fmt.Sprintf(format, args...), TextRegular)
}

func (c *Console) Emphasize(s string) {
	c.add(s, TextEmphasized)
}

func (c *Console) Error(err error) {
	c.add(err.Error(), TextError)
}

// SetInput replaces the command line, placing the cursor at its end.
func (c *Console) SetInput(s string) {
	c.Input = Input{cmd: s, cursor: len(s)}
}

// Submit returns the current command line, adds it to the history and
// clears it. The view scrolls back to the most recent output.
func (c *Console) Submit() string {
	cmd := c.Input.cmd
	if cmd != "" {
		c.history = append(c.history, c.Input)
	}
	c.Input = Input{}
	c.viewOffset = 0
	c.historyOffset = 0
	c.Status = ""
	return cmd
}

// HistoryPrev replaces the input with the previous command, saving the
// current input so that HistoryNext can return to it.
func (c *Console) HistoryPrev() {
	if c.historyOffset == len(c.history) {
		c.Status = "Reached end of history."
		return
	}
	if c.historyOffset == 0 {
		c.savedInput = c.Input
	}
	c.historyOffset++
	c.Input = c.history[len(c.history)-c.historyOffset]
	c.Input.End()
	c.Status = ""
}

func (c *Console) HistoryNext() {
	if c.historyOffset == 0 {
		c.Status = "Reached end of history."
		return
	}
	c.historyOffset--
	if c.historyOffset == 0 {
		c.Input = c.savedInput
		c.savedInput = Input{}
	} else {
		c.Input = c.history[len(c.history)-c.historyOffset]
	}
	c.Input.End()
}

// Scroll moves the view n lines back in time (n > 0) or forward (n < 0).
// The view never scrolls past the oldest line or before the newest.
func (c *Console) Scroll(n int) {
	c.viewOffset += n
	c.clampView(0)
}

// PageUp scrolls back by a page of visible lines, keeping one line from
// the previous page.
func (c *Console) PageUp(visible int) {
	c.viewOffset += max(visible-1, 1)
	c.clampView(visible)
}

func (c *Console) PageDown(visible int) {
	c.viewOffset -= max(visible-1, 1)
	c.clampView(visible)
}

func (c *Console) clampView(visible int) {
	c.viewOffset = math.Clamp(c.viewOffset, 0, max(c.lines.Size()-max(visible, 1), 0))
}

// ViewOffset returns how many lines the view is scrolled back.
func (c *Console) ViewOffset() int {
	return c.viewOffset
}

// Clear discards all output.
func (c *Console) Clear() {
	c.lines.Clear()
	c.viewOffset = 0
}

// Lines returns the output, oldest first.
func (c *Console) Lines() []Entry {
	n := c.lines.Size()
	e := make([]Entry, n)
	for i := range n {
		e[i] = c.lines.Get(i)
	}
	return e
}

// Visible returns up to n entries that end at the current view offset,
// oldest first.
func (c *Console) Visible(n int) []Entry {
	end := c.lines.Size() - c.viewOffset
	start := max(end-n, 0)
	var e []Entry
	for i := start; i < end; i++ {
		e = append(e, c.lines.Get(i))
	}
	return e
}
