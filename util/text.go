// util/text.go
// Copyright(c) 2022-2025 fbogfx contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package util

import (
	"strings"
)

// WrapText breaks s into lines of at most columnLimit runes, preferring
// to break after a space and otherwise breaking mid-word. Continuation
// lines are indented by indent spaces. Newlines in s are kept; a
// non-positive columnLimit disables wrapping.
func WrapText(s string, columnLimit int, indent int) []string {
	if columnLimit <= 0 {
		return strings.Split(s, "\n")
	}
	indent = max(min(indent, columnLimit-1), 0)
	prefix := strings.Repeat(" ", indent)

	var lines []string
	for _, in := range strings.Split(s, "\n") {
		line := []rune(in)
		for continuation := false; ; continuation = true {
			limit, pre := columnLimit, ""
			if continuation {
				limit, pre = columnLimit-indent, prefix
			}
			if len(line) <= limit {
				lines = append(lines, pre+string(line))
				break
			}

			breakPos := limit
			// The character just past the limit may be a space, in which
			// case the whole of line[:limit] fits.
			for i := limit; i > 0; i-- {
				if line[i] == ' ' {
					breakPos = i + 1
					break
				}
			}
			lines = append(lines, pre+strings.TrimRight(string(line[:breakPos]), " "))
			line = line[breakPos:]
		}
	}
	return lines
}
