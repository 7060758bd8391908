// Copyright © 2024 The ELPS authors

package render

import (
	"fmt"
	"strings"
)

// CompactThreshold is the number of lines a recursion error block must
// exceed before repeated frames are collapsed.
const CompactThreshold = 100

// RecursionErrorName is the exception raised when the interpreter's
// recursion limit is exceeded.
const RecursionErrorName = "RecursionError"

func isRecursionError(name string) bool {
	return name == RecursionErrorName || strings.HasSuffix(name, "."+RecursionErrorName)
}

// Compact collapses the repeated frames of a deep recursion. When lines
// exceeds CompactThreshold and some line occurs a third time at index i,
// the result is lines[:i], an omission marker and the last two lines (the
// closing frame and the error line). Otherwise lines is returned as is.
func Compact(lines []string) []string {
	if len(lines) <= CompactThreshold {
		return lines
	}
	seen := make(map[string]int)
	repeat := 0
	for i, line := range lines {
		seen[line]++
		if seen[line] == 3 {
			repeat = i
			break
		}
	}
	if repeat == 0 {
		return lines
	}
	omitted := len(lines) - repeat - 2
	if omitted <= 0 {
		return lines
	}
	out := make([]string, 0, repeat+3)
	out = append(out, lines[:repeat]...)
	out = append(out, fmt.Sprintf("%s... %d omitted lines", indent, omitted))
	return append(out, lines[len(lines)-2:]...)
}
