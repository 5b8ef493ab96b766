// Package terminal provides small terminal manipulation helpers.
package terminal

import (
	"fmt"
	"os"

	"golang.org/x/term"
)

// ClearPreviousLines erases previously printed text from the terminal.
// textLength is the character count of prompt plus user input; the helper
// works out how many screen lines that wrapped to at the current width and
// clears them with ANSI escapes. Used to remove secrets from the screen
// right after they are typed.
func ClearPreviousLines(textLength int) {
	width := 80
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		width = w
	}

	lines := (textLength + width - 1) / width
	if lines < 1 {
		lines = 1
	}
	// Enter left the cursor on a fresh line below the input.
	lines++

	for i := 0; i < lines; i++ {
		fmt.Print("\r\x1b[2K")
		if i < lines-1 {
			fmt.Print("\x1b[1A")
		}
	}
}
