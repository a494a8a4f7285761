package util

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
)

// Terminal color sequences
const (
	ColorReset   = "\033[0m"
	ColorCyan    = "\033[36m"
	ColorGreen   = "\033[32m"
	ColorYellow  = "\033[33m"
	ColorMagenta = "\033[35m"
	ColorBold    = "\033[1m"
	ColorDim     = "\033[2m"
)

// GetDisplayWidth calculates the display width of a string, accounting for wide runes
func GetDisplayWidth(text string) int {
	return runewidth.StringWidth(text)
}

// PadRight pads text with spaces up to width display columns
func PadRight(text string, width int) string {
	w := GetDisplayWidth(text)
	if w >= width {
		return text
	}
	return text + strings.Repeat(" ", width-w)
}

// Truncate shortens text to at most width display columns, marking the cut with "…"
func Truncate(text string, width int) string {
	if width <= 0 {
		return ""
	}
	return runewidth.Truncate(text, width, "…")
}

// Colorize wraps text in color unless color is empty
func Colorize(color, text string) string {
	if color == "" {
		return text
	}
	return fmt.Sprintf("%s%s%s", color, text, ColorReset)
}

// FormatHeaderTitle formats main header titles (Magenta + Bold)
func FormatHeaderTitle(title string) string {
	return fmt.Sprintf("%s%s%s%s", ColorBold, ColorMagenta, title, ColorReset)
}
