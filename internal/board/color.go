package board

import (
	"fmt"
	"strings"
)

// Color identifies a jewel type. Two tokens match only when their Color
// values are equal; there is no notion of partially similar colors.
// The zero value is ColorNone and marks an empty cell.
type Color uint8

const (
	ColorNone Color = iota
	ColorRed
	ColorGreen
	ColorBlue
	ColorYellow
	ColorPurple
	ColorOrange
	ColorCyan
	ColorWhite
	ColorCount // Sentinel value for iteration
)

// MaxPalette is the number of distinct jewel colors available.
const MaxPalette = int(ColorCount) - 1

// String returns the lower-case color name.
func (c Color) String() string {
	switch c {
	case ColorNone:
		return "none"
	case ColorRed:
		return "red"
	case ColorGreen:
		return "green"
	case ColorBlue:
		return "blue"
	case ColorYellow:
		return "yellow"
	case ColorPurple:
		return "purple"
	case ColorOrange:
		return "orange"
	case ColorCyan:
		return "cyan"
	case ColorWhite:
		return "white"
	default:
		return "unknown"
	}
}

// Char returns a single character for ASCII rendering and snapshots.
func (c Color) Char() rune {
	switch c {
	case ColorNone:
		return '.'
	case ColorRed:
		return 'R'
	case ColorGreen:
		return 'G'
	case ColorBlue:
		return 'B'
	case ColorYellow:
		return 'Y'
	case ColorPurple:
		return 'P'
	case ColorOrange:
		return 'O'
	case ColorCyan:
		return 'C'
	case ColorWhite:
		return 'W'
	default:
		return '?'
	}
}

// Valid reports whether c is a real jewel color.
func (c Color) Valid() bool {
	return c > ColorNone && c < ColorCount
}

// ParseColor converts a name or single-letter code to a Color.
// Returns ColorNone and false if the string is not recognized.
func ParseColor(s string) (Color, bool) {
	switch strings.ToLower(s) {
	case "none", ".":
		return ColorNone, true
	case "red", "r":
		return ColorRed, true
	case "green", "g":
		return ColorGreen, true
	case "blue", "b":
		return ColorBlue, true
	case "yellow", "y":
		return ColorYellow, true
	case "purple", "p":
		return ColorPurple, true
	case "orange", "o":
		return ColorOrange, true
	case "cyan", "c":
		return ColorCyan, true
	case "white", "w":
		return ColorWhite, true
	default:
		return ColorNone, false
	}
}

// Palette returns the first n jewel colors, clamped to [1, MaxPalette].
func Palette(n int) []Color {
	if n < 1 {
		n = 1
	}
	if n > MaxPalette {
		n = MaxPalette
	}
	colors := make([]Color, n)
	for i := range colors {
		colors[i] = Color(i + 1)
	}
	return colors
}

// MarshalText encodes the color by name.
func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText decodes a color name or letter.
func (c *Color) UnmarshalText(text []byte) error {
	parsed, ok := ParseColor(string(text))
	if !ok {
		return fmt.Errorf("board: unknown color %q", string(text))
	}
	*c = parsed
	return nil
}
