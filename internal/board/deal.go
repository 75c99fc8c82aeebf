package board

import (
	"math/rand/v2"
	"time"
)

// Source is the part of a random generator the board needs.
// *rand.Rand satisfies it; tests may substitute a scripted source.
type Source interface {
	IntN(n int) int
}

// NewSource returns a seeded generator. A zero seed uses the current time.
func NewSource(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15)) //nolint:gosec // gameplay randomness
}

// RandomColor picks a uniformly random color from the first palette colors.
func RandomColor(src Source, palette int) Color {
	colors := Palette(palette)
	return colors[src.IntN(len(colors))]
}

// Fill assigns a color to every cell so that no row or column contains three
// equal colors in a row. Needs a palette of at least 3 colors.
func Fill(b *Board, palette int, src Source) {
	colors := Palette(palette)
	candidates := make([]Color, 0, len(colors))
	for row := 0; row < b.H; row++ {
		for col := 0; col < b.W; col++ {
			left := C(col-1, row)
			up := C(col, row-1)

			var banH, banV Color
			if col >= 2 && b.ColorAt(left) == b.ColorAt(C(col-2, row)) {
				banH = b.ColorAt(left)
			}
			if row >= 2 && b.ColorAt(up) == b.ColorAt(C(col, row-2)) {
				banV = b.ColorAt(up)
			}

			candidates = candidates[:0]
			for _, color := range colors {
				if color != banH && color != banV {
					candidates = append(candidates, color)
				}
			}
			if len(candidates) == 0 {
				candidates = append(candidates, colors...)
			}
			b.Set(C(col, row), candidates[src.IntN(len(candidates))])
		}
	}
}

// Deal creates a new board filled without any runs.
func Deal(w, h, palette int, src Source) *Board {
	b := New(w, h)
	Fill(b, palette, src)
	return b
}
