package core

import (
	"strings"
	"testing"

	"github.com/vovakirdan/jewel-duel/internal/board"
)

func TestScreenStartsBlank(t *testing.T) {
	s := NewScreen(6, 3)
	if s.Width() != 6 || s.Height() != 3 {
		t.Fatalf("size = %dx%d, want 6x3", s.Width(), s.Height())
	}
	want := "      \n      \n      "
	if got := s.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestScreenBounds(t *testing.T) {
	s := NewScreen(4, 4)
	s.SetCell(2, 1, Cell{Rune: 'X', Tint: board.ColorRed})

	if c := s.GetCell(2, 1); c.Rune != 'X' || c.Tint != board.ColorRed {
		t.Errorf("GetCell(2, 1) = %+v", c)
	}

	for _, p := range [][2]int{{-1, 0}, {4, 0}, {0, -1}, {0, 4}} {
		s.Set(p[0], p[1], '#')
		if got := s.Get(p[0], p[1]); got != ' ' {
			t.Errorf("Get(%d, %d) = %q, want space", p[0], p[1], got)
		}
	}
	if strings.ContainsRune(s.String(), '#') {
		t.Error("out-of-bounds write reached the buffer")
	}
}

func TestScreenText(t *testing.T) {
	tests := []struct {
		name string
		draw func(s *Screen)
		want string
	}{
		{"at origin", func(s *Screen) { s.DrawText(0, 0, "gem") }, "gem     "},
		{"clipped right", func(s *Screen) { s.DrawText(6, 0, "gem") }, "      ge"},
		{"clipped left", func(s *Screen) { s.DrawText(-1, 0, "gem") }, "em      "},
		{"centered", func(s *Screen) { s.DrawTextCentered(0, "ab") }, "   ab   "},
		{"multibyte", func(s *Screen) { s.DrawText(1, 0, "◆◇") }, " ◆◇     "},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := NewScreen(8, 1)
			tc.draw(s)
			if got := s.Row(0); got != tc.want {
				t.Errorf("Row(0) = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestScreenDrawBox(t *testing.T) {
	s := NewScreen(6, 4)
	s.DrawBox(NewRect(1, 0, 4, 3))

	want := strings.Join([]string{
		" ┌──┐ ",
		" │  │ ",
		" └──┘ ",
		"      ",
	}, "\n")
	if got := s.String(); got != want {
		t.Errorf("DrawBox:\n%s\nwant:\n%s", got, want)
	}
}

func TestScreenDrawBoard(t *testing.T) {
	b := board.MustFromRows(
		"RGB",
		"YPO",
	)
	l := BoardLayout{Cols: 3, Rows: 2}
	s := NewScreen(l.Frame().W, l.Frame().H)

	s.DrawBoard(l, b, map[board.Coord]Mark{
		board.C(0, 0): MarkCursor,
		board.C(1, 0): MarkHint,
		board.C(2, 1): MarkPicked,
		board.C(1, 1): MarkCleared,
	})

	want := strings.Join([]string{
		"┌─────────┐",
		"│[R](G) B │",
		"│ Y  * <O>│",
		"└─────────┘",
	}, "\n")
	if got := s.String(); got != want {
		t.Errorf("DrawBoard:\n%s\nwant:\n%s", got, want)
	}

	if c := s.GetCell(2, 1); c.Tint != board.ColorRed || c.Mark != MarkCursor {
		t.Errorf("cursor glyph = %+v, want red with cursor mark", c)
	}
	if c := s.GetCell(1, 1); c.Tint != board.ColorNone || c.Mark != MarkCursor {
		t.Errorf("cursor bracket = %+v, want untinted with cursor mark", c)
	}
}

func TestScreenResizeKeepsOverlap(t *testing.T) {
	s := NewScreen(5, 3)
	s.DrawText(0, 0, "abcde")
	s.DrawText(0, 2, "vwxyz")

	s.Resize(3, 2)
	if got := s.String(); got != "abc\n   " {
		t.Errorf("after shrink = %q", got)
	}

	s.Resize(6, 3)
	if got := s.String(); got != "abc   \n      \n      " {
		t.Errorf("after grow = %q", got)
	}

	s.Resize(6, 3)
	if got := s.Row(0); got != "abc   " {
		t.Errorf("same-size resize changed row 0 to %q", got)
	}
}

func TestScreenRowOutside(t *testing.T) {
	s := NewScreen(4, 2)
	s.DrawText(0, 1, "ruby")

	if got := s.Row(1); got != "ruby" {
		t.Errorf("Row(1) = %q", got)
	}
	for _, y := range []int{-1, 2} {
		if got := s.Row(y); got != "    " {
			t.Errorf("Row(%d) = %q, want blank", y, got)
		}
	}
}

func TestScreenClear(t *testing.T) {
	s := NewScreen(3, 1)
	s.SetCell(1, 0, Cell{Rune: 'G', Tint: board.ColorGreen, Mark: MarkPicked})
	s.Clear()
	if c := s.GetCell(1, 0); c != (Cell{Rune: ' '}) {
		t.Errorf("cell after Clear = %+v", c)
	}
}
