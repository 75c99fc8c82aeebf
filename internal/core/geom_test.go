package core

import (
	"testing"

	"github.com/vovakirdan/jewel-duel/internal/board"
)

func TestRect(t *testing.T) {
	r := NewRect(2, 3, 4, 2)
	if r.Right() != 6 || r.Bottom() != 5 {
		t.Fatalf("Right, Bottom = %d, %d; want 6, 5", r.Right(), r.Bottom())
	}

	for _, tc := range []struct {
		x, y int
		want bool
	}{
		{2, 3, true},
		{5, 4, true},
		{6, 4, false},
		{5, 5, false},
		{1, 3, false},
		{2, 2, false},
	} {
		if got := r.Contains(tc.x, tc.y); got != tc.want {
			t.Errorf("Contains(%d, %d) = %v, want %v", tc.x, tc.y, got, tc.want)
		}
	}

	if in := r.Inset(1); in != NewRect(3, 4, 2, 0) {
		t.Errorf("Inset(1) = %+v", in)
	}
	if in := r.Inset(3); in.W != 0 || in.H != 0 {
		t.Errorf("over-inset = %+v, want empty", in)
	}
}

func TestNewBoardLayoutCenters(t *testing.T) {
	tests := []struct {
		name    string
		screenW int
		wantX   int
	}{
		{"wide screen", 80, 27},
		{"exact fit", 26, 0},
		{"narrow screen", 10, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			l := NewBoardLayout(tc.screenW, 2, 8, 8)
			if l.X != tc.wantX || l.Y != 2 {
				t.Errorf("origin = (%d, %d), want (%d, 2)", l.X, l.Y, tc.wantX)
			}
			if f := l.Frame(); f.W != 26 || f.H != 10 {
				t.Errorf("frame = %dx%d, want 26x10", f.W, f.H)
			}
		})
	}
}

func TestBoardLayoutCellAt(t *testing.T) {
	l := BoardLayout{X: 4, Y: 2, Cols: 5, Rows: 4}

	tests := []struct {
		name   string
		x, y   int
		want   board.Coord
		wantOK bool
	}{
		{"opening bracket", 5, 3, board.C(0, 0), true},
		{"closing bracket", 7, 3, board.C(0, 0), true},
		{"next column", 8, 3, board.C(1, 0), true},
		{"bottom right", 19, 6, board.C(4, 3), true},
		{"left frame", 4, 3, board.Coord{}, false},
		{"right frame", 20, 3, board.Coord{}, false},
		{"top frame", 6, 2, board.Coord{}, false},
		{"bottom frame", 6, 7, board.Coord{}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := l.CellAt(tc.x, tc.y)
			if ok != tc.wantOK || got != tc.want {
				t.Errorf("CellAt(%d, %d) = %v, %v; want %v, %v", tc.x, tc.y, got, ok, tc.want, tc.wantOK)
			}
		})
	}
}

func TestBoardLayoutRoundTrip(t *testing.T) {
	l := NewBoardLayout(40, 1, 6, 6)
	for row := range 6 {
		for col := range 6 {
			c := board.C(col, row)
			x, y := l.CellOrigin(c)
			for dx := range CellWidth {
				if got, ok := l.CellAt(x+dx, y); !ok || got != c {
					t.Errorf("CellAt(CellOrigin(%v)+%d) = %v, %v", c, dx, got, ok)
				}
			}
		}
	}
}

func TestClampAbs(t *testing.T) {
	for _, tc := range []struct{ v, want int }{{-3, 0}, {0, 0}, {4, 4}, {7, 7}, {9, 7}} {
		if got := Clamp(tc.v, 0, 7); got != tc.want {
			t.Errorf("Clamp(%d, 0, 7) = %d, want %d", tc.v, got, tc.want)
		}
	}
	for _, tc := range []struct{ v, want int }{{-2, 2}, {0, 0}, {5, 5}} {
		if got := Abs(tc.v); got != tc.want {
			t.Errorf("Abs(%d) = %d, want %d", tc.v, got, tc.want)
		}
	}
}
