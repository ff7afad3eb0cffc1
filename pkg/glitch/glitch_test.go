package glitch

import (
	"fmt"
	"testing"

	"github.com/matzehuels/trip/pkg/block"
	errs "github.com/matzehuels/trip/pkg/errors"
	"github.com/matzehuels/trip/pkg/pixel"
)

// scriptedSource replays fixed IntN results and leaves shuffles as identity.
type scriptedSource struct {
	ints     []int
	shuffles int
	t        *testing.T
}

func (s *scriptedSource) Shuffle(n int, swap func(i, j int)) { s.shuffles++ }

func (s *scriptedSource) IntN(n int) int {
	if len(s.ints) == 0 {
		s.t.Fatalf("unexpected draw IntN(%d)", n)
	}
	v := s.ints[0]
	s.ints = s.ints[1:]
	if v < 0 || v >= n {
		s.t.Fatalf("scripted value %d outside [0, %d)", v, n)
	}
	return v
}

func makeSequence(h, w, c int) *pixel.Array {
	a := pixel.New(h, w, c)
	for i := range a.Pix {
		a.Pix[i] = uint8(i)
	}
	return a
}

func TestBlockShuffleIdentityDraws(t *testing.T) {
	a := makeSequence(4, 4, 1)
	src := &scriptedSource{t: t}

	out, err := BlockShuffle(a, 0, 2, src)
	if err != nil {
		t.Fatalf("BlockShuffle: %v", err)
	}
	if src.shuffles != 2 {
		t.Errorf("shuffles = %d, want 2", src.shuffles)
	}

	in, _ := block.ToBlocks(a, 2)
	got, _ := block.ToBlocks(out, 2)
	mapping := map[[2]int][2]int{
		{0, 0}: {0, 0},
		{0, 1}: {0, 0},
		{1, 0}: {1, 1},
		{1, 1}: {1, 1},
	}
	for dst, from := range mapping {
		for i := range 2 {
			for j := range 2 {
				want := in.At(from[0], i, from[1], j, 0)
				if v := got.At(dst[0], i, dst[1], j, 0); v != want {
					t.Errorf("block %v (%d,%d) = %d, want %d from block %v", dst, i, j, v, want, from)
				}
			}
		}
	}
}

func TestBlockShuffleChannelIsolation(t *testing.T) {
	a := makeSequence(8, 12, 3)
	for ch := range 3 {
		out, err := BlockShuffle(a, ch, 4, NewSource(7))
		if err != nil {
			t.Fatalf("BlockShuffle(channel=%d): %v", ch, err)
		}
		for y := range a.Height {
			for x := range a.Width {
				for c := range 3 {
					if c != ch && out.At(y, x, c) != a.At(y, x, c) {
						t.Fatalf("channel %d changed at (%d,%d) shuffling channel %d", c, y, x, ch)
					}
				}
			}
		}
	}
}

func TestBlockShuffleBlocksComeFromInput(t *testing.T) {
	a := makeSequence(12, 12, 2)
	out, err := BlockShuffle(a, 1, 3, NewSource(3))
	if err != nil {
		t.Fatal(err)
	}
	in, _ := block.ToBlocks(a, 3)
	got, _ := block.ToBlocks(out, 3)

	channelBlock := func(g *block.Grid, bx, by int) string {
		var s []uint8
		for i := range g.Size {
			for j := range g.Size {
				s = append(s, g.At(bx, i, by, j, 1))
			}
		}
		return fmt.Sprint(s)
	}
	sources := map[string]bool{}
	for bx := range in.BlocksX {
		for by := range in.BlocksY {
			sources[channelBlock(in, bx, by)] = true
		}
	}
	for bx := range got.BlocksX {
		for by := range got.BlocksY {
			if !sources[channelBlock(got, bx, by)] {
				t.Errorf("output block (%d,%d) is not an input block", bx, by)
			}
		}
	}
}

func TestBlockShuffleShapeAndPurity(t *testing.T) {
	tests := []struct {
		name         string
		h, w, c, s   int
		wantH, wantW int
	}{
		{"exact", 8, 8, 3, 4, 8, 8},
		{"non-square trimmed", 7, 10, 3, 3, 6, 9},
		{"single pixel blocks", 3, 5, 1, 1, 3, 5},
		{"whole image block", 6, 6, 4, 6, 6, 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := makeSequence(tt.h, tt.w, tt.c)
			before := a.Clone()
			out, err := BlockShuffle(a, 0, tt.s, NewSource(1))
			if err != nil {
				t.Fatalf("BlockShuffle: %v", err)
			}
			if out.Height != tt.wantH || out.Width != tt.wantW || out.Channels != tt.c {
				t.Errorf("shape = %v, want (%d, %d, %d)", out, tt.wantH, tt.wantW, tt.c)
			}
			if !a.Equal(before) {
				t.Error("input was modified")
			}
		})
	}
}

func TestBlockShuffleDeterministic(t *testing.T) {
	a := makeSequence(16, 16, 3)
	x, err := BlockShuffle(a, 2, 4, NewSource(42))
	if err != nil {
		t.Fatal(err)
	}
	y, err := BlockShuffle(a, 2, 4, NewSource(42))
	if err != nil {
		t.Fatal(err)
	}
	if !x.Equal(y) {
		t.Error("equal seeds produced different output")
	}
}

func TestBlockShuffleErrors(t *testing.T) {
	a := makeSequence(6, 6, 3)
	tests := []struct {
		name      string
		channel   int
		blockSize int
		want      errs.Code
	}{
		{"negative channel", -1, 2, errs.ErrCodeInvalidChannel},
		{"channel past end", 3, 2, errs.ErrCodeInvalidChannel},
		{"zero block size", 0, 0, errs.ErrCodeInvalidBlockSize},
		{"block larger than image", 0, 7, errs.ErrCodeInvalidBlockSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &scriptedSource{t: t}
			_, err := BlockShuffle(a, tt.channel, tt.blockSize, src)
			if !errs.Is(err, tt.want) {
				t.Errorf("error = %v, want %s", err, tt.want)
			}
			if src.shuffles != 0 {
				t.Error("source consumed before validation failed")
			}
		})
	}
}

func TestRepeatPixelsSingleBlockRows(t *testing.T) {
	a := makeSequence(4, 4, 1)
	src := &scriptedSource{ints: []int{0, 0}, t: t}

	out, err := RepeatPixels(a, StreakOptions{Axis: 0, BlockSize: 4, PercentCorrupted: 1, MarginCorrupted: 1}, src)
	if err != nil {
		t.Fatalf("RepeatPixels: %v", err)
	}
	for y := range 4 {
		for x := range 4 {
			if got, want := out.At(y, x, 0), a.At(2, x, 0); got != want {
				t.Errorf("out(%d,%d) = %d, want row 2 value %d", y, x, got, want)
			}
		}
	}
}

func TestRepeatPixelsSingleBlockColumns(t *testing.T) {
	a := makeSequence(4, 4, 2)
	src := &scriptedSource{ints: []int{0, 0}, t: t}

	out, err := RepeatPixels(a, StreakOptions{Axis: 1, BlockSize: 4, PercentCorrupted: 1, MarginCorrupted: 1}, src)
	if err != nil {
		t.Fatalf("RepeatPixels: %v", err)
	}
	for y := range 4 {
		for x := range 4 {
			for c := range 2 {
				if got, want := out.At(y, x, c), a.At(y, 2, c); got != want {
					t.Errorf("out(%d,%d,%d) = %d, want column 2 value %d", y, x, c, got, want)
				}
			}
		}
	}
}

func TestRepeatPixelsScriptedSpread(t *testing.T) {
	a := makeSequence(8, 8, 1)
	// nPrimary = 4, p = m = 0.5 gives origins in [2, 4).
	// Draws: secondary start 3, then offset 0 for origin 2.
	src := &scriptedSource{ints: []int{3, 0}, t: t}

	out, err := RepeatPixels(a, StreakOptions{Axis: 0, BlockSize: 2, PercentCorrupted: 0.5, MarginCorrupted: 0.5}, src)
	if err != nil {
		t.Fatalf("RepeatPixels: %v", err)
	}
	in, _ := block.ToBlocks(a, 2)
	got, _ := block.ToBlocks(out, 2)

	for bx := range 4 {
		for by := range 4 {
			for i := range 2 {
				for j := range 2 {
					want := in.At(bx, i, by, j, 0)
					if by == 3 && bx >= 2 {
						want = in.At(2, 0, 3, j, 0)
					}
					if v := got.At(bx, i, by, j, 0); v != want {
						t.Errorf("block (%d,%d) at (%d,%d) = %d, want %d", bx, by, i, j, v, want)
					}
				}
			}
		}
	}
}

func TestRepeatPixelsShapeAndPurity(t *testing.T) {
	a := makeSequence(9, 14, 3)
	before := a.Clone()
	for axis := range 2 {
		out, err := RepeatPixels(a, StreakOptions{Axis: axis, BlockSize: 3, PercentCorrupted: 0.6, MarginCorrupted: 0.3}, NewSource(1))
		if err != nil {
			t.Fatalf("axis %d: %v", axis, err)
		}
		if out.Height != 9 || out.Width != 12 || out.Channels != 3 {
			t.Errorf("axis %d: shape = %v, want (9, 12, 3)", axis, out)
		}
	}
	if !a.Equal(before) {
		t.Error("input was modified")
	}
}

func TestRepeatPixelsDeterministic(t *testing.T) {
	a := makeSequence(16, 16, 3)
	opts := StreakOptions{Axis: 1, BlockSize: 4, PercentCorrupted: 0.5, MarginCorrupted: 0.25}
	x, err := RepeatPixels(a, opts, NewSource(9))
	if err != nil {
		t.Fatal(err)
	}
	y, err := RepeatPixels(a, opts, NewSource(9))
	if err != nil {
		t.Fatal(err)
	}
	if !x.Equal(y) {
		t.Error("equal seeds produced different output")
	}
}

func TestRepeatPixelsErrors(t *testing.T) {
	a := makeSequence(8, 8, 3)
	tests := []struct {
		name string
		opts StreakOptions
		want errs.Code
	}{
		{"bad axis", StreakOptions{Axis: 2, BlockSize: 2, PercentCorrupted: 0.5, MarginCorrupted: 0.25}, errs.ErrCodeInvalidAxis},
		{"block size one", StreakOptions{Axis: 0, BlockSize: 1, PercentCorrupted: 0.5, MarginCorrupted: 0.25}, errs.ErrCodeInvalidBlockSize},
		{"block larger than image", StreakOptions{Axis: 0, BlockSize: 9, PercentCorrupted: 0.5, MarginCorrupted: 0.25}, errs.ErrCodeInvalidBlockSize},
		{"percent above one", StreakOptions{Axis: 0, BlockSize: 2, PercentCorrupted: 1.5, MarginCorrupted: 0.25}, errs.ErrCodeInvalidCorruptionRange},
		{"negative margin", StreakOptions{Axis: 0, BlockSize: 2, PercentCorrupted: 0.5, MarginCorrupted: -0.1}, errs.ErrCodeInvalidCorruptionRange},
		{"range past end", StreakOptions{Axis: 0, BlockSize: 2, PercentCorrupted: 0.5, MarginCorrupted: 0.75}, errs.ErrCodeInvalidCorruptionRange},
		{"empty range", StreakOptions{Axis: 1, BlockSize: 2, PercentCorrupted: 0.5, MarginCorrupted: 0}, errs.ErrCodeInvalidRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := RepeatPixels(a, tt.opts, &scriptedSource{t: t})
			if !errs.Is(err, tt.want) {
				t.Errorf("error = %v, want %s", err, tt.want)
			}
		})
	}
}

func TestStreakRange(t *testing.T) {
	tests := []struct {
		n          int
		p, m       float64
		start, end int
	}{
		{1, 1, 1, 0, 1},
		{4, 0.5, 0.5, 2, 4},
		{4, 0.45, 0.33, 3, 4},
		{10, 0.9, 0.1, 1, 2},
	}
	for _, tt := range tests {
		start, end, err := StreakRange(tt.n, tt.p, tt.m)
		if err != nil {
			t.Errorf("StreakRange(%d, %v, %v): %v", tt.n, tt.p, tt.m, err)
			continue
		}
		if start != tt.start || end != tt.end {
			t.Errorf("StreakRange(%d, %v, %v) = [%d, %d), want [%d, %d)", tt.n, tt.p, tt.m, start, end, tt.start, tt.end)
		}
	}
}

func ExampleBlockShuffle() {
	a := pixel.New(7, 10, 3)
	out, err := BlockShuffle(a, 0, 3, NewSource(1))
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(out)
	// Output: pixel.Array(6, 9, 3)
}
