package progress_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"hardsub/internal/progress"
)

func TestRenderBar(t *testing.T) {
	tests := []struct {
		percent int
		filled  int
		suffix  string
	}{
		{0, 0, "] 0%"},
		{4, 0, "] 4%"},
		{5, 1, "] 5%"},
		{50, 10, "] 50%"},
		{99, 19, "] 99%"},
		{100, 20, "] 100%"},
		{150, 20, "] 100%"},
		{-3, 0, "] 0%"},
	}
	for _, tt := range tests {
		bar := progress.RenderBar(tt.percent)
		if !strings.HasPrefix(bar, "[") || !strings.HasSuffix(bar, tt.suffix) {
			t.Fatalf("RenderBar(%d) = %q", tt.percent, bar)
		}
		cells := bar[1:strings.Index(bar, "]")]
		if n := utf8.RuneCountInString(cells); n != progress.BarWidth {
			t.Fatalf("RenderBar(%d) has %d cells", tt.percent, n)
		}
		if n := strings.Count(cells, "█"); n != tt.filled {
			t.Fatalf("RenderBar(%d) filled %d cells, want %d", tt.percent, n, tt.filled)
		}
	}
}
