package progress

import (
	"fmt"
	"strings"
)

// BarWidth is the number of cells in a rendered bar.
const BarWidth = 20

const (
	filledCell = "█"
	emptyCell  = "─"
)

// RenderBar draws a fixed-width bar for percent, e.g. "[█████───────────────] 25%".
func RenderBar(percent int) string {
	percent = max(0, min(100, percent))
	filled := percent * BarWidth / 100
	return fmt.Sprintf("[%s%s] %d%%", strings.Repeat(filledCell, filled), strings.Repeat(emptyCell, BarWidth-filled), percent)
}
