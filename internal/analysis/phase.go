package analysis

import (
	"strings"

	"gonum.org/v1/gonum/floats"
)

// PhasePortrait holds a 2D phase space trajectory, e.g. (theta, omega).
type PhasePortrait struct {
	X, Y []float64
}

// NewPhasePortrait pairs two recorded columns. Extra samples in the longer
// column are ignored.
func NewPhasePortrait(xs, ys []float64) *PhasePortrait {
	n := min(len(xs), len(ys))
	return &PhasePortrait{X: xs[:n], Y: ys[:n]}
}

func (p *PhasePortrait) Len() int {
	return len(p.X)
}

// ASCII renders the portrait on a width x height character grid, padding
// the bounds by 10% and drawing axes where they cross the view.
func (p *PhasePortrait) ASCII(width, height int) string {
	if p == nil || p.Len() == 0 || width < 2 || height < 2 {
		return ""
	}

	minX, maxX := floats.Min(p.X), floats.Max(p.X)
	minY, maxY := floats.Min(p.Y), floats.Max(p.Y)

	rangeX, rangeY := maxX-minX, maxY-minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX, rangeY = maxX-minX, maxY-minY

	grid := make([][]rune, height)
	for i := range grid {
		grid[i] = []rune(strings.Repeat(" ", width))
	}

	col := func(x float64) int { return int((x - minX) / rangeX * float64(width-1)) }
	row := func(y float64) int { return height - 1 - int((y-minY)/rangeY*float64(height-1)) }

	for i := range p.X {
		r, c := row(p.Y[i]), col(p.X[i])
		if r >= 0 && r < height && c >= 0 && c < width {
			grid[r][c] = '•'
		}
	}

	if minX <= 0 && maxX >= 0 {
		c := col(0)
		for r := 0; r < height; r++ {
			if grid[r][c] == ' ' {
				grid[r][c] = '│'
			}
		}
	}
	if minY <= 0 && maxY >= 0 {
		r := row(0)
		for c := 0; c < width; c++ {
			if grid[r][c] == ' ' {
				grid[r][c] = '─'
			}
		}
	}

	var sb strings.Builder
	for _, line := range grid {
		sb.WriteString(string(line))
		sb.WriteRune('\n')
	}
	return sb.String()
}
