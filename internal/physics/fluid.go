package physics

import (
	"math"

	"github.com/san-kum/physlab/internal/dynamo"
)

// FlowField is a coarse W x H grid of velocity vectors stored row-major.
type FlowField struct {
	W     int           `json:"width"`
	H     int           `json:"height"`
	Cells []dynamo.Vec2 `json:"cells"`
}

func NewFlowField(w, h int) *FlowField {
	return &FlowField{W: w, H: h, Cells: make([]dynamo.Vec2, w*h)}
}

// NewVortexField seeds a unit-free tangential swirl of speed 0.5 around the
// grid center.
func NewVortexField(w, h int) *FlowField {
	f := NewFlowField(w, h)
	cx, cy := float64(w)/2, float64(h)/2
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dx, dy := float64(x)-cx, float64(y)-cy
			d := math.Hypot(dx, dy)
			if d > 0 {
				f.Cells[y*w+x] = dynamo.Vec2{X: -dy / d * 0.5, Y: dx / d * 0.5}
			}
		}
	}
	return f
}

func (f *FlowField) In(x, y int) bool {
	return x >= 0 && x < f.W && y >= 0 && y < f.H
}

func (f *FlowField) At(x, y int) dynamo.Vec2 {
	return f.Cells[y*f.W+x]
}

func (f *FlowField) Set(x, y int, v dynamo.Vec2) {
	f.Cells[y*f.W+x] = v
}

func (f *FlowField) Clone() *FlowField {
	c := &FlowField{W: f.W, H: f.H, Cells: make([]dynamo.Vec2, len(f.Cells))}
	copy(c.Cells, f.Cells)
	return c
}

// Diffuse blends every cell with the mean of its 3x3 neighbourhood
// (clipped at the edges) by alpha. All reads see the pre-step field.
func (f *FlowField) Diffuse(alpha float64) {
	next := make([]dynamo.Vec2, len(f.Cells))
	for y := 0; y < f.H; y++ {
		for x := 0; x < f.W; x++ {
			var sum dynamo.Vec2
			count := 0
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					if f.In(x+dx, y+dy) {
						sum = sum.Add(f.At(x+dx, y+dy))
						count++
					}
				}
			}
			mean := sum.Scale(1 / float64(count))
			next[y*f.W+x] = f.At(x, y).Scale(1 - alpha).Add(mean.Scale(alpha))
		}
	}
	f.Cells = next
}

// ZeroBoundary forces the outer ring of cells to rest.
func (f *FlowField) ZeroBoundary() {
	for x := 0; x < f.W; x++ {
		f.Set(x, 0, dynamo.Vec2{})
		f.Set(x, f.H-1, dynamo.Vec2{})
	}
	for y := 0; y < f.H; y++ {
		f.Set(0, y, dynamo.Vec2{})
		f.Set(f.W-1, y, dynamo.Vec2{})
	}
}

// Sample returns the velocity of the cell under canvas point p, or zero
// when p lies outside the grid.
func (f *FlowField) Sample(p dynamo.Vec2, cellW, cellH float64) dynamo.Vec2 {
	gx, gy, ok := f.CellOf(p, cellW, cellH)
	if !ok {
		return dynamo.Vec2{}
	}
	return f.At(gx, gy)
}

func (f *FlowField) CellOf(p dynamo.Vec2, cellW, cellH float64) (int, int, bool) {
	gx := int(math.Floor(p.X / cellW))
	gy := int(math.Floor(p.Y / cellH))
	return gx, gy, f.In(gx, gy)
}

// Rows returns the field as H rows of W vectors.
func (f *FlowField) Rows() [][]dynamo.Vec2 {
	rows := make([][]dynamo.Vec2, f.H)
	for y := range rows {
		rows[y] = append([]dynamo.Vec2(nil), f.Cells[y*f.W:(y+1)*f.W]...)
	}
	return rows
}

// MeanSpeed is the average cell speed, used as a coarse activity gauge.
func (f *FlowField) MeanSpeed() float64 {
	if len(f.Cells) == 0 {
		return 0
	}
	sum := 0.0
	for _, c := range f.Cells {
		sum += c.Len()
	}
	return sum / float64(len(f.Cells))
}

type Particle struct {
	Pos  dynamo.Vec2 `json:"position"`
	Vel  dynamo.Vec2 `json:"velocity"`
	Age  float64     `json:"age"`
	Size float64     `json:"size"`
}

// Life fades from 1 to 0 over a ten second cycle.
func (p *Particle) Life() float64 {
	return 1 - math.Mod(p.Age, 10)/10
}

type Obstacle struct {
	Center dynamo.Vec2 `json:"center"`
	Radius float64     `json:"radius"`
}

// Collide reflects a particle that entered the obstacle. The reflected
// velocity is the total (own + flow) velocity mirrored about the surface
// normal and the particle is placed one unit outside the surface.
func (o Obstacle) Collide(p *Particle, total dynamo.Vec2) bool {
	d := p.Pos.Sub(o.Center)
	dist := d.Len()
	if dist >= o.Radius {
		return false
	}

	n := dynamo.Vec2{X: 1}
	if dist > 0 {
		n = d.Scale(1 / dist)
	}
	p.Vel = total.Sub(n.Scale(2 * total.Dot(n)))
	p.Pos = o.Center.Add(n.Scale(o.Radius + 1))
	return true
}
