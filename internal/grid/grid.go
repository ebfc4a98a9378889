package grid

import (
	"math"
	"slices"

	"github.com/lbartron/Verlet/internal/particle"
)

// DefaultCellScale is the cell size as a multiple of the largest particle
// diameter.
const DefaultCellScale = 1.5

// Offset is a neighbour cell displacement in cell coordinates.
type Offset struct {
	DX, DY int
}

// ForwardOffsets is the half of the 8-neighbourhood with dy > 0 or
// (dy == 0 and dx > 0). Visiting only these from every cell reaches each
// unordered pair of adjacent cells exactly once.
var ForwardOffsets = [4]Offset{
	{DX: 1, DY: 0},
	{DX: -1, DY: 1},
	{DX: 0, DY: 1},
	{DX: 1, DY: 1},
}

// Cell holds the indices of the particles whose centre falls inside it.
type Cell struct {
	Indices []int
	dirty   bool
}

// Grid is a uniform bucket grid over [0, width] x [0, height]. It stores
// indices into a particle slice owned by the caller; they are valid until
// the next Rebuild.
type Grid struct {
	cellSize   float64
	cols, rows int
	cells      []Cell
	dirty      []int
}

// CellSizeFor returns the cell edge for particles up to maxRadius.
func CellSizeFor(maxRadius, scale float64) float64 {
	if scale <= 1 {
		scale = DefaultCellScale
	}
	return 2 * maxRadius * scale
}

// New allocates every cell up front. cellSize must exceed the largest
// particle diameter that will ever be bucketed, otherwise overlapping pairs
// can fall outside the 1-ring neighbourhood and are silently missed.
func New(worldWidth, worldHeight, cellSize float64) *Grid {
	cols := int(math.Floor(worldWidth / cellSize))
	rows := int(math.Floor(worldHeight / cellSize))
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}

	g := &Grid{
		cellSize: cellSize,
		cols:     cols,
		rows:     rows,
		cells:    make([]Cell, cols*rows),
		dirty:    make([]int, 0, cols*rows/4+1),
	}
	for i := range g.cells {
		g.cells[i].Indices = make([]int, 0, 8)
	}
	return g
}

func (g *Grid) Cols() int              { return g.cols }
func (g *Grid) Rows() int              { return g.rows }
func (g *Grid) CellSize() float64      { return g.cellSize }
func (g *Grid) NumCells() int          { return len(g.cells) }
func (g *Grid) Index(col, row int) int { return row*g.cols + col }

// Coords is the inverse of Index.
func (g *Grid) Coords(idx int) (col, row int) {
	return idx % g.cols, idx / g.cols
}

// CellOf returns the cell containing pos. Positions outside the world land
// in the nearest edge cell.
func (g *Grid) CellOf(pos particle.Vec2) (col, row int) {
	col = int(math.Floor(pos.X / g.cellSize))
	if col < 0 {
		col = 0
	} else if col >= g.cols {
		col = g.cols - 1
	}

	row = int(math.Floor(pos.Y / g.cellSize))
	if row < 0 {
		row = 0
	} else if row >= g.rows {
		row = g.rows - 1
	}
	return col, row
}

// Rebuild clears the cells touched by the previous build and re-buckets
// every particle in index order. The cost is proportional to the number of
// particles plus previously occupied cells, never to the grid area.
func (g *Grid) Rebuild(ps []particle.Particle) {
	for _, idx := range g.dirty {
		c := &g.cells[idx]
		c.Indices = c.Indices[:0]
		c.dirty = false
	}
	g.dirty = g.dirty[:0]

	for i := range ps {
		col, row := g.CellOf(ps[i].Pos)
		idx := row*g.cols + col
		c := &g.cells[idx]
		if !c.dirty {
			c.dirty = true
			g.dirty = append(g.dirty, idx)
		}
		c.Indices = append(c.Indices, i)
	}

	slices.Sort(g.dirty)
}

// Dirty lists the occupied cells in ascending index order. The slice is
// owned by the grid.
func (g *Grid) Dirty() []int {
	return g.dirty
}

// Cell returns the particle indices bucketed in cell idx, in ascending
// particle order.
func (g *Grid) Cell(idx int) []int {
	return g.cells[idx].Indices
}

// IsDirty reports whether the cell was occupied after the last Rebuild.
func (g *Grid) IsDirty(idx int) bool {
	return g.cells[idx].dirty
}

// Neighbor returns the index of the cell at (col+dx, row+dy), or false if it
// lies outside the grid.
func (g *Grid) Neighbor(col, row int, off Offset) (int, bool) {
	nc, nr := col+off.DX, row+off.DY
	if nc < 0 || nc >= g.cols || nr < 0 || nr >= g.rows {
		return 0, false
	}
	return nr*g.cols + nc, true
}

// Adjacent reports whether two cells are equal or 1-ring neighbours.
func (g *Grid) Adjacent(a, b int) bool {
	ac, ar := g.Coords(a)
	bc, br := g.Coords(b)
	return absInt(ac-bc) <= 1 && absInt(ar-br) <= 1
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
