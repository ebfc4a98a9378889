package grid

// Stats summarises the last Rebuild. It only walks occupied cells.
type Stats struct {
	TotalCells     int
	DirtyCells     int
	Particles      int
	MaxInCell      int
	AvgPerNonEmpty float64
}

func (g *Grid) Stats() Stats {
	s := Stats{
		TotalCells: len(g.cells),
		DirtyCells: len(g.dirty),
	}
	for _, idx := range g.dirty {
		n := len(g.cells[idx].Indices)
		s.Particles += n
		if n > s.MaxInCell {
			s.MaxInCell = n
		}
	}
	if s.DirtyCells > 0 {
		s.AvgPerNonEmpty = float64(s.Particles) / float64(s.DirtyCells)
	}
	return s
}

// Occupancy is the fraction of cells holding at least one particle.
func (s Stats) Occupancy() float64 {
	if s.TotalCells == 0 {
		return 0
	}
	return float64(s.DirtyCells) / float64(s.TotalCells)
}
