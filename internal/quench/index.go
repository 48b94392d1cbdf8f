package quench

import "math"

// cellIndex buckets quenchers into square cells no smaller than the
// quenching radius, so every quencher within the radius of a point lies in
// the 3x3 block of cells around it. Buckets keep quencher indices in
// ascending order.
type cellIndex struct {
	size  float64
	side  int
	cells [][]int
}

func newCellIndex(gridSize int, radius float64) *cellIndex {
	size := math.Max(radius, 1)
	side := int(float64(gridSize-1)/size) + 1
	return &cellIndex{size: size, side: side, cells: make([][]int, side*side)}
}

func (ix *cellIndex) cell(v float64) int {
	c := int(v / ix.size)
	if c < 0 {
		return 0
	}
	if c >= ix.side {
		return ix.side - 1
	}
	return c
}

func (ix *cellIndex) rebuild(qs []*Quencher) {
	for i := range ix.cells {
		ix.cells[i] = ix.cells[i][:0]
	}
	for i, q := range qs {
		k := ix.cell(q.Y)*ix.side + ix.cell(q.X)
		ix.cells[k] = append(ix.cells[k], i)
	}
}

// nearest returns the lowest-index quencher with squared distance to (x, y)
// strictly below r2, matching a scan of all quenchers in index order.
func (ix *cellIndex) nearest(qs []*Quencher, x, y, r2 float64) (int, float64) {
	cx, cy := ix.cell(x), ix.cell(y)
	best, bestD2 := -1, 0.0
	for gy := cy - 1; gy <= cy+1; gy++ {
		if gy < 0 || gy >= ix.side {
			continue
		}
		for gx := cx - 1; gx <= cx+1; gx++ {
			if gx < 0 || gx >= ix.side {
				continue
			}
			for _, i := range ix.cells[gy*ix.side+gx] {
				if best >= 0 && i > best {
					break
				}
				dx, dy := x-qs[i].X, y-qs[i].Y
				if d2 := dx*dx + dy*dy; d2 < r2 {
					best, bestD2 = i, d2
					break
				}
			}
		}
	}
	return best, bestD2
}
