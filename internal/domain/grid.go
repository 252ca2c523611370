package domain

import (
	"math"

	"github.com/worldforge-go/simcore/internal/eid"
	"github.com/worldforge-go/simcore/internal/geom"
)

// grid is a cell-based spatial index for PhysicalDomain: cells are keyed
// by floor(coord/cellSize) on the X/Z plane, and GetNearby returns
// candidates for the caller to distance-filter precisely.
type grid struct {
	cellSize float64
	cells    map[cellKey]map[eid.ID]struct{}
}

type cellKey struct{ cx, cz int64 }

func newGrid(cellSize float64) *grid {
	return &grid{cellSize: cellSize, cells: make(map[cellKey]map[eid.ID]struct{})}
}

func (g *grid) cellOf(pos geom.Vector3) cellKey {
	return cellKey{
		cx: int64(math.Floor(pos.X / g.cellSize)),
		cz: int64(math.Floor(pos.Z / g.cellSize)),
	}
}

func (g *grid) Add(id eid.ID, pos geom.Vector3) {
	k := g.cellOf(pos)
	cell := g.cells[k]
	if cell == nil {
		cell = make(map[eid.ID]struct{})
		g.cells[k] = cell
	}
	cell[id] = struct{}{}
}

func (g *grid) Remove(id eid.ID, pos geom.Vector3) {
	k := g.cellOf(pos)
	cell := g.cells[k]
	if cell == nil {
		return
	}
	delete(cell, id)
	if len(cell) == 0 {
		delete(g.cells, k)
	}
}

func (g *grid) Move(id eid.ID, oldPos, newPos geom.Vector3) {
	oldK, newK := g.cellOf(oldPos), g.cellOf(newPos)
	if oldK == newK {
		return
	}
	g.Remove(id, oldPos)
	g.Add(id, newPos)
}

// Nearby returns every id in the 3x3 neighbourhood of cells around pos.
// Callers still need to do fine-grained distance filtering.
func (g *grid) Nearby(pos geom.Vector3) []eid.ID {
	center := g.cellOf(pos)
	var out []eid.ID
	for dx := int64(-1); dx <= 1; dx++ {
		for dz := int64(-1); dz <= 1; dz++ {
			k := cellKey{cx: center.cx + dx, cz: center.cz + dz}
			for id := range g.cells[k] {
				out = append(out, id)
			}
		}
	}
	return out
}
