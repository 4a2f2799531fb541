package grid

import "log/slog"

// Type distinguishes dense vs sparse cell storage.
type Type uint8

const (
	TypeDense Type = iota
	TypeSparse
)

// DenseSparseThreshold is the default nx*ny cell count above which a
// grid is created sparse rather than dense.
const DenseSparseThreshold = 65536

// DefaultMemoryBudgetBytes bounds sparse-grid activation when the caller
// does not specify one.
const DefaultMemoryBudgetBytes = 64 << 20 // 64 MiB

// Grid is the uniform-array or sparse-octree cell grid, auto-selected
// by size with a fixed memory budget. Surface cells are addressed by
// (i,j); Nz records the vertical
// discretization used by the hydrology module's per-column profiles
// (the Cell record itself holds column-aggregate state, not a per-layer
// array -- see hydrology.Column).
type Grid struct {
	Type Type
	Nx, Ny, Nz int
	Dx, Dy, Dz float32

	dense  *denseStorage
	sparse *sparseStorage

	// structVersion increments on any structural change (activation,
	// deactivation) so callers can detect iterator invalidation.
	structVersion uint64
}

// Options configures grid construction.
type Options struct {
	Nx, Ny, Nz  int
	Dx, Dy, Dz  float32
	MemoryBudgetBytes int // 0 selects DefaultMemoryBudgetBytes
	ForceType   *Type // non-nil overrides auto-selection
}

// New constructs a Grid, auto-selecting dense vs sparse storage by
// nx*ny against DenseSparseThreshold unless Options.ForceType is set.
func New(opts Options) *Grid {
	budget := opts.MemoryBudgetBytes
	if budget <= 0 {
		budget = DefaultMemoryBudgetBytes
	}
	nz := opts.Nz
	if nz <= 0 {
		nz = 1
	}

	typ := TypeDense
	if opts.Nx*opts.Ny > DenseSparseThreshold {
		typ = TypeSparse
	}
	if opts.ForceType != nil {
		typ = *opts.ForceType
	}

	g := &Grid{
		Type: typ,
		Nx:   opts.Nx,
		Ny:   opts.Ny,
		Nz:   nz,
		Dx:   opts.Dx,
		Dy:   opts.Dy,
		Dz:   opts.Dz,
	}

	switch typ {
	case TypeDense:
		g.dense = newDenseStorage(opts.Nx, opts.Ny)
		slog.Info("grid initialized", "type", "dense", "nx", opts.Nx, "ny", opts.Ny)
	case TypeSparse:
		g.sparse = newSparseStorage(opts.Nx, opts.Ny, 1, budget)
		slog.Info("grid initialized", "type", "sparse", "nx", opts.Nx, "ny", opts.Ny, "budget_bytes", budget)
	}
	return g
}

// GetCell returns a pointer to the cell at (i,j), or nil for
// out-of-range or not-yet-activated sparse cells. Dense lookup is O(1);
// sparse lookup descends the octree to a leaf and reads its cell map.
// New builds the sparse octree with a single z layer, so its root is
// that leaf and no subdivision takes place.
//
// For sparse grids the returned pointer is to a detached copy (Go maps
// do not permit addressing a stored value); callers that mutate a
// sparse cell must call SetCell to write the change back. Dense cells
// are addressed directly and mutate in place.
func (g *Grid) GetCell(i, j int) *Cell {
	switch g.Type {
	case TypeDense:
		return g.dense.get(i, j)
	case TypeSparse:
		return g.sparse.get(i, j, 0)
	}
	return nil
}

// SetCell writes a cell back for sparse grids (a no-op correctness
// requirement for dense grids, where GetCell already returns a live
// pointer). Returns false if the cell was not active.
func (g *Grid) SetCell(i, j int, c Cell) bool {
	switch g.Type {
	case TypeDense:
		cell := g.dense.get(i, j)
		if cell == nil {
			return false
		}
		*cell = c
		return true
	case TypeSparse:
		return g.sparse.set(i, j, 0, c)
	}
	return false
}

// ActivateCell ensures storage exists for (i,j): a no-op for dense grids
// (always fully backed) and materializes the octree path for sparse
// grids, subject to the configured memory budget.
func (g *Grid) ActivateCell(i, j int) error {
	g.structVersion++
	switch g.Type {
	case TypeDense:
		return g.dense.activate(i, j)
	case TypeSparse:
		return g.sparse.activate(i, j, 0)
	}
	return errOutOfRange
}

// DeactivateCell is symmetric with ActivateCell: a no-op for dense
// grids, and removes the active-index entry for sparse grids.
func (g *Grid) DeactivateCell(i, j int) {
	g.structVersion++
	switch g.Type {
	case TypeDense:
		g.dense.deactivate(i, j)
	case TypeSparse:
		g.sparse.deactivate(i, j, 0)
	}
}

// ForEach visits every cell of a dense grid in row-major order, or every
// active cell of a sparse grid.
func (g *Grid) ForEach(fn func(i, j int, c *Cell)) {
	switch g.Type {
	case TypeDense:
		g.dense.forEach(fn)
	case TypeSparse:
		g.sparse.forEach(func(x, y, _ int, c *Cell) { fn(x, y, c) })
	}
}

// ActiveCellCount returns the number of cells currently eligible for
// iteration: all cells for dense grids, active cells for sparse grids.
func (g *Grid) ActiveCellCount() int {
	switch g.Type {
	case TypeDense:
		return g.dense.activeCount()
	case TypeSparse:
		return g.sparse.activeCells
	}
	return 0
}

// MemoryUsage approximates the grid's storage footprint via node count
// plus active-cell count.
func (g *Grid) MemoryUsage() int {
	switch g.Type {
	case TypeDense:
		return g.dense.memoryUsage()
	case TypeSparse:
		return g.sparse.memoryUsage()
	}
	return 0
}

// StructVersion returns the structural-change counter; it increments on
// every activation or deactivation and lets callers detect that an
// in-flight iterator may be stale.
func (g *Grid) StructVersion() uint64 {
	return g.structVersion
}
