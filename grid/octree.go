package grid

import "errors"

// ErrMemoryBudget is returned when an activation would exceed the
// configured byte budget.
var ErrMemoryBudget = errors.New("grid: activation would exceed memory budget")

var errOutOfRange = errors.New("grid: index out of range")

// cellByteSize approximates the in-memory footprint of one Cell for
// budget accounting.
const cellByteSize = 256

// octNodeByteSize approximates the overhead of one octree node.
const octNodeByteSize = 96

// box is an axis-aligned box in grid indices.
type box struct {
	minX, minY, minZ int
	maxX, maxY, maxZ int
}

func (b box) contains(x, y, z int) bool {
	return x >= b.minX && x < b.maxX &&
		y >= b.minY && y < b.maxY &&
		z >= b.minZ && z < b.maxZ
}

func (b box) size() (int, int, int) {
	return b.maxX - b.minX, b.maxY - b.minY, b.maxZ - b.minZ
}

// octNode is a node in the sparse octree. Interior nodes have no
// active-index array; leaf nodes deduplicate their active indices and
// grow the backing array geometrically.
type octNode struct {
	bounds    box
	depth     int
	isLeaf    bool
	allocated bool
	children  [8]*octNode
	active    []int // deduplicated flat indices into the owning sparse grid's cell slice
	cells     map[int]Cell
}

// octreeMaxDepth bounds recursion; below this size a node is forced to
// be a leaf regardless of requested subdivision.
const octreeMaxDepth = 16
const octreeLeafCells = 8 // subdivide once a node's box exceeds this linear size in x or y; a node with a z-extent of 1 is always a leaf

func newOctNode(b box, depth int) *octNode {
	w, h, dz := b.size()
	isLeaf := w <= octreeLeafCells && h <= octreeLeafCells || depth >= octreeMaxDepth || dz <= 1
	return &octNode{bounds: b, depth: depth, isLeaf: isLeaf}
}

func (n *octNode) octantIndex(x, y, z int) int {
	midX := (n.bounds.minX + n.bounds.maxX) / 2
	midY := (n.bounds.minY + n.bounds.maxY) / 2
	midZ := (n.bounds.minZ + n.bounds.maxZ) / 2
	idx := 0
	if x >= midX {
		idx |= 1
	}
	if y >= midY {
		idx |= 2
	}
	if z >= midZ {
		idx |= 4
	}
	return idx
}

func (n *octNode) childBounds(octant int) box {
	midX := (n.bounds.minX + n.bounds.maxX) / 2
	midY := (n.bounds.minY + n.bounds.maxY) / 2
	midZ := (n.bounds.minZ + n.bounds.maxZ) / 2
	b := n.bounds
	if octant&1 != 0 {
		b.minX = midX
	} else {
		b.maxX = midX
	}
	if octant&2 != 0 {
		b.minY = midY
	} else {
		b.maxY = midY
	}
	if octant&4 != 0 {
		b.minZ = midZ
	} else {
		b.maxZ = midZ
	}
	return b
}

// flatIndex produces the deduplication key used by the active-index
// array; the sparse grid owner maps this back to (x,y,z).
func flatIndex(x, y, z, ny, nz int) int {
	return (x*ny+y)*nz + z
}

// sparseStorage is a single-writer octree-backed sparse grid.
type sparseStorage struct {
	root          *octNode
	nx, ny, nz    int
	activeCells   int
	budgetBytes   int
	usedBytes     int
}

func newSparseStorage(nx, ny, nz, budgetBytes int) *sparseStorage {
	b := box{0, 0, 0, nx, ny, nz}
	return &sparseStorage{
		root:        newOctNode(b, 0),
		nx:          nx,
		ny:          ny,
		nz:          nz,
		budgetBytes: budgetBytes,
		usedBytes:   octNodeByteSize,
	}
}

// activate materializes storage down to the leaf containing (x,y,z) and
// appends a deduplicated entry to its active-index array.
func (s *sparseStorage) activate(x, y, z int) error {
	if x < 0 || x >= s.nx || y < 0 || y >= s.ny || z < 0 || z >= s.nz {
		return errOutOfRange
	}
	leaf, newBytes := s.descend(s.root, x, y, z)
	key := flatIndex(x, y, z, s.ny, s.nz)

	if !leaf.allocated {
		newBytes += octNodeByteSize // the leaf's own backing map/slice overhead
	}
	if s.usedBytes+newBytes+cellByteSize > s.budgetBytes && !leaf.allocated {
		return ErrMemoryBudget
	}
	if _, exists := leaf.cells[key]; exists {
		return nil // already active; activation is idempotent
	}
	if !leaf.allocated {
		leaf.cells = make(map[int]Cell, 4)
		leaf.allocated = true
		s.usedBytes += octNodeByteSize
	}
	if s.usedBytes+cellByteSize > s.budgetBytes {
		return ErrMemoryBudget
	}
	leaf.cells[key] = Cell{}
	leaf.active = appendDeduped(leaf.active, key)
	s.usedBytes += cellByteSize
	s.activeCells++
	return nil
}

// descend walks from node down to the leaf containing (x,y,z),
// allocating interior children as needed (interior nodes carry no
// active-index array, only child pointers).
func (s *sparseStorage) descend(node *octNode, x, y, z int) (*octNode, int) {
	bytesAdded := 0
	for !node.isLeaf {
		oct := node.octantIndex(x, y, z)
		if node.children[oct] == nil {
			node.children[oct] = newOctNode(node.childBounds(oct), node.depth+1)
			bytesAdded += octNodeByteSize
		}
		node = node.children[oct]
	}
	return node, bytesAdded
}

func appendDeduped(s []int, v int) []int {
	for _, existing := range s {
		if existing == v {
			return s
		}
	}
	return append(s, v)
}

func (s *sparseStorage) deactivate(x, y, z int) {
	leaf := s.find(s.root, x, y, z)
	if leaf == nil || !leaf.allocated {
		return
	}
	key := flatIndex(x, y, z, s.ny, s.nz)
	if _, ok := leaf.cells[key]; !ok {
		return
	}
	delete(leaf.cells, key)
	leaf.active = removeValue(leaf.active, key)
	s.activeCells--
	s.usedBytes -= cellByteSize
}

func removeValue(s []int, v int) []int {
	for i, existing := range s {
		if existing == v {
			return append(s[:i], s[i+1:]...)
		}
	}
	return s
}

func (s *sparseStorage) find(node *octNode, x, y, z int) *octNode {
	for !node.isLeaf {
		oct := node.octantIndex(x, y, z)
		child := node.children[oct]
		if child == nil {
			return nil
		}
		node = child
	}
	return node
}

func (s *sparseStorage) get(x, y, z int) *Cell {
	if x < 0 || x >= s.nx || y < 0 || y >= s.ny || z < 0 || z >= s.nz {
		return nil
	}
	leaf := s.find(s.root, x, y, z)
	if leaf == nil || !leaf.allocated {
		return nil
	}
	key := flatIndex(x, y, z, s.ny, s.nz)
	c, ok := leaf.cells[key]
	if !ok {
		return nil
	}
	// Return a pointer into the map's backing value by reboxing; Go maps
	// do not allow taking the address of a value directly, so the caller
	// receives a pointer to a copy-on-read cell which must be written
	// back via set(). grid.Grid's GetCell wraps this distinction.
	cp := c
	return &cp
}

func (s *sparseStorage) set(x, y, z int, c Cell) bool {
	leaf := s.find(s.root, x, y, z)
	if leaf == nil || !leaf.allocated {
		return false
	}
	key := flatIndex(x, y, z, s.ny, s.nz)
	if _, ok := leaf.cells[key]; !ok {
		return false
	}
	leaf.cells[key] = c
	return true
}

func (s *sparseStorage) forEach(fn func(x, y, z int, c *Cell)) {
	s.walkActive(s.root, fn)
}

func (s *sparseStorage) walkActive(node *octNode, fn func(x, y, z int, c *Cell)) {
	if node == nil {
		return
	}
	if node.isLeaf {
		if node.allocated {
			for _, key := range node.active {
				x, y, z := unflattenIndex(key, s.ny, s.nz)
				c := node.cells[key]
				fn(x, y, z, &c)
				node.cells[key] = c
			}
		}
		return
	}
	for _, child := range node.children {
		s.walkActive(child, fn)
	}
}

func unflattenIndex(key, ny, nz int) (x, y, z int) {
	z = key % nz
	rest := key / nz
	y = rest % ny
	x = rest / ny
	return
}

func (s *sparseStorage) memoryUsage() int {
	return s.usedBytes
}
