package systems

import (
	"container/heap"

	"github.com/pthm-cable/hexforage/hex"
)

// PathPlanner runs uniform-cost A* over the walkable cells of a SpatialPartition.
type PathPlanner struct {
	partition *SpatialPartition

	// Reusable data structures (cleared between searches)
	openHeap  *nodeHeap
	open      map[int]*astarNode
	closedSet map[int]struct{}
	cameFrom  map[int]int
	gScore    map[int]int
	neighbors []hex.Position
}

// astarNode is a node in the A* search.
type astarNode struct {
	cell  hex.Position
	id    int
	f     int // f = g + h (priority)
	h     int
	index int // Heap index
}

// nodeHeap implements heap.Interface for A* open set.
// Ties on f prefer the node closer to the goal, then the lower cell id, so
// results are deterministic.
type nodeHeap []*astarNode

func (h nodeHeap) Len() int { return len(h) }
func (h nodeHeap) Less(i, j int) bool {
	if h[i].f != h[j].f {
		return h[i].f < h[j].f
	}
	if h[i].h != h[j].h {
		return h[i].h < h[j].h
	}
	return h[i].id < h[j].id
}
func (h nodeHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *nodeHeap) Push(x any) {
	n := x.(*astarNode)
	n.index = len(*h)
	*h = append(*h, n)
}

func (h *nodeHeap) Pop() any {
	old := *h
	n := len(old)
	node := old[n-1]
	old[n-1] = nil
	node.index = -1
	*h = old[0 : n-1]
	return node
}

// NewPathPlanner creates a planner bound to a partition.
func NewPathPlanner(partition *SpatialPartition) *PathPlanner {
	return &PathPlanner{
		partition: partition,
		openHeap:  &nodeHeap{},
		open:      make(map[int]*astarNode, 64),
		closedSet: make(map[int]struct{}, 256),
		cameFrom:  make(map[int]int, 256),
		gScore:    make(map[int]int, 256),
		neighbors: make([]hex.Position, 0, 6),
	}
}

// FindPath returns the cells from start to goal inclusive, each step one hex apart.
// Returns a single-element path when start == goal, and nil when the goal is not
// reachable or not walkable.
func (a *PathPlanner) FindPath(start, goal hex.Position) []hex.Position {
	part := a.partition
	if !part.IsValidPosition(start) || !part.Walkable(goal) {
		return nil
	}
	if start == goal {
		return []hex.Position{start}
	}

	// Clear reusable data structures
	*a.openHeap = (*a.openHeap)[:0]
	clear(a.open)
	clear(a.closedSet)
	clear(a.cameFrom)
	clear(a.gScore)

	startID := a.cellID(start)
	goalID := a.cellID(goal)

	h0 := hex.Distance(start, goal)
	a.gScore[startID] = 0
	startNode := &astarNode{cell: start, id: startID, f: h0, h: h0}
	heap.Push(a.openHeap, startNode)
	a.open[startID] = startNode

	maxIterations := part.Width() * part.Height()
	iterations := 0

	for a.openHeap.Len() > 0 && iterations < maxIterations {
		iterations++

		current := heap.Pop(a.openHeap).(*astarNode)
		delete(a.open, current.id)

		if current.id == goalID {
			return a.reconstructPath(startID, goalID)
		}
		a.closedSet[current.id] = struct{}{}

		a.neighbors = part.AppendValidNeighbors(a.neighbors[:0], current.cell)
		for _, n := range a.neighbors {
			nid := a.cellID(n)
			if _, done := a.closedSet[nid]; done {
				continue
			}

			tentativeG := a.gScore[current.id] + 1
			if g, seen := a.gScore[nid]; seen && tentativeG >= g {
				continue
			}

			a.cameFrom[nid] = current.id
			a.gScore[nid] = tentativeG
			h := hex.Distance(n, goal)

			if node, ok := a.open[nid]; ok {
				node.f = tentativeG + h
				heap.Fix(a.openHeap, node.index)
				continue
			}
			node := &astarNode{cell: n, id: nid, f: tentativeG + h, h: h}
			heap.Push(a.openHeap, node)
			a.open[nid] = node
		}
	}

	// No path found
	return nil
}

func (a *PathPlanner) cellID(p hex.Position) int {
	return p.Y*a.partition.Width() + p.X
}

// reconstructPath builds the path from cameFrom map.
func (a *PathPlanner) reconstructPath(startID, goalID int) []hex.Position {
	w := a.partition.Width()

	var ids []int
	current := goalID
	for current != startID {
		ids = append(ids, current)
		current = a.cameFrom[current]
	}
	ids = append(ids, startID)

	path := make([]hex.Position, len(ids))
	for i := range ids {
		id := ids[len(ids)-1-i]
		path[i] = hex.FromOffset(id%w, id/w)
	}
	return path
}
