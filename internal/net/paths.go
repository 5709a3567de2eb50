package net

import (
	"fmt"
	"strings"
)

// NodeNotFoundError reports a path query whose start or end id is not in
// the net.
type NodeNotFoundError struct {
	ID   string
	Role string // "start" or "end"
}

func (e *NodeNotFoundError) Error() string {
	return fmt.Sprintf("%s node %q not found in net", e.Role, e.ID)
}

// Path is an ordered edge sequence from Start. A path never revisits a
// node, even when the underlying net is cyclic.
type Path struct {
	Start string `json:"start"`
	Edges []Edge `json:"edges"`
}

// End returns the path's final node id. For a zero-edge path this is
// Start itself.
func (p Path) End() string {
	if len(p.Edges) == 0 {
		return p.Start
	}
	return p.Edges[len(p.Edges)-1].Target
}

// Len returns the number of edges.
func (p Path) Len() int { return len(p.Edges) }

// String renders the node sequence as "A → B → C" for audit output.
func (p Path) String() string {
	var b strings.Builder
	b.WriteString(p.Start)
	for _, e := range p.Edges {
		b.WriteString(" → ")
		b.WriteString(e.Target)
	}
	return b.String()
}

// FindOptions bounds an enumeration. Zero means unlimited; the contract
// assumes demo-scale graphs when both caps are off, since simple-path
// enumeration is exponential in the worst case.
type FindOptions struct {
	// MaxPaths stops the search once this many paths are recorded. The
	// recorded prefix is the first MaxPaths paths in DFS order, so
	// truncation is as deterministic as full enumeration.
	MaxPaths int

	// MaxDepth rejects paths longer than this many edges.
	MaxDepth int
}

// FindPaths enumerates every simple path from startID to endID. The
// search is depth-first with a visited set scoped to the current path and
// unmarked on backtrack; reaching the end records the path and the search
// continues, never exiting early. Children are visited in edge-declaration
// order, so the result sequence is stable across runs.
//
// startID == endID yields exactly one zero-edge path.
func FindPaths(n *Net, startID, endID string, opts FindOptions) ([]Path, error) {
	if _, ok := n.nodes[startID]; !ok {
		return nil, &NodeNotFoundError{ID: startID, Role: "start"}
	}
	if _, ok := n.nodes[endID]; !ok {
		return nil, &NodeNotFoundError{ID: endID, Role: "end"}
	}
	if startID == endID {
		return []Path{{Start: startID}}, nil
	}

	s := &pathSearch{
		net:     n,
		end:     endID,
		opts:    opts,
		visited: map[string]bool{startID: true},
	}
	s.walk(startID, []Edge{})
	paths := make([]Path, len(s.found))
	for i, edges := range s.found {
		paths[i] = Path{Start: startID, Edges: edges}
	}
	return paths, nil
}

type pathSearch struct {
	net     *Net
	end     string
	opts    FindOptions
	visited map[string]bool
	found   [][]Edge
}

func (s *pathSearch) full() bool {
	return s.opts.MaxPaths > 0 && len(s.found) >= s.opts.MaxPaths
}

func (s *pathSearch) walk(current string, trail []Edge) {
	if s.full() {
		return
	}
	if s.opts.MaxDepth > 0 && len(trail) >= s.opts.MaxDepth {
		return
	}
	for _, idx := range s.net.adjacency[current] {
		edge := s.net.edges[idx]
		if s.visited[edge.Target] {
			continue
		}
		next := append(trail, edge)
		if edge.Target == s.end {
			recorded := make([]Edge, len(next))
			copy(recorded, next)
			s.found = append(s.found, recorded)
			if s.full() {
				return
			}
			continue
		}
		s.visited[edge.Target] = true
		s.walk(edge.Target, next)
		s.visited[edge.Target] = false
		if s.full() {
			return
		}
	}
}
