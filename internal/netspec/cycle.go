package netspec

import (
	"fmt"
	"strings"

	"github.com/miwamasa/icnet/internal/net"
)

// CycleWarning reports a cycle among a net's nodes.
//
// Cycles are warnings, not errors: a cyclic net is structurally legal and
// path enumeration excludes cycles per path. The warning exists because a
// cycle inflates the simple-path search space, which matters when a query
// runs without maxPaths/maxDepth caps.
type CycleWarning struct {
	Path    []string `json:"path"`    // cycle traversal: ["a", "b", "a"]
	Message string   `json:"message"` // human-readable description
	Level   string   `json:"level"`   // "warning"
}

// AnalyzeCycles performs static cycle analysis on a net spec.
//
// The algorithm:
//  1. Build the node adjacency graph from the edge list
//  2. Find strongly connected components with Tarjan's algorithm
//  3. Report each SCC of size > 1, or with a self-loop, as a warning
//
// A DAG returns an empty warning list.
func AnalyzeCycles(spec net.Spec) []CycleWarning {
	if len(spec.Edges) == 0 {
		return []CycleWarning{}
	}

	graph := buildNodeGraph(spec)
	sccs := tarjanSCC(graph)

	var warnings []CycleWarning
	for _, scc := range sccs {
		if len(scc) > 1 || (len(scc) == 1 && hasSelfLoop(scc[0], graph)) {
			warnings = append(warnings, sccToWarning(spec.Name, scc, graph))
		}
	}
	return warnings
}

// nodeGraph maps a node id to its successors in edge-declaration order.
type nodeGraph map[string][]string

func buildNodeGraph(spec net.Spec) nodeGraph {
	graph := make(nodeGraph, len(spec.Nodes))
	for _, node := range spec.Nodes {
		graph[node.ID] = []string{}
	}
	for _, edge := range spec.Edges {
		graph[edge.Source] = append(graph[edge.Source], edge.Target)
	}
	return graph
}

func hasSelfLoop(node string, graph nodeGraph) bool {
	for _, neighbor := range graph[node] {
		if neighbor == node {
			return true
		}
	}
	return false
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
// Single-node SCCs without self-loops are NOT cycles.
func tarjanSCC(graph nodeGraph) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		// v roots an SCC: pop the stack down to v
		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for node := range graph {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}
	return sccs
}

func sccToWarning(netName string, scc []string, graph nodeGraph) CycleWarning {
	if len(scc) == 1 {
		id := scc[0]
		return CycleWarning{
			Path:    []string{id, id},
			Message: fmt.Sprintf("net %s: self-loop on node %s", netName, id),
			Level:   "warning",
		}
	}

	path := reconstructCyclePath(scc, graph)
	return CycleWarning{
		Path:    path,
		Message: fmt.Sprintf("net %s: cycle %s", netName, strings.Join(path, " → ")),
		Level:   "warning",
	}
}

// reconstructCyclePath walks edges within the SCC from its first member
// until the walk returns to the start, yielding one concrete traversal of
// the cycle for the warning message.
func reconstructCyclePath(scc []string, graph nodeGraph) []string {
	if len(scc) == 0 {
		return []string{}
	}

	sccSet := make(map[string]bool, len(scc))
	for _, node := range scc {
		sccSet[node] = true
	}

	start := scc[0]
	current := start
	path := []string{current}
	visited := make(map[string]bool)

	for {
		visited[current] = true

		var next string
		for _, neighbor := range graph[current] {
			if sccSet[neighbor] && (!visited[neighbor] || neighbor == start) {
				next = neighbor
				break
			}
		}
		if next == "" {
			break
		}

		path = append(path, next)
		if next == start {
			break
		}
		current = next
	}
	return path
}
