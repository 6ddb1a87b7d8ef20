/*
Copyright 2018 Gravitational, Inc.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// package graph holds the Component dependency graph as an arena of nodes
// addressed by integer index, per spec.md §9's "arena + integer indices"
// design note: edges are index pairs rather than parent/child Go pointer
// cycles, and cycle detection is a three-color DFS grounded on the
// teacher's lib/app/dependency.go visited-set walk.
package graph

import (
	"github.com/gravitational/trace"
)

// Node is the minimal shape graph.Graph needs from a Component: an
// identity. Child edges are held by the Graph itself, not by the node.
// lib/component.Component satisfies this interface.
type Node interface {
	// NodeID identifies this node for error messages and cycle reporting
	NodeID() string
}

// Graph is a DAG of nodes, stored in an arena and addressed by index
type Graph struct {
	nodes    []Node
	children [][]int
}

// New creates an empty graph
func New() *Graph {
	return &Graph{}
}

// AddNode appends a node to the arena and returns its index
func (g *Graph) AddNode(n Node) int {
	g.nodes = append(g.nodes, n)
	g.children = append(g.children, nil)
	return len(g.nodes) - 1
}

// AddEdge records that the node at parent index has a child at child index
func (g *Graph) AddEdge(parent, child int) error {
	if parent < 0 || parent >= len(g.nodes) {
		return trace.BadParameter("parent index %d out of range", parent)
	}
	if child < 0 || child >= len(g.nodes) {
		return trace.BadParameter("child index %d out of range", child)
	}
	g.children[parent] = append(g.children[parent], child)
	return nil
}

// Node returns the node at the given index
func (g *Graph) Node(i int) Node {
	return g.nodes[i]
}

// Len returns the number of nodes in the graph
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Children returns the child indices of the node at the given index
func (g *Graph) Children(i int) []int {
	return g.children[i]
}

// color is the DFS visitation state used by cycle detection and
// topological sort.
type color int

const (
	white color = iota // unvisited
	gray               // on the current DFS stack
	black              // fully processed
)

// CheckAcyclic walks the graph from every root and fails on the first back
// edge it finds, which identifies a cycle.
func (g *Graph) CheckAcyclic(roots []int) error {
	colors := make([]color, len(g.nodes))
	var path []int
	var visit func(i int) error
	visit = func(i int) error {
		colors[i] = gray
		path = append(path, i)
		for _, c := range g.children[i] {
			switch colors[c] {
			case gray:
				return trace.BadParameter("cycle detected: %s", describeCycle(g, append(path, c)))
			case white:
				if err := visit(c); err != nil {
					return err
				}
			}
		}
		path = path[:len(path)-1]
		colors[i] = black
		return nil
	}
	for _, r := range roots {
		if colors[r] == white {
			if err := visit(r); err != nil {
				return err
			}
		}
	}
	return nil
}

func describeCycle(g *Graph, path []int) string {
	out := ""
	for i, idx := range path {
		if i > 0 {
			out += " -> "
		}
		out += g.nodes[idx].NodeID()
	}
	return out
}

// ReverseTopologicalOrder returns node indices reachable from roots such
// that every child appears before its parent (leaves first) — the order
// spec.md §4.6 uses to resolve config during fetch/run.
func (g *Graph) ReverseTopologicalOrder(roots []int) ([]int, error) {
	if err := g.CheckAcyclic(roots); err != nil {
		return nil, err
	}
	visited := make([]bool, len(g.nodes))
	var order []int
	var visit func(i int)
	visit = func(i int) {
		if visited[i] {
			return
		}
		visited[i] = true
		for _, c := range g.children[i] {
			visit(c)
		}
		order = append(order, i)
	}
	for _, r := range roots {
		visit(r)
	}
	return order, nil
}

// TopologicalOrder returns the same reachable set as ReverseTopologicalOrder
// but with parents preceding their children — the order spec.md §4.6 uses
// for artifact dispatch during "run" and "stop".
func (g *Graph) TopologicalOrder(roots []int) ([]int, error) {
	order, err := g.ReverseTopologicalOrder(roots)
	if err != nil {
		return nil, err
	}
	reversed := make([]int, len(order))
	for i, idx := range order {
		reversed[len(order)-1-i] = idx
	}
	return reversed, nil
}
