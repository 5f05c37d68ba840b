package render

import (
	"errors"
	"fmt"

	"github.com/gekko3d/gridshadow/gpu"
)

const EndMainPass = "end_main_pass"

var (
	ErrDuplicateNode = errors.New("duplicate render graph node")
	ErrUnknownNode   = errors.New("unknown render graph node")
	ErrCycle         = errors.New("render graph has a cycle")
)

type RenderContext struct {
	Device  gpu.Device
	Encoder gpu.CommandEncoder
}

// Node is a render graph step. Update runs for every node before any node
// runs.
type Node interface {
	Update()
	Run(ctx *RenderContext) error
}

// EmptyNode records nothing. It anchors ordering edges.
type EmptyNode struct{}

func (EmptyNode) Update()                   {}
func (EmptyNode) Run(*RenderContext) error { return nil }

type Graph struct {
	names []string
	nodes map[string]Node
	edges map[string][]string
}

func NewGraph() *Graph {
	return &Graph{
		nodes: make(map[string]Node),
		edges: make(map[string][]string),
	}
}

func (g *Graph) AddNode(name string, node Node) error {
	if _, ok := g.nodes[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateNode, name)
	}
	g.names = append(g.names, name)
	g.nodes[name] = node
	return nil
}

// AddEdge makes to run after from.
func (g *Graph) AddEdge(from, to string) error {
	for _, n := range []string{from, to} {
		if _, ok := g.nodes[n]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownNode, n)
		}
	}
	g.edges[from] = append(g.edges[from], to)
	return nil
}

func (g *Graph) Node(name string) (Node, bool) {
	n, ok := g.nodes[name]
	return n, ok
}

// Order returns node names in dependency order. Independent nodes keep
// their insertion order.
func (g *Graph) Order() ([]string, error) {
	indegree := make(map[string]int, len(g.names))
	for _, targets := range g.edges {
		for _, t := range targets {
			indegree[t]++
		}
	}
	done := make(map[string]bool, len(g.names))
	order := make([]string, 0, len(g.names))
	for len(order) < len(g.names) {
		progressed := false
		for _, n := range g.names {
			if done[n] || indegree[n] > 0 {
				continue
			}
			done[n] = true
			order = append(order, n)
			for _, t := range g.edges[n] {
				indegree[t]--
			}
			progressed = true
			break
		}
		if !progressed {
			return nil, ErrCycle
		}
	}
	return order, nil
}

// Run records every node into one command encoder and submits it.
func (g *Graph) Run(device gpu.Device) error {
	order, err := g.Order()
	if err != nil {
		return err
	}
	for _, name := range order {
		g.nodes[name].Update()
	}
	encoder, err := device.CreateCommandEncoder("render_graph")
	if err != nil {
		return fmt.Errorf("render graph: %w", err)
	}
	ctx := &RenderContext{Device: device, Encoder: encoder}
	for _, name := range order {
		if err := g.nodes[name].Run(ctx); err != nil {
			return fmt.Errorf("node %s: %w", name, err)
		}
	}
	cmd, err := encoder.Finish()
	if err != nil {
		return fmt.Errorf("render graph: %w", err)
	}
	if err := device.Submit(cmd); err != nil {
		return fmt.Errorf("render graph: %w", err)
	}
	return nil
}
