package synth

import "github.com/shaban/audioengine/graph"

// Node adapts a Synth into a graph.Node so it can be attached to a
// Mixer like any other component.
type Node struct {
	graph.Base
	synth *Synth
}

// NewNode wraps synth as a graph.Node under the given name.
func NewNode(name string, synth *Synth) *Node {
	return &Node{Base: graph.NewBase(name), synth: synth}
}

// Synth returns the wrapped synthesizer.
func (n *Node) Synth() *Synth { return n.synth }

func (n *Node) Render(buf []float32, channels int) {
	n.synth.Render(buf, channels)
}
