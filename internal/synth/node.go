package synth

// Node is a unit in a Context's audio graph. Outputs are summed into the
// inputs of the nodes they connect to; connecting to a Param adds the output
// (downmixed to mono) to the param's computed value.
type Node interface {
	Connect(dst Node)
	ConnectParam(p *Param)
	Disconnect()
	base() *node
}

type bus struct {
	l, r [Quantum]float64
}

type renderFunc func(start int64, in, out *bus, n int)

type node struct {
	ctx    *Context
	self   Node
	render renderFunc
	params []*Param

	inputs  []*node
	outputs []*node
	targets []*Param

	in, out bus
	stamp   int64
}

func (n *node) init(c *Context, self Node, render renderFunc) {
	n.ctx = c
	n.self = self
	n.render = render
	n.stamp = -1
}

func (n *node) base() *node { return n }

func (n *node) newParam(value, lo, hi float64) *Param {
	p := &Param{owner: n, value: value, min: lo, max: hi, stamp: -1}
	n.params = append(n.params, p)
	return p
}

// Connect routes this node's output into dst.
func (n *node) Connect(dst Node) {
	d := dst.base()
	if d.ctx != n.ctx {
		panic("synth: connect across contexts")
	}
	n.ctx.mu.Lock()
	defer n.ctx.mu.Unlock()
	for _, o := range n.outputs {
		if o == d {
			return
		}
	}
	n.outputs = append(n.outputs, d)
	d.inputs = append(d.inputs, n)
}

// ConnectParam routes this node's output into p as modulation.
func (n *node) ConnectParam(p *Param) {
	if p.owner.ctx != n.ctx {
		panic("synth: connect across contexts")
	}
	n.ctx.mu.Lock()
	defer n.ctx.mu.Unlock()
	for _, t := range n.targets {
		if t == p {
			return
		}
	}
	n.targets = append(n.targets, p)
	p.inputs = append(p.inputs, n)
}

// Disconnect removes every outgoing connection. Disconnecting twice is a no-op.
func (n *node) Disconnect() {
	n.ctx.mu.Lock()
	defer n.ctx.mu.Unlock()
	n.disconnectLocked()
}

func (n *node) disconnectLocked() {
	for _, o := range n.outputs {
		o.inputs = removeNode(o.inputs, n)
	}
	for _, p := range n.targets {
		p.inputs = removeNode(p.inputs, n)
	}
	n.outputs = nil
	n.targets = nil
}

func removeNode(list []*node, n *node) []*node {
	for i, v := range list {
		if v == n {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

// pull renders this node for the quantum starting at frame start. Each node
// renders at most once per quantum; a node reached again through a cycle
// returns its previous output.
func (n *node) pull(start int64, frames int) *bus {
	if n.stamp == start {
		return &n.out
	}
	n.stamp = start

	for _, p := range n.params {
		p.compute(start, frames)
	}

	clear(n.in.l[:frames])
	clear(n.in.r[:frames])
	for _, src := range n.inputs {
		b := src.pull(start, frames)
		for i := 0; i < frames; i++ {
			n.in.l[i] += b.l[i]
			n.in.r[i] += b.r[i]
		}
	}
	n.render(start, &n.in, &n.out, frames)
	return &n.out
}

// Destination is the sink every audible path ends in.
type Destination struct {
	node
}

func (d *Destination) process(_ int64, in, out *bus, n int) {
	copy(out.l[:n], in.l[:n])
	copy(out.r[:n], in.r[:n])
}
