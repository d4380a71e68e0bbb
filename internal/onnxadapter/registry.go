package onnxadapter

import (
	"fmt"

	"github.com/giga-project/giga/giga"
)

// OpHandler processes one ONNX node's already-resolved input Handles and
// returns its output Handles, allocating any new tensors through ctx.
type OpHandler func(ctx *Context, node *Node, inputs []giga.Handle) ([]giga.Handle, error)

// Context carries the device and zone a converted graph runs against, a
// monotone output-allocation offset (§4.D: zones are monotone arenas, so
// a graph converter must bump its own offset the same way a hand-written
// caller would), and a name->Handle environment binding ONNX tensor names
// to the giga tensors they've been materialized as.
type Context struct {
	Device giga.DeviceID
	ZoneID int

	offset int
	env    map[string]giga.Handle
}

// NewContext returns a Context allocating fresh output tensors from
// zoneID on dev, starting at byte offset startOffset.
func NewContext(dev giga.DeviceID, zoneID, startOffset int) *Context {
	return &Context{Device: dev, ZoneID: zoneID, offset: startOffset, env: make(map[string]giga.Handle)}
}

// Bind associates name with an already-allocated Handle (typically a
// graph input or a weight tensor loaded ahead of execution).
func (c *Context) Bind(name string, h giga.Handle) {
	c.env[name] = h
}

// Lookup resolves a tensor name bound by Bind or produced by a prior
// node's Execute call.
func (c *Context) Lookup(name string) (giga.Handle, bool) {
	h, ok := c.env[name]
	return h, ok
}

// Alloc carves a fresh output tensor out of ctx's zone, bumping its
// internal offset by the tensor's byte size.
func (c *Context) Alloc(kind giga.DataType, fracShift int, dims []int) (giga.Handle, error) {
	h, code := giga.AllocateTensor(c.Device, c.ZoneID, c.offset, kind, fracShift, dims)
	if code != giga.Success {
		return giga.Handle{}, fmt.Errorf("onnxadapter: allocate %v: %s", dims, code)
	}
	n := 1
	for _, d := range dims {
		n *= d
	}
	c.offset += n * kind.Bytes()
	return h, nil
}

// resolveInputs looks up every name in node.Inputs, in order.
func (c *Context) resolveInputs(node *Node) ([]giga.Handle, error) {
	inputs := make([]giga.Handle, len(node.Inputs))
	for i, name := range node.Inputs {
		h, ok := c.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("onnxadapter: node %q: input %q not bound", node.Name, name)
		}
		inputs[i] = h
	}
	return inputs, nil
}

// Registry maps ONNX operator type names to handlers.
type Registry struct {
	handlers map[string]OpHandler
}

// NewRegistry returns a Registry pre-populated with every operator this
// package supports (§2 component O's mapping onto §4.H-§4.L/§4.E).
func NewRegistry() *Registry {
	r := &Registry{handlers: make(map[string]OpHandler)}
	r.Register("Add", handleAdd)
	r.Register("Gemm", handleGemm)
	r.Register("Conv", handleConv)
	r.Register("Softmax", handleSoftmax)
	r.Register("Resize", handleResize)
	r.Register("Upsample", handleResize)
	r.Register("Reshape", handleReshape)
	return r
}

// Register adds or overrides the handler for opType.
func (r *Registry) Register(opType string, handler OpHandler) {
	r.handlers[opType] = handler
}

// Get returns the handler registered for opType.
func (r *Registry) Get(opType string) (OpHandler, bool) {
	h, ok := r.handlers[opType]
	return h, ok
}

// SupportedOps lists every registered operator type.
func (r *Registry) SupportedOps() []string {
	ops := make([]string, 0, len(r.handlers))
	for op := range r.handlers {
		ops = append(ops, op)
	}
	return ops
}

// Execute resolves node's inputs from ctx's environment, dispatches to
// the registered handler, and binds the results back into ctx under
// node.Outputs.
func (r *Registry) Execute(ctx *Context, node *Node) ([]giga.Handle, error) {
	handler, ok := r.handlers[node.OpType]
	if !ok {
		return nil, fmt.Errorf("onnxadapter: unsupported operator %q", node.OpType)
	}
	inputs, err := ctx.resolveInputs(node)
	if err != nil {
		return nil, err
	}
	outputs, err := handler(ctx, node, inputs)
	if err != nil {
		return nil, fmt.Errorf("onnxadapter: node %q (%s): %w", node.Name, node.OpType, err)
	}
	if len(outputs) != len(node.Outputs) {
		return nil, fmt.Errorf("onnxadapter: node %q (%s): handler produced %d outputs, node declares %d",
			node.Name, node.OpType, len(outputs), len(node.Outputs))
	}
	for i, name := range node.Outputs {
		ctx.Bind(name, outputs[i])
	}
	return outputs, nil
}
