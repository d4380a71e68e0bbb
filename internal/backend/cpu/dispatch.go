// Package cpu implements the reference CPU backend's compute kernels
// (§4.G-§4.L): the type dispatcher and the conv2d/dense/add/softmax/
// upsample monomorphizations.
package cpu

import (
	"strings"
	"sync"

	"github.com/giga-project/giga/internal/dtype"
	"github.com/giga-project/giga/internal/parallel"
)

// ParallelConfig is the package-level opt-in knob for §5's intra-kernel
// parallel path. It defaults to disabled -- conv2d, dense and upsample run
// their reference serial iteration order unless a caller flips this.
var ParallelConfig = parallel.Config{Enabled: false}

// Dispatcher is the compute dispatcher of §4.G: a table over (op,
// kinds...) reporting whether a kernel exists for that exact type tuple,
// generalized from gomlx/gomlx's single-dtype NewDTypeDispatcher pattern
// to the 1-3-kind keys the giga kernels need.
type Dispatcher struct {
	mu    sync.RWMutex
	table map[string]struct{}
}

// NewDispatcher returns an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{table: make(map[string]struct{})}
}

func dispatchKey(op string, kinds ...dtype.Kind) string {
	var b strings.Builder
	b.WriteString(op)
	for _, k := range kinds {
		b.WriteByte('|')
		b.WriteString(k.Name())
	}
	return b.String()
}

// Register marks (op, kinds...) as having a monomorphized kernel.
func (d *Dispatcher) Register(op string, kinds ...dtype.Kind) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.table[dispatchKey(op, kinds...)] = struct{}{}
}

// Supported reports whether a kernel is registered for (op, kinds...).
func (d *Dispatcher) Supported(op string, kinds ...dtype.Kind) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.table[dispatchKey(op, kinds...)]
	return ok
}

// addKinds is the restricted set §4.G allows for Add: a,b,out must all be
// the same one of these six kinds (SFx4/UFx4 excluded).
var addKinds = []dtype.Kind{dtype.F16, dtype.F32, dtype.SFx8, dtype.SFx16, dtype.UFx8, dtype.UFx16}

// denseConvComputeFloat reports whether a dense/conv2d instantiation for
// (in, kernel) accumulates in floating point.
func denseConvComputeFloat(in, kernel dtype.Kind) bool {
	return in.IsFloat() && kernel.IsFloat()
}

// denseConvTypesOK implements §4.G's dense/conv2d rule: 4-bit kinds are
// out of scope; a float input paired with a float kernel produces a float
// output (the XOR-sign rule is a fixed-point-only concern -- floats have
// no meaningful "unsigned" counterpart, so requiring XOR(true,true)=false
// would make float+float impossible, which is plainly not the intent);
// a fixed-point input paired with a fixed-point kernel produces a
// fixed-point output whose signedness is the XOR of the two operands';
// mixed float/fixed-point operand pairs are not part of this dispatch
// table (no worked example in the source covers them).
func denseConvTypesOK(in, out, kernel dtype.Kind) bool {
	if isFourBit(in) || isFourBit(out) || isFourBit(kernel) {
		return false
	}
	switch {
	case in.IsFloat() && kernel.IsFloat():
		return out.IsFloat()
	case !in.IsFloat() && !kernel.IsFloat():
		return !out.IsFloat() && out.IsSigned() == (in.IsSigned() != kernel.IsSigned())
	default:
		return false
	}
}

func isFourBit(k dtype.Kind) bool {
	return k == dtype.SFx4 || k == dtype.UFx4
}

// softmaxAllowsFixedPoint resolves §9 open question 3 in favor of
// extending softmax to fixed-point kinds via the float-cast path §4.K
// already describes, rather than returning UnimplementedType for them.
const softmaxAllowsFixedPoint = true

func softmaxTypesOK(in, out dtype.Kind) bool {
	if in != out {
		return false
	}
	if in.IsFloat() {
		return true
	}
	return softmaxAllowsFixedPoint
}

func upsampleTypesOK(in, out dtype.Kind) bool {
	return in == out
}

// Default is the process-wide dispatcher populated with every type
// combination §4.G enumerates as legal.
var Default = buildDefaultDispatcher()

func buildDefaultDispatcher() *Dispatcher {
	d := NewDispatcher()
	for _, k := range addKinds {
		d.Register("add", k, k, k)
	}
	for _, in := range dtype.All {
		for _, out := range dtype.All {
			for _, ker := range dtype.All {
				if denseConvTypesOK(in, out, ker) {
					d.Register("dense", in, out, ker)
					d.Register("conv2d", in, out, ker)
				}
			}
		}
	}
	for _, in := range dtype.All {
		for _, out := range dtype.All {
			if softmaxTypesOK(in, out) {
				d.Register("softmax", in, out)
			}
		}
	}
	for _, in := range dtype.All {
		for _, out := range dtype.All {
			if upsampleTypesOK(in, out) {
				d.Register("upsample", in, out)
			}
		}
	}
	return d
}
