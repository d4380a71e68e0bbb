package giga

import (
	"github.com/giga-project/giga/internal/backend/cpu"
	"github.com/giga-project/giga/internal/tensor"
)

// Conv2DParams mirrors internal/backend/cpu.Conv2DParams at the public
// boundary (§4.H).
type Conv2DParams struct {
	PadH, PadW       [2]int
	StrideH, StrideW int
	ReLU             bool
}

func (p Conv2DParams) toInternal() cpu.Conv2DParams {
	return cpu.Conv2DParams{PadH: p.PadH, PadW: p.PadW, StrideH: p.StrideH, StrideW: p.StrideW, ReLU: p.ReLU}
}

// resolveSameDevice resolves every handle and confirms they all name the
// same device -- a kernel can't mix tensors from two devices (§7's
// InconsistentDevice).
func resolveSameDevice(handles ...Handle) (*device, []*tensor.Descriptor, ErrorCode) {
	descs := make([]*tensor.Descriptor, len(handles))
	var d *device
	for i, h := range handles {
		dd, desc, code := resolveDescriptor(h)
		if code != Success {
			return nil, nil, code
		}
		if d == nil {
			d = dd
		} else if d.id != dd.id {
			return nil, nil, fail(InconsistentDevice)
		}
		descs[i] = desc
	}
	return d, descs, Success
}

// Conv2d implements §6's conv2d / §4.H. bias may be the zero Handle for no
// bias.
func Conv2d(in, kernel, bias, out Handle, p Conv2DParams) ErrorCode {
	var handles []Handle
	if bias.Zero() {
		handles = []Handle{in, kernel, out}
	} else {
		handles = []Handle{in, kernel, bias, out}
	}
	d, descs, code := resolveSameDevice(handles...)
	if code != Success {
		return code
	}
	var inD, kerD, outD, biasD *tensor.Descriptor
	if bias.Zero() {
		inD, kerD, outD = descs[0], descs[1], descs[2]
	} else {
		inD, kerD, biasD, outD = descs[0], descs[1], descs[2], descs[3]
	}
	if err := checkNotMapped(inD, kerD, biasD, outD); err != nil {
		return codeOf(err)
	}
	if err := d.backend.Conv2D(d.zones, inD, kerD, biasD, outD, p.toInternal()); err != nil {
		return codeOf(err)
	}
	return Success
}

// Dense implements §6's dense / §4.I. bias may be the zero Handle for no
// bias.
func Dense(in, kernel, bias, out Handle, relu bool) ErrorCode {
	var handles []Handle
	if bias.Zero() {
		handles = []Handle{in, kernel, out}
	} else {
		handles = []Handle{in, kernel, bias, out}
	}
	d, descs, code := resolveSameDevice(handles...)
	if code != Success {
		return code
	}
	var inD, kerD, outD, biasD *tensor.Descriptor
	if bias.Zero() {
		inD, kerD, outD = descs[0], descs[1], descs[2]
	} else {
		inD, kerD, biasD, outD = descs[0], descs[1], descs[2], descs[3]
	}
	if err := checkNotMapped(inD, kerD, biasD, outD); err != nil {
		return codeOf(err)
	}
	if err := d.backend.Dense(d.zones, inD, kerD, biasD, outD, relu); err != nil {
		return codeOf(err)
	}
	return Success
}

// Add implements §6's add / §4.J.
func Add(a, b, out Handle) ErrorCode {
	d, descs, code := resolveSameDevice(a, b, out)
	if code != Success {
		return code
	}
	if err := checkNotMapped(descs...); err != nil {
		return codeOf(err)
	}
	if err := d.backend.Add(d.zones, descs[0], descs[1], descs[2]); err != nil {
		return codeOf(err)
	}
	return Success
}

// Softmax implements §6's softmax / §4.K.
func Softmax(in, out Handle) ErrorCode {
	d, descs, code := resolveSameDevice(in, out)
	if code != Success {
		return code
	}
	if err := checkNotMapped(descs...); err != nil {
		return codeOf(err)
	}
	if err := d.backend.Softmax(d.zones, descs[0], descs[1]); err != nil {
		return codeOf(err)
	}
	return Success
}

// Upsample implements §6's upsample / §4.L. factor must be 2.
func Upsample(in, out Handle, factor int) ErrorCode {
	d, descs, code := resolveSameDevice(in, out)
	if code != Success {
		return code
	}
	if err := checkNotMapped(descs...); err != nil {
		return codeOf(err)
	}
	if err := d.backend.Upsample(d.zones, descs[0], descs[1], factor); err != nil {
		return codeOf(err)
	}
	return Success
}
