package giga

import "github.com/giga-project/giga/internal/dtype"

// DataType mirrors internal/dtype.Kind at the public boundary (§3's
// element kind enum). Numerically identical; kept as a distinct type so
// giga's public signatures don't leak an internal package type.
type DataType uint8

// Supported element kinds, matching dtype.Kind's stable ordering.
const (
	F16   DataType = DataType(dtype.F16)
	F32   DataType = DataType(dtype.F32)
	SFx4  DataType = DataType(dtype.SFx4)
	SFx8  DataType = DataType(dtype.SFx8)
	SFx16 DataType = DataType(dtype.SFx16)
	UFx4  DataType = DataType(dtype.UFx4)
	UFx8  DataType = DataType(dtype.UFx8)
	UFx16 DataType = DataType(dtype.UFx16)
)

func (k DataType) String() string { return dtype.Kind(k).String() }

// Bytes returns the element's storage size, matching dtype.Kind.Bytes.
// Adapters that allocate output tensors (e.g. internal/onnxadapter) need
// this to compute how far to bump a zone offset per tensor.
func (k DataType) Bytes() int { return dtype.Kind(k).Bytes() }
