// Package cast implements the element-wise conversion matrix of §4.C: a
// value cast between any two supported element kinds, parameterized by the
// signed delta of fractional bits between producer and consumer.
//
// The IEEE 754 binary16 (F16) boundary is delegated to x448/float16, which
// is treated as a black box implementing binary16 semantics -- this package
// never manipulates F16 bit patterns directly.
package cast

import (
	"encoding/binary"
	"math"

	"github.com/x448/float16"

	"github.com/giga-project/giga/internal/dtype"
)

// WrapInt truncates v into the representable range of a two's-complement
// integer of the given bit width and signedness, per §4.C's "wrap modulo
// 2^bits" narrowing rule.
func WrapInt(v int64, bits int, signed bool) int64 {
	if bits >= 64 {
		return v
	}
	mask := int64(1)<<uint(bits) - 1
	v &= mask
	if signed {
		signBit := int64(1) << uint(bits-1)
		if v&signBit != 0 {
			v -= int64(1) << uint(bits)
		}
	}
	return v
}

// ReadInt reads the raw fixed-point element at byteOff in buf, sign- or
// zero-extended to int64 according to k. k must be a fixed-point kind.
func ReadInt(buf []byte, byteOff int, k dtype.Kind) int64 {
	switch k.Bytes() {
	case 1:
		if k.IsSigned() {
			return int64(int8(buf[byteOff]))
		}
		return int64(buf[byteOff])
	case 2:
		u := binary.LittleEndian.Uint16(buf[byteOff:])
		if k.IsSigned() {
			return int64(int16(u))
		}
		return int64(u)
	default:
		panic("cast: unexpected fixed-point width")
	}
}

// WriteInt stores v into buf at byteOff as kind k, wrapping v to k's bit
// width and signedness first.
func WriteInt(buf []byte, byteOff int, k dtype.Kind, v int64) {
	v = WrapInt(v, k.Bits(), k.IsSigned())
	switch k.Bytes() {
	case 1:
		buf[byteOff] = byte(v)
	case 2:
		binary.LittleEndian.PutUint16(buf[byteOff:], uint16(v))
	default:
		panic("cast: unexpected fixed-point width")
	}
}

// ReadFloat reads the floating-point element at byteOff in buf as a
// float64. k must be F16 or F32.
func ReadFloat(buf []byte, byteOff int, k dtype.Kind) float64 {
	switch k {
	case dtype.F16:
		bits := binary.LittleEndian.Uint16(buf[byteOff:])
		return float64(float16.Frombits(bits).Float32())
	case dtype.F32:
		bits := binary.LittleEndian.Uint32(buf[byteOff:])
		return float64(math.Float32frombits(bits))
	default:
		panic("cast: not a floating kind")
	}
}

// WriteFloat stores v into buf at byteOff as kind k. k must be F16 or F32.
func WriteFloat(buf []byte, byteOff int, k dtype.Kind, v float64) {
	switch k {
	case dtype.F16:
		bits := uint16(float16.Fromfloat32(float32(v)))
		binary.LittleEndian.PutUint16(buf[byteOff:], bits)
	case dtype.F32:
		binary.LittleEndian.PutUint32(buf[byteOff:], math.Float32bits(float32(v)))
	default:
		panic("cast: not a floating kind")
	}
}
