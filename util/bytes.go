package util

import (
	"encoding/binary"
	"math"
)

func Uint16AsBytes(i uint16) []byte {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, i)
	return b
}

func Uint64AsBytes(i uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, i)
	return b
}

func Float64AsBytes(f float64) []byte {
	return Uint64AsBytes(math.Float64bits(f))
}

func BytesAsUint64(b []byte) uint64 {
	return binary.LittleEndian.Uint64(b)
}

func BytesAsFloat64(b []byte) float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(b))
}
