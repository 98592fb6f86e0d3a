package codec

import "math"

// SwapBytes swaps the two bytes within every 16-bit half of u, i.e.
// applies the byte swap across the whole composite word by word.
func SwapBytes(u uint64) uint64 {
	return ((u & 0x00FF00FF00FF00FF) << 8) | ((u & 0xFF00FF00FF00FF00) >> 8)
}

// SwapWords swaps the two 16-bit halves of every 32-bit group of u.
func SwapWords(u uint64) uint64 {
	return ((u & 0x0000FFFF0000FFFF) << 16) | ((u & 0xFFFF0000FFFF0000) >> 16)
}

// Float32FromLowBits reinterprets the low 32 bits of u as an IEEE-754
// binary32 value.
func Float32FromLowBits(u uint64) float32 {
	return math.Float32frombits(uint32(u & 0xFFFFFFFF))
}

// Float32ToLowBits returns the IEEE-754 bit pattern of f as the low 32
// bits of a uint64, high bits zero.
func Float32ToLowBits(f float32) uint64 {
	return uint64(math.Float32bits(f))
}
