package codec

import (
	"math"
	"testing"
)

func TestRoundBypassedWhenScaleIsOne(t *testing.T) {
	got := Round(23.44444, 1, 16)
	if got != 23.44444 {
		t.Fatalf("expected passthrough, got %v", got)
	}
}

func TestRoundScenarioOne(t *testing.T) {
	// map {scale: 0.1, offset: 0}, w=234 -> y=23.4
	y := 0.0 + 234*0.1
	got := Round(y, 0.1, 8)
	if math.Abs(got-23.4) > 1e-9 {
		t.Fatalf("got %v want 23.4", got)
	}
}

func TestRoundBitsHasNoObservableEffect(t *testing.T) {
	a := Round(123.456, 0.01, 8)
	b := Round(123.456, 0.01, 16)
	if a != b {
		t.Fatalf("expected bits to be inert, got %v vs %v", a, b)
	}
}

func TestSwapBytesIdempotentTwice(t *testing.T) {
	u := uint64(0xF5C34048)
	if got := SwapBytes(SwapBytes(u)); got != u {
		t.Fatalf("SwapBytes twice = %#x, want %#x", got, u)
	}
}

func TestSwapWordsIdempotentTwice(t *testing.T) {
	u := uint64(0xF5C34048)
	if got := SwapWords(SwapWords(u)); got != u {
		t.Fatalf("SwapWords twice = %#x, want %#x", got, u)
	}
}

func TestSwapWordsScenarioTwo(t *testing.T) {
	// composite u = 0xF5C34048; SWAP_WORDS -> 0x4048F5C3 -> float32 ~3.14
	u := uint64(0xF5C34048)
	swapped := SwapWords(u)
	if swapped != 0x4048F5C3 {
		t.Fatalf("SwapWords(%#x) = %#x, want 0x4048f5c3", u, swapped)
	}
	f := Float32FromLowBits(swapped)
	if math.Abs(float64(f)-3.14) > 1e-2 {
		t.Fatalf("got %v want ~3.14", f)
	}
}

func TestFloat32RoundTrip(t *testing.T) {
	f := float32(3.14)
	bits := Float32ToLowBits(f)
	if got := Float32FromLowBits(bits); got != f {
		t.Fatalf("round trip = %v want %v", got, f)
	}
}
