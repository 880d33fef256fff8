package flash

import (
	"golang.org/x/exp/constraints"
)

// checksum will add every byte of bs onto seed, wrapping at 8 bits
func checksum(seed byte, bs []byte) byte {
	s := seed
	for _, b := range bs {
		s += b
	}
	return s
}

// Pad will copy the image into a zero filled buffer whose length is rounded
// up to the next multiple of BlockSize
func Pad(image []byte) []byte {
	n := (len(image) + BlockSize - 1) / BlockSize * BlockSize
	padded := make([]byte, n)
	copy(padded, image)
	return padded
}

// clamp will limit v to the range [lo, hi]
func clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// progress reports the percentage for an acknowledged block. The ratio is
// taken against the offset of the last block, so the last block reports 100.
func progress(offset, padded int) float64 {
	last := padded - BlockSize
	if last <= 0 {
		return 100
	}
	return clamp(float64(offset)/float64(last)*100, 0, 100)
}
