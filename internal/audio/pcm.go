package audio

import "encoding/binary"

// Interleave converts float channels in [-1, 1] to interleaved int16 PCM,
// clipping anything outside the range.
func Interleave(left, right []float64, dst []int16) []int16 {
	n := min(len(left), len(right))
	if cap(dst) < n*Channels {
		dst = make([]int16, n*Channels)
	}
	dst = dst[:n*Channels]
	for i := 0; i < n; i++ {
		dst[i*2] = toInt16(left[i])
		dst[i*2+1] = toInt16(right[i])
	}
	return dst
}

func toInt16(v float64) int16 {
	v *= 32767
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int16(v)
}

// SamplesToBytes encodes int16 PCM as little-endian bytes.
func SamplesToBytes(samples []int16) []byte {
	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(s))
	}
	return buf
}
