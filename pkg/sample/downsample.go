package sample

// DownsampleFrames downsamples a slice of frames to a maximum number of points.
// Destination-based: reuses dst if it has sufficient capacity, otherwise allocates new.
func DownsampleFrames(dst []Frame, frames []Frame, maxPoints int) []Frame {
	return Downsample(dst, frames, maxPoints)
}

// Downsample reduces src to at most maxPoints elements by simple decimation,
// always keeping the first element. If len(src) <= maxPoints everything is
// copied. dst is reused when it has sufficient capacity.
func Downsample[T any](dst []T, src []T, maxPoints int) []T {
	if len(src) <= maxPoints {
		if cap(dst) >= len(src) {
			dst = dst[:len(src)]
			copy(dst, src)
			return dst
		}
		result := make([]T, len(src))
		copy(result, src)
		return result
	}

	if cap(dst) >= maxPoints {
		dst = dst[:0]
	} else {
		dst = make([]T, 0, maxPoints)
	}

	step := float64(len(src)) / float64(maxPoints)
	for i := range maxPoints {
		idx := int(float64(i) * step)
		if idx < len(src) {
			dst = append(dst, src[idx])
		}
	}

	return dst
}
