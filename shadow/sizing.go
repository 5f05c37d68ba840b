package shadow

import "math"

// TextureSize scales a viewport's aspect ratio up to maxSize: the long axis
// becomes maxSize and the short axis floor(maxSize * short/long). It reports
// false when the viewport has no area.
func TextureSize(viewportWidth, viewportHeight, maxSize uint32) (width, height uint32, ok bool) {
	if viewportWidth == 0 || viewportHeight == 0 || maxSize == 0 {
		return 0, 0, false
	}
	long, short := viewportWidth, viewportHeight
	if short > long {
		long, short = short, long
	}
	scaled := uint32(math.Floor(float64(maxSize) * float64(short) / float64(long)))
	scaled = max(scaled, 1)
	if viewportWidth >= viewportHeight {
		return maxSize, scaled, true
	}
	return scaled, maxSize, true
}
