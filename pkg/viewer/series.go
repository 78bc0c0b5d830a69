package viewer

import "image/color"

// Palette is the per-device colour cycle, in first-seen order.
var Palette = []color.RGBA{
	{R: 0xd6, G: 0x27, B: 0x28, A: 0xff}, // red
	{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}, // blue
	{R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff}, // green
	{R: 0xff, G: 0x7f, B: 0x0e, A: 0xff}, // orange
	{R: 0x94, G: 0x67, B: 0xbd, A: 0xff}, // purple
	{R: 0x8c, G: 0x56, B: 0x4b, A: 0xff}, // brown
	{R: 0xe3, G: 0x77, B: 0xc2, A: 0xff}, // pink
	{R: 0x7f, G: 0x7f, B: 0x7f, A: 0xff}, // gray
	{R: 0xbc, G: 0xbd, B: 0x22, A: 0xff}, // olive
	{R: 0x17, G: 0xbe, B: 0xcf, A: 0xff}, // cyan
}

// DeviceColor returns the colour of the i-th device.
func DeviceColor(i int) color.RGBA {
	return Palette[i%len(Palette)]
}

// Values extracts one metric from points into dst.
// Destination-based: reuses dst if it has sufficient capacity.
func Values(dst []float64, points []Point, metric string) []float64 {
	dst = dst[:0]
	for _, p := range points {
		dst = append(dst, p.Value(metric))
	}
	return dst
}

// Minutes returns the age of each point in minutes relative to the newest
// one, so the newest point is at 0 and older points are negative.
func Minutes(dst []float64, points []Point) []float64 {
	dst = dst[:0]
	if len(points) == 0 {
		return dst
	}
	latest := points[len(points)-1].Timestamp
	for _, p := range points {
		dst = append(dst, p.Timestamp.Sub(latest).Minutes())
	}
	return dst
}

// Downsample reduces points to at most maxPoints by decimation.
// Destination-based: reuses dst if it has sufficient capacity, otherwise
// allocates new. The newest point is always kept.
func Downsample(dst []Point, points []Point, maxPoints int) []Point {
	if maxPoints <= 0 || len(points) <= maxPoints {
		if cap(dst) >= len(points) {
			dst = dst[:len(points)]
			copy(dst, points)
			return dst
		}
		result := make([]Point, len(points))
		copy(result, points)
		return result
	}

	if cap(dst) >= maxPoints {
		dst = dst[:0]
	} else {
		dst = make([]Point, 0, maxPoints)
	}

	step := float64(len(points)) / float64(maxPoints)
	for i := range maxPoints - 1 {
		dst = append(dst, points[int(float64(i)*step)])
	}
	return append(dst, points[len(points)-1])
}
