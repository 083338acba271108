package embed

import "math"

// LayerNorm rescales row in place to zero mean and unit variance over its
// full width. Population variance is used, eps guards the division.
// Statistics are per row, so the result never depends on batch composition.
func LayerNorm(row []float32, eps float64) {
	n := len(row)
	if n == 0 {
		return
	}
	var sum float64
	for _, v := range row {
		sum += float64(v)
	}
	mean := sum / float64(n)
	var sq float64
	for _, v := range row {
		d := float64(v) - mean
		sq += d * d
	}
	inv := 1.0 / math.Sqrt(sq/float64(n)+eps)
	for i, v := range row {
		row[i] = float32((float64(v) - mean) * inv)
	}
}

// Truncate returns the first d components of row. It reslices, no copy.
func Truncate(row []float32, d int) []float32 {
	if d <= 0 || d >= len(row) {
		return row
	}
	return row[:d:d]
}

// NormalizeL2 rescales row in place to unit Euclidean norm. A zero row is
// left unchanged.
func NormalizeL2(row []float32) {
	var sum float64
	for _, v := range row {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	inv := 1.0 / math.Sqrt(sum)
	for i, v := range row {
		row[i] = float32(float64(v) * inv)
	}
}

// L2Norm returns the Euclidean norm of row.
func L2Norm(row []float32) float64 {
	var sum float64
	for _, v := range row {
		sum += float64(v) * float64(v)
	}
	return math.Sqrt(sum)
}
