package backend

// meanPool averages token states over positions where mask is 1.
// hidden is laid out [batch][seq][dim]; mask is [batch][seq].
func meanPool(hidden []float32, mask []int64, batch, seq, dim int) [][]float32 {
	out := make([][]float32, batch)
	for b := 0; b < batch; b++ {
		acc := make([]float64, dim)
		var n float64
		for s := 0; s < seq; s++ {
			if mask[b*seq+s] == 0 {
				continue
			}
			n++
			off := (b*seq + s) * dim
			for d := 0; d < dim; d++ {
				acc[d] += float64(hidden[off+d])
			}
		}
		row := make([]float32, dim)
		if n > 0 {
			for d := range row {
				row[d] = float32(acc[d] / n)
			}
		}
		out[b] = row
	}
	return out
}

// clipTokens shortens a token sequence to max, keeping its final token so
// the closing special token survives truncation.
func clipTokens(ids []int, max int) []int {
	if max <= 0 || len(ids) <= max {
		return ids
	}
	out := make([]int, max)
	copy(out, ids[:max-1])
	out[max-1] = ids[len(ids)-1]
	return out
}

// packTokens right-pads each sequence with zeros to the longest one and
// flattens the batch row-major.
func packTokens(seqs [][]int) (flat []int64, seqLen int) {
	for _, s := range seqs {
		seqLen = max(seqLen, len(s))
	}
	flat = make([]int64, len(seqs)*seqLen)
	for i, s := range seqs {
		for j, v := range s {
			flat[i*seqLen+j] = int64(v)
		}
	}
	return flat, seqLen
}
