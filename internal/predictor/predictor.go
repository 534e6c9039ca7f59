// Package predictor implements the byte differencing predictor applied by
// OpenEXR's ZIP and RLE compressors.
//
// Each stored byte is the difference from its predecessor biased by 128, so
// flat regions encode as runs of 0x80.
package predictor

const bias = 128

// Encode replaces data with biased differences in place. The first byte is
// left unchanged.
func Encode(data []byte) {
	n := len(data)
	if n < 2 {
		return
	}

	// Work backwards so each predecessor is still the original value.
	i := n - 1
	for ; i >= 8; i -= 8 {
		data[i] = data[i] - data[i-1] + bias
		data[i-1] = data[i-1] - data[i-2] + bias
		data[i-2] = data[i-2] - data[i-3] + bias
		data[i-3] = data[i-3] - data[i-4] + bias
		data[i-4] = data[i-4] - data[i-5] + bias
		data[i-5] = data[i-5] - data[i-6] + bias
		data[i-6] = data[i-6] - data[i-7] + bias
		data[i-7] = data[i-7] - data[i-8] + bias
	}
	for ; i >= 1; i-- {
		data[i] = data[i] - data[i-1] + bias
	}
}

// Decode reverses Encode in place: data[i] = data[i-1] + data[i] - 128,
// wrapping modulo 256.
func Decode(data []byte) {
	n := len(data)
	if n < 2 {
		return
	}

	i := 1
	for ; i+7 < n; i += 8 {
		data[i] = data[i-1] + data[i] - bias
		data[i+1] = data[i] + data[i+1] - bias
		data[i+2] = data[i+1] + data[i+2] - bias
		data[i+3] = data[i+2] + data[i+3] - bias
		data[i+4] = data[i+3] + data[i+4] - bias
		data[i+5] = data[i+4] + data[i+5] - bias
		data[i+6] = data[i+5] + data[i+6] - bias
		data[i+7] = data[i+6] + data[i+7] - bias
	}
	for ; i < n; i++ {
		data[i] = data[i-1] + data[i] - bias
	}
}
