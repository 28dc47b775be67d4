package wave

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/hyperjump/wavekb/pkg/utils"
)

// spectrum returns the n/2+1 real-FFT coefficients of seq.
func spectrum(seq []float64) []complex128 {
	if len(seq) == 1 {
		return []complex128{complex(seq[0], 0)}
	}
	fft := fourier.NewFFT(len(seq))
	return fft.Coefficients(nil, seq)
}

// dominantBin returns the index of the largest-magnitude coefficient, skipping the
// DC term whenever another bin exists. Ties resolve to the lowest index.
func dominantBin(coeffs []complex128) int {
	start := 0
	if len(coeffs) > 1 {
		start = 1
	}
	best := start
	bestMag := cmplx.Abs(coeffs[start])
	for k := start + 1; k < len(coeffs); k++ {
		if mag := cmplx.Abs(coeffs[k]); mag > bestMag {
			best, bestMag = k, mag
		}
	}
	return best
}

// spectralComplexity maps the share of log-magnitude held by the upper half of the
// spectrum onto [-1,1]: -1 means all low-frequency, 1 all high-frequency.
func spectralComplexity(coeffs []complex128) float64 {
	half := (len(coeffs) + 1) / 2
	var total, upper float64
	for k, c := range coeffs {
		m := math.Log1p(cmplx.Abs(c))
		total += m
		if k >= half {
			upper += m
		}
	}
	share := upper / (total + epsilon)
	return utils.Clamp(2*share-1, -1, 1)
}

// distributionalSkew is |tanh(g1)| where g1 is the sample skewness of values.
// It lies in [0,1): 0 for a symmetric (or constant) distribution.
func distributionalSkew(values []float64) float64 {
	n := float64(len(values))
	var mean float64
	for _, v := range values {
		mean += v
	}
	mean /= n
	var m2, m3 float64
	for _, v := range values {
		d := v - mean
		m2 += d * d
		m3 += d * d * d
	}
	m2 /= n
	m3 /= n
	if m2 <= epsilon*epsilon {
		return 0
	}
	g1 := m3 / math.Pow(m2, 1.5)
	return math.Abs(math.Tanh(g1))
}
