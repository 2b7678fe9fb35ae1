package analysis

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/physlab/internal/dynamo"
)

type Bin struct {
	Frequency float64 `json:"frequency"`
	Magnitude float64 `json:"magnitude"`
}

// DFT evaluates the direct O(n^2) discrete Fourier sum for bins k < n/2 and
// reports |X_k|/n against k*rate/n.
func DFT(signal []float64, sampleRate float64) ([]Bin, error) {
	n := len(signal)
	if n < 2 {
		return nil, dynamo.ErrInsufficientData
	}

	bins := make([]Bin, 0, (n+1)/2)
	for k := 0; 2*k < n; k++ {
		re, im := 0.0, 0.0
		for t, s := range signal {
			angle := 2 * math.Pi * float64(k) * float64(t) / float64(n)
			re += s * math.Cos(angle)
			im -= s * math.Sin(angle)
		}
		bins = append(bins, Bin{
			Frequency: float64(k) * sampleRate / float64(n),
			Magnitude: math.Sqrt(re*re+im*im) / float64(n),
		})
	}
	return bins, nil
}

// PeakFrequency returns the strongest non-DC bin.
func PeakFrequency(bins []Bin) (Bin, bool) {
	if len(bins) < 2 {
		return Bin{}, false
	}
	mags := make([]float64, len(bins)-1)
	for i, b := range bins[1:] {
		mags[i] = b.Magnitude
	}
	return bins[1+floats.MaxIdx(mags)], true
}

// Magnitudes extracts the magnitude column.
func Magnitudes(bins []Bin) []float64 {
	out := make([]float64, len(bins))
	for i, b := range bins {
		out[i] = b.Magnitude
	}
	return out
}
