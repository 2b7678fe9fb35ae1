package analysis

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"

	"github.com/san-kum/physlab/internal/dynamo"
)

// PowerSpectrum computes the same bins as DFT through go-dsp's FFT. Any
// length is accepted.
func PowerSpectrum(signal []float64, sampleRate float64) ([]Bin, error) {
	n := len(signal)
	if n < 2 {
		return nil, dynamo.ErrInsufficientData
	}

	spectrum := fft.FFTReal(signal)
	bins := make([]Bin, 0, (n+1)/2)
	for k := 0; 2*k < n; k++ {
		bins = append(bins, Bin{
			Frequency: float64(k) * sampleRate / float64(n),
			Magnitude: cmplx.Abs(spectrum[k]) / float64(n),
		})
	}
	return bins, nil
}
