package analysis

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/physlab/internal/dynamo"
)

func sinusoid(f0, rate float64, n int) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = math.Sin(2 * math.Pi * f0 * float64(i) / rate)
	}
	return s
}

func TestDFTPeak(t *testing.T) {
	tests := []struct {
		name string
		f0   float64
		rate float64
		n    int
	}{
		{"on bin", 5, 100, 200},
		{"between bins", 7.3, 100, 256},
		{"two periods", 2, 40, 40},
		{"odd length", 12.5, 200, 99},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bins, err := DFT(sinusoid(tt.f0, tt.rate, tt.n), tt.rate)
			if err != nil {
				t.Fatal(err)
			}
			peak, ok := PeakFrequency(bins)
			if !ok {
				t.Fatal("no peak found")
			}
			width := tt.rate / float64(tt.n)
			if math.Abs(peak.Frequency-tt.f0) > width {
				t.Errorf("peak at %f, expected %f within one bin (%f)", peak.Frequency, tt.f0, width)
			}
		})
	}
}

func TestDFTBins(t *testing.T) {
	bins, err := DFT([]float64{1, 1, 1, 1, 1}, 10)
	if err != nil {
		t.Fatal(err)
	}
	// k in [0, n/2) -> 0, 1, 2
	if len(bins) != 3 {
		t.Fatalf("expected 3 bins, got %d", len(bins))
	}
	if math.Abs(bins[0].Magnitude-1) > 1e-12 {
		t.Errorf("DC magnitude: got %f, expected 1", bins[0].Magnitude)
	}
	if math.Abs(bins[2].Frequency-4) > 1e-12 {
		t.Errorf("bin 2 frequency: got %f, expected 4", bins[2].Frequency)
	}
	for _, b := range bins[1:] {
		if b.Magnitude > 1e-12 {
			t.Errorf("constant signal leaked into %f Hz: %g", b.Frequency, b.Magnitude)
		}
	}
}

func TestDFTInsufficientData(t *testing.T) {
	for _, s := range [][]float64{nil, {1}} {
		if _, err := DFT(s, 1); !errors.Is(err, dynamo.ErrInsufficientData) {
			t.Errorf("DFT(%v) err = %v, want ErrInsufficientData", s, err)
		}
		if _, err := PowerSpectrum(s, 1); !errors.Is(err, dynamo.ErrInsufficientData) {
			t.Errorf("PowerSpectrum(%v) err = %v, want ErrInsufficientData", s, err)
		}
	}
}

func TestPowerSpectrumMatchesDFT(t *testing.T) {
	signal := sinusoid(3.7, 64, 100)
	for i := range signal {
		signal[i] += 0.3*math.Cos(float64(i)) + 0.1
	}

	direct, err := DFT(signal, 64)
	if err != nil {
		t.Fatal(err)
	}
	fast, err := PowerSpectrum(signal, 64)
	if err != nil {
		t.Fatal(err)
	}

	if len(direct) != len(fast) {
		t.Fatalf("bin count: dft %d, fft %d", len(direct), len(fast))
	}
	for k := range direct {
		if math.Abs(direct[k].Magnitude-fast[k].Magnitude) > 1e-9 {
			t.Errorf("bin %d: dft %g, fft %g", k, direct[k].Magnitude, fast[k].Magnitude)
		}
		if direct[k].Frequency != fast[k].Frequency {
			t.Errorf("bin %d frequency: dft %f, fft %f", k, direct[k].Frequency, fast[k].Frequency)
		}
	}
}

func TestPeakFrequencySkipsDC(t *testing.T) {
	bins := []Bin{{0, 10}, {1, 0.5}, {2, 2}, {3, 1}}
	peak, ok := PeakFrequency(bins)
	if !ok || peak.Frequency != 2 {
		t.Errorf("peak = %+v, expected the 2 Hz bin", peak)
	}
	if _, ok := PeakFrequency(bins[:1]); ok {
		t.Error("DC-only spectrum should have no peak")
	}
}

func BenchmarkDFT(b *testing.B) {
	signal := sinusoid(50, 10000, 500)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = DFT(signal, 10000)
	}
}

func BenchmarkPowerSpectrum(b *testing.B) {
	signal := sinusoid(50, 10000, 500)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = PowerSpectrum(signal, 10000)
	}
}
