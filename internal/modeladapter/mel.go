package modeladapter

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

// MelConfig configures log-mel spectrogram extraction ahead of the
// embedding model's ONNX input tensor.
type MelConfig struct {
	SampleRate int
	NMels      int
	HopLength  int // typically SampleRate / 100 (10ms)
	WinLength  int // typically SampleRate / 40 (25ms)
	NFFT       int
	Center     bool // true: librosa-style centered frames; false: left-aligned
}

// DefaultMelConfig returns a 16kHz, 80-mel configuration with a 25ms window
// and 10ms hop, the common front end for speaker-embedding ONNX models.
func DefaultMelConfig() MelConfig {
	return MelConfig{
		SampleRate: 16000,
		NMels:      80,
		HopLength:  160,
		WinLength:  400,
		NFFT:       512,
		Center:     false,
	}
}

// frameLayout describes how Compute slices a sample buffer into
// overlapping analysis windows, independent of what's done with each one.
type frameLayout struct {
	count     int
	hop       int
	winLength int
	centered  bool
}

func newFrameLayout(numSamples int, cfg MelConfig) frameLayout {
	l := frameLayout{hop: cfg.HopLength, winLength: cfg.WinLength, centered: cfg.Center}
	switch {
	case cfg.Center:
		l.count = numSamples/cfg.HopLength + 1
	case numSamples >= cfg.WinLength:
		l.count = (numSamples-cfg.WinLength)/cfg.HopLength + 1
	default:
		l.count = 1
	}
	return l
}

// offset returns the sample index where frame i's window begins; it may be
// negative (left of the buffer) when centered.
func (l frameLayout) offset(i int) int {
	if l.centered {
		return i*l.hop - l.winLength/2
	}
	return i * l.hop
}

// melFilterbank is a precomputed triangular mel filterbank over FFT power
// bins, compatible with the torchaudio/librosa HTK mel scale.
type melFilterbank struct {
	banks [][]float64 // [mel][bin]
}

// newMelFilterbank builds nMels triangular filters spanning DC to Nyquist
// for an nFFT-point transform at sampleRate.
func newMelFilterbank(nFFT, nMels, sampleRate int) melFilterbank {
	freqToMel := func(hz float64) float64 { return 2595.0 * math.Log10(1.0+hz/700.0) }
	melToFreq := func(mel float64) float64 { return 700.0 * (math.Pow(10.0, mel/2595.0) - 1.0) }

	numBins := nFFT/2 + 1
	nyquist := float64(sampleRate) / 2.0

	binFreqs := make([]float64, numBins)
	for i := range binFreqs {
		binFreqs[i] = float64(i) * nyquist / float64(numBins-1)
	}

	// nMels+2 edges: below-band, nMels centers, above-band.
	melEdges := make([]float64, nMels+2)
	melLo, melHi := freqToMel(0), freqToMel(nyquist)
	for i := range melEdges {
		melEdges[i] = melToFreq(melLo + float64(i)*(melHi-melLo)/float64(nMels+1))
	}

	bandWidth := make([]float64, nMels+1)
	for i := range bandWidth {
		bandWidth[i] = melEdges[i+1] - melEdges[i]
	}

	banks := make([][]float64, nMels)
	for m := range banks {
		row := make([]float64, numBins)
		for k, freq := range binFreqs {
			rising := (freq - melEdges[m]) / bandWidth[m]
			falling := (melEdges[m+2] - freq) / bandWidth[m+1]
			weight := math.Min(rising, falling)
			if weight < 0 {
				weight = 0
			}
			row[k] = weight
		}
		banks[m] = row
	}
	return melFilterbank{banks: banks}
}

// minLogPower floors a filterbank sum before taking its log, avoiding -Inf
// on silent frames.
const minLogPower = 1e-9

// logMel projects a power spectrum through every filter and returns its log.
func (fb melFilterbank) logMel(powerSpectrum []float64) []float32 {
	out := make([]float32, len(fb.banks))
	for m, row := range fb.banks {
		var energy float64
		for k, weight := range row {
			energy += powerSpectrum[k] * weight
		}
		if energy < minLogPower {
			energy = minLogPower
		}
		out[m] = float32(math.Log(energy))
	}
	return out
}

func hannWindow(size int) []float64 {
	w := make([]float64, size)
	for i := range w {
		w[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(size-1)))
	}
	return w
}

// MelProcessor turns raw samples into a log-mel spectrogram.
type MelProcessor struct {
	config     MelConfig
	filterbank melFilterbank
	window     []float64
	fft        *fourier.FFT
}

// NewMelProcessor precomputes the mel filterbank and analysis window for
// config.
func NewMelProcessor(config MelConfig) *MelProcessor {
	return &MelProcessor{
		config:     config,
		filterbank: newMelFilterbank(config.NFFT, config.NMels, config.SampleRate),
		window:     hannWindow(config.WinLength),
		fft:        fourier.NewFFT(config.NFFT),
	}
}

// windowedFrame extracts and windows one analysis frame from samples, zero-padded
// to NFFT and zero-padded at either edge of the buffer.
func (p *MelProcessor) windowedFrame(samples []float32, start int) []float64 {
	frame := make([]float64, p.config.NFFT)
	for i := 0; i < p.config.WinLength; i++ {
		idx := start + i
		if idx >= 0 && idx < len(samples) {
			frame[i] = float64(samples[idx]) * p.window[i]
		}
	}
	return frame
}

func (p *MelProcessor) powerSpectrum(frame []float64) []float64 {
	coeffs := p.fft.Coefficients(nil, frame)
	bins := p.config.NFFT/2 + 1
	power := make([]float64, bins)
	for i := 0; i < bins; i++ {
		re, im := real(coeffs[i]), imag(coeffs[i])
		power[i] = re*re + im*im
	}
	return power
}

// Compute returns the [numFrames][NMels] log-mel spectrogram of samples.
func (p *MelProcessor) Compute(samples []float32) ([][]float32, int) {
	layout := newFrameLayout(len(samples), p.config)
	spectrogram := make([][]float32, layout.count)

	for i := 0; i < layout.count; i++ {
		frame := p.windowedFrame(samples, layout.offset(i))
		power := p.powerSpectrum(frame)
		spectrogram[i] = p.filterbank.logMel(power)
	}

	return spectrogram, layout.count
}
