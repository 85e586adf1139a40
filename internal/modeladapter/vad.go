package modeladapter

import (
	"fmt"
	"log"
	"os"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/valfrom/diarize-bench/diarization"
)

// VADConfig configures the Silero-style streaming voice-activity detector
// used by the ASR text adjunct's chunker (never by the core segmentation
// decoder, which decodes the segmentation tensor directly).
type VADConfig struct {
	ModelPath            string
	SampleRate           int
	Threshold            float32
	MinSilenceDurationMs int
	SpeechPadMs          int
	MinSpeechDurationMs  int
}

// DefaultVADConfig returns Silero VAD's standard streaming thresholds.
func DefaultVADConfig(modelPath string) VADConfig {
	return VADConfig{
		ModelPath:            modelPath,
		SampleRate:           16000,
		Threshold:            0.5,
		MinSilenceDurationMs: 100,
		SpeechPadMs:          30,
		MinSpeechDurationMs:  250,
	}
}

// lstmRecurrentState carries a Silero VAD session's hidden state and
// trailing sample context across consecutive streaming windows. Silero's
// ONNX graph is stateless per call; this is what makes repeated calls
// behave like one continuous stream.
type lstmRecurrentState struct {
	hc      []float32 // flattened [2, 1, 128] LSTM h/c state
	context []float32 // trailing samples carried into the next window
}

func newLSTMRecurrentState(sampleRate int) lstmRecurrentState {
	contextLen := 64
	if sampleRate == 8000 {
		contextLen = 32
	}
	return lstmRecurrentState{
		hc:      make([]float32, 2*1*128),
		context: make([]float32, contextLen),
	}
}

func (s *lstmRecurrentState) reset() {
	for i := range s.hc {
		s.hc[i] = 0
	}
	for i := range s.context {
		s.context[i] = 0
	}
}

// withContext prepends the carried context to window and slides the
// context forward to window's trailing samples for the next call.
func (s *lstmRecurrentState) withContext(window []float32) []float32 {
	n := len(s.context)
	input := make([]float32, n+len(window))
	copy(input[:n], s.context)
	copy(input[n:], window)

	if len(window) >= n {
		copy(s.context, window[len(window)-n:])
	} else {
		copy(s.context, s.context[len(window):])
		copy(s.context[n-len(window):], window)
	}
	return input
}

// SileroVAD implements diarization.VoiceActivityDetector over a streaming
// Silero VAD ONNX model.
type SileroVAD struct {
	session *ort.DynamicAdvancedSession
	config  VADConfig
	state   lstmRecurrentState
	mu      sync.Mutex
}

// NewSileroVAD loads the model at config.ModelPath.
func NewSileroVAD(config VADConfig) (*SileroVAD, error) {
	if _, err := os.Stat(config.ModelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("vad model file not found: %s", config.ModelPath)
	}
	if config.SampleRate != 8000 && config.SampleRate != 16000 {
		return nil, fmt.Errorf("sample rate must be 8000 or 16000, got %d", config.SampleRate)
	}
	if err := ensureRuntimeInitialized(); err != nil {
		return nil, err
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("failed to create session options: %w", err)
	}
	defer options.Destroy()

	session, err := ort.NewDynamicAdvancedSession(
		config.ModelPath,
		[]string{"input", "state", "sr"},
		[]string{"output", "stateN"},
		options,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create VAD session: %w", err)
	}

	return &SileroVAD{
		session: session,
		config:  config,
		state:   newLSTMRecurrentState(config.SampleRate),
	}, nil
}

// windowSamples is Silero VAD's fixed analysis window: 512 samples at
// 16kHz, 256 at 8kHz, both 32ms.
func (v *SileroVAD) windowSamples() int {
	if v.config.SampleRate == 16000 {
		return 512
	}
	return 256
}

// speechProbability runs one fixed-size window through the model, folding
// in the carried LSTM state and sample context, and returns P(speech).
func (v *SileroVAD) speechProbability(window []float32) (float32, error) {
	input := v.state.withContext(window)

	inputTensor, err := ort.NewTensor(ort.NewShape(1, int64(len(input))), input)
	if err != nil {
		return 0, fmt.Errorf("failed to create input tensor: %w", err)
	}
	defer inputTensor.Destroy()

	stateTensor, err := ort.NewTensor(ort.NewShape(2, 1, 128), v.state.hc)
	if err != nil {
		return 0, fmt.Errorf("failed to create state tensor: %w", err)
	}
	defer stateTensor.Destroy()

	srTensor, err := ort.NewTensor(ort.NewShape(1), []int64{int64(v.config.SampleRate)})
	if err != nil {
		return 0, fmt.Errorf("failed to create sample-rate tensor: %w", err)
	}
	defer srTensor.Destroy()

	outputs := []ort.Value{nil, nil}
	if err := v.session.Run([]ort.Value{inputTensor, stateTensor, srTensor}, outputs); err != nil {
		return 0, fmt.Errorf("VAD inference failed: %w", err)
	}
	defer func() {
		for _, out := range outputs {
			if out != nil {
				out.Destroy()
			}
		}
	}()

	prob := outputs[0].(*ort.Tensor[float32]).GetData()
	nextState := outputs[1].(*ort.Tensor[float32]).GetData()
	copy(v.state.hc, nextState)

	if len(prob) == 0 {
		return 0, nil
	}
	return prob[0], nil
}

// speechSmoother turns a stream of per-window speech probabilities into
// closed speech regions, bridging silences shorter than the configured
// minimum gap and padding each region's edges, mirroring Silero's reference
// streaming post-processing.
type speechSmoother struct {
	threshold        float32
	windowMs         float64
	minSilenceWindows int
	speechPadWindows  int
	minSpeechMs       int

	open      *diarization.SpeechRegion
	probSum   float32
	probCount int
	silenceRun int
}

func newSpeechSmoother(cfg VADConfig, windowSamples int) *speechSmoother {
	windowMs := float64(windowSamples) * 1000 / float64(cfg.SampleRate)
	return &speechSmoother{
		threshold:         cfg.Threshold,
		windowMs:          windowMs,
		minSilenceWindows: int(float64(cfg.MinSilenceDurationMs) / windowMs),
		speechPadWindows:  int(float64(cfg.SpeechPadMs) / windowMs),
		minSpeechMs:       cfg.MinSpeechDurationMs,
	}
}

// observe feeds one window's probability at offsetMs and returns a closed
// region if this observation just ended one.
func (s *speechSmoother) observe(prob float32, offsetMs int64) *diarization.SpeechRegion {
	if prob >= s.threshold {
		s.silenceRun = 0
		if s.open == nil {
			start := offsetMs - int64(s.speechPadWindows)*int64(s.windowMs)
			if start < 0 {
				start = 0
			}
			s.open = &diarization.SpeechRegion{StartMs: start}
			s.probSum, s.probCount = 0, 0
		}
		s.probSum += prob
		s.probCount++
		return nil
	}

	if s.open == nil {
		return nil
	}
	s.silenceRun++
	if s.silenceRun < s.minSilenceWindows {
		return nil
	}
	return s.closeRegion(offsetMs - int64(s.silenceRun-s.speechPadWindows)*int64(s.windowMs))
}

// closeRegion finalizes the open region ending at endMs, resets smoother
// state, and reports it only if it clears the minimum speech duration.
func (s *speechSmoother) closeRegion(endMs int64) *diarization.SpeechRegion {
	region := s.open
	s.open = nil
	s.silenceRun = 0

	if endMs < region.StartMs {
		endMs = region.StartMs + int64(s.windowMs)
	}
	region.EndMs = endMs
	if s.probCount > 0 {
		region.AvgProb = s.probSum / float32(s.probCount)
	}
	if region.EndMs-region.StartMs < int64(s.minSpeechMs) {
		return nil
	}
	return region
}

// finish closes a still-open region at the end of the stream.
func (s *speechSmoother) finish(totalMs int64) *diarization.SpeechRegion {
	if s.open == nil {
		return nil
	}
	return s.closeRegion(totalMs)
}

// DetectSpeechRegions runs a full streaming pass over samples and returns
// the speech regions surviving the configured silence-gap and
// minimum-duration smoothing.
func (v *SileroVAD) DetectSpeechRegions(samples []float32) ([]diarization.SpeechRegion, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state.reset()

	windowSize := v.windowSamples()
	smoother := newSpeechSmoother(v.config, windowSize)

	var regions []diarization.SpeechRegion
	for i := 0; i < len(samples); i += windowSize {
		window := paddedWindow(samples, i, windowSize)
		prob, err := v.speechProbability(window)
		if err != nil {
			return nil, err
		}
		offsetMs := int64(float64(i) * 1000 / float64(v.config.SampleRate))
		if region := smoother.observe(prob, offsetMs); region != nil {
			regions = append(regions, *region)
		}
	}

	totalMs := int64(len(samples)) * 1000 / int64(v.config.SampleRate)
	if region := smoother.finish(totalMs); region != nil {
		regions = append(regions, *region)
	}

	log.Printf("modeladapter: VAD detected %d speech regions", len(regions))
	return regions, nil
}

// paddedWindow returns samples[start:start+size], zero-padded if the
// buffer runs out before size samples.
func paddedWindow(samples []float32, start, size int) []float32 {
	end := start + size
	if end <= len(samples) {
		return samples[start:end]
	}
	window := make([]float32, size)
	copy(window, samples[start:])
	return window
}

// Close releases the ONNX session.
func (v *SileroVAD) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.session != nil {
		v.session.Destroy()
		v.session = nil
	}
}
