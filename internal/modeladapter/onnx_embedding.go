package modeladapter

import (
	"fmt"
	"os"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// EmbeddingConfig configures an ONNX speaker-embedding model adapter.
type EmbeddingConfig struct {
	ModelPath string
	Mel       MelConfig
}

// DefaultEmbeddingConfig returns the WeSpeaker-style ResNet34 defaults: 80
// mels, 10ms hop, 25ms window, 16kHz.
func DefaultEmbeddingConfig(modelPath string) EmbeddingConfig {
	return EmbeddingConfig{ModelPath: modelPath, Mel: DefaultMelConfig()}
}

// OnnxEmbeddingModel implements diarization.EmbeddingModel over an ONNX
// Runtime session. It is safe for concurrent use; inference calls are
// serialized through an internal mutex since onnxruntime_go sessions are
// not safe for concurrent Run calls.
type OnnxEmbeddingModel struct {
	config  EmbeddingConfig
	mel     *MelProcessor
	session *ort.DynamicAdvancedSession
	mu      sync.Mutex
}

// NewOnnxEmbeddingModel loads the model at config.ModelPath and prepares an
// inference session.
func NewOnnxEmbeddingModel(config EmbeddingConfig) (*OnnxEmbeddingModel, error) {
	if _, err := os.Stat(config.ModelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("embedding model file not found: %s", config.ModelPath)
	}
	if err := ensureRuntimeInitialized(); err != nil {
		return nil, err
	}

	inputNames, outputNames, err := sessionIONames(config.ModelPath)
	if err != nil {
		return nil, err
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("failed to create session options: %w", err)
	}
	defer options.Destroy()

	session, err := ort.NewDynamicAdvancedSession(config.ModelPath, inputNames, outputNames, options)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding session: %w", err)
	}

	return &OnnxEmbeddingModel{
		config:  config,
		mel:     NewMelProcessor(config.Mel),
		session: session,
	}, nil
}

// Embed computes the raw (pre-normalization) embedding vector for region.
func (m *OnnxEmbeddingModel) Embed(region []float32) ([]float32, error) {
	if len(region) < m.config.Mel.SampleRate/10 {
		return nil, fmt.Errorf("region too short to embed")
	}

	melSpec, numFrames := m.mel.Compute(region)

	flatInput := make([]float32, numFrames*m.config.Mel.NMels)
	for t := 0; t < numFrames; t++ {
		for n := 0; n < m.config.Mel.NMels; n++ {
			flatInput[t*m.config.Mel.NMels+n] = melSpec[t][n]
		}
	}
	inputShape := ort.NewShape(1, int64(numFrames), int64(m.config.Mel.NMels))
	inputTensor, err := ort.NewTensor(inputShape, flatInput)
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	defer inputTensor.Destroy()

	m.mu.Lock()
	outputs := []ort.Value{nil}
	err = m.session.Run([]ort.Value{inputTensor}, outputs)
	m.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("embedding inference failed: %w", err)
	}
	defer func() {
		for _, out := range outputs {
			if out != nil {
				out.Destroy()
			}
		}
	}()

	outputTensor, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("unexpected embedding output tensor type")
	}
	data := outputTensor.GetData()
	result := make([]float32, len(data))
	copy(result, data)
	return result, nil
}

// Close releases the ONNX session.
func (m *OnnxEmbeddingModel) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session != nil {
		m.session.Destroy()
		m.session = nil
	}
}
