package modeladapter

import (
	"fmt"
	"os"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/valfrom/diarize-bench/diarization"
)

// SegmentationConfig configures an ONNX local-speaker segmentation model
// adapter. The model is expected to consume one chunk of mono float32
// samples and emit a [1, T, K] activity tensor (T local frames, K local
// speaker slots), the same shape the segmentation decoder (§4.3) decodes.
type SegmentationConfig struct {
	ModelPath   string
	SampleRate  int
	FrameStride float64 // seconds per output frame, e.g. 0.01 for 10ms
}

// DefaultSegmentationConfig returns a 16kHz, 10ms-frame configuration.
func DefaultSegmentationConfig(modelPath string) SegmentationConfig {
	return SegmentationConfig{ModelPath: modelPath, SampleRate: 16000, FrameStride: 0.01}
}

// OnnxSegmentationModel implements diarization.SegmentationModel over an
// ONNX Runtime session, mirroring the speaker-embedding adapter's
// input/output-name discovery and tensor lifecycle.
type OnnxSegmentationModel struct {
	config  SegmentationConfig
	session *ort.DynamicAdvancedSession
	mu      sync.Mutex
}

// NewOnnxSegmentationModel loads the model at config.ModelPath.
func NewOnnxSegmentationModel(config SegmentationConfig) (*OnnxSegmentationModel, error) {
	if _, err := os.Stat(config.ModelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("segmentation model file not found: %s", config.ModelPath)
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
		return nil, fmt.Errorf("failed to create segmentation session: %w", err)
	}

	return &OnnxSegmentationModel{config: config, session: session}, nil
}

// Segment runs chunk through the model and reshapes its [1, T, K] output
// into a SegmentationFrame.
func (m *OnnxSegmentationModel) Segment(chunk []float32) (diarization.SegmentationFrame, error) {
	inputShape := ort.NewShape(1, int64(len(chunk)))
	inputTensor, err := ort.NewTensor(inputShape, chunk)
	if err != nil {
		return diarization.SegmentationFrame{}, fmt.Errorf("failed to create input tensor: %w", err)
	}
	defer inputTensor.Destroy()

	m.mu.Lock()
	outputs := []ort.Value{nil}
	err = m.session.Run([]ort.Value{inputTensor}, outputs)
	m.mu.Unlock()
	if err != nil {
		return diarization.SegmentationFrame{}, fmt.Errorf("segmentation inference failed: %w", err)
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
		return diarization.SegmentationFrame{}, fmt.Errorf("unexpected segmentation output tensor type")
	}
	shape := outputTensor.GetShape()
	if len(shape) != 3 {
		return diarization.SegmentationFrame{}, fmt.Errorf("unexpected segmentation output rank %d, want 3", len(shape))
	}
	numFrames := int(shape[1])
	numSlots := int(shape[2])
	data := outputTensor.GetData()

	activity := make([][]float64, numFrames)
	for t := 0; t < numFrames; t++ {
		row := make([]float64, numSlots)
		for k := 0; k < numSlots; k++ {
			row[k] = float64(data[t*numSlots+k])
		}
		activity[t] = row
	}

	return diarization.SegmentationFrame{Activity: activity, FrameStride: m.config.FrameStride}, nil
}

// Close releases the ONNX session.
func (m *OnnxSegmentationModel) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session != nil {
		m.session.Destroy()
		m.session = nil
	}
}
