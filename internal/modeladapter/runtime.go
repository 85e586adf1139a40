package modeladapter

import (
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

var (
	runtimeOnce sync.Once
	runtimeErr  error
)

// ensureRuntimeInitialized initializes the ONNX Runtime environment exactly
// once per process, regardless of how many model adapters are constructed.
func ensureRuntimeInitialized() error {
	runtimeOnce.Do(func() {
		if ort.IsInitialized() {
			return
		}
		runtimeErr = ort.InitializeEnvironment()
	})
	if runtimeErr != nil {
		return fmt.Errorf("failed to initialize ONNX Runtime: %w", runtimeErr)
	}
	return nil
}

// sessionIONames discovers a model's input/output tensor names so the
// caller doesn't have to hardcode them.
func sessionIONames(modelPath string) (inputs, outputs []string, err error) {
	inputInfo, outputInfo, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read model IO info: %w", err)
	}
	inputs = make([]string, len(inputInfo))
	for i, info := range inputInfo {
		inputs[i] = info.Name
	}
	outputs = make([]string, len(outputInfo))
	for i, info := range outputInfo {
		outputs[i] = info.Name
	}
	return inputs, outputs, nil
}
