package embedding

import (
	"fmt"
	"os"

	"github.com/hyperjump/kura/internal/models"
)

// Tensor names of a BERT-style sentence embedding export.
var (
	onnxInputNames  = []string{"input_ids", "attention_mask", "token_type_ids"}
	onnxOutputNames = []string{"output"}
)

// checkONNXModel validates provider settings before the runtime is loaded.
func checkONNXModel(modelPath string, dimensions, maxTokens int) error {
	if modelPath == "" {
		return fmt.Errorf("%w: onnx provider needs a model path", models.ErrConfig)
	}
	if dimensions <= 0 || maxTokens <= 0 {
		return fmt.Errorf("%w: onnx dimensions and max tokens must be positive, got %d and %d",
			models.ErrConfig, dimensions, maxTokens)
	}
	info, err := os.Stat(modelPath)
	if err != nil {
		return fmt.Errorf("%w: onnx model: %w", models.ErrConfig, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: onnx model %s is not a regular file", models.ErrConfig, modelPath)
	}
	return nil
}
