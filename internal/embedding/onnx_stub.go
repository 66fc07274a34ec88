//go:build !cgo

package embedding

import (
	"context"
	"fmt"

	"github.com/hyperjump/kura/internal/models"
)

// ONNXClient is unavailable without CGO; NewONNXClient always fails.
type ONNXClient struct{}

var errONNXUnavailable = fmt.Errorf("onnx not available")

// NewONNXClient validates its arguments, then reports that the build lacks ONNX support.
func NewONNXClient(modelPath string, dimensions, maxTokens int) (*ONNXClient, error) {
	if err := checkONNXModel(modelPath, dimensions, maxTokens); err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("%w: onnx provider requires CGO; build with CGO_ENABLED=1 and onnxruntime", models.ErrConfig)
}

func (e *ONNXClient) EmbedDocuments(context.Context, []string) ([][]float32, error) {
	return nil, models.NewProviderError(providerONNX, false, errONNXUnavailable)
}

func (e *ONNXClient) EmbedQuery(context.Context, string) ([]float32, error) {
	return nil, models.NewProviderError(providerONNX, false, errONNXUnavailable)
}

func (e *ONNXClient) Dimensions() int { return 0 }

func (e *ONNXClient) Close() error { return nil }
