//go:build cgo

package embedding

import (
	"context"
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/hyperjump/kura/internal/models"
)

// ONNXClient runs a local sentence-embedding model with ONNX Runtime. It requires CGO
// and the onnxruntime shared library.
type ONNXClient struct {
	mu         sync.Mutex
	session    *ort.AdvancedSession
	tensors    *onnxTensors
	tokenizer  Tokenizer
	dimensions int
	maxTokens  int
}

// onnxTensors are bound to the session once and rewritten for every run.
type onnxTensors struct {
	inputIDs      *ort.Tensor[int64]
	attentionMask *ort.Tensor[int64]
	tokenTypeIDs  *ort.Tensor[int64]
	output        *ort.Tensor[float32]
}

func newONNXTensors(maxTokens, dimensions int) (*onnxTensors, error) {
	t := &onnxTensors{}
	in := ort.NewShape(1, int64(maxTokens))
	var err error
	if t.inputIDs, err = ort.NewEmptyTensor[int64](in); err == nil {
		if t.attentionMask, err = ort.NewEmptyTensor[int64](in); err == nil {
			if t.tokenTypeIDs, err = ort.NewEmptyTensor[int64](in); err == nil {
				t.output, err = ort.NewEmptyTensor[float32](ort.NewShape(1, int64(dimensions)))
			}
		}
	}
	if err != nil {
		t.destroy()
		return nil, fmt.Errorf("allocate onnx tensors: %w", err)
	}
	return t, nil
}

func (t *onnxTensors) inputs() []ort.ArbitraryTensor {
	return []ort.ArbitraryTensor{t.inputIDs, t.attentionMask, t.tokenTypeIDs}
}

func (t *onnxTensors) destroy() {
	if t.inputIDs != nil {
		_ = t.inputIDs.Destroy()
	}
	if t.attentionMask != nil {
		_ = t.attentionMask.Destroy()
	}
	if t.tokenTypeIDs != nil {
		_ = t.tokenTypeIDs.Destroy()
	}
	if t.output != nil {
		_ = t.output.Destroy()
	}
	*t = onnxTensors{}
}

// NewONNXClient loads the model at modelPath. The runtime environment is initialized on first use.
func NewONNXClient(modelPath string, dimensions, maxTokens int) (*ONNXClient, error) {
	if err := checkONNXModel(modelPath, dimensions, maxTokens); err != nil {
		return nil, err
	}
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("%w: initialize onnx runtime: %w", models.ErrConfig, err)
		}
	}

	tensors, err := newONNXTensors(maxTokens, dimensions)
	if err != nil {
		return nil, err
	}
	session, err := ort.NewAdvancedSession(modelPath, onnxInputNames, onnxOutputNames,
		tensors.inputs(), []ort.ArbitraryTensor{tensors.output}, nil)
	if err != nil {
		tensors.destroy()
		return nil, fmt.Errorf("%w: load onnx model %s: %w", models.ErrConfig, modelPath, err)
	}
	return &ONNXClient{
		session:    session,
		tensors:    tensors,
		tokenizer:  &SimpleTokenizer{},
		dimensions: dimensions,
		maxTokens:  maxTokens,
	}, nil
}

// EmbedDocuments runs inference for each text in order.
func (e *ONNXClient) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		vec, err := e.embed(text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

// EmbedQuery runs inference for a single query.
func (e *ONNXClient) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return e.embed(text)
}

// Runs are serialized because the session tensors are shared.
func (e *ONNXClient) embed(text string) ([]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return nil, models.NewProviderError(providerONNX, false, fmt.Errorf("session closed"))
	}

	ids, mask, types := e.tokenizer.Tokenize(text, e.maxTokens)
	copy(e.tensors.inputIDs.GetData(), ids)
	copy(e.tensors.attentionMask.GetData(), mask)
	copy(e.tensors.tokenTypeIDs.GetData(), types)

	if err := e.session.Run(); err != nil {
		return nil, models.NewProviderError(providerONNX, false, fmt.Errorf("inference: %w", err))
	}
	vec := append([]float32(nil), e.tensors.output.GetData()[:e.dimensions]...)
	NormalizeL2Slice(vec)
	return vec, nil
}

// Dimensions returns the embedding dimension.
func (e *ONNXClient) Dimensions() int {
	return e.dimensions
}

// Close destroys the session and its tensors. Later calls fail with a ProviderError.
func (e *ONNXClient) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return nil
	}
	err := e.session.Destroy()
	e.session = nil
	e.tensors.destroy()
	return err
}
