package onnxruntime

import (
	"fmt"
	"slices"
)

// InspectOptions controls how dynamic dimensions are resolved.
type InspectOptions struct {
	// BatchSize replaces a dynamic leading dimension. Zero means 1.
	BatchSize int64
}

// IOSpec is the resolved I/O contract of a single-input model.
type IOSpec struct {
	InputName   string
	OutputName  string
	OutputIndex int

	// Input has every dynamic dimension replaced by a concrete size.
	Input TensorDescriptor

	// DeclaredShape is the input shape as the model declares it.
	DeclaredShape []int64
}

// Inspect resolves the session's input descriptor and the output to read.
//
// The session must have exactly one input and at least one output. When the
// model declares exactly two outputs the second is selected, matching the
// {labels, probabilities} layout of classifier models; otherwise the first.
func (s *Session) Inspect(opts InspectOptions) (*IOSpec, error) {
	inputCount, err := s.getInputCount()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMetadata, err)
	}
	outputCount, err := s.getOutputCount()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMetadata, err)
	}

	switch {
	case inputCount == 0:
		return nil, fmt.Errorf("%w: model declares no inputs", ErrMetadata)
	case outputCount == 0:
		return nil, fmt.Errorf("%w: model declares no outputs", ErrMetadata)
	case inputCount > 1:
		return nil, fmt.Errorf("%w: model declares %d inputs, only single-input models are supported", ErrMetadata, inputCount)
	case len(s.inputNames) != inputCount || len(s.outputNames) != outputCount:
		return nil, fmt.Errorf("%w: model reports %d inputs and %d outputs but %d and %d names",
			ErrMetadata, inputCount, outputCount, len(s.inputNames), len(s.outputNames))
	}

	outputIndex := 0
	if outputCount == 2 {
		outputIndex = 1
	}

	reg := NewRegistry()
	defer reg.ReleaseAll()

	info, err := s.getTypeInfo(reg, true, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read type of input %q: %w", ErrMetadata, s.inputNames[0], err)
	}
	if info.onnxType != ONNXTypeTensor || info.tensorInfo == nil {
		return nil, fmt.Errorf("%w: input %q is a %s, only tensor inputs are supported",
			ErrMetadata, s.inputNames[0], ONNXTypeName(info.onnxType))
	}
	if ElementSize(info.tensorInfo.ElementType) == 0 {
		return nil, fmt.Errorf("%w: input %q has unsupported element type %s",
			ErrMetadata, s.inputNames[0], ElementTypeName(info.tensorInfo.ElementType))
	}

	return &IOSpec{
		InputName:   s.inputNames[0],
		OutputName:  s.outputNames[outputIndex],
		OutputIndex: outputIndex,
		Input: TensorDescriptor{
			ElementType: info.tensorInfo.ElementType,
			Shape:       resolveShape(info.tensorInfo.Shape, opts.BatchSize),
		},
		DeclaredShape: slices.Clone(info.tensorInfo.Shape),
	}, nil
}

// resolveShape replaces non-positive dimensions with 1, or with batch for
// the leading dimension when batch is positive.
func resolveShape(declared []int64, batch int64) []int64 {
	shape := make([]int64, len(declared))
	for i, dim := range declared {
		switch {
		case dim > 0:
			shape[i] = dim
		case i == 0 && batch > 0:
			shape[i] = batch
		default:
			shape[i] = 1
		}
	}
	return shape
}
