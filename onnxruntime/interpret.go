package onnxruntime

import (
	"fmt"

	"github.com/benedoc-inc/ortsession/onnxruntime/internal/api"
)

// Interpret reads an output value into a Result. Every intermediate handle
// (type info, shape info, sequence and map elements) is registered in reg;
// Interpret never releases a handle itself.
//
//   - tensor of integers: DenseLabel
//   - tensor of float, double, float16 or bfloat16: DenseFloat
//   - sequence whose first element is a map: the map's values, as
//     LabelProbabilitySequence
//
// Anything else fails with ErrUnsupportedOutputType.
func (r *Runtime) Interpret(reg *Registry, out *Handle) (*Result, error) {
	p, err := out.Ptr()
	if err != nil {
		return nil, err
	}
	v := api.OrtValue(p)

	onnxType, err := r.valueType(reg, v)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedOutputType, err)
	}

	switch onnxType {
	case ONNXTypeTensor:
		return r.interpretTensor(reg, v)
	case ONNXTypeSequence:
		return r.interpretSequence(reg, v)
	default:
		return nil, fmt.Errorf("%w: output is a %s", ErrUnsupportedOutputType, ONNXTypeName(onnxType))
	}
}

func (r *Runtime) interpretTensor(reg *Registry, v api.OrtValue) (*Result, error) {
	tc, err := r.readTensor(reg, v)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedOutputType, err)
	}

	var kind OutputKind
	switch {
	case isIntegerType(tc.elemType):
		kind = OutputKindDenseLabel
	case isFloatType(tc.elemType):
		kind = OutputKindDenseFloat
	default:
		return nil, fmt.Errorf("%w: tensor of %s", ErrUnsupportedOutputType, ElementTypeName(tc.elemType))
	}

	return &Result{
		Kind:        kind,
		ElementType: tc.elemType,
		Shape:       tc.shape,
		Values:      tc.values,
	}, nil
}

// interpretSequence reads the values of the first map in a sequence of maps.
// Later sequence entries are ignored.
func (r *Runtime) interpretSequence(reg *Registry, seq api.OrtValue) (*Result, error) {
	n, err := r.sequenceLength(seq)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedOutputType, err)
	}
	if n < 1 {
		return nil, fmt.Errorf("%w: empty sequence", ErrUnsupportedOutputType)
	}

	m, err := r.element(reg, seq, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedOutputType, err)
	}
	kind, err := r.valueKind(m)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedOutputType, err)
	}
	if kind != ONNXTypeMap {
		return nil, fmt.Errorf("%w: sequence of %s", ErrUnsupportedOutputType, ONNXTypeName(kind))
	}

	values, err := r.mapValues(reg, m)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedOutputType, err)
	}
	tc, err := r.readTensor(reg, values)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read map values: %w", ErrUnsupportedOutputType, err)
	}
	if !isFloatType(tc.elemType) && !isIntegerType(tc.elemType) {
		return nil, fmt.Errorf("%w: map of %s values", ErrUnsupportedOutputType, ElementTypeName(tc.elemType))
	}

	return &Result{
		Kind:           OutputKindLabelProbabilitySequence,
		ElementType:    tc.elemType,
		Shape:          tc.shape,
		Values:         tc.values,
		SequenceLength: n,
	}, nil
}
