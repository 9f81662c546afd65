package onnxruntime

import "fmt"

// OutputKind tags how an output value was interpreted.
type OutputKind int

const (
	// OutputKindDenseFloat is a tensor of floating-point scores.
	OutputKindDenseFloat OutputKind = iota + 1
	// OutputKindDenseLabel is a tensor of integer labels.
	OutputKindDenseLabel
	// OutputKindLabelProbabilitySequence is the probability side of the
	// first label→probability map in a sequence output.
	OutputKindLabelProbabilitySequence
)

func (k OutputKind) String() string {
	switch k {
	case OutputKindDenseFloat:
		return "DenseFloat"
	case OutputKindDenseLabel:
		return "DenseLabel"
	case OutputKindLabelProbabilitySequence:
		return "LabelProbabilitySequence"
	default:
		return fmt.Sprintf("OutputKind(%d)", int(k))
	}
}

// Result is the uniform form of one inference output. Values holds every
// element widened to float64 and is owned by the caller; it stays valid
// after Close.
type Result struct {
	Kind OutputKind

	// ElementType is the element type of the tensor the values were read from.
	ElementType ONNXTensorElementDataType

	// Shape is the shape of the tensor the values were read from.
	Shape []int64

	Values []float64

	// SequenceLength is the number of maps in a sequence output, of which
	// only the first is read. Zero for dense outputs.
	SequenceLength int

	scope *Registry
}

// Count returns the number of values.
func (r *Result) Count() int {
	return len(r.Values)
}

// Labels returns the values of a DenseLabel result as integers, or nil for
// other kinds.
func (r *Result) Labels() []int64 {
	if r.Kind != OutputKindDenseLabel {
		return nil
	}
	labels := make([]int64, len(r.Values))
	for i, v := range r.Values {
		labels[i] = int64(v)
	}
	return labels
}

// ArgMax returns the index of the largest value, or -1 when empty.
func (r *Result) ArgMax() int {
	best := -1
	for i, v := range r.Values {
		if best < 0 || v > r.Values[best] {
			best = i
		}
	}
	return best
}

// Close releases the native handles of the inference cycle that produced
// the result. It is safe to call Close multiple times.
func (r *Result) Close() {
	if r.scope != nil {
		r.scope.ReleaseAll()
	}
}
