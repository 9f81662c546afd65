package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"

	ort "github.com/benedoc-inc/ortsession/onnxruntime"
)

// Output formats accepted by --format.
const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

// writeOutput encodes v as json or yaml, or calls text for the text format.
func writeOutput(w io.Writer, format string, v any, text func(io.Writer) error) error {
	switch format {
	case formatText, "":
		return text(w)
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q (want text, json or yaml)", format)
	}
}

// resultOutput is the encoded form of an inference result.
type resultOutput struct {
	Kind           string    `json:"kind" yaml:"kind"`
	ElementType    string    `json:"element_type" yaml:"element_type"`
	Shape          []int64   `json:"shape" yaml:"shape"`
	Values         []float64 `json:"values,omitempty" yaml:"values,omitempty"`
	Labels         []int64   `json:"labels,omitempty" yaml:"labels,omitempty"`
	SequenceLength int       `json:"sequence_length,omitempty" yaml:"sequence_length,omitempty"`
}

func newResultOutput(r *ort.Result) *resultOutput {
	out := &resultOutput{
		Kind:           r.Kind.String(),
		ElementType:    ort.ElementTypeName(r.ElementType),
		Shape:          r.Shape,
		SequenceLength: r.SequenceLength,
	}
	if labels := r.Labels(); labels != nil {
		out.Labels = labels
	} else {
		out.Values = r.Values
	}
	return out
}

func writeResult(w io.Writer, format string, r *ort.Result) error {
	return writeOutput(w, format, newResultOutput(r), func(w io.Writer) error {
		var b strings.Builder
		switch r.Kind {
		case ort.OutputKindDenseLabel:
			b.WriteString("Inference Result (labels):")
			for _, l := range r.Labels() {
				fmt.Fprintf(&b, " %d", l)
			}
		case ort.OutputKindLabelProbabilitySequence:
			fmt.Fprintf(&b, "Inference Result (probabilities, map 1 of %d):", r.SequenceLength)
			for _, v := range r.Values {
				fmt.Fprintf(&b, " %f", v)
			}
		default:
			b.WriteString("Inference Result:")
			for _, v := range r.Values {
				fmt.Fprintf(&b, " %f", v)
			}
		}
		b.WriteByte('\n')
		_, err := io.WriteString(w, b.String())
		return err
	})
}

// parseValues parses numbers separated by commas or whitespace.
func parseValues(s string) ([]float64, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
	if len(fields) == 0 {
		return nil, fmt.Errorf("no input values")
	}

	values := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("input value %d: %w", i, err)
		}
		values[i] = v
	}
	return values, nil
}

// readValues reads input values from a file: a JSON array when the file
// ends in .json, otherwise numbers separated by commas or whitespace.
// "-" reads stdin.
func readValues(path string, stdin io.Reader) ([]float64, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}

	if strings.EqualFold(filepath.Ext(path), ".json") {
		var values []float64
		if err := json.Unmarshal(data, &values); err != nil {
			return nil, fmt.Errorf("decoding input %s: %w", path, err)
		}
		if len(values) == 0 {
			return nil, fmt.Errorf("no input values in %s", path)
		}
		return values, nil
	}
	return parseValues(string(data))
}
