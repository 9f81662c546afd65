package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	ort "github.com/benedoc-inc/ortsession/onnxruntime"
)

func TestParseValues(t *testing.T) {
	tests := []struct {
		in      string
		want    []float64
		wantErr bool
	}{
		{in: "1,2,3,4", want: []float64{1, 2, 3, 4}},
		{in: "1 2\t3\n4", want: []float64{1, 2, 3, 4}},
		{in: " 0.5, -1e3 ,", want: []float64{0.5, -1000}},
		{in: "", wantErr: true},
		{in: " , ", wantErr: true},
		{in: "1,two", wantErr: true},
	}

	for _, tt := range tests {
		got, err := parseValues(tt.in)
		if tt.wantErr {
			assert.Error(t, err, "input %q", tt.in)
			continue
		}
		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestReadValues(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "row.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte("[5.1, 3.5, 1.4, 0.2]"), 0o644))
	values, err := readValues(jsonPath, nil)
	require.NoError(t, err)
	assert.Equal(t, []float64{5.1, 3.5, 1.4, 0.2}, values)

	textPath := filepath.Join(dir, "row.txt")
	require.NoError(t, os.WriteFile(textPath, []byte("1 2\n3,4\n"), 0o644))
	values, err = readValues(textPath, nil)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3, 4}, values)

	values, err = readValues("-", strings.NewReader("7,8"))
	require.NoError(t, err)
	assert.Equal(t, []float64{7, 8}, values)

	emptyPath := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(emptyPath, []byte("[]"), 0o644))
	_, err = readValues(emptyPath, nil)
	assert.Error(t, err)

	_, err = readValues(filepath.Join(dir, "missing.txt"), nil)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestConvertValues(t *testing.T) {
	assert.Equal(t, []float32{1.5, -2}, convertValues[float32]([]float64{1.5, -2}))
	assert.Equal(t, []int64{1, -2}, convertValues[int64]([]float64{1.9, -2.9}))
	assert.Equal(t, []uint8{0, 200}, convertValues[uint8]([]float64{0, 200}))
}

func TestWriteResultText(t *testing.T) {
	tests := []struct {
		name   string
		result *ort.Result
		want   string
	}{
		{
			name:   "dense float",
			result: &ort.Result{Kind: ort.OutputKindDenseFloat, Values: []float64{0.5, 1}},
			want:   "Inference Result: 0.500000 1.000000\n",
		},
		{
			name:   "labels",
			result: &ort.Result{Kind: ort.OutputKindDenseLabel, Values: []float64{2, 0}},
			want:   "Inference Result (labels): 2 0\n",
		},
		{
			name: "probabilities",
			result: &ort.Result{
				Kind:           ort.OutputKindLabelProbabilitySequence,
				Values:         []float64{0.25, 0.75},
				SequenceLength: 3,
			},
			want: "Inference Result (probabilities, map 1 of 3): 0.250000 0.750000\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, writeResult(&buf, formatText, tt.result))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestWriteResultEncoded(t *testing.T) {
	result := &ort.Result{
		Kind:        ort.OutputKindDenseLabel,
		ElementType: ort.ONNXTensorElementDataTypeInt64,
		Shape:       []int64{2},
		Values:      []float64{1, 3},
	}

	var buf bytes.Buffer
	require.NoError(t, writeResult(&buf, formatJSON, result))
	var fromJSON resultOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &fromJSON))
	assert.Equal(t, "DenseLabel", fromJSON.Kind)
	assert.Equal(t, "int64", fromJSON.ElementType)
	assert.Equal(t, []int64{1, 3}, fromJSON.Labels)
	assert.Nil(t, fromJSON.Values)

	buf.Reset()
	require.NoError(t, writeResult(&buf, formatYAML, result))
	var fromYAML resultOutput
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &fromYAML))
	assert.Equal(t, *newResultOutput(result), fromYAML)
	assert.Contains(t, buf.String(), "kind: DenseLabel")

	assert.Error(t, writeResult(&buf, "xml", result))
}

func TestWriteDescription(t *testing.T) {
	d := &description{
		Path:          "iris.onnx",
		Input:         "float_input",
		InputShape:    []int64{1, 4},
		DeclaredShape: []int64{-1, 4},
		ElementType:   "float",
		Output:        "output_probability",
		OutputIndex:   1,
		Inputs:        []tensorDescription{{Name: "float_input", Type: "tensor", ElementType: "float", Shape: []int64{-1, 4}}},
		Outputs: []tensorDescription{
			{Name: "output_label", Type: "tensor", ElementType: "int64", Shape: []int64{-1}},
			{Name: "output_probability", Type: "sequence"},
		},
		Metadata: &metadataDescription{
			ProducerName: "skl2onnx",
			GraphName:    "pipeline",
			Version:      1,
			Custom:       map[string]string{"zeta": "z", "alpha": "a"},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, writeDescription(&buf, formatText, d))
	text := buf.String()
	assert.Contains(t, text, "float_input float [1 4] (declared [-1 4])")
	assert.Contains(t, text, "output_probability (index 1)")
	assert.Contains(t, text, "skl2onnx")
	assert.Less(t, strings.Index(text, "alpha"), strings.Index(text, "zeta"))

	buf.Reset()
	require.NoError(t, writeDescription(&buf, formatJSON, d))
	var decoded description
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, *d, decoded)
}
