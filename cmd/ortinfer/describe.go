package main

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"text/tabwriter"

	ort "github.com/benedoc-inc/ortsession/onnxruntime"
)

type tensorDescription struct {
	Name        string  `json:"name" yaml:"name"`
	Type        string  `json:"type" yaml:"type"`
	ElementType string  `json:"element_type,omitempty" yaml:"element_type,omitempty"`
	Shape       []int64 `json:"shape,omitempty" yaml:"shape,omitempty"`
}

type metadataDescription struct {
	ProducerName string            `json:"producer_name" yaml:"producer_name"`
	GraphName    string            `json:"graph_name" yaml:"graph_name"`
	Domain       string            `json:"domain,omitempty" yaml:"domain,omitempty"`
	Description  string            `json:"description,omitempty" yaml:"description,omitempty"`
	Version      int64             `json:"version" yaml:"version"`
	Custom       map[string]string `json:"custom,omitempty" yaml:"custom,omitempty"`
}

// description is what `ortinfer inspect` reports about a model.
type description struct {
	Path          string               `json:"path" yaml:"path"`
	Input         string               `json:"input" yaml:"input"`
	InputShape    []int64              `json:"input_shape" yaml:"input_shape"`
	DeclaredShape []int64              `json:"declared_shape" yaml:"declared_shape"`
	ElementType   string               `json:"element_type" yaml:"element_type"`
	Output        string               `json:"output" yaml:"output"`
	OutputIndex   int                  `json:"output_index" yaml:"output_index"`
	Inputs        []tensorDescription  `json:"inputs" yaml:"inputs"`
	Outputs       []tensorDescription  `json:"outputs" yaml:"outputs"`
	Metadata      *metadataDescription `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

func describeModel(m *ort.Model) (*description, error) {
	spec := m.IOSpec()
	d := &description{
		Path:          m.Path(),
		Input:         spec.InputName,
		InputShape:    spec.Input.Shape,
		DeclaredShape: spec.DeclaredShape,
		ElementType:   ort.ElementTypeName(spec.Input.ElementType),
		Output:        spec.OutputName,
		OutputIndex:   spec.OutputIndex,
	}

	session := m.Session()
	inputs, err := session.InputInfo()
	if err != nil {
		return nil, fmt.Errorf("reading input info: %w", err)
	}
	outputs, err := session.OutputInfo()
	if err != nil {
		return nil, fmt.Errorf("reading output info: %w", err)
	}
	d.Inputs = describeIO(inputs)
	d.Outputs = describeIO(outputs)

	md, err := session.ModelMetadata()
	if err != nil {
		return nil, fmt.Errorf("reading model metadata: %w", err)
	}
	d.Metadata = &metadataDescription{
		ProducerName: md.ProducerName,
		GraphName:    md.GraphName,
		Domain:       md.Domain,
		Description:  md.Description,
		Version:      md.Version,
		Custom:       md.CustomMetadata,
	}
	return d, nil
}

func describeIO(infos []ort.IOInfo) []tensorDescription {
	out := make([]tensorDescription, len(infos))
	for i, info := range infos {
		out[i] = tensorDescription{Name: info.Name, Type: ort.ONNXTypeName(info.Type)}
		if info.TensorInfo != nil {
			out[i].ElementType = ort.ElementTypeName(info.TensorInfo.ElementType)
			out[i].Shape = info.TensorInfo.Shape
		}
	}
	return out
}

func writeDescription(w io.Writer, format string, d *description) error {
	return writeOutput(w, format, d, func(w io.Writer) error {
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintf(tw, "Model:\t%s\n", d.Path)
		fmt.Fprintf(tw, "Input:\t%s %s %v (declared %v)\n", d.Input, d.ElementType, d.InputShape, d.DeclaredShape)
		fmt.Fprintf(tw, "Output:\t%s (index %d)\n", d.Output, d.OutputIndex)
		for _, t := range d.Inputs {
			fmt.Fprintf(tw, "  in\t%s\t%s\t%s\t%v\n", t.Name, t.Type, t.ElementType, t.Shape)
		}
		for _, t := range d.Outputs {
			fmt.Fprintf(tw, "  out\t%s\t%s\t%s\t%v\n", t.Name, t.Type, t.ElementType, t.Shape)
		}
		if md := d.Metadata; md != nil {
			fmt.Fprintf(tw, "Producer:\t%s\n", md.ProducerName)
			fmt.Fprintf(tw, "Graph:\t%s\n", md.GraphName)
			fmt.Fprintf(tw, "Version:\t%d\n", md.Version)
			for _, k := range slices.Sorted(maps.Keys(md.Custom)) {
				fmt.Fprintf(tw, "  %s\t%s\n", k, md.Custom[k])
			}
		}
		return tw.Flush()
	})
}
