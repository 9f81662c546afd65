package onnxruntime

import (
	"errors"
	"testing"

	"github.com/benedoc-inc/ortsession/onnxruntime/internal/fakeort"
)

func TestModelMetadata(t *testing.T) {
	rt, backend := newFakeRuntime(t)
	session, _ := newTestSession(t, rt, regressionPath)

	metadata, err := session.ModelMetadata()
	if err != nil {
		t.Fatalf("Failed to get model metadata: %v", err)
	}

	if metadata.ProducerName != "skl2onnx" {
		t.Errorf("ProducerName = %q, want skl2onnx", metadata.ProducerName)
	}
	if metadata.GraphName != "LinearRegression" {
		t.Errorf("GraphName = %q, want LinearRegression", metadata.GraphName)
	}
	if metadata.Domain != "ai.onnx" {
		t.Errorf("Domain = %q, want ai.onnx", metadata.Domain)
	}
	if metadata.Version != 3 {
		t.Errorf("Version = %d, want 3", metadata.Version)
	}
	if got := metadata.CustomMetadata["task"]; got != "regression" {
		t.Errorf("CustomMetadata[task] = %q, want regression", got)
	}
	if len(metadata.CustomMetadata) != 2 {
		t.Errorf("CustomMetadata has %d keys, want 2", len(metadata.CustomMetadata))
	}

	if n := backend.OutstandingByKind()["ModelMetadata"]; n != 0 {
		t.Errorf("%d metadata handles still live", n)
	}
	if n := backend.OutstandingAllocations(); n != 0 {
		t.Errorf("%d metadata strings not freed", n)
	}
}

func TestModelMetadataEmptyCustomMap(t *testing.T) {
	rt, _ := newFakeRuntime(t)
	session, _ := newTestSession(t, rt, classifierPath)

	metadata, err := session.ModelMetadata()
	if err != nil {
		t.Fatalf("Failed to get model metadata: %v", err)
	}
	if metadata.CustomMetadata == nil {
		t.Error("CustomMetadata map should not be nil")
	}
}

func TestModelMetadataFailure(t *testing.T) {
	rt, backend := newFakeRuntime(t)
	session, _ := newTestSession(t, rt, regressionPath)

	backend.FailOnce("ModelMetadataGetGraphName", fakeort.CodeFail, "graph name unavailable")
	_, err := session.ModelMetadata()
	if !errors.Is(err, ErrMetadata) {
		t.Fatalf("expected ErrMetadata, got %v", err)
	}
	if n := backend.OutstandingByKind()["ModelMetadata"]; n != 0 {
		t.Errorf("%d metadata handles leaked on failure", n)
	}
	if n := backend.OutstandingAllocations(); n != 0 {
		t.Errorf("%d strings leaked on failure", n)
	}
}

func TestModelMetadataClosedSession(t *testing.T) {
	rt, _ := newFakeRuntime(t)
	session, _ := newTestSession(t, rt, regressionPath)
	session.Close()

	_, err := session.ModelMetadata()
	if !errors.Is(err, ErrUseAfterRelease) {
		t.Errorf("expected ErrUseAfterRelease, got %v", err)
	}
}
