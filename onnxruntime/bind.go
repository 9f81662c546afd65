package onnxruntime

import (
	"fmt"
	goruntime "runtime"
	"slices"
	"unsafe"

	"github.com/benedoc-inc/ortsession/internal/cstrings"
	"github.com/benedoc-inc/ortsession/onnxruntime/internal/api"
)

// BoundInput is a tensor created over a caller-owned buffer. The buffer is
// not copied; it must stay unmodified until the input's handle is released.
type BoundInput struct {
	Name       string
	Descriptor TensorDescriptor

	handle *Handle
	cname  []byte
}

// Handle returns the registry handle of the tensor value.
func (b *BoundInput) Handle() *Handle {
	return b.handle
}

// Bind wraps byteLen bytes at buf into a tensor described by desc and
// registers the tensor in reg. byteLen must equal desc.ByteSize().
//
// Go memory behind buf is pinned until the handle is released.
func (r *Runtime) Bind(reg *Registry, name string, desc TensorDescriptor, buf unsafe.Pointer, byteLen uintptr) (*BoundInput, error) {
	if i := slices.IndexFunc(desc.Shape, func(d int64) bool { return d <= 0 }); i >= 0 {
		return nil, fmt.Errorf("%w: dimension %d of %s is unresolved", ErrShapeMismatch, i, desc)
	}

	want, ok := desc.byteSize()
	switch {
	case !ok:
		return nil, fmt.Errorf("%w: size of %s overflows", ErrShapeMismatch, desc)
	case want == 0:
		return nil, fmt.Errorf("%w: cannot bind %s: element type has no fixed size", ErrShapeMismatch, desc)
	case byteLen != want:
		return nil, fmt.Errorf("%w: buffer of %d bytes does not match %s (%d bytes)", ErrShapeMismatch, byteLen, desc, want)
	case buf == nil:
		return nil, fmt.Errorf("%w: nil buffer for %s", ErrShapeMismatch, desc)
	}

	miPtr, err := r.cpuMemoryInfo.ptr()
	if err != nil {
		return nil, err
	}

	shape := slices.Clone(desc.Shape)
	var shapePtr *int64
	if len(shape) > 0 {
		shapePtr = &shape[0]
	}

	pinner := new(goruntime.Pinner)
	pinner.Pin(buf)

	var valuePtr api.OrtValue
	status := r.apiFuncs.CreateTensorWithDataAsOrtValue(miPtr, buf, byteLen, shapePtr, uintptr(len(shape)), desc.ElementType, &valuePtr)
	if err := r.statusError(status); err != nil {
		pinner.Unpin()
		return nil, fmt.Errorf("%w: failed to create tensor %s: %w", ErrShapeMismatch, desc, err)
	}

	h, err := reg.Acquire(HandleKindValue, uintptr(valuePtr), func(p uintptr) {
		r.apiFuncs.ReleaseValue(api.OrtValue(p))
		pinner.Unpin()
	})
	if err != nil {
		return nil, err
	}

	return &BoundInput{
		Name:       name,
		Descriptor: TensorDescriptor{ElementType: desc.ElementType, Shape: shape},
		handle:     h,
		cname:      cstrings.CString(name),
	}, nil
}

// BindSlice binds data as a tensor described by desc. The Go element type
// must match desc.ElementType and len(data) must equal desc.ElementCount().
func BindSlice[T TensorData](r *Runtime, reg *Registry, name string, desc TensorDescriptor, data []T) (*BoundInput, error) {
	if et := elementTypeOf[T](); et != desc.ElementType {
		return nil, fmt.Errorf("%w: %s data cannot be bound as %s", ErrShapeMismatch, ElementTypeName(et), desc)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input for %s", ErrShapeMismatch, desc)
	}

	var zero T
	byteLen := uintptr(len(data)) * unsafe.Sizeof(zero)
	return r.Bind(reg, name, desc, unsafe.Pointer(unsafe.SliceData(data)), byteLen)
}
