//go:build !windows

package onnxruntime

import (
	"runtime"

	"github.com/ebitengine/purego"

	"github.com/benedoc-inc/ortsession/internal/cstrings"
)

func defaultLibraryName() string {
	if runtime.GOOS == "darwin" {
		return "libonnxruntime.dylib"
	}
	return "libonnxruntime.so"
}

func openLibrary(path string) (uintptr, error) {
	return purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
}

func lookupSymbol(handle uintptr, name string) (uintptr, error) {
	return purego.Dlsym(handle, name)
}

func closeLibrary(handle uintptr) error {
	return purego.Dlclose(handle)
}

// nativePath encodes a filesystem path as the backend's ORTCHAR_T string.
func nativePath(path string) ([]byte, error) {
	return cstrings.CString(path), nil
}
