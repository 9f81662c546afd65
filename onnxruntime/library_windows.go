//go:build windows

package onnxruntime

import (
	"syscall"
	"unsafe"
)

func defaultLibraryName() string {
	return "onnxruntime.dll"
}

func openLibrary(path string) (uintptr, error) {
	h, err := syscall.LoadLibrary(path)
	if err != nil {
		return 0, err
	}
	return uintptr(h), nil
}

func lookupSymbol(handle uintptr, name string) (uintptr, error) {
	return syscall.GetProcAddress(syscall.Handle(handle), name)
}

func closeLibrary(handle uintptr) error {
	return syscall.FreeLibrary(syscall.Handle(handle))
}

// nativePath encodes a filesystem path as the backend's ORTCHAR_T string,
// which is wchar_t on Windows. The returned bytes share memory with the
// NUL-terminated UTF-16 buffer.
func nativePath(path string) ([]byte, error) {
	u, err := syscall.UTF16FromString(path)
	if err != nil {
		return nil, err
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&u[0])), len(u)*2), nil
}
