// Package cstrings converts between Go strings and NUL-terminated C strings
// handed across the purego boundary.
package cstrings

import "unsafe"

// CStringToString converts a C-style null-terminated string to a Go string.
func CStringToString(ptr *byte) string {
	if ptr == nil {
		return ""
	}
	var length int
	for *(*byte)(unsafe.Add(unsafe.Pointer(ptr), length)) != 0 {
		length++
	}
	return string(unsafe.Slice(ptr, length))
}

// CString returns a NUL-terminated copy of s. The caller keeps the slice
// alive for as long as the native side may read it.
func CString(s string) []byte {
	return append([]byte(s), 0)
}
