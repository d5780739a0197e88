//go:build cgo

// Package: main
// File: capi.go
// Description: C-compatible API for Python bindings using cgo.
//
// Exported functions take the same JSON body as the HTTP endpoints and return
// the same JSON document, so ctypes callers need no extra schema.
//
// Author: Ivan Grega
// License: MIT

package main

/*
#include <stdlib.h>
*/
import "C"
import (
	"context"
	"unsafe"
)

// libConfig is loaded once from $BZ_CONFIG, or the defaults.
var libConfig = loadLibConfig(configFromEnv())

func callJSON(endpoint string, jsonParams *C.char) *C.char {
	ctx, cancel := context.WithTimeout(context.Background(), libConfig.RequestTimeout.Duration)
	defer cancel()
	out, _ := handleJSON(ctx, endpoint, []byte(C.GoString(jsonParams)), libConfig)
	return C.CString(string(out))
}

// CalculateLattice returns the reciprocal vectors and the display point cloud.
// Memory is allocated using C.malloc and must be freed with FreeString.
//
//export CalculateLattice
func CalculateLattice(jsonParams *C.char) *C.char {
	return callJSON("lattice", jsonParams)
}

// CalculateBrillouinZone returns the triangulated first Brillouin zone.
// Memory is allocated using C.malloc and must be freed with FreeString.
//
//export CalculateBrillouinZone
func CalculateBrillouinZone(jsonParams *C.char) *C.char {
	return callJSON("brillouin", jsonParams)
}

// FreeString frees a C string returned by this library.
//
//export FreeString
func FreeString(str *C.char) {
	C.free(unsafe.Pointer(str))
}
