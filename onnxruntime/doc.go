// Package onnxruntime runs single-input models through the ONNX Runtime C API,
// loaded at run time with purego instead of cgo.
//
// A Runtime owns the shared library, the process-wide environment and the CPU
// memory info. Models are loaded through it and walk a fixed lifecycle:
//
//	Uninitialized → EnvironmentReady → SessionLoaded → MetadataResolved
//	  → InputBound → Invoked → Interpreted → (next run) … → Released
//
// Every native handle is recorded in a Registry and released exactly once,
// in reverse acquisition order, whichever step fails. Inputs are bound
// without copying: the caller's buffer is pinned for as long as the tensor
// handle lives. Outputs are read into a Result whose Kind tells a dense
// float tensor, a dense label tensor and a sequence of label→probability
// maps apart.
//
// The lower-level steps (Session.Inspect, Runtime.Bind, Session.Invoke and
// Runtime.Interpret) are exported for callers that manage registries
// themselves; Model and ModelPool wrap them for the common case.
package onnxruntime
