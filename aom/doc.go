// aom/doc.go

// Package aom exposes the libaom C declarations to Go.
//
// aom.go and zaom_cgo.go are generated by aom-sys for the link mode
// selected at generation time (see `aom-sys mode`). The cgo preamble in
// zaom_cgo.go includes aom.h, so files in this package can call the
// libaom API as C.aom_*; CodecVersionStr reports the linked version.
package aom

//go:generate go run ../cmd/aom-sys generate --root ..
