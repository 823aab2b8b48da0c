// Package bdsf provides the per-image data container and processing
// chain for blob detection and source finding on radio images.
//
// An Image aggregates the pixel data, header, mask, user options and
// every intermediate product created by the processing ops. Large
// array products ("maps") are read and written through GetMap/PutMap,
// which transparently spill to disk when caching is enabled. The
// Process driver runs the op chain in prerequisite order, skipping ops
// already completed for the current option set.
//
// All methods return errors; nothing is printed from this package. The
// interactive presentation (print-and-continue instead of propagate)
// lives with the caller, typically the bdsf command.
package bdsf
