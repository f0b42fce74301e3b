// Package hashing computes content hashes and perceptual fingerprints.
//
// Content hashes are streaming SHA-256 digests and serve as exact identity.
// Perceptual fingerprints are an average hash and a difference hash over a
// 9x8 luminance grid. Images are always decoded at native resolution and only
// then reduced to the grid; JPEG input is sampled from its full-resolution
// luma plane without touching chroma.
//
// Pool runs both hashes (plus optional metadata extraction) across a bounded
// set of workers and merges the results back into input order.
package hashing
