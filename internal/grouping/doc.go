// Package grouping clusters photos into duplicate groups.
//
// The similarity graph is never materialized as objects. Photos are sorted by
// id and addressed by index, and connectivity lives in a DisjointSet made of
// two flat arrays (parent and rank). Exact duplicates are found through a
// content-hash index in linear time; perceptual comparison only runs between
// distinct fingerprints from different content hashes.
//
// Edges are applied strongest first, so a group's confidence is the weakest
// edge on the strongest chain connecting its members. The result depends
// only on the input set, never on input order or worker count.
package grouping
