// Command lsvault catalogs photo collections, groups duplicates and keeps a
// deduplicated, content-addressed vault of the best copy of each image.
//
// Typical flow:
//
//	lsvault add ~/Pictures
//	lsvault scan
//	lsvault groups
//	lsvault vault set /Volumes/Archive/vault
//	lsvault vault save
package main
