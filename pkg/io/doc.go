// Package io reads and writes embedding coordinate files.
//
// # Format
//
// A coordinate file holds one vertex per line, in dense index order, with two
// floating-point values separated by a comma or by whitespace:
//
//	0.12 -0.5
//	0.3,0.01
//
// Blank lines are ignored. Any other line that does not contain exactly two
// finite floats is a PARSE_ERROR naming the 1-based line number.
//
// [WriteCoords] always writes space-separated values formatted with %.17g, so
// [ReadCoords] reproduces every float64 bit for bit:
//
//	err := io.ExportCoords("embedding.txt", xy)
//	xy, err := io.ImportCoords("embedding.txt")
//
// The coordinate matrix is the n×2 matrix returned by embed.Embedding.Axes.
package io
